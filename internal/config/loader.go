package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the standard configuration file location.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "deskprof", "config.json"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration file at path. The file
// is the documented JSON format; since JSON is a YAML subset the strict YAML
// decoder handles it and also tolerates a hand-written YAML variant.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	var cfg Config
	if err := decodeStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	if cfg.Layout.Workspace == nil {
		cfg.Layout.Workspace = map[string]Directive{}
	}
	if cfg.Layout.Builtin == nil {
		cfg.Layout.Builtin = map[string]Directive{}
	}
	return &cfg, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

// Save writes cfg to path as indented JSON, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Store is the process-wide configuration cache: loaded once, reloaded only
// explicitly, and invalidated whenever the store itself rewrites the file.
// Snapshots handed out are treated as immutable by all callers.
type Store struct {
	mu     sync.RWMutex
	path   string
	cfg    *Config
	loaded bool
}

// NewStore creates a store over the given file path. An empty path resolves
// to the default location on first use.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the resolved config file path.
func (s *Store) Path() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvePathLocked()
}

func (s *Store) resolvePathLocked() (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	s.path = path
	return path, nil
}

// Config returns the cached snapshot, loading it on first call.
func (s *Store) Config() (*Config, error) {
	s.mu.RLock()
	if s.loaded {
		cfg := s.cfg
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()
	return s.Reload()
}

// Reload discards the cached snapshot and re-reads the file.
func (s *Store) Reload() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolvePathLocked()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	s.loaded = true
	return cfg, nil
}

// Save persists cfg and replaces the cached snapshot, so a later Config()
// never observes the pre-write state.
func (s *Store) Save(cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolvePathLocked()
	if err != nil {
		return err
	}
	if err := Save(path, cfg); err != nil {
		return err
	}
	s.cfg = cfg
	s.loaded = true
	return nil
}
