package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/deskprof/deskprof/internal/geo"
)

// Placement defines where on a monitor a window is anchored.
type Placement string

const (
	PlacementTopLeft     Placement = "top_left"
	PlacementTopRight    Placement = "top_right"
	PlacementBottomLeft  Placement = "bottom_left"
	PlacementBottomRight Placement = "bottom_right"
	PlacementCenter      Placement = "center"
	PlacementKeep        Placement = "keep" // leave the window where it is
)

// ParsePlacement converts a config string into a Placement.
func ParsePlacement(s string) (Placement, error) {
	switch Placement(s) {
	case PlacementTopLeft, PlacementTopRight, PlacementBottomLeft,
		PlacementBottomRight, PlacementCenter, PlacementKeep:
		return Placement(s), nil
	default:
		return "", fmt.Errorf("invalid placement %q", s)
	}
}

// Role tags the part a monitor plays inside a profile.
type Role string

const (
	RoleWorkspace Role = "workspace"
	RoleBuiltin   Role = "builtin"
	RoleSecondary Role = "secondary"
	RoleLeft      Role = "left"
	RoleRight     Role = "right"
)

// Sizing describes what happens to the window's dimensions. Only "keep" is
// supported; the field exists so the config shape stays forward-compatible.
type Sizing string

const SizingKeep Sizing = "keep"

// ResolutionSpec is one expected display in a profile. Resolution is a "WxH"
// label, or the placeholder "builtin" / "macbook" which the matcher replaces
// with the currently detected built-in panel's resolution.
type ResolutionSpec struct {
	Resolution string `yaml:"resolution" json:"resolution"`
	Position   Role   `yaml:"position" json:"position"`
}

// Profile is a named, exact-match set of expected monitor resolutions. A
// profile matches the current hardware iff the multiset of its normalized
// resolutions equals the multiset of connected ones, never a subset or superset.
type Profile struct {
	Monitors []ResolutionSpec `yaml:"monitors" json:"monitors"`
}

// WorkspaceResolution returns the resolution label of the entry tagged with
// the workspace role, if the profile has one.
func (p Profile) WorkspaceResolution() (string, bool) {
	for _, spec := range p.Monitors {
		if spec.Position == RoleWorkspace {
			return spec.Resolution, true
		}
	}
	return "", false
}

// Directive is the placement instruction for one application. On disk it is
// either an object {"position": ..., "sizing": ...} or, in the legacy
// shorthand, a bare placement string. Both decode to the same value; only
// the object shape is ever written back.
type Directive struct {
	Position Placement
	Sizing   Sizing
}

type directiveObject struct {
	Position string `yaml:"position" json:"position"`
	Sizing   string `yaml:"sizing,omitempty" json:"sizing,omitempty"`
}

// UnmarshalYAML accepts both the object shape and the legacy bare string.
// The same decoder reads JSON documents, which are a YAML subset.
func (d *Directive) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		pos, err := ParsePlacement(node.Value)
		if err != nil {
			return err
		}
		d.Position = pos
		d.Sizing = SizingKeep
		return nil
	case yaml.MappingNode:
		var obj directiveObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		pos, err := ParsePlacement(obj.Position)
		if err != nil {
			return err
		}
		sizing := Sizing(obj.Sizing)
		if obj.Sizing == "" {
			sizing = SizingKeep
		}
		if sizing != SizingKeep {
			return fmt.Errorf("invalid sizing %q (only %q is supported)", obj.Sizing, SizingKeep)
		}
		d.Position = pos
		d.Sizing = sizing
		return nil
	default:
		return fmt.Errorf("directive must be a placement string or an object")
	}
}

// MarshalJSON always emits the object shape.
func (d Directive) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"position":%q,"sizing":%q}`, d.Position, d.Sizing)), nil
}

// Layout groups per-application directives by the monitor role they target:
// quadrant/keep placements against the workspace monitor, center/keep
// placements against the built-in one. Keys are application identifiers.
type Layout struct {
	Workspace map[string]Directive `yaml:"workspace" json:"workspace"`
	Builtin   map[string]Directive `yaml:"builtin" json:"builtin"`
}

// AppSettings carries per-application options that are not tied to a monitor
// role. Unused by the placement engine itself; preserved on save.
type AppSettings struct {
	PositioningStrategy string `yaml:"positioning_strategy,omitempty" json:"positioning_strategy,omitempty"`
	Positioning         string `yaml:"positioning,omitempty" json:"positioning,omitempty"`
	Sizing              string `yaml:"sizing,omitempty" json:"sizing,omitempty"`
}

// Config is the full on-disk configuration.
type Config struct {
	Profiles     map[string]Profile     `yaml:"profiles" json:"profiles"`
	Layout       Layout                 `yaml:"layout" json:"layout"`
	Applications map[string]AppSettings `yaml:"applications,omitempty" json:"applications,omitempty"`
}

// Clone makes a deep copy. Cached snapshots are immutable, so any mutation
// must go through a copy.
func (c *Config) Clone() *Config {
	out := &Config{
		Profiles: make(map[string]Profile, len(c.Profiles)),
		Layout: Layout{
			Workspace: make(map[string]Directive, len(c.Layout.Workspace)),
			Builtin:   make(map[string]Directive, len(c.Layout.Builtin)),
		},
	}
	for name, p := range c.Profiles {
		monitors := make([]ResolutionSpec, len(p.Monitors))
		copy(monitors, p.Monitors)
		out.Profiles[name] = Profile{Monitors: monitors}
	}
	for k, v := range c.Layout.Workspace {
		out.Layout.Workspace[k] = v
	}
	for k, v := range c.Layout.Builtin {
		out.Layout.Builtin[k] = v
	}
	if c.Applications != nil {
		out.Applications = make(map[string]AppSettings, len(c.Applications))
		for k, v := range c.Applications {
			out.Applications[k] = v
		}
	}
	return out
}

// ValidationError reports an invalid config value with its document path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks structural invariants of the loaded configuration.
func (c *Config) Validate() error {
	for name, profile := range c.Profiles {
		if len(profile.Monitors) == 0 {
			return &ValidationError{Path: "profiles." + name, Err: fmt.Errorf("profile has no monitors")}
		}
		for i, spec := range profile.Monitors {
			path := fmt.Sprintf("profiles.%s.monitors[%d]", name, i)
			if spec.Resolution == "" {
				return &ValidationError{Path: path + ".resolution", Err: fmt.Errorf("resolution is required")}
			}
			switch spec.Position {
			case RoleWorkspace, RoleBuiltin, RoleSecondary, RoleLeft, RoleRight:
			default:
				return &ValidationError{Path: path + ".position", Err: fmt.Errorf("invalid position %q", spec.Position)}
			}
		}
	}

	for appID, d := range c.Layout.Workspace {
		switch d.Position {
		case PlacementTopLeft, PlacementTopRight, PlacementBottomLeft, PlacementBottomRight, PlacementKeep:
		default:
			return &ValidationError{
				Path: "layout.workspace." + appID,
				Err:  fmt.Errorf("placement %q not allowed on the workspace monitor (quadrants or keep)", d.Position),
			}
		}
	}
	for appID, d := range c.Layout.Builtin {
		switch d.Position {
		case PlacementCenter, PlacementKeep:
		default:
			return &ValidationError{
				Path: "layout.builtin." + appID,
				Err:  fmt.Errorf("placement %q not allowed on the built-in monitor (center or keep)", d.Position),
			}
		}
	}
	return nil
}

// BuiltinPlaceholder reports whether a spec's resolution literal stands for
// the current built-in panel rather than a concrete label. "macbook" is the
// legacy spelling.
func BuiltinPlaceholder(resolution string) bool {
	norm := geo.NormalizeResolution(resolution)
	return norm == "builtin" || norm == "macbook"
}
