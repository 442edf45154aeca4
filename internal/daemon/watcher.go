// Package daemon runs the background display watcher: it polls the
// connected-monitor set and re-applies the matching profile whenever the
// arrangement changes.
package daemon

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/deskprof/deskprof/internal/engine"
	"github.com/deskprof/deskprof/internal/monitor"
)

// WatcherConfig holds configuration for the display watcher.
type WatcherConfig struct {
	Interval  time.Duration
	AutoApply bool
	Logger    *slog.Logger
}

// Applied is called after each successful auto-apply with the profile name.
type Applied func(profile string)

// Watcher polls the monitor arrangement and triggers profile application on
// change. Polling is used instead of platform change events so the watcher
// works identically under every window manager.
type Watcher struct {
	interval  time.Duration
	autoApply bool
	registry  *monitor.Registry
	eng       *engine.Engine
	onApplied Applied
	logger    *slog.Logger

	lastSignature string
}

// NewWatcher creates a watcher. onApplied may be nil.
func NewWatcher(cfg WatcherConfig, registry *monitor.Registry, eng *engine.Engine, onApplied Applied) *Watcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &Watcher{
		interval:  interval,
		autoApply: cfg.AutoApply,
		registry:  registry,
		eng:       eng,
		onApplied: onApplied,
		logger:    cfg.Logger,
	}
}

// Run starts the watch loop. Blocks until the context is cancelled. Reload
// signals force a re-check on the next tick by clearing the last seen
// arrangement.
func (w *Watcher) Run(ctx context.Context, reload <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("display watcher started", "interval", w.interval, "auto_apply", w.autoApply)

	// Prime the signature so startup does not count as a change; the
	// daemon applies once explicitly before starting the watcher.
	w.lastSignature = w.signature()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("display watcher stopped")
			return
		case <-reload:
			w.logger.Info("config reloaded, forcing re-check")
			w.lastSignature = ""
		case <-ticker.C:
			w.check()
		}
	}
}

// check performs a single poll pass.
func (w *Watcher) check() {
	defer func() {
		if err := recover(); err != nil {
			w.logger.Error("watcher panic recovered", "error", err)
		}
	}()

	sig := w.signature()
	if sig == "" || sig == w.lastSignature {
		return
	}
	w.logger.Info("monitor arrangement changed", "signature", sig)
	w.lastSignature = sig

	if !w.autoApply {
		return
	}

	name, ok, err := w.eng.Detect()
	if err != nil {
		w.logger.Error("profile detection failed", "error", err)
		return
	}
	if !ok {
		w.logger.Info("no profile matches the new arrangement")
		return
	}

	result, err := w.eng.Apply(name)
	if err != nil {
		w.logger.Error("auto-apply failed", "profile", name, "error", err)
		return
	}
	w.logger.Info("auto-applied profile",
		"profile", name,
		"moved", result.Moved(),
		"failed", result.Failed())

	if w.onApplied != nil {
		w.onApplied(name)
	}
}

// signature fingerprints the current arrangement: sorted resolution labels
// joined into one string. Empty when enumeration fails.
func (w *Watcher) signature() string {
	monitors, err := w.registry.All(nil)
	if err != nil {
		w.logger.Debug("enumeration failed during poll", "error", err)
		return ""
	}

	labels := make([]string, 0, len(monitors))
	for _, m := range monitors {
		labels = append(labels, m.Resolution)
	}
	sort.Strings(labels)
	return strings.Join(labels, "+")
}
