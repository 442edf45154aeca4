// Package engine orchestrates profile application: it resolves which
// monitor plays which role, walks the configured placement directives and
// drives the positioner, recording a per-application outcome. Plan performs
// the identical computation without touching any window, for previews.
//
// Runs are synchronous and sequential. Two overlapping Apply calls would
// race on window geometry, so callers serialize invocations; the engine
// itself takes no lock.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/geo"
	"github.com/deskprof/deskprof/internal/layout"
	"github.com/deskprof/deskprof/internal/monitor"
	"github.com/deskprof/deskprof/internal/positioner"
	"github.com/deskprof/deskprof/internal/profile"
)

// Outcome classifies what happened to one application.
type Outcome string

const (
	OutcomeMoved      Outcome = "moved"
	OutcomeKept       Outcome = "kept"
	OutcomeNotRunning Outcome = "not_running"
	OutcomeFailed     Outcome = "failed"
)

// defaultWindowSize substitutes for a running application whose window
// geometry cannot be read. Never used for absent applications.
var defaultWindowSize = geo.Size{Width: 1200, Height: 800}

// Step is the record of one (application, placement) pair.
type Step struct {
	App       string           `json:"app"`
	Display   string           `json:"display"`
	Placement config.Placement `json:"placement"`
	Current   *geo.Rect        `json:"current,omitempty"`
	Target    *geo.Rect        `json:"target,omitempty"`
	Outcome   Outcome          `json:"outcome"`
}

// Result is the outcome of one apply or plan run.
type Result struct {
	Profile string `json:"profile"`
	Steps   []Step `json:"steps"`
}

// Moved counts the steps that moved (or would move) a window.
func (r *Result) Moved() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == OutcomeMoved {
			n++
		}
	}
	return n
}

// Failed counts the steps whose write did not converge.
func (r *Result) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// Positioner is the window read/write surface the engine drives.
type Positioner interface {
	CurrentRect(appID string) (rect *geo.Rect, running bool)
	SetRect(appID string, origin geo.Point, size *geo.Size) bool
}

// Engine wires the config store, monitor registry, profile matcher and
// positioner into the apply/plan/detect/update operations.
type Engine struct {
	store    *config.Store
	registry *monitor.Registry
	matcher  *profile.Matcher
	pos      Positioner
	logger   *slog.Logger
}

func New(store *config.Store, registry *monitor.Registry, matcher *profile.Matcher, pos Positioner, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		registry: registry,
		matcher:  matcher,
		pos:      pos,
		logger:   logger,
	}
}

// Detect returns the profile matching the connected displays, or ok=false
// when none does.
func (e *Engine) Detect() (string, bool, error) {
	cfg, err := e.store.Config()
	if err != nil {
		return "", false, fmt.Errorf("no configuration available: %w", err)
	}
	return e.matcher.Detect(cfg.Profiles)
}

// Apply positions every configured application for the named profile. An
// empty name means detect first. Per-application failures are recorded and
// logged, never fatal; the run always completes its full list. Windows
// already within tolerance of their target are kept, so a repeated Apply
// writes nothing.
func (e *Engine) Apply(name string) (*Result, error) {
	return e.run(name, true)
}

// Plan computes the same steps as Apply without moving anything. A step
// whose target already matches the current rectangle within the positioner
// tolerance is reported as kept.
func (e *Engine) Plan(name string) (*Result, error) {
	return e.run(name, false)
}

func (e *Engine) run(name string, execute bool) (*Result, error) {
	cfg, err := e.store.Config()
	if err != nil {
		return nil, fmt.Errorf("no configuration available: %w", err)
	}

	if name == "" {
		detected, ok, err := e.matcher.Detect(cfg.Profiles)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no profile matches the connected displays")
		}
		name = detected
	}

	prof, ok := cfg.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", name)
	}

	monitors, err := e.registry.All(&prof)
	if err != nil {
		return nil, err
	}

	result := &Result{Profile: name}

	// Workspace pass.
	if len(cfg.Layout.Workspace) > 0 {
		ws, found := workspaceMonitor(monitors)
		if !found {
			if _, has := prof.WorkspaceResolution(); has {
				return nil, fmt.Errorf("profile %q expects a workspace display that is not connected", name)
			}
		} else {
			e.runPass(result, cfg.Layout.Workspace, ws, execute)
		}
	}

	// Built-in pass.
	if len(cfg.Layout.Builtin) > 0 {
		builtin, err := e.registry.BuiltIn()
		if err != nil {
			return nil, err
		}
		e.runPass(result, cfg.Layout.Builtin, builtin, execute)
	}

	return result, nil
}

func workspaceMonitor(monitors []monitor.Monitor) (monitor.Monitor, bool) {
	for _, m := range monitors {
		if m.Workspace {
			return m, true
		}
	}
	return monitor.Monitor{}, false
}

// runPass walks one directive group against one target monitor, in sorted
// application order so runs are reproducible.
func (e *Engine) runPass(result *Result, directives map[string]config.Directive, target monitor.Monitor, execute bool) {
	apps := make([]string, 0, len(directives))
	for app := range directives {
		apps = append(apps, app)
	}
	sort.Strings(apps)

	for _, app := range apps {
		step := e.runStep(app, directives[app], target, execute)
		result.Steps = append(result.Steps, step)

		switch step.Outcome {
		case OutcomeFailed:
			e.logger.Warn("positioning failed", "app", app, "display", target.Name, "placement", step.Placement)
		default:
			e.logger.Info("step", "app", app, "display", target.Name, "placement", step.Placement, "outcome", step.Outcome)
		}
	}
}

func (e *Engine) runStep(app string, d config.Directive, target monitor.Monitor, execute bool) Step {
	step := Step{App: app, Display: target.Name, Placement: d.Position}

	current, running := e.pos.CurrentRect(app)
	step.Current = current

	if !running {
		step.Outcome = OutcomeNotRunning
		return step
	}
	if d.Position == config.PlacementKeep {
		step.Outcome = OutcomeKept
		return step
	}

	// A centered window already on the target display stays put; moving it
	// again would only steal focus.
	if d.Position == config.PlacementCenter && current != nil && target.Frame.Contains(current.Center()) {
		step.Outcome = OutcomeKept
		return step
	}

	size := defaultWindowSize
	var writeSize *geo.Size
	if current != nil {
		size = current.Size()
	} else {
		// Running but unreadable: position a default-sized window.
		fallback := defaultWindowSize
		writeSize = &fallback
	}

	origin, err := layout.Calculate(d.Position, size, target.Usable)
	if err != nil {
		step.Outcome = OutcomeFailed
		return step
	}
	targetRect := geo.Rect{X: origin.X, Y: origin.Y, Width: size.Width, Height: size.Height}
	step.Target = &targetRect

	// Already within tolerance of the target: nothing to write, and on the
	// apply path skipping the write also skips the activate, so a repeated
	// apply does not steal focus. This makes apply idempotent.
	if current != nil && geo.RectNear(*current, targetRect, positioner.Tolerance) {
		step.Outcome = OutcomeKept
		return step
	}

	if !execute {
		step.Outcome = OutcomeMoved
		return step
	}

	if e.pos.SetRect(app, origin, writeSize) {
		step.Outcome = OutcomeMoved
	} else {
		step.Outcome = OutcomeFailed
	}
	return step
}

// Update overwrites the named profile with the currently connected monitor
// arrangement and persists it. The saved built-in entry uses the "builtin"
// placeholder so the profile keeps matching if the panel resolution changes.
func (e *Engine) Update(name string) ([]config.ResolutionSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name is required")
	}

	cfg, err := e.store.Config()
	if err != nil {
		return nil, fmt.Errorf("no configuration available: %w", err)
	}

	monitors, err := e.registry.All(nil)
	if err != nil {
		return nil, err
	}

	specs := profile.DeriveSpecs(monitors)

	next := cfg.Clone()
	next.Profiles[name] = config.Profile{Monitors: specs}
	if err := e.store.Save(next); err != nil {
		return nil, fmt.Errorf("failed to save profile %q: %w", name, err)
	}

	e.logger.Info("profile updated", "profile", name, "monitors", len(specs))
	return specs, nil
}

// Monitors exposes the current role-tagged monitor list for status surfaces.
// When a profile name is given, workspace tags are resolved against it.
func (e *Engine) Monitors(profileName string) ([]monitor.Monitor, error) {
	var prof *config.Profile
	if profileName != "" {
		cfg, err := e.store.Config()
		if err != nil {
			return nil, fmt.Errorf("no configuration available: %w", err)
		}
		p, ok := cfg.Profiles[profileName]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", profileName)
		}
		prof = &p
	}
	return e.registry.All(prof)
}
