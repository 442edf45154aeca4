// Package profile matches the connected hardware against the configured
// profile catalog.
package profile

import (
	"sort"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/geo"
	"github.com/deskprof/deskprof/internal/monitor"
)

// Matcher detects which configured profile describes the current hardware.
type Matcher struct {
	registry *monitor.Registry
}

func NewMatcher(registry *monitor.Registry) *Matcher {
	return &Matcher{registry: registry}
}

// Detect returns the name of the first profile (in sorted name order, so
// detection is deterministic) whose required resolution multiset exactly
// equals the connected one. "builtin" and "macbook" placeholders in a
// profile stand for whatever the built-in panel currently reports. A miss
// is a normal outcome, not an error; errors only surface for enumeration
// failures.
func (m *Matcher) Detect(profiles map[string]config.Profile) (string, bool, error) {
	monitors, err := m.registry.All(nil)
	if err != nil {
		return "", false, err
	}

	builtin, err := m.registry.BuiltIn()
	if err != nil {
		return "", false, err
	}
	builtinRes := geo.NormalizeResolution(builtin.Resolution)

	current := map[string]int{}
	for _, mon := range monitors {
		current[geo.NormalizeResolution(mon.Resolution)]++
	}

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if matches(profiles[name], current, builtinRes) {
			return name, true, nil
		}
	}
	return "", false, nil
}

// matches reports whether the profile's expected multiset equals current.
// Exact equality only: a profile expecting a subset or superset of the
// connected displays never matches.
func matches(p config.Profile, current map[string]int, builtinRes string) bool {
	expected := map[string]int{}
	for _, spec := range p.Monitors {
		res := geo.NormalizeResolution(spec.Resolution)
		if config.BuiltinPlaceholder(spec.Resolution) {
			res = builtinRes
		}
		expected[res]++
	}

	if len(expected) != len(current) {
		return false
	}
	for res, n := range expected {
		if current[res] != n {
			return false
		}
	}
	return true
}

// DeriveSpecs builds the profile entries describing the given monitors, for
// saving the current arrangement as a profile. The built-in panel is stored
// as the "builtin" placeholder so the profile survives panel resolution
// changes; the largest remaining monitor becomes the workspace and the rest
// are secondary.
func DeriveSpecs(monitors []monitor.Monitor) []config.ResolutionSpec {
	specs := make([]config.ResolutionSpec, 0, len(monitors))

	workspace := -1
	var workspaceArea float64
	for i, m := range monitors {
		if m.BuiltIn {
			continue
		}
		area := m.Frame.Width * m.Frame.Height
		if area > workspaceArea {
			workspace = i
			workspaceArea = area
		}
	}

	for i, m := range monitors {
		switch {
		case m.BuiltIn:
			specs = append(specs, config.ResolutionSpec{Resolution: "builtin", Position: config.RoleBuiltin})
		case i == workspace:
			specs = append(specs, config.ResolutionSpec{Resolution: m.Resolution, Position: config.RoleWorkspace})
		default:
			specs = append(specs, config.ResolutionSpec{Resolution: m.Resolution, Position: config.RoleSecondary})
		}
	}
	return specs
}
