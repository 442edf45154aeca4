// Package monitor turns raw platform display enumeration into role-tagged
// monitors in internal coordinates. All coordinate conversion happens here,
// exactly once per enumeration; nothing downstream ever sees display space.
package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/geo"
	"github.com/deskprof/deskprof/internal/platform"
)

// Monitor is one connected display with role tags resolved against a
// profile. Frame and Usable are internal-space rectangles.
type Monitor struct {
	ID         int
	Name       string
	Frame      geo.Rect
	Usable     geo.Rect
	Resolution string
	Scale      float64

	// BuiltIn comes from a name heuristic, never from the platform's
	// "main display" designation, which differs between process contexts.
	BuiltIn bool

	// Workspace is profile-dependent: true iff the active profile tags
	// this monitor's resolution with the workspace role. Always false
	// when no profile context was supplied.
	Workspace bool
}

// Registry enumerates and classifies monitors. Results are recomputed fresh
// on every call; role tags must not leak across profile contexts, so nothing
// is cached here.
type Registry struct {
	lister platform.DisplayLister
}

func NewRegistry(lister platform.DisplayLister) *Registry {
	return &Registry{lister: lister}
}

// All returns every connected monitor in enumeration order. When profile is
// non-nil, monitors whose resolution matches the profile's workspace spec
// are tagged Workspace.
func (r *Registry) All(profile *config.Profile) ([]Monitor, error) {
	displays, err := r.lister.Displays()
	if err != nil {
		return nil, fmt.Errorf("display enumeration failed: %w", err)
	}
	if len(displays) == 0 {
		return nil, fmt.Errorf("no connected displays")
	}

	// The first enumerated display anchors the conversion between display
	// space and internal space.
	refHeight := displays[0].Frame.Height

	workspaceRes := ""
	if profile != nil {
		if res, ok := profile.WorkspaceResolution(); ok {
			workspaceRes = geo.NormalizeResolution(res)
		}
	}

	monitors := make([]Monitor, 0, len(displays))
	for _, d := range displays {
		m := Monitor{
			ID:         d.ID,
			Name:       d.Name,
			Frame:      geo.ToInternal(d.Frame, refHeight),
			Usable:     geo.ToInternal(d.Usable, refHeight),
			Resolution: resolutionLabel(d.Frame),
			Scale:      d.Scale,
		}
		m.BuiltIn = isBuiltInName(m.Name)
		if workspaceRes != "" {
			m.Workspace = geo.NormalizeResolution(m.Resolution) == workspaceRes
		}
		monitors = append(monitors, m)
	}
	return monitors, nil
}

// FindWorkspace returns the first monitor whose resolution is equivalent to
// the given label, or ok=false when none is connected.
func (r *Registry) FindWorkspace(resolution string) (Monitor, bool, error) {
	monitors, err := r.All(nil)
	if err != nil {
		return Monitor{}, false, err
	}
	for _, m := range monitors {
		if geo.EquivalentResolution(m.Resolution, resolution) {
			return m, true, nil
		}
	}
	return Monitor{}, false, nil
}

// BuiltIn returns the built-in monitor. It always succeeds when at least one
// display is connected, using a deterministic three-tier fallback: name
// heuristic, then raw origin at (0,0), then smallest area. The platform's
// "main display" is deliberately never consulted.
func (r *Registry) BuiltIn() (Monitor, error) {
	monitors, err := r.All(nil)
	if err != nil {
		return Monitor{}, err
	}

	for _, m := range monitors {
		if m.BuiltIn {
			return m, nil
		}
	}

	// The conversion was anchored on the first monitor's height, so the
	// same reference recovers each monitor's display-space origin.
	refHeight := monitors[0].Frame.Height
	for _, m := range monitors {
		raw := geo.ToDisplay(m.Frame, refHeight)
		if raw.X == 0 && raw.Y == 0 {
			return m, nil
		}
	}

	smallest := 0
	for i, m := range monitors {
		if m.Frame.Width*m.Frame.Height < monitors[smallest].Frame.Width*monitors[smallest].Frame.Height {
			smallest = i
		}
	}
	return monitors[smallest], nil
}

// builtInNameSubstrings covers the spellings platform versions have used
// for the internal panel. More than one is required because the naming has
// changed across OS releases.
var builtInNameSubstrings = []string{
	"Built-in",
	"Color LCD",
	"eDP",
	"LVDS",
	"DSI",
}

func isBuiltInName(name string) bool {
	lower := strings.ToLower(name)
	for _, sub := range builtInNameSubstrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// resolutionLabel formats the raw (un-converted) display dimensions as a
// "WxH" label, with integral values rendered without a decimal point.
func resolutionLabel(frame geo.DisplayRect) string {
	return formatDimension(frame.Width) + "x" + formatDimension(frame.Height)
}

func formatDimension(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
