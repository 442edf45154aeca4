package mcp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/engine"
	"github.com/deskprof/deskprof/internal/geo"
	"github.com/deskprof/deskprof/internal/monitor"
	"github.com/deskprof/deskprof/internal/platform"
	"github.com/deskprof/deskprof/internal/profile"
)

type fakeLister struct {
	displays []platform.DisplayInfo
}

func (f *fakeLister) Displays() ([]platform.DisplayInfo, error) {
	return f.displays, nil
}

// fakePos holds per-app window state. A missing key means not running.
type fakePos struct {
	windows map[string]*geo.Rect
	writes  int
}

func (f *fakePos) CurrentRect(appID string) (*geo.Rect, bool) {
	rect, ok := f.windows[appID]
	if !ok {
		return nil, false
	}
	r := *rect
	return &r, true
}

func (f *fakePos) SetRect(appID string, origin geo.Point, size *geo.Size) bool {
	f.writes++
	rect, ok := f.windows[appID]
	if !ok {
		return false
	}
	rect.X, rect.Y = origin.X, origin.Y
	if size != nil {
		rect.Width, rect.Height = size.Width, size.Height
	}
	return true
}

const toolTestConfig = `{
  "profiles": {
    "office": {
      "monitors": [
        {"resolution": "3440x1440", "position": "workspace"},
        {"resolution": "builtin", "position": "builtin"}
      ]
    },
    "home": {
      "monitors": [
        {"resolution": "2560x1440", "position": "workspace"},
        {"resolution": "builtin", "position": "builtin"}
      ]
    }
  },
  "layout": {
    "workspace": {
      "com.example.browser": {"position": "top_left"},
      "com.example.editor": {"position": "bottom_right"},
      "com.example.terminal": "keep"
    },
    "builtin": {
      "com.example.notes": {"position": "center"}
    }
  }
}`

func newTestServer(t *testing.T) (*Server, *fakePos) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(toolTestConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	lister := &fakeLister{displays: []platform.DisplayInfo{
		{
			ID: 0, Name: "eDP-1",
			Frame:  geo.DisplayRect{X: 0, Y: 0, Width: 1512, Height: 982},
			Usable: geo.DisplayRect{X: 0, Y: 0, Width: 1512, Height: 982},
			Scale:  2.0,
		},
		{
			ID: 1, Name: "DP-1",
			Frame:  geo.DisplayRect{X: 0, Y: 982, Width: 3440, Height: 1440},
			Usable: geo.DisplayRect{X: 0, Y: 982, Width: 3440, Height: 1440},
			Scale:  1.0,
		},
	}}
	pos := &fakePos{windows: map[string]*geo.Rect{
		"com.example.browser": {X: 500, Y: 200, Width: 1600, Height: 900},
		"com.example.editor":  {X: 10, Y: 10, Width: 1000, Height: 600},
		"com.example.notes":   {X: 5000, Y: 100, Width: 400, Height: 500},
	}}

	store := config.NewStore(path)
	registry := monitor.NewRegistry(lister)
	matcher := profile.NewMatcher(registry)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(store, registry, matcher, pos, logger)
	return NewServer(store, eng), pos
}

func stepFor(t *testing.T, steps []PlanStep, app string) PlanStep {
	t.Helper()
	for _, s := range steps {
		if s.App == app {
			return s
		}
	}
	t.Fatalf("no step for %s in %+v", app, steps)
	return PlanStep{}
}

func TestHandleDetectProfile(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleDetectProfile(context.Background(), nil, DetectProfileInput{})
	if err != nil {
		t.Fatalf("detect_profile failed: %v", err)
	}
	if !out.Matched || out.Profile != "office" {
		t.Errorf("detect_profile = %+v, want office matched", out)
	}
}

func TestHandleListProfiles(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleListProfiles(context.Background(), nil, ListProfilesInput{})
	if err != nil {
		t.Fatalf("list_profiles failed: %v", err)
	}
	if len(out.Profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(out.Profiles))
	}
	// Sorted by name.
	if out.Profiles[0].Name != "home" || out.Profiles[1].Name != "office" {
		t.Errorf("profile order = %q, %q; want home, office", out.Profiles[0].Name, out.Profiles[1].Name)
	}
	if got := out.Profiles[1].Resolutions; len(got) != 2 || got[0] != "3440x1440" || got[1] != "builtin" {
		t.Errorf("office resolutions = %v", got)
	}
}

func TestHandleListMonitors(t *testing.T) {
	s, _ := newTestServer(t)

	// No profile argument: role tags resolve against the detected profile.
	_, out, err := s.handleListMonitors(context.Background(), nil, ListMonitorsInput{})
	if err != nil {
		t.Fatalf("list_monitors failed: %v", err)
	}
	if len(out.Monitors) != 2 {
		t.Fatalf("expected 2 monitors, got %d", len(out.Monitors))
	}

	panel := out.Monitors[0]
	if panel.Name != "eDP-1" || !panel.BuiltIn || panel.Workspace {
		t.Errorf("panel = %+v, want built-in and not workspace", panel)
	}
	external := out.Monitors[1]
	if external.Name != "DP-1" || !external.Workspace || external.BuiltIn {
		t.Errorf("external = %+v, want workspace and not built-in", external)
	}
	if external.X != 0 || external.Y != -1440 || external.Width != 3440 || external.Height != 1440 {
		t.Errorf("external frame = (%v,%v %vx%v), want (0,-1440 3440x1440)",
			external.X, external.Y, external.Width, external.Height)
	}
}

func TestHandleGeneratePlan(t *testing.T) {
	s, pos := newTestServer(t)

	_, out, err := s.handleGeneratePlan(context.Background(), nil, GeneratePlanInput{})
	if err != nil {
		t.Fatalf("generate_plan failed: %v", err)
	}
	if out.Profile != "office" {
		t.Errorf("plan profile = %q, want office", out.Profile)
	}

	if st := stepFor(t, out.Steps, "com.example.browser"); st.Outcome != "moved" || st.Target != "0,-1440 1600x900" {
		t.Errorf("browser step = %+v", st)
	}
	if st := stepFor(t, out.Steps, "com.example.editor"); st.Outcome != "moved" || st.Target != "2440,-600 1000x600" {
		t.Errorf("editor step = %+v", st)
	}
	if st := stepFor(t, out.Steps, "com.example.terminal"); st.Outcome != "not_running" {
		t.Errorf("terminal step = %+v", st)
	}
	if st := stepFor(t, out.Steps, "com.example.notes"); st.Outcome != "moved" || st.Target != "556,241 400x500" {
		t.Errorf("notes step = %+v", st)
	}
	if pos.writes != 0 {
		t.Errorf("plan issued %d writes, want 0", pos.writes)
	}
}

func TestHandleApplyProfile(t *testing.T) {
	s, pos := newTestServer(t)

	_, out, err := s.handleApplyProfile(context.Background(), nil, ApplyProfileInput{Profile: "office"})
	if err != nil {
		t.Fatalf("apply_profile failed: %v", err)
	}
	if out.Profile != "office" || out.Moved != 3 || out.Failed != 0 {
		t.Errorf("apply_profile = %+v, want office with 3 moved", out)
	}
	if pos.writes != 3 {
		t.Errorf("apply issued %d writes, want 3", pos.writes)
	}
	if r := pos.windows["com.example.browser"]; r.X != 0 || r.Y != -1440 {
		t.Errorf("browser ended at (%v,%v), want (0,-1440)", r.X, r.Y)
	}
}

func TestHandleApplyProfileUnknown(t *testing.T) {
	s, _ := newTestServer(t)

	if _, _, err := s.handleApplyProfile(context.Background(), nil, ApplyProfileInput{Profile: "nope"}); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestHandleUpdateProfile(t *testing.T) {
	s, _ := newTestServer(t)

	if _, _, err := s.handleUpdateProfile(context.Background(), nil, UpdateProfileInput{}); err == nil {
		t.Fatal("expected error for missing profile name")
	}

	_, out, err := s.handleUpdateProfile(context.Background(), nil, UpdateProfileInput{Profile: "studio"})
	if err != nil {
		t.Fatalf("update_profile failed: %v", err)
	}
	if out.Profile != "studio" {
		t.Errorf("update profile = %q, want studio", out.Profile)
	}
	if len(out.Resolutions) != 2 || out.Resolutions[0] != "builtin" || out.Resolutions[1] != "3440x1440" {
		t.Errorf("resolutions = %v, want [builtin 3440x1440]", out.Resolutions)
	}

	// The saved profile is visible on the next list.
	_, listed, err := s.handleListProfiles(context.Background(), nil, ListProfilesInput{})
	if err != nil {
		t.Fatalf("list_profiles failed: %v", err)
	}
	if len(listed.Profiles) != 3 {
		t.Errorf("expected 3 profiles after update, got %d", len(listed.Profiles))
	}
}
