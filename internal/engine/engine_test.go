package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/deskprof/deskprof/internal/config"
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

// fakePos holds per-app window state. A nil rect means the app is running
// but its geometry is unreadable; a missing key means not running.
type fakePos struct {
	windows map[string]*geo.Rect
	fail    map[string]bool

	writes []write
}

type write struct {
	app    string
	origin geo.Point
	size   *geo.Size
}

func (f *fakePos) CurrentRect(appID string) (*geo.Rect, bool) {
	rect, ok := f.windows[appID]
	if !ok {
		return nil, false
	}
	if rect == nil {
		return nil, true
	}
	r := *rect
	return &r, true
}

func (f *fakePos) SetRect(appID string, origin geo.Point, size *geo.Size) bool {
	f.writes = append(f.writes, write{app: appID, origin: origin, size: size})
	if f.fail[appID] {
		return false
	}
	rect, ok := f.windows[appID]
	if !ok {
		return false
	}
	if rect == nil {
		rect = &geo.Rect{Width: 1200, Height: 800}
		f.windows[appID] = rect
	}
	rect.X, rect.Y = origin.X, origin.Y
	if size != nil {
		rect.Width, rect.Height = size.Width, size.Height
	}
	return true
}

func officeDisplays() []platform.DisplayInfo {
	return []platform.DisplayInfo{
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
	}
}

const officeConfig = `{
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

func newTestEngine(t *testing.T, pos Positioner) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(officeConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	store := config.NewStore(path)
	registry := monitor.NewRegistry(&fakeLister{displays: officeDisplays()})
	matcher := profile.NewMatcher(registry)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, registry, matcher, pos, logger)
}

func runningApps() *fakePos {
	return &fakePos{
		windows: map[string]*geo.Rect{
			"com.example.browser": {X: 500, Y: 200, Width: 1600, Height: 900},
			"com.example.editor":  {X: 10, Y: 10, Width: 1000, Height: 600},
			// terminal is configured but not running
			"com.example.notes": {X: 5000, Y: 100, Width: 400, Height: 500},
		},
		fail: map[string]bool{},
	}
}

func outcomeOf(t *testing.T, result *Result, app string) Step {
	t.Helper()
	for _, s := range result.Steps {
		if s.App == app {
			return s
		}
	}
	t.Fatalf("no step for %s in %+v", app, result.Steps)
	return Step{}
}

func TestDetect(t *testing.T) {
	e := newTestEngine(t, runningApps())

	name, ok, err := e.Detect()
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !ok || name != "office" {
		t.Errorf("Detect = %q, ok=%v; want office", name, ok)
	}
}

func TestApplyOutcomes(t *testing.T) {
	pos := runningApps()
	e := newTestEngine(t, pos)

	result, err := e.Apply("")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Profile != "office" {
		t.Errorf("profile = %q", result.Profile)
	}

	// The workspace monitor sits above the anchor panel, so its internal
	// frame is {0,-1440,3440,1440}.
	browser := outcomeOf(t, result, "com.example.browser")
	if browser.Outcome != OutcomeMoved {
		t.Errorf("browser outcome = %s", browser.Outcome)
	}
	if browser.Target == nil || browser.Target.X != 0 || browser.Target.Y != -1440 {
		t.Errorf("browser target = %+v", browser.Target)
	}

	editor := outcomeOf(t, result, "com.example.editor")
	if editor.Outcome != OutcomeMoved {
		t.Errorf("editor outcome = %s", editor.Outcome)
	}
	// bottom_right with the editor's actual 1000x600 window.
	if editor.Target == nil || editor.Target.X != 2440 || editor.Target.Y != -600 {
		t.Errorf("editor target = %+v", editor.Target)
	}

	if s := outcomeOf(t, result, "com.example.terminal"); s.Outcome != OutcomeNotRunning {
		t.Errorf("terminal outcome = %s", s.Outcome)
	}

	// notes sits far off the built-in frame, so it gets centered there.
	notes := outcomeOf(t, result, "com.example.notes")
	if notes.Outcome != OutcomeMoved {
		t.Errorf("notes outcome = %s", notes.Outcome)
	}
	if notes.Target == nil || notes.Target.X != 556 || notes.Target.Y != 241 {
		t.Errorf("notes target = %+v", notes.Target)
	}
}

func TestApplyKeepDirectiveSkipsWrite(t *testing.T) {
	pos := runningApps()
	pos.windows["com.example.terminal"] = &geo.Rect{X: 1, Y: 2, Width: 3, Height: 4}
	e := newTestEngine(t, pos)

	result, err := e.Apply("office")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if s := outcomeOf(t, result, "com.example.terminal"); s.Outcome != OutcomeKept {
		t.Errorf("terminal outcome = %s", s.Outcome)
	}
	for _, w := range pos.writes {
		if w.app == "com.example.terminal" {
			t.Error("keep directive must not write")
		}
	}
}

func TestApplyCenterContainmentKeeps(t *testing.T) {
	pos := runningApps()
	// notes already on the built-in panel (center inside its full frame).
	pos.windows["com.example.notes"] = &geo.Rect{X: 100, Y: 100, Width: 400, Height: 500}
	e := newTestEngine(t, pos)

	result, err := e.Apply("office")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if s := outcomeOf(t, result, "com.example.notes"); s.Outcome != OutcomeKept {
		t.Errorf("notes outcome = %s", s.Outcome)
	}
	for _, w := range pos.writes {
		if w.app == "com.example.notes" {
			t.Error("already-centered window must not be rewritten")
		}
	}
}

func TestApplyFailureDoesNotAbortRun(t *testing.T) {
	pos := runningApps()
	pos.fail["com.example.browser"] = true
	e := newTestEngine(t, pos)

	result, err := e.Apply("office")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if s := outcomeOf(t, result, "com.example.browser"); s.Outcome != OutcomeFailed {
		t.Errorf("browser outcome = %s", s.Outcome)
	}
	// Later items still ran.
	if s := outcomeOf(t, result, "com.example.editor"); s.Outcome != OutcomeMoved {
		t.Errorf("editor outcome = %s", s.Outcome)
	}
	if result.Failed() != 1 {
		t.Errorf("Failed() = %d", result.Failed())
	}
}

func TestApplyDefaultSizeForUnreadableWindow(t *testing.T) {
	pos := runningApps()
	pos.windows["com.example.editor"] = nil // running, geometry unreadable
	e := newTestEngine(t, pos)

	if _, err := e.Apply("office"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, w := range pos.writes {
		if w.app != "com.example.editor" {
			continue
		}
		if w.size == nil || w.size.Width != 1200 || w.size.Height != 800 {
			t.Errorf("expected default size write, got %+v", w.size)
		}
		return
	}
	t.Fatal("no write recorded for editor")
}

func TestApplyReadableWindowKeepsItsSize(t *testing.T) {
	pos := runningApps()
	e := newTestEngine(t, pos)

	if _, err := e.Apply("office"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for _, w := range pos.writes {
		if w.app == "com.example.browser" && w.size != nil {
			t.Errorf("sizing=keep must not write a size, got %+v", w.size)
		}
	}
}

func TestApplyUnknownProfile(t *testing.T) {
	e := newTestEngine(t, runningApps())
	if _, err := e.Apply("nowhere"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestApplyMissingWorkspaceDisplay(t *testing.T) {
	e := newTestEngine(t, runningApps())
	// home expects a 2560x1440 workspace that is not connected.
	if _, err := e.Apply("home"); err == nil {
		t.Fatal("expected error for disconnected workspace display")
	}
}

func TestPlanDoesNotWrite(t *testing.T) {
	pos := runningApps()
	e := newTestEngine(t, pos)

	result, err := e.Plan("office")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(pos.writes) != 0 {
		t.Errorf("plan performed %d writes", len(pos.writes))
	}
	if s := outcomeOf(t, result, "com.example.browser"); s.Outcome != OutcomeMoved {
		t.Errorf("browser outcome = %s", s.Outcome)
	}
}

func TestPlanAfterApplyReportsKept(t *testing.T) {
	pos := runningApps()
	e := newTestEngine(t, pos)

	if _, err := e.Apply("office"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	result, err := e.Plan("office")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	for _, app := range []string{"com.example.browser", "com.example.editor", "com.example.notes"} {
		if s := outcomeOf(t, result, app); s.Outcome != OutcomeKept {
			t.Errorf("%s outcome = %s, want kept after apply", app, s.Outcome)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	pos := runningApps()
	e := newTestEngine(t, pos)

	first, err := e.Apply("office")
	if err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	for _, app := range []string{"com.example.browser", "com.example.editor"} {
		if s := outcomeOf(t, first, app); s.Outcome != OutcomeMoved {
			t.Errorf("first apply: %s outcome = %s, want moved", app, s.Outcome)
		}
	}

	writesAfterFirst := len(pos.writes)
	second, err := e.Apply("office")
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	for _, app := range []string{"com.example.browser", "com.example.editor", "com.example.notes"} {
		if s := outcomeOf(t, second, app); s.Outcome != OutcomeKept {
			t.Errorf("second apply: %s outcome = %s, want kept", app, s.Outcome)
		}
	}
	if len(pos.writes) != writesAfterFirst {
		t.Errorf("second apply issued %d writes, want 0", len(pos.writes)-writesAfterFirst)
	}
}

func TestUpdatePersistsCurrentArrangement(t *testing.T) {
	e := newTestEngine(t, runningApps())

	specs, err := e.Update("office")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}

	cfg, err := e.store.Config()
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	saved := cfg.Profiles["office"].Monitors
	if saved[0].Resolution != "builtin" || saved[0].Position != config.RoleBuiltin {
		t.Errorf("saved[0] = %+v", saved[0])
	}
	if saved[1].Resolution != "3440x1440" || saved[1].Position != config.RoleWorkspace {
		t.Errorf("saved[1] = %+v", saved[1])
	}
	// Other profiles survive the rewrite.
	if _, ok := cfg.Profiles["home"]; !ok {
		t.Error("home profile lost on update")
	}
}
