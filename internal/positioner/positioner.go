// Package positioner is the write boundary to the window system: it moves
// one application window and verifies the move actually took effect.
package positioner

import (
	"log/slog"
	"math"
	"time"

	"github.com/deskprof/deskprof/internal/geo"
	"github.com/deskprof/deskprof/internal/platform"
)

// Tolerance is the pixel slack allowed between a requested and an observed
// window rectangle before a write counts as failed.
const Tolerance = 1.0

// retryDelay is the fixed wait before the single retry write. Some apps
// ignore geometry requests that arrive while they are still coming to the
// foreground.
const retryDelay = 300 * time.Millisecond

// Positioner reads and writes window geometry through a platform backend.
type Positioner struct {
	wm     platform.WindowManager
	logger *slog.Logger
	sleep  func(time.Duration)
}

func New(wm platform.WindowManager, logger *slog.Logger) *Positioner {
	return &Positioner{wm: wm, logger: logger, sleep: time.Sleep}
}

// CurrentRect reads the app's window frame. running=false means the app has
// no window at all; a nil rect with running=true means the app exists but
// its geometry could not be read. Callers treat both as "nothing to verify
// against", they only differ for diagnostics.
func (p *Positioner) CurrentRect(appID string) (rect *geo.Rect, running bool) {
	handle, err := p.wm.FindRunningApp(appID)
	if err != nil {
		p.logger.Debug("app lookup failed", "app", appID, "error", err)
		return nil, false
	}
	if handle == nil {
		return nil, false
	}

	r, err := p.wm.WindowRect(handle)
	if err != nil {
		p.logger.Debug("window rect unreadable", "app", appID, "error", err)
		return nil, true
	}
	return &r, true
}

// SetRect moves the app's window to origin, resizing when size is non-nil.
// The app is activated first so the window accepts geometry writes, then the
// result is read back and compared within Tolerance. Convergence of the
// observed rectangle, not the absence of an API error, decides success;
// some applications acknowledge requests they then ignore. One retry after
// a fixed delay, never more.
func (p *Positioner) SetRect(appID string, origin geo.Point, size *geo.Size) bool {
	handle, err := p.wm.FindRunningApp(appID)
	if err != nil || handle == nil {
		return false
	}

	if err := p.wm.Activate(handle); err != nil {
		p.logger.Debug("activate failed", "app", appID, "error", err)
	}

	if p.writeAndVerify(handle, origin, size) {
		return true
	}
	p.sleep(retryDelay)
	return p.writeAndVerify(handle, origin, size)
}

func (p *Positioner) writeAndVerify(handle *platform.AppHandle, origin geo.Point, size *geo.Size) bool {
	if err := p.wm.SetWindowRect(handle, origin, size); err != nil {
		p.logger.Debug("window write failed", "app", handle.AppID, "error", err)
		return false
	}

	got, err := p.wm.WindowRect(handle)
	if err != nil {
		return false
	}
	if !geo.Near(got.Origin(), origin, Tolerance) {
		return false
	}
	if size != nil {
		if math.Abs(got.Width-size.Width) > Tolerance || math.Abs(got.Height-size.Height) > Tolerance {
			return false
		}
	}
	return true
}
