// Package platform abstracts the window system. It fixes the coordinate
// contract the rest of the code relies on: display enumeration reports
// bottom-left-origin display space (geo.DisplayRect), while all window
// reads and writes use top-left-origin internal space (geo.Rect). The
// reference height for converting between the two is the height of the
// first enumerated display, which every backend must keep stable across
// calls.
package platform

import "github.com/deskprof/deskprof/internal/geo"

// DisplayInfo describes one physical display in display space.
type DisplayInfo struct {
	ID     int
	Name   string
	Frame  geo.DisplayRect
	Usable geo.DisplayRect
	Scale  float64
}

// AppHandle identifies a running application's main window.
type AppHandle struct {
	WindowID uint32
	PID      int
	AppID    string
}

// DisplayLister enumerates connected displays in a stable order.
type DisplayLister interface {
	Displays() ([]DisplayInfo, error)
}

// WindowManager finds and manipulates application windows. Geometry is in
// internal space.
type WindowManager interface {
	// FindRunningApp locates the app's main window. A nil handle with a
	// nil error means the app is not running.
	FindRunningApp(appID string) (*AppHandle, error)

	// Activate raises and focuses the app before any geometry write.
	Activate(h *AppHandle) error

	// WindowRect reads the window's current frame.
	WindowRect(h *AppHandle) (geo.Rect, error)

	// SetWindowRect writes origin and, when size is non-nil, dimensions.
	SetWindowRect(h *AppHandle, origin geo.Point, size *geo.Size) error
}

// Backend is the full window-system surface.
type Backend interface {
	DisplayLister
	WindowManager
	Close()
}
