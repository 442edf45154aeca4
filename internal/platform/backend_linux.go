//go:build linux

package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/deskprof/deskprof/internal/geo"
	"github.com/deskprof/deskprof/internal/x11"
)

// LinuxBackend adapts an X11 connection to the platform Backend contract.
// X11 reports everything in top-left root coordinates; Displays flips those
// into display space anchored at the first CRTC's height, so converting
// back through geo.ToInternal recovers the native coordinates exactly.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend opens a fresh X11 connection.
func NewLinuxBackend() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Close disconnects from the X11 server.
func (b *LinuxBackend) Close() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Displays enumerates active outputs in CRTC order, converted to display
// space.
func (b *LinuxBackend) Displays() ([]DisplayInfo, error) {
	displays, err := b.conn.GetDisplays()
	if err != nil {
		return nil, err
	}

	refHeight := float64(displays[0].Height)

	infos := make([]DisplayInfo, 0, len(displays))
	for _, d := range displays {
		infos = append(infos, DisplayInfo{
			ID:     d.ID,
			Name:   d.Name,
			Frame:  flipRect(d.X, d.Y, d.Width, d.Height, refHeight),
			Usable: flipRect(d.UsableX, d.UsableY, d.UsableWidth, d.UsableHeight, refHeight),
			Scale:  1.0,
		})
	}
	return infos, nil
}

// flipRect converts a top-left root rectangle to display space: the bottom
// edge's distance from the reference baseline becomes the Y origin.
func flipRect(x, y, w, h int, refHeight float64) geo.DisplayRect {
	return geo.DisplayRect{
		X:      float64(x),
		Y:      refHeight - float64(y+h),
		Width:  float64(w),
		Height: float64(h),
	}
}

// FindRunningApp locates the app's window by WM_CLASS. A missing window is
// not an error.
func (b *LinuxBackend) FindRunningApp(appID string) (*AppHandle, error) {
	win, ok, err := b.conn.FindWindowByClass(appID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	handle := &AppHandle{WindowID: uint32(win), AppID: appID}
	if pid, err := b.conn.WindowPID(win); err == nil {
		handle.PID = pid
	}
	return handle, nil
}

// Activate raises and focuses the app's window.
func (b *LinuxBackend) Activate(h *AppHandle) error {
	return b.conn.ActivateWindow(xproto.Window(h.WindowID))
}

// WindowRect reads the window frame in internal space, which on X11 is the
// native root coordinate system.
func (b *LinuxBackend) WindowRect(h *AppHandle) (geo.Rect, error) {
	x, y, w, hh, err := b.conn.WindowGeometry(xproto.Window(h.WindowID))
	if err != nil {
		return geo.Rect{}, err
	}
	return geo.Rect{X: float64(x), Y: float64(y), Width: float64(w), Height: float64(hh)}, nil
}

// SetWindowRect writes the window origin, and dimensions when size is set.
func (b *LinuxBackend) SetWindowRect(h *AppHandle, origin geo.Point, size *geo.Size) error {
	win := xproto.Window(h.WindowID)
	if size == nil {
		return b.conn.MoveWindow(win, int(origin.X), int(origin.Y))
	}
	return b.conn.MoveResizeWindow(win, int(origin.X), int(origin.Y), int(size.Width), int(size.Height))
}
