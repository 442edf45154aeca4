package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// FindWindowByClass searches the EWMH client list for a normal window whose
// WM_CLASS instance or class matches appID (case-insensitive). Returns 0
// with ok=false when no such window exists; that is not an error.
func (c *Connection) FindWindowByClass(appID string) (xproto.Window, bool, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get client list: %w", err)
	}

	want := strings.ToLower(appID)
	for _, win := range clients {
		if !c.isNormalWindow(win) {
			continue
		}
		hints, err := icccm.WmClassGet(c.XUtil, win)
		if err != nil {
			continue
		}
		if strings.ToLower(hints.Instance) == want || strings.ToLower(hints.Class) == want {
			return win, true, nil
		}
	}
	return 0, false, nil
}

// WindowGeometry returns a window's root-relative frame in root-window
// (top-left origin) pixels.
func (c *Connection) WindowGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get window geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to translate coordinates: %w", err)
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	// A maximized window ignores configure requests, so drop the state first.
	c.unmaximizeWindow(windowID)

	err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// MoveWindow repositions a window without touching its size.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	c.unmaximizeWindow(windowID)

	_, _, width, height, err := c.WindowGeometry(windowID)
	if err != nil {
		return err
	}
	return c.MoveResizeWindow(windowID, x, y, width, height)
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}

	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReq(c.XUtil, windowID, 0, state)
		}
	}
}

// ActivateWindow raises and focuses a window using _NET_ACTIVE_WINDOW.
// The message is built manually because the xgbutil ewmh helper panics on
// this library version (uint vs int type assertion).
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// WindowPID returns the process id behind a window, when the client sets
// _NET_WM_PID.
func (c *Connection) WindowPID(windowID xproto.Window) (int, error) {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window pid: %w", err)
	}
	return int(pid), nil
}

// isNormalWindow checks if a window is a normal application window
func (c *Connection) isNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	return len(types) == 0
}
