package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Display represents a physical output as reported by XRandR. Full is the
// raw CRTC geometry, Usable is the same geometry minus dock/panel struts.
// Coordinates are root-window (top-left origin) pixels.
type Display struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int

	UsableX      int
	UsableY      int
	UsableWidth  int
	UsableHeight int
}

// GetDisplays retrieves all active outputs using XRandR, in CRTC order. The
// first entry is the anchor every other coordinate conversion is measured
// against, so the order must be stable across calls.
func (c *Connection) GetDisplays() ([]Display, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var displays []Display

	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			outputName = string(outputInfo.Name)
		}

		d := Display{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		d.UsableX, d.UsableY = d.X, d.Y
		d.UsableWidth, d.UsableHeight = d.Width, d.Height
		displays = append(displays, d)
	}

	if len(displays) == 0 {
		return nil, fmt.Errorf("no active displays found")
	}

	c.applyDockStruts(displays)
	return displays, nil
}

// IsInternalPanel reports whether an output name identifies a laptop panel.
func IsInternalPanel(name string) bool {
	upper := strings.ToUpper(name)
	for _, prefix := range []string{"EDP", "LVDS", "DSI"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

// applyDockStruts shrinks each display's usable area by any dock or panel
// struts that overlap it.
func (c *Connection) applyDockStruts(displays []Display) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return
	}

	for _, windowID := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
		if err != nil {
			continue
		}

		isDock := false
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DOCK" {
				isDock = true
				break
			}
		}
		if !isDock {
			continue
		}

		sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID)
		if err != nil {
			// Some docks only set _NET_WM_STRUT (no partial ranges).
			s, err := ewmh.WmStrutGet(c.XUtil, windowID)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootHeight - 1),
				RightStartY:  0,
				RightEndY:    uint(rootHeight - 1),
				TopStartX:    0,
				TopEndX:      uint(rootWidth - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootWidth - 1),
			}
		}

		for i := range displays {
			var struts dockStruts
			accumulateStruts(&displays[i], rootWidth, rootHeight, sp, &struts)
			shrinkUsable(&displays[i], struts)
		}
	}
}

func shrinkUsable(d *Display, s dockStruts) {
	d.UsableX += s.left
	d.UsableY += s.top
	d.UsableWidth -= s.left + s.right
	d.UsableHeight -= s.top + s.bottom
	if d.UsableWidth < 1 {
		d.UsableWidth = 1
	}
	if d.UsableHeight < 1 {
		d.UsableHeight = 1
	}
}

func accumulateStruts(d *Display, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *dockStruts) {
	x1 := d.UsableX
	y1 := d.UsableY
	x2 := d.UsableX + d.UsableWidth
	y2 := d.UsableY + d.UsableHeight

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		sx1, sx2 := int(sp.TopStartX), int(sp.TopEndX)+1
		sy1, sy2 := 0, int(sp.Top)
		if isect := intersectionSize(x1, y1, x2, y2, sx1, sy1, sx2, sy2); isect.h > 0 {
			acc.top = max(acc.top, isect.h)
		}
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		sx1, sx2 := int(sp.BottomStartX), int(sp.BottomEndX)+1
		sy1, sy2 := rootHeight-int(sp.Bottom), rootHeight
		if isect := intersectionSize(x1, y1, x2, y2, sx1, sy1, sx2, sy2); isect.h > 0 {
			acc.bottom = max(acc.bottom, isect.h)
		}
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		sx1, sx2 := 0, int(sp.Left)
		sy1, sy2 := int(sp.LeftStartY), int(sp.LeftEndY)+1
		if isect := intersectionSize(x1, y1, x2, y2, sx1, sy1, sx2, sy2); isect.w > 0 {
			acc.left = max(acc.left, isect.w)
		}
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		sx1, sx2 := rootWidth-int(sp.Right), rootWidth
		sy1, sy2 := int(sp.RightStartY), int(sp.RightEndY)+1
		if isect := intersectionSize(x1, y1, x2, y2, sx1, sy1, sx2, sy2); isect.w > 0 {
			acc.right = max(acc.right, isect.w)
		}
	}
}

type intersection struct {
	w int
	h int
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
