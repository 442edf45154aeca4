// Package layout computes target window positions. Calculate is a pure
// function of its inputs; everything stateful lives in the engine package.
package layout

import (
	"fmt"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/geo"
)

// Calculate returns the target top-left point for a window of the given
// size placed on the given usable frame. Quadrant placements align the
// window's outer edges exactly to the frame edges; center splits the slack
// evenly. The keep placement is a no-op the caller handles before reaching
// here, so it is rejected rather than guessed at.
func Calculate(placement config.Placement, windowSize geo.Size, usable geo.Rect) (geo.Point, error) {
	switch placement {
	case config.PlacementTopLeft:
		return geo.Point{X: usable.MinX(), Y: usable.MinY()}, nil
	case config.PlacementTopRight:
		return geo.Point{X: usable.MaxX() - windowSize.Width, Y: usable.MinY()}, nil
	case config.PlacementBottomLeft:
		return geo.Point{X: usable.MinX(), Y: usable.MaxY() - windowSize.Height}, nil
	case config.PlacementBottomRight:
		return geo.Point{X: usable.MaxX() - windowSize.Width, Y: usable.MaxY() - windowSize.Height}, nil
	case config.PlacementCenter:
		return geo.Point{
			X: usable.MidX() - windowSize.Width/2,
			Y: usable.MidY() - windowSize.Height/2,
		}, nil
	case config.PlacementKeep:
		return geo.Point{}, fmt.Errorf("keep placement has no target position")
	default:
		return geo.Point{}, fmt.Errorf("unknown placement %q", placement)
	}
}
