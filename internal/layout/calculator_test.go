package layout

import (
	"math/rand"
	"testing"

	"github.com/deskprof/deskprof/internal/config"
	"github.com/deskprof/deskprof/internal/geo"
)

func TestCalculateQuadrants(t *testing.T) {
	usable := geo.Rect{X: 0, Y: 0, Width: 3440, Height: 1415}
	window := geo.Size{Width: 1200, Height: 800}

	tests := []struct {
		placement config.Placement
		want      geo.Point
	}{
		{config.PlacementTopLeft, geo.Point{X: 0, Y: 0}},
		{config.PlacementTopRight, geo.Point{X: 2240, Y: 0}},
		{config.PlacementBottomLeft, geo.Point{X: 0, Y: 615}},
		{config.PlacementBottomRight, geo.Point{X: 2240, Y: 615}},
		{config.PlacementCenter, geo.Point{X: 1120, Y: 307.5}},
	}

	for _, tt := range tests {
		t.Run(string(tt.placement), func(t *testing.T) {
			got, err := Calculate(tt.placement, window, usable)
			if err != nil {
				t.Fatalf("Calculate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Calculate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateOffsetFrame(t *testing.T) {
	// A workspace monitor above the anchor display has a negative Y frame.
	usable := geo.Rect{X: -100, Y: -1440, Width: 3440, Height: 1415}
	window := geo.Size{Width: 1000, Height: 600}

	got, err := Calculate(config.PlacementBottomRight, window, usable)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	want := geo.Point{X: -100 + 3440 - 1000, Y: -1440 + 1415 - 600}
	if got != want {
		t.Errorf("Calculate = %+v, want %+v", got, want)
	}
}

func TestCalculateKeepIsRejected(t *testing.T) {
	_, err := Calculate(config.PlacementKeep, geo.Size{Width: 100, Height: 100}, geo.Rect{Width: 1000, Height: 1000})
	if err == nil {
		t.Fatal("expected error for keep placement")
	}
}

// TestCalculateContainment checks the edge-alignment invariant: any window
// no larger than the frame lands entirely inside it, touching the target
// edges with zero padding.
func TestCalculateContainment(t *testing.T) {
	placements := []config.Placement{
		config.PlacementTopLeft,
		config.PlacementTopRight,
		config.PlacementBottomLeft,
		config.PlacementBottomRight,
		config.PlacementCenter,
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		usable := geo.Rect{
			X:      float64(rng.Intn(8000) - 4000),
			Y:      float64(rng.Intn(8000) - 4000),
			Width:  float64(rng.Intn(3000) + 400),
			Height: float64(rng.Intn(2000) + 300),
		}
		window := geo.Size{
			Width:  float64(rng.Intn(int(usable.Width))) + 1,
			Height: float64(rng.Intn(int(usable.Height))) + 1,
		}

		for _, p := range placements {
			origin, err := Calculate(p, window, usable)
			if err != nil {
				t.Fatalf("Calculate(%s) failed: %v", p, err)
			}
			if origin.X < usable.MinX()-geo.Epsilon ||
				origin.Y < usable.MinY()-geo.Epsilon ||
				origin.X+window.Width > usable.MaxX()+geo.Epsilon ||
				origin.Y+window.Height > usable.MaxY()+geo.Epsilon {
				t.Fatalf("%s: window %+v at %+v overflows frame %+v", p, window, origin, usable)
			}
		}
	}
}
