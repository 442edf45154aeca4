package geo

import (
	"math"
	"math/rand"
	"testing"
)

func TestToInternalFlipsYAxis(t *testing.T) {
	// A 3440x1440 external sitting above a 1512-high reference display in
	// display space (bottom-left origin).
	d := DisplayRect{X: 0, Y: 1512, Width: 3440, Height: 1440}
	r := ToInternal(d, 1512)

	if r.X != 0 || r.Width != 3440 || r.Height != 1440 {
		t.Fatalf("X/size must pass through unchanged, got %+v", r)
	}
	// internalY = refHeight - maxY = 1512 - (1512+1440) = -1440
	if r.Y != -1440 {
		t.Fatalf("expected internal Y=-1440, got %v", r.Y)
	}
}

func TestToInternalIdentityForAnchorDisplay(t *testing.T) {
	// The first-enumerated display itself maps to origin in internal space.
	d := DisplayRect{X: 0, Y: 0, Width: 1512, Height: 982}
	r := ToInternal(d, 982)
	if r.X != 0 || r.Y != 0 {
		t.Fatalf("anchor display should map to the internal origin, got %+v", r)
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		d := DisplayRect{
			X:      rng.Float64()*8000 - 4000,
			Y:      rng.Float64()*8000 - 4000,
			Width:  rng.Float64() * 4000,
			Height: rng.Float64() * 4000,
		}
		refHeight := d.MaxY() + rng.Float64()*2000
		back := ToDisplay(ToInternal(d, refHeight), refHeight)

		if math.Abs(back.X-d.X) > Epsilon ||
			math.Abs(back.Y-d.Y) > Epsilon ||
			math.Abs(back.Width-d.Width) > Epsilon ||
			math.Abs(back.Height-d.Height) > Epsilon {
			t.Fatalf("round trip diverged: in=%+v out=%+v ref=%v", d, back, refHeight)
		}
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}

	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{60, 35}, true},
		{"top-left corner inclusive", Point{10, 10}, true},
		{"right edge exclusive", Point{110, 35}, false},
		{"bottom edge exclusive", Point{60, 60}, false},
		{"outside", Point{0, 0}, false},
	}
	for _, tc := range cases {
		if got := r.Contains(tc.p); got != tc.want {
			t.Errorf("%s: Contains(%+v) = %v, want %v", tc.name, tc.p, got, tc.want)
		}
	}
}

func TestNormalizeResolution(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3440x1440", "3440x1440"},
		{"3440.0x1440.0", "3440x1440"},
		{"3440 x 1440", "3440x1440"},
		{" 1512x982 ", "1512x982"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeResolution(tc.in); got != tc.want {
			t.Errorf("NormalizeResolution(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeResolutionIdempotent(t *testing.T) {
	inputs := []string{"3440x1440", "3440.0x1440.0", "3440 x 1440", "weird .0 .0 label"}
	for _, s := range inputs {
		once := NormalizeResolution(s)
		if twice := NormalizeResolution(once); twice != once {
			t.Errorf("normalization not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestEquivalentResolution(t *testing.T) {
	if !EquivalentResolution("3440x1440", "3440.0x1440.0") {
		t.Error("decimal-suffixed label should match")
	}
	if !EquivalentResolution("3440 x 1440", "3440x1440") {
		t.Error("spaced label should match")
	}
	if EquivalentResolution("3440x1440", "2560x1440") {
		t.Error("different widths must not match")
	}
}
