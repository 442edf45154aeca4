// Package geo holds the geometric primitives shared by every component that
// reasons about monitors and windows.
//
// Two rectangle types exist on purpose. DisplayRect is the raw output of the
// platform's display-enumeration API: bottom-left origin, Y grows upward.
// Rect is the internal space everything downstream of the monitor registry
// uses: top-left origin, Y grows downward. Keeping them as distinct types
// makes mixing the two spaces a compile error instead of a silently
// misplaced window.
package geo

import "math"

// Epsilon is the tolerance for coordinate round-trip comparisons.
const Epsilon = 0.01

// Point is a location in internal coordinates.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair, space-agnostic.
type Size struct {
	Width  float64
	Height float64
}

// Rect is a rectangle in internal coordinates (top-left origin, Y down).
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DisplayRect is a rectangle in platform display space (bottom-left origin,
// Y up). It only appears at the monitor-registry boundary.
type DisplayRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }
func (r Rect) MidX() float64 { return r.X + r.Width/2 }
func (r Rect) MidY() float64 { return r.Y + r.Height/2 }

// Origin returns the rectangle's top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point { return Point{X: r.MidX(), Y: r.MidY()} }

// Contains reports whether p lies inside r (inclusive left/top, exclusive
// right/bottom, matching how displays tile without overlap).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

func (d DisplayRect) MinY() float64 { return d.Y }
func (d DisplayRect) MaxY() float64 { return d.Y + d.Height }

// ToInternal converts a display-space rectangle into internal coordinates.
// refHeight must be the height of the first display the platform enumerates,
// which is the only origin anchor that is stable across process contexts.
func ToInternal(d DisplayRect, refHeight float64) Rect {
	return Rect{
		X:      d.X,
		Y:      refHeight - d.MaxY(),
		Width:  d.Width,
		Height: d.Height,
	}
}

// ToDisplay is the inverse of ToInternal.
func ToDisplay(r Rect, refHeight float64) DisplayRect {
	return DisplayRect{
		X:      r.X,
		Y:      refHeight - r.MaxY(),
		Width:  r.Width,
		Height: r.Height,
	}
}

// Near reports whether two points coincide within tol on both axes.
func Near(a, b Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// RectNear reports whether two rectangles coincide within tol on every edge.
func RectNear(a, b Rect, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Width-b.Width) <= tol &&
		math.Abs(a.Height-b.Height) <= tol
}
