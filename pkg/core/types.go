// pkg/core/types.go
package core

import "math"

// Position2D is a point on the 2D court surface. Depending on context it is
// expressed in pixels (canonical entity storage) or in meters.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Position2D) Add(q Position2D) Position2D {
	return Position2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Position2D) Sub(q Position2D) Position2D {
	return Position2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p * k.
func (p Position2D) Scale(k float64) Position2D {
	return Position2D{X: p.X * k, Y: p.Y * k}
}

// Dist returns the Euclidean distance between p and q.
func (p Position2D) Dist(q Position2D) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Position3D is a point in the 3D scene frame: X across the court, Y up,
// Z along the court depth.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Polyline is an ordered list of 2D points
type Polyline []Position2D

// Bounds is an axis-aligned bounding box in the same units as the geometry it
// was computed from.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center of the box.
func (b Bounds) Center() Position2D {
	return Position2D{X: b.Left + b.Width/2, Y: b.Top + b.Height/2}
}
