package math3d

import "math"

// Vec2 represents a 2D vector, used for screen positions and mouse offsets.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Add returns the vector sum a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Sub returns the vector difference a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale returns the scalar product a * s.
func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Len returns the length of the vector.
func (a Vec2) Len() float64 {
	return math.Hypot(a.X, a.Y)
}

// IsZero reports whether both components are zero.
func (a Vec2) IsZero() bool {
	return a.X == 0 && a.Y == 0
}
