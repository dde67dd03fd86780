package math3d

import "math"

// AABB represents an axis-aligned bounding box.
//
// The zero value is a degenerate box at the origin; use EmptyAABB for a
// box that unions cleanly with anything.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABB creates an AABB from min and max points.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns the inverted box that contains nothing. It is not valid
// until something is unioned into it.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// IsValid reports whether the box has finite corners with Min <= Max on
// every axis. Flat boxes are valid.
func (b AABB) IsValid() bool {
	return b.Min.IsFinite() && b.Max.IsFinite() &&
		b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Center returns the center of the AABB.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the AABB.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// HalfSize returns half the dimensions (extents from center).
func (b AABB) HalfSize() Vec3 {
	return b.Size().Scale(0.5)
}

// Diagonal returns the length of the box diagonal.
func (b AABB) Diagonal() float64 {
	return b.Size().Len()
}

// Union returns the smallest box containing both b and o. An invalid
// operand is ignored.
func (b AABB) Union(o AABB) AABB {
	if !o.IsValid() {
		return b
	}
	if !b.IsValid() {
		return o
	}
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Expand returns the box grown to include p.
func (b AABB) Expand(p Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Inflate returns the box grown by d on every side.
func (b AABB) Inflate(d float64) AABB {
	off := Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(off), Max: b.Max.Add(off)}
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// Transform returns an AABB that bounds the original AABB after
// transformation. The result is looser than the true bounds of the
// transformed geometry, which makes it a cheap approximate box.
func (b AABB) Transform(m Mat4) AABB {
	corners := b.Corners()
	out := EmptyAABB()
	for _, c := range corners {
		out = out.Expand(m.MulVec3(c))
	}
	return out
}

// ContainsPoint returns true if the point is inside the AABB.
func (b AABB) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
