package math3d

// Vec4 is a homogeneous point or a clip-space coordinate.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// V4FromV3 lifts v with the given W; use 1 for points and 0 for directions.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// Vec3 drops W.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// Lerp interpolates all four components, so segments clipped in clip
// space stay correct after the perspective divide.
func (v Vec4) Lerp(o Vec4, t float64) Vec4 {
	return Vec4{
		v.X + (o.X-v.X)*t,
		v.Y + (o.Y-v.Y)*t,
		v.Z + (o.Z-v.Z)*t,
		v.W + (o.W-v.W)*t,
	}
}

// PerspectiveDivide maps a clip-space coordinate to normalized device
// coordinates. W == 0 returns the XYZ part unchanged.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return v.Vec3()
	}
	inv := 1 / v.W
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}
