package math3d

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal Vec3
	D      float64
}

// PlaneFromPoint creates the plane through p with the given normal.
func PlaneFromPoint(p, normal Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(p)}
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Translated returns the parallel plane passing through point.
func (p Plane) Translated(point Vec3) Plane {
	return Plane{Normal: p.Normal, D: -p.Normal.Dot(point)}
}

// Frustum represents the 6 planes of a view frustum.
// Planes are ordered: Left, Right, Bottom, Top, Near, Far.
// Each plane's normal points inward (toward the center of the frustum).
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts frustum planes from a view-projection matrix
// using the Gribb/Hartmann method. The resulting planes have normals
// pointing inward.
func NewFrustumFromMatrix(m Mat4) Frustum {
	var f Frustum

	// Row i of the column-major matrix is m[i], m[i+4], m[i+8], m[i+12].
	row := func(i int) Vec4 { return Vec4{m[i], m[i+4], m[i+8], m[i+12]} }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	plane := func(a, b Vec4, sign float64) Plane {
		return Plane{
			Normal: V3(a.X+sign*b.X, a.Y+sign*b.Y, a.Z+sign*b.Z),
			D:      a.W + sign*b.W,
		}
	}

	f.Planes[FrustumLeft] = plane(r3, r0, 1)
	f.Planes[FrustumRight] = plane(r3, r0, -1)
	f.Planes[FrustumBottom] = plane(r3, r1, 1)
	f.Planes[FrustumTop] = plane(r3, r1, -1)
	f.Planes[FrustumNear] = plane(r3, r2, 1)
	f.Planes[FrustumFar] = plane(r3, r2, -1)

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}

	return f
}

// IntersectAABB tests if the AABB intersects or is inside the frustum.
// Uses the "positive vertex" optimization for faster rejection.
func (f Frustum) IntersectAABB(box AABB) bool {
	if !box.IsValid() {
		return false
	}
	for i := range f.Planes {
		plane := f.Planes[i]

		// The corner furthest along the normal is the last one to leave.
		pVertex := V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)

		if plane.DistanceToPoint(pVertex) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
