package math3d

import "math"

// Miss is the parameter returned by ray tests that find no forward hit.
const Miss = -1.0

// triangleEpsilon rejects rays parallel to a triangle.
const triangleEpsilon = 1e-12

// Ray is a half-line Origin + t*Direction for t >= 0. Direction is not
// required to be unit length; parameters are in units of Direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	invDir    Vec3
}

// NewRay creates a ray and caches the reciprocal direction for slab tests.
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, invDir: direction.Recip()}
}

// RayThrough creates the ray from a toward b, so that t=0 is a and t=1 is b.
func RayThrough(a, b Vec3) Ray {
	return NewRay(a, b.Sub(a))
}

// PointAt returns Origin + t*Direction.
func (r Ray) PointAt(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// slabs returns the entry and exit parameters of the ray against the box.
// An axis the ray runs parallel to either contains the origin, and so does
// not constrain the interval, or rejects the box outright.
func (r Ray) slabs(b AABB) (tMin, tMax float64) {
	tMin, tMax = math.Inf(-1), math.Inf(1)

	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	inv := [3]float64{r.invDir.X, r.invDir.Y, r.invDir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for i := range 3 {
		if dir[i] == 0 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return math.Inf(1), math.Inf(-1)
			}
			continue
		}
		t1 := (lo[i] - origin[i]) * inv[i]
		t2 := (hi[i] - origin[i]) * inv[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
	}
	return tMin, tMax
}

// IntersectAABB returns the parameter where the ray enters b, 0 when the
// origin is already inside, or Miss when the ray does not reach the box in
// its forward direction. Invalid boxes always miss.
func (r Ray) IntersectAABB(b AABB) float64 {
	if !b.IsValid() {
		return Miss
	}
	tMin, tMax := r.slabs(b)
	if tMax < math.Max(tMin, 0) {
		return Miss
	}
	return math.Max(tMin, 0)
}

// MidpointAABB returns the parameter halfway between where the ray enters
// and leaves b, so the point lies inside the box rather than on its near
// face. Returns Miss when IntersectAABB would.
func (r Ray) MidpointAABB(b AABB) float64 {
	if !b.IsValid() {
		return Miss
	}
	tMin, tMax := r.slabs(b)
	if tMax < math.Max(tMin, 0) {
		return Miss
	}
	return (math.Max(tMin, 0) + tMax) / 2
}

// IntersectTriangle returns the Möller–Trumbore hit parameter against the
// triangle (a, b, c), or Miss. Back faces are hit as well.
func (r Ray) IntersectTriangle(a, b, c Vec3) float64 {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	h := r.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if math.Abs(det) < triangleEpsilon {
		return Miss
	}

	f := 1 / det
	s := r.Origin.Sub(a)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return Miss
	}

	q := s.Cross(edge1)
	v := f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return Miss
	}

	t := f * edge2.Dot(q)
	if t < 0 {
		return Miss
	}
	return t
}

// IntersectPlane returns the parameter where the ray line crosses p. The
// parameter may be negative; ok is false when the ray is parallel.
func (r Ray) IntersectPlane(p Plane) (t float64, ok bool) {
	denom := p.Normal.Dot(r.Direction)
	if math.Abs(denom) < triangleEpsilon {
		return 0, false
	}
	return -(p.Normal.Dot(r.Origin) + p.D) / denom, true
}
