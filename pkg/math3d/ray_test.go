package math3d

import (
	"math"
	"testing"
)

func TestRayIntersectAABB(t *testing.T) {
	box := NewAABB(V3(-1, -1, -1), V3(1, 1, 1))

	tests := []struct {
		name string
		ray  Ray
		want float64
	}{
		{"head on", NewRay(V3(0, 0, 10), V3(0, 0, -1)), 9},
		{"scaled direction", NewRay(V3(0, 0, 10), V3(0, 0, -2)), 4.5},
		{"origin inside", NewRay(V3(0, 0, 0), V3(1, 0, 0)), 0},
		{"pointing away", NewRay(V3(0, 0, 10), V3(0, 0, 1)), Miss},
		{"parallel outside slab", NewRay(V3(5, 0, 10), V3(0, 0, -1)), Miss},
		{"parallel on face", NewRay(V3(1, 0, 10), V3(0, 0, -1)), 9},
		{"grazing edge", NewRay(V3(1, 1, 10), V3(0, 0, -1)), 9},
		{"diagonal", NewRay(V3(-5, -5, 0), V3(1, 1, 0)), 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.ray.IntersectAABB(box)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("IntersectAABB = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRayIntersectInvalidAABB(t *testing.T) {
	r := NewRay(V3(0, 0, 10), V3(0, 0, -1))
	if got := r.IntersectAABB(EmptyAABB()); got != Miss {
		t.Errorf("empty box = %v, want Miss", got)
	}
	if got := r.MidpointAABB(EmptyAABB()); got != Miss {
		t.Errorf("empty box midpoint = %v, want Miss", got)
	}
}

func TestRayMidpointAABB(t *testing.T) {
	box := NewAABB(V3(-1, -1, -1), V3(1, 1, 1))

	tests := []struct {
		name string
		ray  Ray
		want float64
	}{
		{"outside", NewRay(V3(0, 0, 10), V3(0, 0, -1)), 10},
		{"inside", NewRay(V3(0, 0, 0), V3(0, 0, -1)), 0.5},
		{"flat box", NewRay(V3(0, 0, 10), V3(0, 0, -1)), 10},
		{"miss", NewRay(V3(3, 0, 10), V3(0, 0, -1)), Miss},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := box
			if tc.name == "flat box" {
				b = NewAABB(V3(-1, -1, 0), V3(1, 1, 0))
			}
			got := tc.ray.MidpointAABB(b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("MidpointAABB = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRayIntersectTriangle(t *testing.T) {
	a, b, c := V3(0, 0, 0), V3(2, 0, 0), V3(0, 2, 0)

	tests := []struct {
		name string
		ray  Ray
		want float64
	}{
		{"front face", NewRay(V3(0.5, 0.5, 5), V3(0, 0, -1)), 5},
		{"back face", NewRay(V3(0.5, 0.5, -3), V3(0, 0, 1)), 3},
		{"outside", NewRay(V3(1.5, 1.5, 5), V3(0, 0, -1)), Miss},
		{"behind origin", NewRay(V3(0.5, 0.5, 5), V3(0, 0, 1)), Miss},
		{"parallel", NewRay(V3(0.5, 0.5, 5), V3(1, 0, 0)), Miss},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.ray.IntersectTriangle(a, b, c)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("IntersectTriangle = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRayIntersectPlane(t *testing.T) {
	p := PlaneFromPoint(V3(0, 0, 2), V3(0, 0, 1))

	r := NewRay(V3(1, 1, 10), V3(0, 0, -1))
	tt, ok := r.IntersectPlane(p)
	if !ok || math.Abs(tt-8) > 1e-12 {
		t.Errorf("IntersectPlane = (%v, %v), want (8, true)", tt, ok)
	}
	if got := r.PointAt(tt); !got.ApproxEqual(V3(1, 1, 2), 1e-12) {
		t.Errorf("PointAt = %v, want (1, 1, 2)", got)
	}

	if _, ok := NewRay(V3(0, 0, 10), V3(1, 0, 0)).IntersectPlane(p); ok {
		t.Error("parallel ray should not intersect")
	}
}

func TestRayThrough(t *testing.T) {
	r := RayThrough(V3(1, 2, 3), V3(1, 2, -7))
	if got := r.PointAt(1); got != V3(1, 2, -7) {
		t.Errorf("PointAt(1) = %v, want far point", got)
	}
	if got := r.PointAt(0.5); got != V3(1, 2, -2) {
		t.Errorf("PointAt(0.5) = %v, want (1, 2, -2)", got)
	}
}
