package math3d

import (
	"math"
	"testing"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    Vec3
		expected float64
	}{
		{"origin", V3(0, 0, 0), 0},
		{"in front", V3(0, 0, 5), 5},
		{"behind", V3(0, 0, -3), -3},
		{"offset XY", V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: V3(0, 3, 4), D: 10}
	plane.Normalize()

	if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", length)
	}
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 {
		t.Errorf("normal.Y = %v, want 0.6", plane.Normal.Y)
	}
	if math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal.Z = %v, want 0.8", plane.Normal.Z)
	}
	// D scales with the normal (10/5 = 2)
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

func TestPlaneFromPoint(t *testing.T) {
	p := PlaneFromPoint(V3(0, 0, 4), V3(0, 0, 2))
	if d := p.DistanceToPoint(V3(3, 3, 4)); math.Abs(d) > 1e-12 {
		t.Errorf("point on plane has distance %v", d)
	}
	if d := p.DistanceToPoint(V3(0, 0, 6)); math.Abs(d-2) > 1e-12 {
		t.Errorf("distance = %v, want 2", d)
	}

	moved := p.Translated(V3(1, 1, -1))
	if d := moved.DistanceToPoint(V3(0, 0, -1)); math.Abs(d) > 1e-12 {
		t.Errorf("translated plane distance = %v, want 0", d)
	}
}

func TestFrustumFromPerspective(t *testing.T) {
	proj := Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	frustum := NewFrustumFromMatrix(proj.Mul(Identity()))

	for i, plane := range frustum.Planes {
		if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1.0", i, length)
		}
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	proj := Perspective(math.Pi/3, 16.0/9.0, 0.1, 100.0)
	frustum := NewFrustumFromMatrix(proj)

	tests := []struct {
		name     string
		point    Vec3
		expected bool
	}{
		{"center near", V3(0, 0, -1), true},
		{"center mid", V3(0, 0, -50), true},
		{"center far", V3(0, 0, -99), true},
		{"behind camera", V3(0, 0, 1), false},
		{"too far", V3(0, 0, -200), false},
		{"too close", V3(0, 0, -0.01), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := frustum.ContainsPoint(tc.point)
			if result != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, result, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectAABB(t *testing.T) {
	proj := Perspective(math.Pi/3, 16.0/9.0, 1.0, 100.0)
	frustum := NewFrustumFromMatrix(proj)

	tests := []struct {
		name     string
		box      AABB
		expected bool
	}{
		{"fully inside", NewAABB(V3(-1, -1, -10), V3(1, 1, -5)), true},
		{"crosses near plane", NewAABB(V3(-1, -1, -2), V3(1, 1, 2)), true},
		{"behind camera", NewAABB(V3(-1, -1, 5), V3(1, 1, 10)), false},
		{"beyond far plane", NewAABB(V3(-1, -1, -150), V3(1, 1, -120)), false},
		{"far to the right", NewAABB(V3(100, -1, -10), V3(110, 1, -5)), false},
		{"large box containing frustum", NewAABB(V3(-200, -200, -200), V3(200, 200, 200)), true},
		{"empty", EmptyAABB(), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := frustum.IntersectAABB(tc.box)
			if result != tc.expected {
				t.Errorf("IntersectAABB(%v) = %v, want %v", tc.box, result, tc.expected)
			}
		})
	}
}

func TestFrustumWithRotatedCamera(t *testing.T) {
	proj := Perspective(math.Pi/3, 1.0, 1.0, 100.0)
	view := LookAt(V3(0, 0, 0), V3(10, 0, 0), V3(0, 0, 1))
	frustum := NewFrustumFromMatrix(proj.Mul(view))

	if !frustum.ContainsPoint(V3(10, 0, 0)) {
		t.Error("point in front of rotated camera should be visible")
	}
	if frustum.ContainsPoint(V3(-10, 0, 0)) {
		t.Error("point behind rotated camera should not be visible")
	}
}

func TestFrustumOrthographic(t *testing.T) {
	proj := Orthographic(-5, 5, -5, 5, 0.1, 50)
	frustum := NewFrustumFromMatrix(proj)

	if !frustum.ContainsPoint(V3(4, -4, -20)) {
		t.Error("point inside the box volume should be visible")
	}
	if frustum.ContainsPoint(V3(6, 0, -20)) {
		t.Error("point beyond the right plane should be culled")
	}
}

func BenchmarkFrustumIntersectAABB(b *testing.B) {
	frustum := NewFrustumFromMatrix(Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000.0))
	box := NewAABB(V3(-1, -1, -10), V3(1, 1, -5))

	for b.Loop() {
		_ = frustum.IntersectAABB(box)
	}
}

func BenchmarkFrustumExtraction(b *testing.B) {
	proj := Perspective(math.Pi/3, 16.0/9.0, 0.1, 1000.0)
	view := LookAt(V3(0, 10, 20), V3(0, 0, 0), V3(0, 1, 0))
	viewProj := proj.Mul(view)

	for b.Loop() {
		_ = NewFrustumFromMatrix(viewProj)
	}
}

func BenchmarkAABBTransform(b *testing.B) {
	box := NewAABB(V3(-1, -1, -1), V3(1, 1, 1))
	trans := Translate(V3(10, 0, 0)).Mul(RotateZ(0.5))

	for b.Loop() {
		_ = box.Transform(trans)
	}
}
