package models

import (
	"math"
	"testing"

	"github.com/taigrr/pivot/pkg/math3d"
)

func unitBox() *Mesh {
	return Box("box", math3d.NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)))
}

func TestBoxMesh(t *testing.T) {
	m := unitBox()

	if m.VertexCount() != 8 {
		t.Errorf("VertexCount = %d, want 8", m.VertexCount())
	}
	if m.TriangleCount() != 12 {
		t.Errorf("TriangleCount = %d, want 12", m.TriangleCount())
	}
	if m.Size() != math3d.V3(2, 2, 2) {
		t.Errorf("Size = %v, want (2, 2, 2)", m.Size())
	}

	// Every face normal points away from the center.
	for i := range m.Faces {
		a, _, _ := m.Triangle(i)
		if n := m.FaceNormal(i); n.Dot(a.Sub(m.Center())) <= 0 {
			t.Errorf("face %d normal %v points inward", i, n)
		}
	}
}

func TestMeshIntersectRay(t *testing.T) {
	m := unitBox()

	tests := []struct {
		name string
		ray  math3d.Ray
		want float64
	}{
		{"from above", math3d.NewRay(math3d.V3(0.2, 0.3, 10), math3d.V3(0, 0, -1)), 9},
		{"from side", math3d.NewRay(math3d.V3(-5, 0.5, 0.5), math3d.V3(1, 0, 0)), 4},
		{"from inside", math3d.NewRay(math3d.V3(0, 0, 0), math3d.V3(0, 0, 1)), 1},
		{"miss", math3d.NewRay(math3d.V3(3, 3, 10), math3d.V3(0, 0, -1)), math3d.Miss},
		{"behind", math3d.NewRay(math3d.V3(0, 0, 10), math3d.V3(0, 0, 1)), math3d.Miss},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := m.IntersectRay(tc.ray)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("IntersectRay = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMeshIntersectRayEmpty(t *testing.T) {
	m := NewMesh("empty")
	r := math3d.NewRay(math3d.V3(0, 0, 10), math3d.V3(0, 0, -1))
	if got := m.IntersectRay(r); got != math3d.Miss {
		t.Errorf("IntersectRay on empty mesh = %v, want Miss", got)
	}
}

func TestMeshTransform(t *testing.T) {
	m := unitBox()
	moved := m.Transformed(math3d.Translate(math3d.V3(10, 0, 0)))

	if m.Center() != math3d.V3(0, 0, 0) {
		t.Errorf("original moved to %v", m.Center())
	}
	if got := moved.Center(); !got.ApproxEqual(math3d.V3(10, 0, 0), 1e-12) {
		t.Errorf("Transformed center = %v, want (10, 0, 0)", got)
	}
}

func TestMeshAppend(t *testing.T) {
	m := unitBox()
	other := Quad("quad",
		math3d.V3(5, 5, 0), math3d.V3(6, 5, 0), math3d.V3(6, 6, 0), math3d.V3(5, 6, 0))

	m.Append(other)

	if m.TriangleCount() != 14 {
		t.Errorf("TriangleCount = %d, want 14", m.TriangleCount())
	}
	if m.Bounds.Max != math3d.V3(6, 6, 1) {
		t.Errorf("Bounds.Max = %v, want (6, 6, 1)", m.Bounds.Max)
	}
	r := math3d.NewRay(math3d.V3(5.5, 5.5, 3), math3d.V3(0, 0, -1))
	if got := m.IntersectRay(r); math.Abs(got-3) > 1e-9 {
		t.Errorf("appended quad hit = %v, want 3", got)
	}
}

func TestMeshClone(t *testing.T) {
	m := unitBox()
	c := m.Clone()
	c.Vertices[0] = math3d.V3(100, 100, 100)

	if m.Vertices[0] == c.Vertices[0] {
		t.Error("Clone shares vertex storage with the original")
	}
}

func BenchmarkMeshIntersectRay(b *testing.B) {
	m := unitBox()
	r := math3d.NewRay(math3d.V3(0.2, 0.3, 10), math3d.V3(0, 0, -1))

	for b.Loop() {
		_ = m.IntersectRay(r)
	}
}
