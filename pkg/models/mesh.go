// Package models provides the triangle meshes that back document objects,
// along with loaders that read them from glTF files.
package models

import (
	"math"

	"github.com/taigrr/pivot/pkg/math3d"
)

// Mesh is an indexed triangle mesh in world coordinates.
type Mesh struct {
	Name     string
	Vertices []math3d.Vec3
	Faces    []Face

	// Bounds is recalculated by CalculateBounds and every mutating method.
	Bounds math3d.AABB
}

// Face represents a triangle by its indices into Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]math3d.Vec3, 0),
		Faces:    make([]Face, 0),
		Bounds:   math3d.EmptyAABB(),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	m.Bounds = math3d.EmptyAABB()
	for _, v := range m.Vertices {
		m.Bounds = m.Bounds.Expand(v)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.Bounds.Center()
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.Bounds.Size()
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Triangle returns the corners of face i.
func (m *Mesh) Triangle(i int) (a, b, c math3d.Vec3) {
	f := m.Faces[i].V
	return m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
}

// FaceNormal returns the unit normal of face i using counter-clockwise
// winding.
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	a, b, c := m.Triangle(i)
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// IntersectRay returns the smallest ray parameter at which r hits a
// triangle of the mesh, or math3d.Miss.
func (m *Mesh) IntersectRay(r math3d.Ray) float64 {
	if r.IntersectAABB(m.Bounds) < 0 {
		return math3d.Miss
	}

	best := math.Inf(1)
	for i := range m.Faces {
		a, b, c := m.Triangle(i)
		if t := r.IntersectTriangle(a, b, c); t >= 0 && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return math3d.Miss
	}
	return best
}

// Transform applies a transformation matrix to all vertices.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i] = mat.MulVec3(m.Vertices[i])
	}
	m.CalculateBounds()
}

// Transformed returns a transformed copy, leaving m untouched.
func (m *Mesh) Transformed(mat math3d.Mat4) *Mesh {
	c := m.Clone()
	c.Transform(mat)
	return c
}

// Append merges the geometry of o into m.
func (m *Mesh) Append(o *Mesh) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, f := range o.Faces {
		m.Faces = append(m.Faces, Face{V: [3]int{base + f.V[0], base + f.V[1], base + f.V[2]}})
	}
	m.Bounds = m.Bounds.Union(o.Bounds)
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:     m.Name,
		Vertices: make([]math3d.Vec3, len(m.Vertices)),
		Faces:    make([]Face, len(m.Faces)),
		Bounds:   m.Bounds,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	return clone
}

// Box creates a closed box mesh spanning b, with outward-facing triangles.
func Box(name string, b math3d.AABB) *Mesh {
	m := NewMesh(name)
	c := b.Corners()
	m.Vertices = append(m.Vertices, c[:]...)

	// Corner index bits: 1 = max X, 2 = max Y, 4 = max Z.
	quads := [6][4]int{
		{0, 2, 3, 1}, // -Z
		{4, 5, 7, 6}, // +Z
		{0, 1, 5, 4}, // -Y
		{2, 6, 7, 3}, // +Y
		{0, 4, 6, 2}, // -X
		{1, 3, 7, 5}, // +X
	}
	for _, q := range quads {
		m.Faces = append(m.Faces,
			Face{V: [3]int{q[0], q[1], q[2]}},
			Face{V: [3]int{q[0], q[2], q[3]}},
		)
	}
	m.CalculateBounds()
	return m
}

// Quad creates a single two-triangle patch from four corners in
// counter-clockwise order.
func Quad(name string, a, b, c, d math3d.Vec3) *Mesh {
	m := NewMesh(name)
	m.Vertices = append(m.Vertices, a, b, c, d)
	m.Faces = append(m.Faces, Face{V: [3]int{0, 1, 2}}, Face{V: [3]int{0, 2, 3}})
	m.CalculateBounds()
	return m
}
