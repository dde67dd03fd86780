package render

import (
	"math"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
)

// Wireframe renders 3D wireframe objects.
type Wireframe struct {
	vp *Viewport
	fb *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(vp *Viewport, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		vp: vp,
		fb: fb,
	}
}

// boxEdges lists the 12 edges of an AABB by corner index (see AABB.Corners).
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along X
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along Y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along Z
}

// DrawLine3D draws a line in 3D space. The segment is clipped against the
// view volume in clip space before the perspective divide.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	viewProj := w.vp.ViewProjectionMatrix()
	a, b, ok := clipSegment(
		viewProj.MulVec4(math3d.V4FromV3(p1, 1)),
		viewProj.MulVec4(math3d.V4FromV3(p2, 1)),
	)
	if !ok {
		return
	}

	x1, y1, ok1 := w.toScreen(a)
	x2, y2, ok2 := w.toScreen(b)
	if !ok1 || !ok2 {
		return
	}
	w.fb.DrawLine(x1, y1, x2, y2, color)
}

// clipPlanes are the six view volume boundaries as signed distances of a
// clip-space point; inside is non-negative.
var clipPlanes = [6]func(c math3d.Vec4) float64{
	func(c math3d.Vec4) float64 { return c.W + c.X },
	func(c math3d.Vec4) float64 { return c.W - c.X },
	func(c math3d.Vec4) float64 { return c.W + c.Y },
	func(c math3d.Vec4) float64 { return c.W - c.Y },
	func(c math3d.Vec4) float64 { return c.W + c.Z },
	func(c math3d.Vec4) float64 { return c.W - c.Z },
}

// clipSegment trims a clip-space segment to the view volume
// (Liang-Barsky). It reports false when nothing remains.
func clipSegment(a, b math3d.Vec4) (math3d.Vec4, math3d.Vec4, bool) {
	t0, t1 := 0.0, 1.0
	for _, dist := range clipPlanes {
		da, db := dist(a), dist(b)
		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			t0 = math.Max(t0, da/(da-db))
		case db < 0:
			t1 = math.Min(t1, da/(da-db))
		}
	}
	if t0 > t1 {
		return a, b, false
	}
	return a.Lerp(b, t0), a.Lerp(b, t1), true
}

func (w *Wireframe) toScreen(c math3d.Vec4) (x, y int, ok bool) {
	if c.W <= 0 {
		return 0, 0, false
	}
	ndc := c.PerspectiveDivide()
	sx := (ndc.X + 1) * 0.5 * float64(w.fb.Width)
	sy := (1 - ndc.Y) * 0.5 * float64(w.fb.Height)
	if math.IsNaN(sx) || math.IsNaN(sy) {
		return 0, 0, false
	}
	return int(math.Floor(sx)), int(math.Floor(sy)), true
}

// DrawBox draws the 12 edges of an axis-aligned box. Invalid boxes are
// skipped.
func (w *Wireframe) DrawBox(box math3d.AABB, color Color) {
	if !box.IsValid() {
		return
	}
	corners := box.Corners()
	for _, edge := range boxEdges {
		w.DrawLine3D(corners[edge[0]], corners[edge[1]], color)
	}
}

// DrawMesh draws every triangle edge of mesh. Triangles facing away from
// the camera use the dimmer back color.
func (w *Wireframe) DrawMesh(mesh *models.Mesh, front, back Color) {
	if mesh == nil || !w.vp.Frustum().IntersectAABB(mesh.Bounds) {
		return
	}
	eye := w.vp.CameraLocation()
	dir := w.vp.CameraDirection()
	parallel := w.vp.IsParallel()

	for i := range mesh.Faces {
		v0, v1, v2 := mesh.Triangle(i)
		toFace := v0.Sub(eye)
		if parallel {
			toFace = dir
		}
		color := front
		if mesh.FaceNormal(i).Dot(toFace) > 0 {
			color = back
		}
		w.DrawLine3D(v0, v1, color)
		w.DrawLine3D(v1, v2, color)
		w.DrawLine3D(v2, v0, color)
	}
}

// DrawAxes draws the coordinate axes at the origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Zero3()
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)   // X axis
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen) // Y axis
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)  // Z axis
}

// DrawGrid draws a grid on the XY plane at z=0.
func (w *Wireframe) DrawGrid(size, step float64, color Color) {
	if step <= 0 {
		return
	}
	half := size / 2
	for x := -half; x <= half+1e-9; x += step {
		w.DrawLine3D(math3d.V3(x, -half, 0), math3d.V3(x, half, 0), color)
	}
	for y := -half; y <= half+1e-9; y += step {
		w.DrawLine3D(math3d.V3(-half, y, 0), math3d.V3(half, y, 0), color)
	}
}

// DrawPoint draws a point as a small 3D cross.
func (w *Wireframe) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	h := size / 2
	w.DrawLine3D(pos.Sub(math3d.V3(h, 0, 0)), pos.Add(math3d.V3(h, 0, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, h, 0)), pos.Add(math3d.V3(0, h, 0)), color)
	w.DrawLine3D(pos.Sub(math3d.V3(0, 0, h)), pos.Add(math3d.V3(0, 0, h)), color)
}

// DrawMarker draws a screen-space cross of the given pixel radius over a
// world point. It reports whether the point was on screen.
func (w *Wireframe) DrawMarker(pos math3d.Vec3, radius int, color Color) bool {
	x, y, _, ok := w.vp.WorldToScreen(pos)
	if !ok {
		return false
	}
	sx := int(x * float64(w.fb.Width) / float64(w.vp.width))
	sy := int(y * float64(w.fb.Height) / float64(w.vp.height))
	w.fb.DrawCross(sx, sy, radius, color)
	return true
}
