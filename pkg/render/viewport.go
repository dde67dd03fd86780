package render

import (
	"math"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/view"
)

// Viewport is a 3D view onto the world with its own camera pose and
// projection. It implements view.Viewport.
//
// World space is Z up. Screen space is in pixels with the origin at the
// top-left corner.
type Viewport struct {
	width, height int

	location  math3d.Vec3
	direction math3d.Vec3
	up        math3d.Vec3

	projection view.Projection

	// Projection parameters
	FOV  float64 // Vertical field of view in radians
	Near float64 // Near clipping plane
	Far  float64 // Far clipping plane

	halfWidth, halfHeight float64

	pivot        math3d.Vec3
	cplane       math3d.Plane
	cplaneOrigin math3d.Vec3

	redraws  int
	onRedraw func()

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	invViewProj    math3d.Mat4
	invertible     bool
	viewDirty      bool
	projDirty      bool
	vpDirty        bool
}

// NewViewport creates a width x height perspective viewport with the camera
// at (0, 0, 10) looking down at the origin.
func NewViewport(width, height int) *Viewport {
	vp := &Viewport{
		width:      max(width, 1),
		height:     max(height, 1),
		projection: view.Perspective,
		FOV:        math.Pi / 3, // 60 degrees
		Near:       0.1,
		Far:        1000,
		cplane:     math3d.PlaneFromPoint(math3d.Zero3(), math3d.UnitZ()),
	}
	vp.SetCamera(math3d.V3(0, 0, 10), math3d.V3(0, 0, -1), math3d.UnitY())
	vp.deriveHalfExtents()
	vp.projDirty = true
	return vp
}

// Size returns the viewport size in pixels.
func (v *Viewport) Size() (width, height int) {
	return v.width, v.height
}

// AspectRatio returns width / height.
func (v *Viewport) AspectRatio() float64 {
	return float64(v.width) / float64(v.height)
}

// Resize changes the pixel size. The parallel half height is kept and the
// half width follows the new aspect ratio.
func (v *Viewport) Resize(width, height int) {
	v.width = max(width, 1)
	v.height = max(height, 1)
	v.halfWidth = v.halfHeight * v.AspectRatio()
	v.projDirty = true
}

// SetFOV sets the vertical field of view (in radians).
func (v *Viewport) SetFOV(fov float64) {
	v.FOV = fov
	v.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (v *Viewport) SetClipPlanes(near, far float64) {
	v.Near = near
	v.Far = far
	v.projDirty = true
}

// CameraLocation returns the camera position.
func (v *Viewport) CameraLocation() math3d.Vec3 { return v.location }

// CameraDirection returns the unit view direction.
func (v *Viewport) CameraDirection() math3d.Vec3 { return v.direction }

// CameraUp returns the unit camera up vector, orthogonal to the direction.
func (v *Viewport) CameraUp() math3d.Vec3 { return v.up }

// SetCamera sets the camera pose. The up vector is made orthogonal to
// direction; when the two are parallel a perpendicular up is chosen. A
// two-point viewport additionally keeps up in the vertical plane through
// the view direction.
func (v *Viewport) SetCamera(location, direction, up math3d.Vec3) {
	d := direction.Normalize()
	if d.LenSq() == 0 {
		d = v.direction
	}
	if v.projection == view.TwoPoint {
		up = math3d.UnitZ()
	}
	u := up.Sub(d.Scale(up.Dot(d)))
	if u.LenSq() < 1e-18 {
		u = perpendicular(d)
	}

	v.location = location
	v.direction = d
	v.up = u.Normalize()
	v.viewDirty = true
}

// LookAt points the camera at target, keeping up as close to the given
// vector as possible.
func (v *Viewport) LookAt(target, up math3d.Vec3) {
	v.SetCamera(v.location, target.Sub(v.location), up)
}

// perpendicular returns a unit vector orthogonal to d.
func perpendicular(d math3d.Vec3) math3d.Vec3 {
	axis := math3d.UnitY()
	if math.Abs(d.Y) > 0.9 {
		axis = math3d.UnitX()
	}
	return d.Cross(axis).Cross(d).Normalize()
}

// Projection returns the projection kind.
func (v *Viewport) Projection() view.Projection { return v.projection }

// IsParallel reports whether the viewport uses a parallel projection.
func (v *Viewport) IsParallel() bool { return v.projection == view.Parallel }

// SetProjection switches the projection. Entering parallel sizes the view
// volume so that the plane through the pivot keeps its on-screen scale.
func (v *Viewport) SetProjection(p view.Projection) {
	if p == v.projection {
		return
	}
	if p == view.Parallel {
		v.deriveHalfExtents()
	}
	v.projection = p
	v.projDirty = true
	if p == view.TwoPoint {
		v.SetCamera(v.location, v.direction, v.up)
	}
}

func (v *Viewport) deriveHalfExtents() {
	dist := v.pivot.Sub(v.location).Dot(v.direction)
	if dist <= 0 {
		dist = v.pivot.Distance(v.location)
	}
	if dist <= 0 {
		dist = 1
	}
	v.halfHeight = dist * math.Tan(v.FOV/2)
	v.halfWidth = v.halfHeight * v.AspectRatio()
}

// FrustumHalfExtents returns half the width and height of the parallel view
// volume in world units.
func (v *Viewport) FrustumHalfExtents() (halfWidth, halfHeight float64) {
	return v.halfWidth, v.halfHeight
}

// SetFrustumHalfExtents sets the parallel view volume. Non-positive values
// are ignored.
func (v *Viewport) SetFrustumHalfExtents(halfWidth, halfHeight float64) {
	if halfWidth <= 0 || halfHeight <= 0 {
		return
	}
	v.halfWidth = halfWidth
	v.halfHeight = halfHeight
	v.projDirty = true
}

// Pivot returns the rotation center.
func (v *Viewport) Pivot() math3d.Vec3 { return v.pivot }

// SetPivot sets the rotation center without moving the camera.
func (v *Viewport) SetPivot(p math3d.Vec3) { v.pivot = p }

// ConstructionPlane returns the current construction plane.
func (v *Viewport) ConstructionPlane() math3d.Plane { return v.cplane }

// SetConstructionPlane sets the construction plane through origin with the
// given normal.
func (v *Viewport) SetConstructionPlane(origin, normal math3d.Vec3) {
	n := normal.Normalize()
	if n.LenSq() == 0 {
		return
	}
	v.cplane = math3d.PlaneFromPoint(origin, n)
	v.cplaneOrigin = origin
}

// ConstructionOrigin returns the point the construction plane was set
// through.
func (v *Viewport) ConstructionOrigin() math3d.Vec3 { return v.cplaneOrigin }

// Redraw requests a repaint.
func (v *Viewport) Redraw() {
	v.redraws++
	if v.onRedraw != nil {
		v.onRedraw()
	}
}

// Redraws returns how many repaints were requested.
func (v *Viewport) Redraws() int { return v.redraws }

// OnRedraw registers fn to run on every redraw request.
func (v *Viewport) OnRedraw(fn func()) { v.onRedraw = fn }

// ViewMatrix returns the view matrix.
func (v *Viewport) ViewMatrix() math3d.Mat4 {
	if v.viewDirty {
		v.viewMatrix = math3d.LookAt(v.location, v.location.Add(v.direction), v.up)
		v.viewDirty = false
		v.vpDirty = true
	}
	return v.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (v *Viewport) ProjectionMatrix() math3d.Mat4 {
	if v.projDirty {
		v.computeProjectionMatrix()
		v.projDirty = false
		v.vpDirty = true
	}
	return v.projMatrix
}

func (v *Viewport) computeProjectionMatrix() {
	if v.projection == view.Parallel {
		// The parallel volume extends behind the camera.
		v.projMatrix = math3d.Orthographic(-v.halfWidth, v.halfWidth, -v.halfHeight, v.halfHeight, -v.Far, v.Far)
		return
	}
	v.projMatrix = math3d.Perspective(v.FOV, v.AspectRatio(), v.Near, v.Far)
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (v *Viewport) ViewProjectionMatrix() math3d.Mat4 {
	viewM := v.ViewMatrix()
	projM := v.ProjectionMatrix()
	if v.vpDirty {
		v.viewProjMatrix = projM.Mul(viewM)
		v.invViewProj, v.invertible = v.viewProjMatrix.Invert()
		v.vpDirty = false
	}
	return v.viewProjMatrix
}

// Frustum returns the world-space view volume.
func (v *Viewport) Frustum() math3d.Frustum {
	return math3d.NewFrustumFromMatrix(v.ViewProjectionMatrix())
}

// FrustumLine returns the points on the near and far clip planes that
// project onto pixel (x, y).
func (v *Viewport) FrustumLine(x, y float64) (near, far math3d.Vec3, ok bool) {
	v.ViewProjectionMatrix()
	if !v.invertible {
		return math3d.Vec3{}, math3d.Vec3{}, false
	}
	nx := 2*x/float64(v.width) - 1
	ny := 1 - 2*y/float64(v.height)

	n := v.invViewProj.MulVec4(math3d.V4(nx, ny, -1, 1))
	f := v.invViewProj.MulVec4(math3d.V4(nx, ny, 1, 1))
	if n.W == 0 || f.W == 0 {
		return math3d.Vec3{}, math3d.Vec3{}, false
	}
	near, far = n.PerspectiveDivide(), f.PerspectiveDivide()
	if !near.IsFinite() || !far.IsFinite() {
		return math3d.Vec3{}, math3d.Vec3{}, false
	}
	return near, far, true
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (v *Viewport) WorldToScreen(worldPos math3d.Vec3) (x, y, depth float64, visible bool) {
	clipPos := v.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(v.width)
	y = (1 - ndc.Y) * 0.5 * float64(v.height) // Y is flipped
	return x, y, ndc.Z, true
}

var _ view.Viewport = (*Viewport)(nil)
