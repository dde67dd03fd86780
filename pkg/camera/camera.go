// Package camera decomposes a viewport camera pose into a pivot, two orbit
// angles and pan offsets, and composes it back after navigation deltas.
//
// The composed transform is
//
//	M = T(pivot) · Rz(RotZ) · Rx(RotX) · B · Rz(roll) · T(pan)
//
// where B turns the local camera frame (looking down -Z with +Y up) into a
// camera looking along world +Y with +Z up. The camera location is M·0,
// the view direction M·(0,0,-1) and the up vector M·(0,1,0).
package camera

import (
	"math"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/view"
)

// degenerate is the horizontal direction length below which the view is
// treated as straight up or down.
const degenerate = 1e-9

// base maps the local camera frame into world space at zero rotation.
var base = math3d.FromBasis(
	math3d.V3(1, 0, 0),  // right
	math3d.V3(0, 0, 1),  // up
	math3d.V3(0, -1, 0), // back
	math3d.Zero3(),
)

// State is a snapshot of the decomposed pose.
type State struct {
	Pivot    math3d.Vec3
	PanX     float64
	PanY     float64
	PanZ     float64
	RotX     float64
	RotZ     float64
	Roll     float64
	Position math3d.Vec3
	Zoom     float64
}

// Camera drives a viewport from a decomposed pose. The exported fields are
// plain accumulators: add deltas, then call ApplyTransforms.
type Camera struct {
	PanX, PanY, PanZ float64
	RotX, RotZ       float64
	// Zoom is relative to the pose at the last Reset. Positive values move
	// toward the pivot.
	Zoom float64

	vp       view.Viewport
	pivot    math3d.Vec3
	roll     float64
	position math3d.Vec3

	// Parallel view volume at the last Reset.
	baseHalfW, baseHalfH float64

	resets int
}

// New returns a camera that is not yet bound to a viewport.
func New() *Camera {
	return &Camera{}
}

// Init binds the camera to vp with target as the pivot. The pivot is pushed
// to the viewport without moving the camera, then the pose is decomposed.
func (c *Camera) Init(vp view.Viewport, target math3d.Vec3) {
	c.vp = vp
	c.pivot = target
	vp.SetPivot(target)
	c.Reset()
}

// Viewport returns the bound viewport, or nil before Init.
func (c *Camera) Viewport() view.Viewport { return c.vp }

// Pivot returns the orbit center.
func (c *Camera) Pivot() math3d.Vec3 { return c.pivot }

// Resets returns how many times Reset has run.
func (c *Camera) Resets() int { return c.resets }

// Reset re-derives the angles and pan offsets from the live viewport pose
// so that ApplyTransforms reproduces it exactly. Zoom restarts at zero.
func (c *Camera) Reset() {
	c.resets++
	c.Zoom = 0
	if c.vp == nil {
		return
	}

	loc := c.vp.CameraLocation()
	dir := c.vp.CameraDirection().Normalize()
	up := c.vp.CameraUp().Normalize()

	c.RotX, c.RotZ, c.roll = decompose(dir, up)

	frame := c.rotation()
	off := loc.Sub(c.pivot)
	c.PanX = off.Dot(frame.Column(0))
	c.PanY = off.Dot(frame.Column(1))
	c.PanZ = off.Dot(frame.Column(2))
	c.position = loc

	c.baseHalfW, c.baseHalfH = c.vp.FrustumHalfExtents()
}

// decompose returns the tilt, heading and roll that orient the local camera
// frame along dir with the given up vector.
func decompose(dir, up math3d.Vec3) (rotX, rotZ, roll float64) {
	horizontal := math.Hypot(dir.X, dir.Y)
	rotX = math.Atan2(dir.Z, horizontal)

	if horizontal < degenerate {
		// Looking straight down or up: the heading absorbs the roll.
		if dir.Z < 0 {
			return -math.Pi / 2, math.Atan2(-up.X, up.Y), 0
		}
		return math.Pi / 2, math.Atan2(up.X, -up.Y), 0
	}

	rotZ = math.Atan2(-dir.X, dir.Y)
	sa, ca := math.Sin(rotX), math.Cos(rotX)
	st, ct := math.Sin(rotZ), math.Cos(rotZ)
	up0 := math3d.V3(sa*st, -sa*ct, ca)
	right0 := math3d.V3(ct, st, 0)
	roll = math.Atan2(-up.Dot(right0), up.Dot(up0))
	return rotX, rotZ, roll
}

// rotation returns the orientation part of the composed transform.
func (c *Camera) rotation() math3d.Mat4 {
	return math3d.RotateZ(c.RotZ).
		Mul(math3d.RotateX(c.RotX)).
		Mul(base).
		Mul(math3d.RotateZ(c.roll))
}

// Frame returns the composed transform without zoom. Its columns are the
// camera right, up and back vectors and its location.
func (c *Camera) Frame() math3d.Mat4 {
	return math3d.Translate(c.pivot).
		Mul(c.rotation()).
		Mul(math3d.Translate(math3d.V3(c.PanX, c.PanY, c.PanZ)))
}

// ApplyTransforms composes the pose and pushes it to the viewport.
func (c *Camera) ApplyTransforms() {
	if c.vp == nil {
		return
	}
	m := c.Frame()
	loc := m.MulVec3(math3d.Zero3())
	dir := m.MulVec3Dir(math3d.V3(0, 0, -1))
	up := m.MulVec3Dir(math3d.V3(0, 1, 0))

	if c.vp.IsParallel() {
		s := math.Exp(-c.Zoom)
		c.vp.SetFrustumHalfExtents(c.baseHalfW*s, c.baseHalfH*s)
	} else if c.Zoom != 0 {
		toPivot := c.pivot.Sub(loc)
		dist := toPivot.Len()
		loc = loc.Add(toPivot.Normalize().Scale(dist * (1 - math.Exp(-c.Zoom))))
	}

	c.position = loc
	c.vp.SetCamera(loc, dir, up)
	c.vp.Redraw()
}

// SnapRotation rounds both orbit angles and the roll to the nearest
// multiple of step. Non-positive steps are ignored.
func (c *Camera) SnapRotation(step float64) {
	if step <= 0 {
		return
	}
	c.RotX = snap(c.RotX, step)
	c.RotZ = snap(c.RotZ, step)
	c.roll = snap(c.roll, step)
}

func snap(v, step float64) float64 {
	return math.Round(v/step) * step
}

// State returns a snapshot of the decomposed pose.
func (c *Camera) State() State {
	return State{
		Pivot:    c.pivot,
		PanX:     c.PanX,
		PanY:     c.PanY,
		PanZ:     c.PanZ,
		RotX:     c.RotX,
		RotZ:     c.RotZ,
		Roll:     c.roll,
		Position: c.position,
		Zoom:     c.Zoom,
	}
}
