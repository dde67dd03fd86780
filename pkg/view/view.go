// Package view defines the viewport boundary the navigation core drives,
// and helpers derived from it.
package view

import (
	"math"

	"github.com/taigrr/pivot/pkg/math3d"
)

// Projection is the viewport projection kind.
type Projection int

const (
	Perspective Projection = iota
	Parallel
	// TwoPoint is a perspective with vertical lines kept vertical.
	TwoPoint
)

func (p Projection) String() string {
	switch p {
	case Perspective:
		return "perspective"
	case Parallel:
		return "parallel"
	case TwoPoint:
		return "two-point"
	default:
		return "unknown"
	}
}

// Viewport is an on-screen 3D view with its own camera and projection.
type Viewport interface {
	// Size returns the viewport size in pixels.
	Size() (width, height int)
	// FrustumLine returns the points on the near and far clip planes that
	// project onto pixel (x, y).
	FrustumLine(x, y float64) (near, far math3d.Vec3, ok bool)
	Frustum() math3d.Frustum

	CameraLocation() math3d.Vec3
	CameraDirection() math3d.Vec3
	CameraUp() math3d.Vec3
	// SetCamera sets the pose. direction and up are normalized and
	// orthogonalized by the viewport.
	SetCamera(location, direction, up math3d.Vec3)

	Projection() Projection
	SetProjection(p Projection)
	IsParallel() bool

	Pivot() math3d.Vec3
	SetPivot(p math3d.Vec3)

	// FrustumHalfExtents returns half the width and height of the parallel
	// view volume in world units.
	FrustumHalfExtents() (halfWidth, halfHeight float64)
	SetFrustumHalfExtents(halfWidth, halfHeight float64)

	SetConstructionPlane(origin, normal math3d.Vec3)
	Redraw()
}

// planTolerance is the maximum angle, as a dot product deficit, between the
// view direction and straight down for a plan view.
const planTolerance = 1e-6

// IsPlanView reports whether vp is a parallel view looking straight down
// the world Z axis.
func IsPlanView(vp Viewport) bool {
	if !vp.IsParallel() {
		return false
	}
	return vp.CameraDirection().Dot(math3d.V3(0, 0, -1)) > 1-planTolerance
}

// PixelsPerUnit returns how many screen pixels one world unit spans at p,
// measured on the plane through p facing the camera. It returns 0 when the
// scale cannot be determined.
func PixelsPerUnit(vp Viewport, p math3d.Vec3) float64 {
	w, h := vp.Size()
	cx, cy := float64(w)/2, float64(h)/2

	plane := math3d.PlaneFromPoint(p, vp.CameraDirection())
	a, ok := linePoint(vp, cx, cy, plane)
	if !ok {
		return 0
	}
	b, ok := linePoint(vp, cx+1, cy, plane)
	if !ok {
		return 0
	}

	d := a.Distance(b)
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return 1 / d
}

func linePoint(vp Viewport, x, y float64, plane math3d.Plane) (math3d.Vec3, bool) {
	near, far, ok := vp.FrustumLine(x, y)
	if !ok {
		return math3d.Vec3{}, false
	}
	r := math3d.RayThrough(near, far)
	t, ok := r.IntersectPlane(plane)
	if !ok {
		return math3d.Vec3{}, false
	}
	return r.PointAt(t), true
}
