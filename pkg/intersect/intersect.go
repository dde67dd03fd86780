// Package intersect infers a 3D target point under a screen pixel from the
// scene cache.
package intersect

import (
	"iter"
	"log/slog"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/pivot/pkg/cache"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
	"github.com/taigrr/pivot/pkg/view"
)

// Status classifies how a target point was found.
type Status int

const (
	// None means nothing was visible; the target is the caller's fallback.
	None Status = iota
	// Outside means the ray passed beside every visible box.
	Outside
	// OnMesh means the ray hit a render mesh.
	OnMesh
	// OnBBox means the ray hit a bounding box but no mesh.
	OnBBox
	// OnVisibleBBox means the ray crossed the union of visible boxes.
	OnVisibleBBox
)

func (s Status) String() string {
	switch s {
	case None:
		return "none"
	case Outside:
		return "outside"
	case OnMesh:
		return "on-mesh"
	case OnBBox:
		return "on-bbox"
	case OnVisibleBBox:
		return "on-visible-bbox"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Compute call.
type Result struct {
	Status Status
	Target math3d.Vec3

	// ActiveBox is the nearest box the ray entered. Valid for OnBBox and
	// OnMesh.
	ActiveBox math3d.AABB
	// VisibleBox is the union of on-screen boxes the ray missed.
	VisibleBox math3d.AABB

	// Near and Far are the frustum line through the pixel; Ray runs from
	// Near (t=0) to Far (t=1).
	Near, Far math3d.Vec3
	Ray       math3d.Ray

	// ObjectCount is the number of boxes the ray entered.
	ObjectCount int
	// FrontPlane is parallel to the far clip plane and passes through
	// Target.
	FrontPlane math3d.Plane

	Elapsed time.Duration
}

// Source yields the cache entries to test.
type Source interface {
	Entries() iter.Seq[*cache.Entry]
}

// Intersector evaluates pixel rays against a Source.
type Intersector struct {
	src       Source
	log       *slog.Logger
	threshold int
	workers   int
}

// Option configures an Intersector.
type Option func(*Intersector)

// WithLogger sets the intersector logger.
func WithLogger(log *slog.Logger) Option {
	return func(in *Intersector) { in.log = log }
}

// WithParallelThreshold sets the candidate mesh count at which mesh tests
// run concurrently. Zero or less disables concurrency.
func WithParallelThreshold(n int) Option {
	return func(in *Intersector) { in.threshold = n }
}

// WithWorkers bounds the number of concurrent mesh tests.
func WithWorkers(n int) Option {
	return func(in *Intersector) {
		if n > 0 {
			in.workers = n
		}
	}
}

// DefaultParallelThreshold is the candidate mesh count at which mesh tests
// are spread across goroutines.
const DefaultParallelThreshold = 4

// New creates an Intersector over src.
func New(src Source, opts ...Option) *Intersector {
	in := &Intersector{
		src:       src,
		log:       slog.Default(),
		threshold: DefaultParallelThreshold,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// SetParallelThreshold changes the concurrency threshold.
func (in *Intersector) SetParallelThreshold(n int) {
	in.threshold = n
}

// Compute finds the target under pixel. It never fails: when nothing can
// be inferred the result is None with Target set to fallback.
func (in *Intersector) Compute(vp view.Viewport, pixel math3d.Vec2, fallback math3d.Vec3) Result {
	start := time.Now()
	res := Result{
		Status:     None,
		Target:     fallback,
		ActiveBox:  math3d.EmptyAABB(),
		VisibleBox: math3d.EmptyAABB(),
	}

	near, far, ok := vp.FrustumLine(pixel.X, pixel.Y)
	if !ok {
		in.log.Debug("no frustum line at pixel", "x", pixel.X, "y", pixel.Y)
		res.FrontPlane = math3d.PlaneFromPoint(fallback, vp.CameraDirection().Negate())
		res.Elapsed = time.Since(start)
		return res
	}
	ray := math3d.RayThrough(near, far)
	res.Near, res.Far, res.Ray = near, far, ray

	frustum := vp.Frustum()
	bestBox := math.Inf(1)
	var candidates []*models.Mesh

	for e := range in.src.Entries() {
		if !e.Box.IsValid() {
			continue
		}
		t := ray.IntersectAABB(e.Box)
		if t < 0 {
			if frustum.IntersectAABB(e.Box) {
				res.VisibleBox = res.VisibleBox.Union(e.Box)
			}
			continue
		}
		if t < bestBox {
			bestBox = t
			res.ActiveBox = e.Box
		}
		res.ObjectCount++
		for _, m := range e.Meshes {
			if m != nil {
				candidates = append(candidates, m)
			}
		}
	}

	tMesh := in.nearestMeshHit(ray, candidates)

	switch {
	case tMesh >= 0:
		res.Status = OnMesh
		res.Target = ray.PointAt(tMesh)
	case res.ActiveBox.IsValid():
		res.Status = OnBBox
		res.Target = ray.PointAt(ray.MidpointAABB(res.ActiveBox))
	case !res.VisibleBox.IsValid():
		res.Status = None
	default:
		if t := ray.MidpointAABB(res.VisibleBox); t >= 0 {
			res.Status = OnVisibleBBox
			res.Target = ray.PointAt(t)
			break
		}
		res.Status = Outside
		plane := frustum.Planes[math3d.FrustumFar].Translated(res.VisibleBox.Center())
		if t, ok := ray.IntersectPlane(plane); ok {
			res.Target = ray.PointAt(t)
		} else {
			res.Target = res.VisibleBox.Center()
		}
	}

	res.FrontPlane = frustum.Planes[math3d.FrustumFar].Translated(res.Target)
	res.Elapsed = time.Since(start)
	in.log.Debug("intersection computed",
		"status", res.Status,
		"objects", res.ObjectCount,
		"meshes", len(candidates),
		"target", res.Target,
		"elapsed", res.Elapsed,
	)
	return res
}

// nearestMeshHit returns the smallest non-negative hit parameter over
// meshes, or math3d.Miss. Above the threshold each mesh is tested on its
// own goroutine writing to its own slot; the slots are reduced after Wait.
func (in *Intersector) nearestMeshHit(ray math3d.Ray, meshes []*models.Mesh) float64 {
	if len(meshes) == 0 {
		return math3d.Miss
	}

	hits := make([]float64, len(meshes))
	if in.threshold > 0 && len(meshes) >= in.threshold {
		var g errgroup.Group
		g.SetLimit(in.workers)
		for i, m := range meshes {
			g.Go(func() error {
				hits[i] = m.IntersectRay(ray)
				return nil
			})
		}
		// Workers never fail.
		_ = g.Wait()
	} else {
		for i, m := range meshes {
			hits[i] = m.IntersectRay(ray)
		}
	}

	best := math3d.Miss
	for _, t := range hits {
		if t >= 0 && (best < 0 || t < best) {
			best = t
		}
	}
	return best
}
