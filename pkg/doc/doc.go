// Package doc defines the document boundary the navigation core consumes:
// scene objects with identity, visibility and geometry, and the change
// notifications that keep caches in sync with them.
package doc

import (
	"errors"
	"iter"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
)

// ErrNotFound is returned when an object id does not resolve.
var ErrNotFound = errors.New("object not found")

// ObjectID identifies a scene object for the lifetime of its document.
type ObjectID uint64

// Space is the drawing space an object lives in.
type Space int

const (
	// ModelSpace holds the 3D model.
	ModelSpace Space = iota
	// PageSpace holds sheet layouts and their detail views.
	PageSpace
)

func (s Space) String() string {
	switch s {
	case ModelSpace:
		return "model"
	case PageSpace:
		return "page"
	default:
		return "unknown"
	}
}

// Object is a scene object as seen by the navigation core.
type Object interface {
	ID() ObjectID
	Name() string
	Layer() string
	// IsVisible reports the effective visibility, taking the layer into
	// account.
	IsVisible() bool
	Space() Space
	IsAnnotation() bool
	// BoundingBox is cheap and may be looser than the geometry.
	BoundingBox() math3d.AABB
	// MeshCapable reports whether RenderMeshes can produce triangles.
	MeshCapable() bool
}

// Document is an enumerable, observable collection of objects.
type Document interface {
	Name() string
	Find(id ObjectID) (Object, bool)
	Objects() iter.Seq[Object]
	// RenderMeshes returns world-space render meshes for the object,
	// expanding block instances.
	RenderMeshes(id ObjectID) ([]*models.Mesh, error)
	SelectedCount() int
	ActiveSpace() Space
	Observe(o Observer) (unsubscribe func())
}

// Observer receives document change notifications. Callbacks are invoked
// synchronously on the thread that mutated the document.
type Observer interface {
	ObjectAdded(d Document, obj Object)
	ObjectRemoved(d Document, id ObjectID)
	ObjectModified(d Document, obj Object)
	VisibilityChanged(d Document, obj Object, visible bool)
	LayerVisibilityChanged(d Document, layer string, visible bool)
	CommandStarted(d Document, name string)
	CommandEnded(d Document, name string)
	ActiveSpaceChanged(d Document, space Space)
	DocumentOpened(d Document)
	DocumentClosed(d Document)
}

// NopObserver ignores every notification. Embed it to implement only the
// callbacks you need.
type NopObserver struct{}

func (NopObserver) ObjectAdded(Document, Object) {}
func (NopObserver) ObjectRemoved(Document, ObjectID) {}
func (NopObserver) ObjectModified(Document, Object) {}
func (NopObserver) VisibilityChanged(Document, Object, bool) {}
func (NopObserver) LayerVisibilityChanged(Document, string, bool) {}
func (NopObserver) CommandStarted(Document, string) {}
func (NopObserver) CommandEnded(Document, string) {}
func (NopObserver) ActiveSpaceChanged(Document, Space) {}
func (NopObserver) DocumentOpened(Document) {}
func (NopObserver) DocumentClosed(Document) {}

// Eligible reports whether obj belongs in a spatial cache for d: visible,
// in the active space, not an annotation, with a usable bounding box.
func Eligible(d Document, obj Object) bool {
	return obj.IsVisible() &&
		obj.Space() == d.ActiveSpace() &&
		!obj.IsAnnotation() &&
		obj.BoundingBox().IsValid()
}

// CountEligible returns the number of cache-eligible objects in d.
func CountEligible(d Document) int {
	n := 0
	for obj := range d.Objects() {
		if Eligible(d, obj) {
			n++
		}
	}
	return n
}
