package doc

import (
	"fmt"
	"iter"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
)

// Memory is an in-memory document. It is not safe for concurrent use;
// mutate it from the same goroutine that runs its observers.
type Memory struct {
	name      string
	nextID    ObjectID
	objects   map[ObjectID]*Shape
	order     []ObjectID
	hidden    map[string]bool
	blocks    map[string][]*models.Mesh
	selected  map[ObjectID]struct{}
	active    Space
	observers []*observerSlot
	commands  []string
	failing   map[ObjectID]error
}

type observerSlot struct {
	o       Observer
	removed bool
}

// Shape is an object stored in a Memory document.
type Shape struct {
	doc        *Memory
	id         ObjectID
	name       string
	layer      string
	hidden     bool
	space      Space
	annotation bool

	// Exactly one geometry source is set: mesh, block or box.
	mesh  *models.Mesh
	block string
	box   math3d.AABB

	xform math3d.Mat4
}

// ShapeOption configures a shape when it is added.
type ShapeOption func(*Shape)

// OnLayer places the shape on layer.
func OnLayer(layer string) ShapeOption {
	return func(s *Shape) { s.layer = layer }
}

// Hidden adds the shape with its own visibility switched off.
func Hidden() ShapeOption {
	return func(s *Shape) { s.hidden = true }
}

// InSpace places the shape in space.
func InSpace(space Space) ShapeOption {
	return func(s *Shape) { s.space = space }
}

// Annotation marks the shape as a dimension, note or detail-view object.
func Annotation() ShapeOption {
	return func(s *Shape) { s.annotation = true }
}

// WithTransform sets the shape's placement.
func WithTransform(m math3d.Mat4) ShapeOption {
	return func(s *Shape) { s.xform = m }
}

// DefaultLayer is the layer shapes land on unless OnLayer is given.
const DefaultLayer = "Default"

// NewMemory creates an empty document in model space.
func NewMemory(name string) *Memory {
	return &Memory{
		name:     name,
		objects:  make(map[ObjectID]*Shape),
		hidden:   make(map[string]bool),
		blocks:   make(map[string][]*models.Mesh),
		selected: make(map[ObjectID]struct{}),
		failing:  make(map[ObjectID]error),
	}
}

// FromScene creates a document holding one mesh shape per scene node.
func FromScene(scene *models.Scene) *Memory {
	m := NewMemory(scene.Name)
	for _, n := range scene.Nodes {
		m.AddMesh(n.Name, n.Mesh)
	}
	return m
}

// Name returns the document name.
func (m *Memory) Name() string { return m.name }

// Find resolves id.
func (m *Memory) Find(id ObjectID) (Object, bool) {
	s, ok := m.objects[id]
	if !ok {
		return nil, false
	}
	return s, true
}

// Shape resolves id to the concrete shape.
func (m *Memory) Shape(id ObjectID) (*Shape, bool) {
	s, ok := m.objects[id]
	return s, ok
}

// Objects iterates over all objects in insertion order.
func (m *Memory) Objects() iter.Seq[Object] {
	return func(yield func(Object) bool) {
		for _, id := range m.order {
			if !yield(m.objects[id]) {
				return
			}
		}
	}
}

// Len returns the number of objects, visible or not.
func (m *Memory) Len() int { return len(m.order) }

// RenderMeshes returns world-space meshes for id. Block instances yield one
// mesh per block definition mesh; box-only shapes yield none.
func (m *Memory) RenderMeshes(id ObjectID) ([]*models.Mesh, error) {
	s, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("render meshes %d: %w", id, ErrNotFound)
	}
	if err := m.failing[id]; err != nil {
		return nil, fmt.Errorf("render meshes %d: %w", id, err)
	}

	switch {
	case s.mesh != nil:
		return []*models.Mesh{s.mesh.Transformed(s.xform)}, nil
	case s.block != "":
		defs := m.blocks[s.block]
		out := make([]*models.Mesh, 0, len(defs))
		for _, def := range defs {
			out = append(out, def.Transformed(s.xform))
		}
		return out, nil
	default:
		return nil, nil
	}
}

// FailMeshes makes RenderMeshes for id return err until cleared with a nil
// error. It simulates geometry the host cannot tessellate.
func (m *Memory) FailMeshes(id ObjectID, err error) {
	if err == nil {
		delete(m.failing, id)
		return
	}
	m.failing[id] = err
}

// SelectedCount returns the number of selected objects.
func (m *Memory) SelectedCount() int { return len(m.selected) }

// ActiveSpace returns the space the document is showing.
func (m *Memory) ActiveSpace() Space { return m.active }

// Observe subscribes o to notifications.
func (m *Memory) Observe(o Observer) (unsubscribe func()) {
	slot := &observerSlot{o: o}
	m.observers = append(m.observers, slot)
	return func() {
		if slot.removed {
			return
		}
		slot.removed = true
		for i, other := range m.observers {
			if other == slot {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				break
			}
		}
	}
}

func (m *Memory) notify(fn func(Observer)) {
	slots := make([]*observerSlot, len(m.observers))
	copy(slots, m.observers)
	for _, s := range slots {
		if !s.removed {
			fn(s.o)
		}
	}
}

// AddMesh adds a mesh-backed shape. The mesh is taken as local geometry.
func (m *Memory) AddMesh(name string, mesh *models.Mesh, opts ...ShapeOption) ObjectID {
	return m.add(&Shape{name: name, mesh: mesh}, opts)
}

// AddBox adds a shape known only by its bounding box, such as a point
// cloud or a reference the host cannot tessellate.
func (m *Memory) AddBox(name string, box math3d.AABB, opts ...ShapeOption) ObjectID {
	return m.add(&Shape{name: name, box: box}, opts)
}

// DefineBlock registers a block definition made of meshes in block space.
func (m *Memory) DefineBlock(name string, meshes ...*models.Mesh) {
	m.blocks[name] = meshes
}

// AddInstance adds an instance of a defined block placed by xform.
func (m *Memory) AddInstance(name, block string, xform math3d.Mat4, opts ...ShapeOption) (ObjectID, error) {
	if _, ok := m.blocks[block]; !ok {
		return 0, fmt.Errorf("instance %q: unknown block %q", name, block)
	}
	opts = append([]ShapeOption{WithTransform(xform)}, opts...)
	return m.add(&Shape{name: name, block: block}, opts), nil
}

func (m *Memory) add(s *Shape, opts []ShapeOption) ObjectID {
	m.nextID++
	s.doc = m
	s.id = m.nextID
	s.layer = DefaultLayer
	s.xform = math3d.Identity()
	for _, opt := range opts {
		opt(s)
	}
	m.objects[s.id] = s
	m.order = append(m.order, s.id)
	m.notify(func(o Observer) { o.ObjectAdded(m, s) })
	return s.id
}

// Delete removes id.
func (m *Memory) Delete(id ObjectID) error {
	if _, ok := m.objects[id]; !ok {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	delete(m.objects, id)
	delete(m.selected, id)
	delete(m.failing, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.notify(func(o Observer) { o.ObjectRemoved(m, id) })
	return nil
}

// Transform applies xform on top of the shape's current placement.
func (m *Memory) Transform(id ObjectID, xform math3d.Mat4) error {
	s, ok := m.objects[id]
	if !ok {
		return fmt.Errorf("transform %d: %w", id, ErrNotFound)
	}
	s.xform = xform.Mul(s.xform)
	m.notify(func(o Observer) { o.ObjectModified(m, s) })
	return nil
}

// Show switches the shape's own visibility on.
func (m *Memory) Show(id ObjectID) error { return m.setHidden(id, false) }

// Hide switches the shape's own visibility off.
func (m *Memory) Hide(id ObjectID) error { return m.setHidden(id, true) }

func (m *Memory) setHidden(id ObjectID, hidden bool) error {
	s, ok := m.objects[id]
	if !ok {
		return fmt.Errorf("set visibility %d: %w", id, ErrNotFound)
	}
	if s.hidden == hidden {
		return nil
	}
	s.hidden = hidden
	m.notify(func(o Observer) { o.VisibilityChanged(m, s, !hidden) })
	return nil
}

// SetLayerVisible shows or hides every shape on layer.
func (m *Memory) SetLayerVisible(layer string, visible bool) {
	if m.hidden[layer] == !visible {
		return
	}
	if visible {
		delete(m.hidden, layer)
	} else {
		m.hidden[layer] = true
	}
	m.notify(func(o Observer) { o.LayerVisibilityChanged(m, layer, visible) })
}

// LayerVisible reports whether layer is shown.
func (m *Memory) LayerVisible(layer string) bool {
	return !m.hidden[layer]
}

// Select adds ids to the selection. Unknown ids are ignored.
func (m *Memory) Select(ids ...ObjectID) {
	for _, id := range ids {
		if _, ok := m.objects[id]; ok {
			m.selected[id] = struct{}{}
		}
	}
}

// ClearSelection deselects everything.
func (m *Memory) ClearSelection() {
	clear(m.selected)
}

// SetActiveSpace switches between model and page space.
func (m *Memory) SetActiveSpace(space Space) {
	if m.active == space {
		return
	}
	m.active = space
	m.notify(func(o Observer) { o.ActiveSpaceChanged(m, space) })
}

// Open announces the document to observers.
func (m *Memory) Open() {
	m.notify(func(o Observer) { o.DocumentOpened(m) })
}

// Close announces that the document is going away.
func (m *Memory) Close() {
	m.notify(func(o Observer) { o.DocumentClosed(m) })
}

// RunCommand runs fn bracketed by command start and end notifications.
func (m *Memory) RunCommand(name string, fn func()) {
	m.commands = append(m.commands, name)
	m.notify(func(o Observer) { o.CommandStarted(m, name) })
	defer func() {
		m.commands = m.commands[:len(m.commands)-1]
		m.notify(func(o Observer) { o.CommandEnded(m, name) })
	}()
	fn()
}

// ActiveCommand returns the innermost running command, if any.
func (m *Memory) ActiveCommand() (string, bool) {
	if len(m.commands) == 0 {
		return "", false
	}
	return m.commands[len(m.commands)-1], true
}

// ID implements Object.
func (s *Shape) ID() ObjectID { return s.id }

// Name implements Object.
func (s *Shape) Name() string { return s.name }

// Layer implements Object.
func (s *Shape) Layer() string { return s.layer }

// IsVisible implements Object.
func (s *Shape) IsVisible() bool {
	return !s.hidden && s.doc.LayerVisible(s.layer)
}

// Space implements Object.
func (s *Shape) Space() Space { return s.space }

// IsAnnotation implements Object.
func (s *Shape) IsAnnotation() bool { return s.annotation }

// MeshCapable implements Object.
func (s *Shape) MeshCapable() bool {
	return s.mesh != nil || s.block != ""
}

// Transform returns the shape's placement.
func (s *Shape) Transform() math3d.Mat4 { return s.xform }

// BoundingBox returns the local bounds pushed through the placement, which
// over-estimates rotated geometry.
func (s *Shape) BoundingBox() math3d.AABB {
	var local math3d.AABB
	switch {
	case s.mesh != nil:
		local = s.mesh.Bounds
	case s.block != "":
		local = math3d.EmptyAABB()
		for _, def := range s.doc.blocks[s.block] {
			local = local.Union(def.Bounds)
		}
	default:
		local = s.box
	}
	if !local.IsValid() {
		return local
	}
	return local.Transform(s.xform)
}
