// Package cache keeps a flat per-object table of bounding boxes and render
// meshes in sync with a document, extracting meshes lazily on the idle loop.
package cache

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/taigrr/pivot/pkg/doc"
	"github.com/taigrr/pivot/pkg/loop"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
)

// Entry is the cached state of one visible object.
type Entry struct {
	ID  doc.ObjectID
	Box math3d.AABB
	// Meshes is nil until the deferred extraction job has run.
	Meshes []*models.Mesh
}

// HasMeshes reports whether mesh extraction has completed for the entry.
func (e *Entry) HasMeshes() bool {
	return e.Meshes != nil
}

// PendingMeshJob asks the idle loop to extract meshes for one object.
type PendingMeshJob struct {
	Doc doc.Document
	ID  doc.ObjectID
}

// Cache is the scene cache. It must only be used from the loop goroutine.
type Cache struct {
	entries map[doc.ObjectID]*Entry
	queue   *loop.Queue[PendingMeshJob]
	pending map[doc.ObjectID]struct{}
	log     *slog.Logger

	transient   map[string]bool
	commands    []bool
	transientN  int
	buffered    map[doc.ObjectID]struct{}
	bufferOrder []doc.ObjectID
}

var _ doc.Observer = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithTransientCommands names the commands whose visibility toggles are
// buffered and applied as a net change when the command ends.
func WithTransientCommands(names ...string) Option {
	return func(c *Cache) { c.SetTransientCommands(names) }
}

// New creates an empty cache whose mesh jobs drain on idle.
func New(idle loop.IdleSignal, opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[doc.ObjectID]*Entry),
		pending:   make(map[doc.ObjectID]struct{}),
		log:       slog.Default(),
		transient: make(map[string]bool),
		buffered:  make(map[doc.ObjectID]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.queue = loop.NewQueue(idle, c.processJob, loop.WithQueueLogger(c.log))
	return c
}

// SetTransientCommands replaces the set of bulk-temporary command names.
func (c *Cache) SetTransientCommands(names []string) {
	c.transient = make(map[string]bool, len(names))
	for _, n := range names {
		c.transient[n] = true
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Pending returns the number of queued mesh jobs.
func (c *Cache) Pending() int {
	return c.queue.Len()
}

// Queue exposes the mesh job queue for diagnostics.
func (c *Cache) Queue() *loop.Queue[PendingMeshJob] {
	return c.queue
}

// Get returns the entry for id.
func (c *Cache) Get(id doc.ObjectID) (*Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Entries iterates over the cached entries in no particular order. The
// cache must not be mutated during iteration.
func (c *Cache) Entries() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, e := range c.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Append inserts or refreshes obj. The entry gets the object's approximate
// box now and its meshes later through the deferred queue. Objects that are
// not eligible are removed instead. It reports whether obj is cached.
func (c *Cache) Append(d doc.Document, obj doc.Object) bool {
	if !doc.Eligible(d, obj) {
		c.Remove(obj.ID())
		return false
	}

	id := obj.ID()
	c.entries[id] = &Entry{ID: id, Box: obj.BoundingBox()}

	if obj.MeshCapable() {
		if _, queued := c.pending[id]; !queued {
			c.pending[id] = struct{}{}
			c.queue.Enqueue(PendingMeshJob{Doc: d, ID: id})
		}
	}
	return true
}

// Remove evicts id. Removing an absent id is a no-op.
func (c *Cache) Remove(id doc.ObjectID) {
	delete(c.entries, id)
}

// SetVisibility appends or removes id according to visible.
func (c *Cache) SetVisibility(d doc.Document, id doc.ObjectID, visible bool) {
	if !visible {
		c.Remove(id)
		return
	}
	obj, ok := d.Find(id)
	if !ok {
		c.Remove(id)
		return
	}
	c.Append(d, obj)
}

// Clear drops every entry and every queued job.
func (c *Cache) Clear() {
	clear(c.entries)
	clear(c.pending)
	c.queue.Clear()
	c.clearBuffer()
}

// Load replaces the cache content with one enumeration of d.
func (c *Cache) Load(d doc.Document) {
	c.Clear()
	for obj := range d.Objects() {
		c.Append(d, obj)
	}
	c.log.Debug("cache loaded", "doc", d.Name(), "entries", len(c.entries), "jobs", c.queue.Len())
}

func (c *Cache) processJob(job PendingMeshJob) error {
	delete(c.pending, job.ID)

	if _, ok := job.Doc.Find(job.ID); !ok {
		c.Remove(job.ID)
		return nil
	}
	entry, ok := c.entries[job.ID]
	if !ok {
		return nil
	}

	meshes, err := job.Doc.RenderMeshes(job.ID)
	if err != nil {
		return fmt.Errorf("extract meshes for object %d: %w", job.ID, err)
	}
	if meshes == nil {
		meshes = []*models.Mesh{}
	}
	entry.Meshes = meshes
	return nil
}

// inTransient reports whether a bulk-temporary command is running.
func (c *Cache) inTransient() bool {
	return c.transientN > 0
}

// buffer defers a visibility toggle of id until the outermost
// bulk-temporary command ends.
func (c *Cache) buffer(id doc.ObjectID) {
	if _, seen := c.buffered[id]; seen {
		return
	}
	c.buffered[id] = struct{}{}
	c.bufferOrder = append(c.bufferOrder, id)
}

// flush applies only the net visibility changes recorded during a
// bulk-temporary command. Objects toggled off and back on were never
// evicted, so they keep their entry and meshes.
func (c *Cache) flush(d doc.Document) {
	applied := 0
	for _, id := range c.bufferOrder {
		_, cached := c.entries[id]
		obj, ok := d.Find(id)
		eligible := ok && doc.Eligible(d, obj)
		switch {
		case cached && !eligible:
			c.Remove(id)
			applied++
		case !cached && eligible:
			c.Append(d, obj)
			applied++
		}
	}
	c.log.Debug("bulk visibility flushed", "toggled", len(c.bufferOrder), "applied", applied)
	c.clearBuffer()
}

func (c *Cache) clearBuffer() {
	clear(c.buffered)
	c.bufferOrder = c.bufferOrder[:0]
}

// forgetCommands drops command nesting state, for documents that close
// without ending their commands.
func (c *Cache) forgetCommands() {
	c.commands = c.commands[:0]
	c.transientN = 0
}
