package cache

import (
	"github.com/taigrr/pivot/pkg/doc"
)

// ObjectAdded implements doc.Observer.
func (c *Cache) ObjectAdded(d doc.Document, obj doc.Object) {
	c.Append(d, obj)
}

// ObjectRemoved implements doc.Observer.
func (c *Cache) ObjectRemoved(_ doc.Document, id doc.ObjectID) {
	c.Remove(id)
}

// ObjectModified implements doc.Observer. The entry box is replaced and its
// meshes are extracted again.
func (c *Cache) ObjectModified(d doc.Document, obj doc.Object) {
	c.Append(d, obj)
}

// VisibilityChanged implements doc.Observer.
func (c *Cache) VisibilityChanged(d doc.Document, obj doc.Object, visible bool) {
	if c.inTransient() {
		c.buffer(obj.ID())
		return
	}
	c.SetVisibility(d, obj.ID(), visible)
}

// LayerVisibilityChanged implements doc.Observer.
func (c *Cache) LayerVisibilityChanged(d doc.Document, layer string, _ bool) {
	for obj := range d.Objects() {
		if obj.Layer() != layer {
			continue
		}
		if c.inTransient() {
			c.buffer(obj.ID())
			continue
		}
		c.Append(d, obj)
	}
}

// CommandStarted implements doc.Observer.
func (c *Cache) CommandStarted(_ doc.Document, name string) {
	t := c.transient[name]
	c.commands = append(c.commands, t)
	if t {
		c.transientN++
	}
}

// CommandEnded implements doc.Observer.
func (c *Cache) CommandEnded(d doc.Document, _ string) {
	if len(c.commands) == 0 {
		return
	}
	t := c.commands[len(c.commands)-1]
	c.commands = c.commands[:len(c.commands)-1]
	if !t {
		return
	}
	c.transientN--
	if c.transientN == 0 {
		c.flush(d)
	}
}

// ActiveSpaceChanged implements doc.Observer.
func (c *Cache) ActiveSpaceChanged(d doc.Document, _ doc.Space) {
	c.Load(d)
}

// DocumentOpened implements doc.Observer.
func (c *Cache) DocumentOpened(d doc.Document) {
	c.Load(d)
}

// DocumentClosed implements doc.Observer.
func (c *Cache) DocumentClosed(doc.Document) {
	c.Clear()
	c.forgetCommands()
}
