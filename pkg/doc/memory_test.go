package doc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
)

type recorder struct {
	NopObserver
	events []string
}

func (r *recorder) ObjectAdded(_ Document, obj Object) {
	r.events = append(r.events, "added:"+obj.Name())
}

func (r *recorder) ObjectRemoved(Document, ObjectID) {
	r.events = append(r.events, "removed")
}

func (r *recorder) VisibilityChanged(_ Document, obj Object, visible bool) {
	if visible {
		r.events = append(r.events, "shown:"+obj.Name())
	} else {
		r.events = append(r.events, "hidden:"+obj.Name())
	}
}

func (r *recorder) LayerVisibilityChanged(_ Document, layer string, visible bool) {
	if visible {
		r.events = append(r.events, "layer-on:"+layer)
	} else {
		r.events = append(r.events, "layer-off:"+layer)
	}
}

func (r *recorder) CommandStarted(_ Document, name string) {
	r.events = append(r.events, "begin:"+name)
}

func (r *recorder) CommandEnded(_ Document, name string) {
	r.events = append(r.events, "end:"+name)
}

func unitCube() *models.Mesh {
	return models.Box("cube", math3d.NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)))
}

func TestMemoryNotifications(t *testing.T) {
	m := NewMemory("test")
	rec := &recorder{}
	unsubscribe := m.Observe(rec)

	id := m.AddMesh("a", unitCube())
	require.NoError(t, m.Hide(id))
	require.NoError(t, m.Hide(id))
	require.NoError(t, m.Show(id))
	m.SetLayerVisible(DefaultLayer, false)
	m.SetLayerVisible(DefaultLayer, false)
	m.RunCommand("Move", func() {})
	require.NoError(t, m.Delete(id))

	unsubscribe()
	m.AddMesh("b", unitCube())

	assert.Equal(t, []string{
		"added:a",
		"hidden:a",
		"shown:a",
		"layer-off:" + DefaultLayer,
		"begin:Move",
		"end:Move",
		"removed",
	}, rec.events)
}

func TestMemoryEligibility(t *testing.T) {
	m := NewMemory("test")
	visible := m.AddMesh("visible", unitCube())
	hidden := m.AddMesh("hidden", unitCube(), Hidden())
	m.AddMesh("page", unitCube(), InSpace(PageSpace))
	m.AddMesh("note", unitCube(), Annotation())
	m.AddBox("degenerate", math3d.EmptyAABB())
	m.AddMesh("off", unitCube(), OnLayer("Off"))
	m.SetLayerVisible("Off", false)

	assert.Equal(t, 1, CountEligible(m))

	obj, ok := m.Find(visible)
	require.True(t, ok)
	assert.True(t, Eligible(m, obj))

	obj, ok = m.Find(hidden)
	require.True(t, ok)
	assert.False(t, Eligible(m, obj))

	m.SetActiveSpace(PageSpace)
	assert.Equal(t, 1, CountEligible(m))
}

func TestMemoryRenderMeshes(t *testing.T) {
	m := NewMemory("test")

	t.Run("mesh shape is placed", func(t *testing.T) {
		id := m.AddMesh("a", unitCube(), WithTransform(math3d.Translate(math3d.V3(5, 0, 0))))
		meshes, err := m.RenderMeshes(id)
		require.NoError(t, err)
		require.Len(t, meshes, 1)
		assert.True(t, meshes[0].Center().ApproxEqual(math3d.V3(5, 0, 0), 1e-12))
	})

	t.Run("block instance expands definitions", func(t *testing.T) {
		m.DefineBlock("pair",
			unitCube(),
			models.Box("far", math3d.NewAABB(math3d.V3(3, 3, 3), math3d.V3(4, 4, 4))),
		)
		id, err := m.AddInstance("inst", "pair", math3d.Translate(math3d.V3(0, 10, 0)))
		require.NoError(t, err)

		meshes, err := m.RenderMeshes(id)
		require.NoError(t, err)
		require.Len(t, meshes, 2)
		assert.True(t, meshes[1].Bounds.Min.ApproxEqual(math3d.V3(3, 13, 3), 1e-12))

		obj, _ := m.Find(id)
		assert.True(t, obj.MeshCapable())
		assert.Equal(t, math3d.V3(4, 14, 4), obj.BoundingBox().Max)
	})

	t.Run("unknown block", func(t *testing.T) {
		_, err := m.AddInstance("bad", "missing", math3d.Identity())
		assert.Error(t, err)
	})

	t.Run("box shape has no meshes", func(t *testing.T) {
		id := m.AddBox("cloud", math3d.NewAABB(math3d.V3(0, 0, 0), math3d.V3(1, 1, 1)))
		meshes, err := m.RenderMeshes(id)
		require.NoError(t, err)
		assert.Empty(t, meshes)
		obj, _ := m.Find(id)
		assert.False(t, obj.MeshCapable())
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := m.RenderMeshes(9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("injected failure", func(t *testing.T) {
		id := m.AddMesh("broken", unitCube())
		boom := errors.New("tessellation failed")
		m.FailMeshes(id, boom)
		_, err := m.RenderMeshes(id)
		assert.ErrorIs(t, err, boom)

		m.FailMeshes(id, nil)
		_, err = m.RenderMeshes(id)
		assert.NoError(t, err)
	})
}

func TestMemoryTransformUpdatesBoundingBox(t *testing.T) {
	m := NewMemory("test")
	id := m.AddMesh("a", unitCube())
	require.NoError(t, m.Transform(id, math3d.Translate(math3d.V3(0, 0, 3))))
	require.NoError(t, m.Transform(id, math3d.Translate(math3d.V3(1, 0, 0))))

	obj, _ := m.Find(id)
	assert.Equal(t, math3d.V3(1, 0, 3), obj.BoundingBox().Center())
	assert.ErrorIs(t, m.Transform(42, math3d.Identity()), ErrNotFound)
}

func TestMemorySelection(t *testing.T) {
	m := NewMemory("test")
	a := m.AddMesh("a", unitCube())
	m.Select(a, 77)
	assert.Equal(t, 1, m.SelectedCount())

	require.NoError(t, m.Delete(a))
	assert.Equal(t, 0, m.SelectedCount())
}

func TestMemoryActiveCommandNesting(t *testing.T) {
	m := NewMemory("test")
	m.RunCommand("Outer", func() {
		m.RunCommand("Inner", func() {
			name, ok := m.ActiveCommand()
			assert.True(t, ok)
			assert.Equal(t, "Inner", name)
		})
		name, _ := m.ActiveCommand()
		assert.Equal(t, "Outer", name)
	})
	_, ok := m.ActiveCommand()
	assert.False(t, ok)
}

func TestFromScene(t *testing.T) {
	scene := &models.Scene{
		Name: "s",
		Nodes: []models.Node{
			{Name: "n1", Mesh: unitCube()},
			{Name: "n2", Mesh: unitCube()},
		},
	}
	m := FromScene(scene)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "s", m.Name())
}
