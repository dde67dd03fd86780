package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/taigrr/pivot/pkg/doc"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
	"github.com/taigrr/pivot/pkg/render"
	"github.com/taigrr/pivot/pkg/view"
)

// loadDocument opens a glTF/GLB file as a document. An empty path yields
// the demo scene.
func loadDocument(path string) (*doc.Memory, error) {
	if path == "" {
		return demoDocument()
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .glb or .gltf)", ext)
	}
	scene, err := models.NewGLTFLoader().LoadScene(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return doc.FromScene(scene), nil
}

// demoDocument is a small site: a slab, a tower, a row of instanced
// columns and a survey marker that only has a bounding box. A hidden
// scaffold and a sheet note exercise the eligibility rules.
func demoDocument() (*doc.Memory, error) {
	d := doc.NewMemory("demo")

	d.AddMesh("slab", models.Box("slab", math3d.NewAABB(math3d.V3(-6, -4, -0.4), math3d.V3(6, 4, 0))))
	d.AddMesh("tower", models.Box("tower", math3d.NewAABB(math3d.V3(-5, -3, 0), math3d.V3(-2, 0, 6))))
	d.AddMesh("annex", models.Box("annex", math3d.NewAABB(math3d.V3(1, 1, 0), math3d.V3(5, 3.5, 2))))

	d.DefineBlock("column", models.Box("column", math3d.NewAABB(math3d.V3(-0.3, -0.3, 0), math3d.V3(0.3, 0.3, 3))))
	for i := range 4 {
		x := -1 + 2*float64(i)
		if _, err := d.AddInstance(fmt.Sprintf("column %d", i+1), "column",
			math3d.Translate(math3d.V3(x, -2.5, 0)), doc.OnLayer("Structure")); err != nil {
			return nil, err
		}
	}

	d.AddBox("survey marker", math3d.NewAABB(math3d.V3(4.5, -3.5, 0), math3d.V3(5.5, -2.5, 1)))
	d.AddMesh("scaffold", models.Box("scaffold", math3d.NewAABB(math3d.V3(-6, 3, 0), math3d.V3(6, 4, 8))), doc.Hidden())
	d.AddBox("sheet note", math3d.NewAABB(math3d.V3(0, 0, 0), math3d.V3(100, 100, 0)),
		doc.InSpace(doc.PageSpace), doc.Annotation())
	return d, nil
}

// sceneBounds is the union of the boxes of every eligible object.
func sceneBounds(d doc.Document) math3d.AABB {
	box := math3d.EmptyAABB()
	for obj := range d.Objects() {
		if doc.Eligible(d, obj) {
			box = box.Union(obj.BoundingBox())
		}
	}
	return box
}

// frameView points vp at box from a three-quarter view above it, far
// enough for the whole box to fit, and centers the pivot on it.
func frameView(vp *render.Viewport, box math3d.AABB) {
	if !box.IsValid() {
		box = math3d.NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	}
	center := box.Center()
	radius := math.Max(box.Diagonal()/2, 0.5)

	fov := vp.FOV
	if vp.Projection() == view.Parallel {
		fov = math.Pi / 3
	}
	// framePadding leaves a margin around the bounding sphere.
	const framePadding = 1.1
	aspect := math.Min(vp.AspectRatio(), 1)
	dist := framePadding * radius / math.Sin(fov/2) / aspect

	dir := math3d.V3(-1, 1.6, -1.1).Normalize()
	loc := center.Sub(dir.Scale(dist))
	vp.SetClipPlanes(math.Max(dist/1000, 0.01), math.Max(dist*10, 1000))
	vp.SetCamera(loc, dir, math3d.UnitZ())
	vp.SetPivot(center)

	h := framePadding * radius / aspect
	vp.SetFrustumHalfExtents(h*vp.AspectRatio(), h)
	vp.Redraw()
}
