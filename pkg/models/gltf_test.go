package models

import (
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/pivot/pkg/math3d"
)

// triangleDocument builds a document holding one triangle mesh referenced
// by a parent node and its translated child.
func triangleDocument() *gltf.Document {
	var buf []byte
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, i := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}

	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(buf), Data: buf}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), ComponentType: gltf.ComponentFloat, Count: 3, Type: gltf.AccessorVec3},
			{BufferView: gltf.Index(1), ComponentType: gltf.ComponentUshort, Count: 3, Type: gltf.AccessorScalar},
		},
		Meshes: []*gltf.Mesh{{
			Name: "tri",
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{gltf.POSITION: 0},
				Indices:    gltf.Index(1),
				Mode:       gltf.PrimitiveTriangles,
			}},
		}},
		Nodes: []*gltf.Node{
			{Name: "parent", Mesh: gltf.Index(0), Children: []int{1}},
			{Name: "child", Mesh: gltf.Index(0), Translation: [3]float64{10, 0, 0}},
		},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Scene:  gltf.Index(0),
	}
}

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Fatal("NewGLTFLoader returned nil")
	}
	if !loader.ZUp {
		t.Error("ZUp should default to true")
	}
}

func TestSceneFromDocumentHierarchy(t *testing.T) {
	loader := &GLTFLoader{ZUp: false}
	scene, err := loader.sceneFromDocument(triangleDocument(), "tri.glb")
	if err != nil {
		t.Fatalf("sceneFromDocument: %v", err)
	}
	if len(scene.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(scene.Nodes))
	}

	parent, child := scene.Nodes[0], scene.Nodes[1]
	if parent.Name != "parent" || child.Name != "child" {
		t.Errorf("names = %q, %q", parent.Name, child.Name)
	}
	if got := child.Mesh.Bounds.Min; !got.ApproxEqual(math3d.V3(10, 0, 0), 1e-6) {
		t.Errorf("child min = %v, want (10, 0, 0)", got)
	}
	if got := parent.Mesh.Bounds.Max; !got.ApproxEqual(math3d.V3(1, 1, 0), 1e-6) {
		t.Errorf("parent max = %v, want (1, 1, 0)", got)
	}
}

func TestSceneFromDocumentZUp(t *testing.T) {
	scene, err := NewGLTFLoader().sceneFromDocument(triangleDocument(), "tri.glb")
	if err != nil {
		t.Fatalf("sceneFromDocument: %v", err)
	}

	// glTF +Y becomes world +Z.
	b := scene.Nodes[0].Mesh.Bounds
	if !b.Max.ApproxEqual(math3d.V3(1, 0, 1), 1e-6) {
		t.Errorf("max = %v, want (1, 0, 1)", b.Max)
	}
}

func TestSceneFromDocumentNoGeometry(t *testing.T) {
	doc := &gltf.Document{
		Nodes:  []*gltf.Node{{Name: "empty"}},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
	}
	_, err := NewGLTFLoader().sceneFromDocument(doc, "empty.glb")
	if !errors.Is(err, ErrNoGeometry) {
		t.Errorf("err = %v, want ErrNoGeometry", err)
	}
}

func TestSceneFromDocumentBadIndex(t *testing.T) {
	doc := triangleDocument()
	doc.Nodes[0].Children = []int{7}
	if _, err := NewGLTFLoader().sceneFromDocument(doc, "bad.glb"); err == nil {
		t.Error("expected error for dangling child index")
	}
}

func TestLoadGLBRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.glb")
	if err := gltf.SaveBinary(triangleDocument(), path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}

	mesh, err := LoadGLB(path)
	if err != nil {
		t.Fatalf("LoadGLB: %v", err)
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", mesh.TriangleCount())
	}
}

func TestQuatMatrix(t *testing.T) {
	// 90° about Z: (0, 0, sin45, cos45).
	s := math.Sqrt2 / 2
	got := quatMatrix(0, 0, s, s).MulVec3(math3d.V3(1, 0, 0))
	if !got.ApproxEqual(math3d.V3(0, 1, 0), 1e-12) {
		t.Errorf("rotated X = %v, want (0, 1, 0)", got)
	}
}
