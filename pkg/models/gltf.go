package models

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/pivot/pkg/math3d"
)

// ErrNoGeometry is returned when a file holds no triangle primitives.
var ErrNoGeometry = errors.New("no triangle geometry")

// Node is one mesh-carrying node of a loaded scene, already placed in
// world coordinates.
type Node struct {
	Name      string
	Mesh      *Mesh
	Transform math3d.Mat4
}

// Scene is the flattened node list of a glTF scene.
type Scene struct {
	Name  string
	Nodes []Node
}

// GLTFLoader loads GLTF/GLB files.
type GLTFLoader struct {
	// ZUp rotates the Y-up glTF frame into the Z-up world frame.
	ZUp bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{ZUp: true}
}

// LoadGLB loads a glTF or GLB file as one merged world-space mesh.
func LoadGLB(path string) (*Mesh, error) {
	scene, err := NewGLTFLoader().LoadScene(path)
	if err != nil {
		return nil, err
	}
	merged := NewMesh(filepath.Base(path))
	for _, n := range scene.Nodes {
		merged.Append(n.Mesh)
	}
	return merged, nil
}

// LoadScene loads every mesh node reachable from the default scene. Each
// node mesh has the accumulated hierarchy transform applied.
func (l *GLTFLoader) LoadScene(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.sceneFromDocument(doc, filepath.Base(path))
}

func (l *GLTFLoader) sceneFromDocument(doc *gltf.Document, name string) (*Scene, error) {
	root := math3d.Identity()
	if l.ZUp {
		root = math3d.RotateX(math.Pi / 2)
	}

	scene := &Scene{Name: name}
	cache := make(map[int]*Mesh)

	var visit func(idx int, parent math3d.Mat4, depth int) error
	visit = func(idx int, parent math3d.Mat4, depth int) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", idx)
		}
		if depth > len(doc.Nodes) {
			return fmt.Errorf("node %d: cyclic hierarchy", idx)
		}
		node := doc.Nodes[idx]
		world := parent.Mul(nodeMatrix(node))

		if node.Mesh != nil {
			local, ok := cache[*node.Mesh]
			if !ok {
				var err error
				local, err = l.readMesh(doc, *node.Mesh)
				if err != nil {
					return err
				}
				cache[*node.Mesh] = local
			}
			if len(local.Faces) > 0 {
				nodeName := node.Name
				if nodeName == "" {
					nodeName = fmt.Sprintf("node%d", idx)
				}
				placed := local.Transformed(world)
				placed.Name = nodeName
				scene.Nodes = append(scene.Nodes, Node{Name: nodeName, Mesh: placed, Transform: world})
			}
		}

		for _, child := range node.Children {
			if err := visit(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, idx := range rootNodes(doc) {
		if err := visit(idx, root, 0); err != nil {
			return nil, err
		}
	}

	if len(scene.Nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoGeometry)
	}
	return scene, nil
}

// rootNodes returns the nodes of the default scene, or every node without
// a parent when the file declares no scenes.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeMatrix returns the local transform of a node, from its matrix when
// set and from translation, rotation and scale otherwise.
func nodeMatrix(n *gltf.Node) math3d.Mat4 {
	m := n.MatrixOrDefault()
	if m != identityArray {
		return math3d.Mat4(m)
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()

	return math3d.Translate(math3d.V3(t[0], t[1], t[2])).
		Mul(quatMatrix(r[0], r[1], r[2], r[3])).
		Mul(math3d.Scale(math3d.V3(s[0], s[1], s[2])))
}

var identityArray = [16]float64(math3d.Identity())

// quatMatrix converts a unit quaternion (x, y, z, w) into a rotation matrix.
func quatMatrix(x, y, z, w float64) math3d.Mat4 {
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return math3d.Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// readMesh extracts the triangle primitives of a glTF mesh in its local
// frame.
func (l *GLTFLoader) readMesh(doc *gltf.Document, idx int) (*Mesh, error) {
	if idx < 0 || idx >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	m := doc.Meshes[idx]
	mesh := NewMesh(m.Name)

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Lines and points carry nothing to hit.
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: read positions: %w", m.Name, err)
		}

		baseVertex := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, positions...)

		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: read indices: %w", m.Name, err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				f := Face{V: [3]int{baseVertex + indices[i], baseVertex + indices[i+1], baseVertex + indices[i+2]}}
				if !validFace(f, len(mesh.Vertices)) {
					return nil, fmt.Errorf("mesh %q: index out of range in face %d", m.Name, i/3)
				}
				mesh.Faces = append(mesh.Faces, f)
			}
		} else {
			// No indices, assume sequential triangles
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{
					V: [3]int{baseVertex + i, baseVertex + i + 1, baseVertex + i + 2},
				})
			}
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func validFace(f Face, n int) bool {
	for _, v := range f.V {
		if v < 0 || v >= n {
			return false
		}
	}
	return true
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		off := i * stride
		result[i] = math3d.V3(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
			float64(readFloat32(data[off+8:])),
		)
	}
	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range result {
		off := i * stride
		switch size {
		case 1:
			result[i] = int(data[off])
		case 2:
			result[i] = int(uint16(data[off]) | uint16(data[off+1])<<8)
		case 4:
			result[i] = int(uint32(data[off]) |
				uint32(data[off+1])<<8 |
				uint32(data[off+2])<<16 |
				uint32(data[off+3])<<24)
		}
	}
	return result, nil
}

// accessorBytes returns the buffer slice starting at the accessor's first
// element, and the stride between elements. The slice is verified to hold
// Count elements.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	if *accessor.BufferView < 0 || *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d out of range", *accessor.BufferView)
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	if bufferView.Buffer < 0 || bufferView.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d out of range", bufferView.Buffer)
	}

	// gltf.Open resolves external and embedded buffers alike into Data.
	bufData := doc.Buffers[bufferView.Buffer].Data
	if bufData == nil {
		return nil, 0, fmt.Errorf("buffer has no data")
	}

	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := bufferView.ByteOffset + accessor.ByteOffset
	if accessor.Count == 0 {
		return nil, stride, nil
	}
	end := start + (accessor.Count-1)*stride + elemSize
	if start < 0 || end > len(bufData) {
		return nil, 0, fmt.Errorf("accessor reads past end of buffer (%d > %d)", end, len(bufData))
	}
	return bufData[start:end], stride, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
