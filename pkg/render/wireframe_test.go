package render

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
)

func countLit(fb *Framebuffer) int {
	n := 0
	for _, p := range fb.Pixels {
		if p.A != 0 {
			n++
		}
	}
	return n
}

func newTestScene(width, height int) (*Viewport, *Framebuffer) {
	return NewViewport(width, height), NewFramebuffer(width, height)
}

func TestWireframeDrawBox(t *testing.T) {
	tests := []struct {
		name    string
		box     math3d.AABB
		wantLit bool
	}{
		{"in view", math3d.NewAABB(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)), true},
		{"behind camera", math3d.NewAABB(math3d.V3(-1, -1, 20), math3d.V3(1, 1, 30)), false},
		{"invalid", math3d.EmptyAABB(), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vp, fb := newTestScene(64, 64)
			NewWireframe(vp, fb).DrawBox(tc.box, ColorWhite)
			if got := countLit(fb) > 0; got != tc.wantLit {
				t.Errorf("lit pixels = %d, want lit %v", countLit(fb), tc.wantLit)
			}
		})
	}
}

func TestWireframeClipsAtNearPlane(t *testing.T) {
	vp, fb := newTestScene(64, 64)
	w := NewWireframe(vp, fb)

	// Runs from in front of the camera to behind it.
	w.DrawLine3D(math3d.V3(1, 0, 0), math3d.V3(1, 0, 40), ColorWhite)

	if countLit(fb) == 0 {
		t.Fatal("segment crossing the near plane should be partly drawn")
	}
	// The visible part lies right of the screen center.
	for y := range fb.Height {
		for x := range fb.Width / 2 {
			if fb.GetPixel(x, y).A != 0 {
				t.Fatalf("pixel (%d, %d) lit left of center", x, y)
			}
		}
	}
}

func TestWireframeDrawMeshBackFaces(t *testing.T) {
	vp, fb := newTestScene(64, 64)
	w := NewWireframe(vp, fb)
	front, back := RGB(255, 255, 255), RGB(10, 10, 10)

	// Counter-clockwise seen from +Z, so it faces the camera.
	quad := models.Quad("q",
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0))
	w.DrawMesh(quad, front, back)

	for _, p := range fb.Pixels {
		if p == back {
			t.Fatal("front-facing quad drawn with the back color")
		}
	}
	if countLit(fb) == 0 {
		t.Fatal("quad not drawn")
	}

	fb.Clear(RGBA(0, 0, 0, 0))
	flipped := models.Quad("q",
		math3d.V3(-1, 1, 0), math3d.V3(1, 1, 0), math3d.V3(1, -1, 0), math3d.V3(-1, -1, 0))
	w.DrawMesh(flipped, front, back)
	for _, p := range fb.Pixels {
		if p == front {
			t.Fatal("back-facing quad drawn with the front color")
		}
	}
}

func TestWireframeDrawMarker(t *testing.T) {
	vp, fb := newTestScene(64, 64)
	w := NewWireframe(vp, fb)

	if !w.DrawMarker(math3d.Zero3(), 2, ColorYellow) {
		t.Fatal("origin marker should be on screen")
	}
	if fb.GetPixel(32, 32) != ColorYellow || fb.GetPixel(34, 32) != ColorYellow {
		t.Error("marker cross not drawn around the screen center")
	}
	if w.DrawMarker(math3d.V3(0, 0, 50), 2, ColorYellow) {
		t.Error("marker behind the camera should not be drawn")
	}
}

func TestWireframeDrawGrid(t *testing.T) {
	vp, fb := newTestScene(64, 64)
	w := NewWireframe(vp, fb)

	w.DrawGrid(4, 0, ColorGray)
	if countLit(fb) != 0 {
		t.Error("zero step grid should draw nothing")
	}
	w.DrawGrid(4, 1, ColorGray)
	if fb.GetPixel(32, 32) != ColorGray {
		t.Error("grid lines should cross at the origin")
	}
}

func TestRasterizerDepthOrder(t *testing.T) {
	vp, fb := newTestScene(64, 64)
	r := NewRasterizer(vp, fb)

	nearQuad := models.Quad("near",
		math3d.V3(-1, -1, 2), math3d.V3(1, -1, 2), math3d.V3(1, 1, 2), math3d.V3(-1, 1, 2))
	farQuad := models.Quad("far",
		math3d.V3(-2, -2, 0), math3d.V3(2, -2, 0), math3d.V3(2, 2, 0), math3d.V3(-2, 2, 0))

	r.DrawMesh(nearQuad, RGB(200, 0, 0), math3d.Vec3{})
	r.DrawMesh(farQuad, RGB(0, 0, 200), math3d.Vec3{})

	if got := fb.GetPixel(32, 32); got.R < 190 || got.B != 0 {
		t.Errorf("center pixel = %v, want the near quad color", got)
	}
	if got := fb.GetPixel(23, 32); got.B < 190 || got.R != 0 {
		t.Errorf("pixel outside the near quad = %v, want the far quad color", got)
	}
	if r.Depth(32, 32) >= r.Depth(23, 32) {
		t.Error("near quad should have the smaller depth")
	}
	if r.CullingStats.MeshesDrawn != 2 {
		t.Errorf("MeshesDrawn = %d, want 2", r.CullingStats.MeshesDrawn)
	}
}

func TestRasterizerCullsOutsideFrustum(t *testing.T) {
	vp, fb := newTestScene(32, 32)
	r := NewRasterizer(vp, fb)

	box := models.Box("behind", math3d.NewAABB(math3d.V3(-1, -1, 20), math3d.V3(1, 1, 22)))
	r.DrawMesh(box, ColorWhite, math3d.UnitZ())

	if r.CullingStats.MeshesCulled != 1 || countLit(fb) != 0 {
		t.Errorf("stats = %+v, lit = %d, want culled", r.CullingStats, countLit(fb))
	}

	r.ClearDepth()
	if r.CullingStats != (CullingStats{}) {
		t.Error("ClearDepth should reset the culling statistics")
	}
	if r.Depth(0, 0) != math.MaxFloat64 || r.Depth(-1, 0) != math.MaxFloat64 {
		t.Error("cleared depth should be MaxFloat64")
	}
}

func TestRasterizerLighting(t *testing.T) {
	vp, fb := newTestScene(32, 32)
	r := NewRasterizer(vp, fb)

	quad := models.Quad("q",
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0))
	r.DrawMesh(quad, RGB(100, 100, 100), math3d.UnitX())

	// Light grazes the quad: ambient only.
	if got := fb.GetPixel(16, 16); got.R < 29 || got.R > 30 || got.R != got.G {
		t.Errorf("grazing light pixel = %v, want ambient (30, 30, 30)", got)
	}
}

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bc, inside := barycentric(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), tc.px, tc.py)
			if !inside {
				t.Errorf("barycentric(%v, %v) reported outside", tc.px, tc.py)
			}
			if !bc.ApproxEqual(tc.expected, 0.001) {
				t.Errorf("barycentric(%v, %v) = %v, want %v", tc.px, tc.py, bc, tc.expected)
			}
		})
	}

	t.Run("clockwise winding", func(t *testing.T) {
		bc, inside := barycentric(math3d.V3(0, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), 0.25, 0.25)
		if !inside || !bc.ApproxEqual(math3d.V3(0.5, 0.25, 0.25), 1e-9) {
			t.Errorf("clockwise barycentric = %v (inside %v)", bc, inside)
		}
	})

	t.Run("outside triangle", func(t *testing.T) {
		bc, inside := barycentric(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), -1, -1)
		if inside || (bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0) {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})
}

func TestMultiplyColor(t *testing.T) {
	if got := MultiplyColor(RGBA(100, 200, 50, 7), 2); got != RGBA(200, 255, 100, 7) {
		t.Errorf("MultiplyColor() = %v", got)
	}
}

func TestFramebufferDrawCross(t *testing.T) {
	fb := NewFramebuffer(9, 9)
	fb.DrawCross(4, 4, 2, ColorRed)

	for _, p := range [][2]int{{2, 4}, {6, 4}, {4, 2}, {4, 6}, {4, 4}} {
		if fb.GetPixel(p[0], p[1]) != ColorRed {
			t.Errorf("pixel %v not set", p)
		}
	}
	if fb.GetPixel(3, 3) == ColorRed {
		t.Error("diagonal pixel should be untouched")
	}
	if countLit(fb) != 9 {
		t.Errorf("lit = %d, want 9", countLit(fb))
	}
}

func TestFramebufferSavePNG(t *testing.T) {
	fb := NewFramebuffer(12, 8)
	fb.Clear(ColorBlue)
	fb.SetPixel(3, 2, ColorWhite)

	path := filepath.Join(t.TempDir(), "snap.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("image size = %v", b)
	}
	if r, g, b, _ := img.At(3, 2).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Error("white pixel lost")
	}
}

func BenchmarkRasterizerDrawMesh(b *testing.B) {
	vp, fb := newTestScene(160, 120)
	r := NewRasterizer(vp, fb)
	box := models.Box("box", math3d.NewAABB(math3d.V3(-2, -2, -2), math3d.V3(2, 2, 2)))

	for b.Loop() {
		r.ClearDepth()
		r.DrawMesh(box, ColorGray, math3d.Vec3{})
	}
}
