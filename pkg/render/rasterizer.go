package render

import (
	"math"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/models"
)

// Rasterizer fills triangles into a framebuffer with a depth test.
type Rasterizer struct {
	vp           *Viewport
	fb           *Framebuffer
	zbuffer      []float64    // Depth buffer (1D array, row-major)
	CullingStats CullingStats // Statistics for debugging/benchmarking
	// CullBackfaces skips triangles wound clockwise on screen. Imported
	// meshes often have inconsistent winding, so it is off by default.
	CullBackfaces bool
}

// CullingStats tracks frustum culling per frame.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(vp *Viewport, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		vp: vp,
		fb: fb,
	}
	r.Resize()
	return r
}

// Resize resizes the depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer and the culling statistics (call before
// each frame).
func (r *Rasterizer) ClearDepth() {
	r.CullingStats = CullingStats{}
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	// Use copy-doubling for faster clearing
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// Depth returns the stored depth at (x, y), or MaxFloat64 when out of
// bounds or never written.
func (r *Rasterizer) Depth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// project maps p to screen pixels with NDC depth in Z. It reports false
// for points behind the camera or in front of the near plane.
func (r *Rasterizer) project(viewProj math3d.Mat4, p math3d.Vec3) (math3d.Vec3, bool) {
	c := viewProj.MulVec4(math3d.V4FromV3(p, 1))
	if c.W <= 0 || c.Z < -c.W {
		return math3d.Vec3{}, false
	}
	ndc := c.PerspectiveDivide()
	return math3d.V3(
		(ndc.X+1)*0.5*float64(r.Width()),
		(1-ndc.Y)*0.5*float64(r.Height()),
		ndc.Z,
	), true
}

// DrawTriangleFlat rasterizes a triangle with a single color. Triangles
// with a vertex in front of the near plane are dropped.
func (r *Rasterizer) DrawTriangleFlat(v0, v1, v2 math3d.Vec3, color Color) {
	viewProj := r.vp.ViewProjectionMatrix()
	a, ok0 := r.project(viewProj, v0)
	b, ok1 := r.project(viewProj, v1)
	c, ok2 := r.project(viewProj, v2)
	if !ok0 || !ok1 || !ok2 {
		return
	}

	// Positive area is counter-clockwise on screen.
	area := edge(a, b, c.X, c.Y)
	if area == 0 || (r.CullBackfaces && area < 0) {
		return
	}

	x0 := max(0, int(math.Floor(min(a.X, b.X, c.X))))
	x1 := min(r.Width()-1, int(math.Ceil(max(a.X, b.X, c.X))))
	y0 := max(0, int(math.Floor(min(a.Y, b.Y, c.Y))))
	y1 := min(r.Height()-1, int(math.Ceil(max(a.Y, b.Y, c.Y))))

	for y := y0; y <= y1; y++ {
		py := float64(y) + 0.5
		for x := x0; x <= x1; x++ {
			w, inside := barycentric(a, b, c, float64(x)+0.5, py)
			if !inside {
				continue
			}
			z := w.X*a.Z + w.Y*b.Z + w.Z*c.Z
			i := y*r.fb.Width + x
			if z >= r.zbuffer[i] {
				continue
			}
			r.zbuffer[i] = z
			r.fb.Pixels[i] = color
		}
	}
}

// DrawTriangleLit draws a triangle with two-sided directional lighting.
func (r *Rasterizer) DrawTriangleLit(v0, v1, v2 math3d.Vec3, baseColor Color, lightDir math3d.Vec3) {
	normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	intensity := math.Abs(normal.Dot(lightDir.Normalize()))
	intensity = 0.3 + 0.7*intensity // Ambient + diffuse

	r.DrawTriangleFlat(v0, v1, v2, MultiplyColor(baseColor, intensity))
}

// DrawMesh fills a world-space mesh. Meshes whose bounds are outside the
// view frustum are skipped. A zero lightDir lights from the camera.
func (r *Rasterizer) DrawMesh(mesh *models.Mesh, color Color, lightDir math3d.Vec3) {
	if mesh == nil {
		return
	}
	r.CullingStats.MeshesTested++
	if !r.vp.Frustum().IntersectAABB(mesh.Bounds) {
		r.CullingStats.MeshesCulled++
		return
	}
	r.CullingStats.MeshesDrawn++

	if lightDir.LenSq() == 0 {
		lightDir = r.vp.CameraDirection().Negate()
	}
	for i := range mesh.Faces {
		v0, v1, v2 := mesh.Triangle(i)
		r.DrawTriangleLit(v0, v1, v2, color, lightDir)
	}
}

// MultiplyColor scales the RGB channels of c by intensity.
func MultiplyColor(c Color, intensity float64) Color {
	return Color{
		R: uint8(math.Min(255, float64(c.R)*intensity)),
		G: uint8(math.Min(255, float64(c.G)*intensity)),
		B: uint8(math.Min(255, float64(c.B)*intensity)),
		A: c.A,
	}
}

// edge is twice the signed area of (a, b, p) in screen space.
func edge(a, b math3d.Vec3, px, py float64) float64 {
	return (b.X-a.X)*(py-a.Y) - (b.Y-a.Y)*(px-a.X)
}

// barycentric returns the weights of (px, py) against the screen
// triangle abc and whether the point lies inside it.
func barycentric(a, b, c math3d.Vec3, px, py float64) (math3d.Vec3, bool) {
	area := edge(a, b, c.X, c.Y)
	if area == 0 {
		return math3d.Vec3{}, false
	}
	w := math3d.V3(edge(b, c, px, py), edge(c, a, px, py), edge(a, b, px, py)).Scale(1 / area)
	return w, w.X >= 0 && w.Y >= 0 && w.Z >= 0
}
