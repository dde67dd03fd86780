package main

import (
	"iter"

	"github.com/taigrr/pivot/pkg/cache"
	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/nav"
	"github.com/taigrr/pivot/pkg/render"
)

// RenderMode controls how cached meshes are drawn.
type RenderMode int

const (
	RenderModeWireframe RenderMode = iota // Front and back edges
	RenderModeSolid                       // Z-buffered flat shading
)

func (m RenderMode) String() string {
	if m == RenderModeSolid {
		return "solid"
	}
	return "wireframe"
}

// palette colors objects by id so they stay stable across frames.
var palette = []render.Color{
	render.RGB(120, 170, 230),
	render.RGB(230, 170, 100),
	render.RGB(140, 210, 140),
	render.RGB(210, 140, 200),
	render.RGB(200, 200, 120),
	render.RGB(120, 200, 200),
}

// painter draws the scene cache into a framebuffer sized to the terminal.
type painter struct {
	vp     *render.Viewport
	fb     *render.Framebuffer
	wire   *render.Wireframe
	raster *render.Rasterizer

	mode  RenderMode
	light math3d.Vec3
}

func newPainter(vp *render.Viewport, width, height int) *painter {
	p := &painter{vp: vp, light: math3d.V3(0.4, -0.6, 1).Normalize()}
	p.resize(width, height)
	return p
}

// resize reallocates the framebuffer and keeps the viewport's pixel size
// in step with it.
func (p *painter) resize(width, height int) {
	w, h := max(width, 1), max(height, 1)
	p.fb = render.NewFramebuffer(w, h)
	p.vp.Resize(w, h)
	p.wire = render.NewWireframe(p.vp, p.fb)
	p.raster = render.NewRasterizer(p.vp, p.fb)
}

// gesture is what the painter needs to show about an active gesture.
type gesture struct {
	active bool
	result intersect.Result
	cursor nav.VirtualCursor
}

// paint draws one frame: the construction grid, every cache entry (meshes
// once extracted, boxes until then) and the gesture target.
func (p *painter) paint(entries iter.Seq[*cache.Entry], g gesture) {
	p.fb.Clear(render.ColorBackdrop)
	p.raster.ClearDepth()

	p.wire.DrawGrid(20, 1, render.ColorCPlane)
	p.wire.DrawAxes(1)

	for e := range entries {
		c := palette[int(e.ID)%len(palette)]
		if !e.HasMeshes() {
			p.wire.DrawBox(e.Box, render.ColorGray)
			continue
		}
		for _, m := range e.Meshes {
			if p.mode == RenderModeSolid {
				p.raster.DrawMesh(m, c, p.light)
			} else {
				p.wire.DrawMesh(m, c, render.MultiplyColor(c, 0.35))
			}
		}
	}

	if !g.active {
		p.wire.DrawMarker(p.vp.Pivot(), 1, render.ColorMagenta)
		return
	}
	switch g.result.Status {
	case intersect.OnMesh, intersect.OnBBox:
		p.wire.DrawBox(g.result.ActiveBox, render.ColorYellow)
	case intersect.OnVisibleBBox:
		p.wire.DrawBox(g.result.VisibleBox, render.ColorCyan)
	}
	p.wire.DrawMarker(g.result.Target, 2, render.ColorMagenta)
}

// cursorGlyph is the character drawn for the virtual cursor icon.
func cursorGlyph(icon nav.CursorIcon) string {
	switch icon {
	case nav.IconPan:
		return "✥"
	case nav.IconRotate:
		return "⟳"
	case nav.IconZoom:
		return "⇕"
	case nav.IconPresets:
		return "⌖"
	default:
		return "+"
	}
}
