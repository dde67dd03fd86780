// Package render draws navigation viewports into pixel framebuffers and
// onto the terminal.
package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Framebuffer holds the viewport's pixels in row-major order. Its pixel
// grid matches the viewport size, so screen positions from the viewport
// and the navigation controller address it directly.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []Color
}

// NewFramebuffer allocates a transparent framebuffer. A zero alpha pixel
// keeps the terminal's default colors when drawn.
func NewFramebuffer(width, height int) *Framebuffer {
	width, height = max(width, 0), max(height, 0)
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// InBounds reports whether (x, y) addresses a pixel.
func (fb *Framebuffer) InBounds(x, y int) bool {
	return x >= 0 && x < fb.Width && y >= 0 && y < fb.Height
}

// Clear fills every pixel with c.
func (fb *Framebuffer) Clear(c Color) {
	if len(fb.Pixels) == 0 {
		return
	}
	fb.Pixels[0] = c
	for n := 1; n < len(fb.Pixels); n *= 2 {
		copy(fb.Pixels[n:], fb.Pixels[:n])
	}
}

// SetPixel writes c at (x, y). Out-of-range writes are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if fb.InBounds(x, y) {
		fb.Pixels[y*fb.Width+x] = c
	}
}

// GetPixel returns the pixel at (x, y), or transparent black outside.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if !fb.InBounds(x, y) {
		return Color{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine rasterizes the segment between two pixels, endpoints included.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c Color) {
	dx, stepX := x1-x0, 1
	if dx < 0 {
		dx, stepX = -dx, -1
	}
	dy, stepY := y1-y0, 1
	if dy < 0 {
		dy, stepY = -dy, -1
	}

	x, y := x0, y0
	diff := dx - dy
	for {
		fb.SetPixel(x, y, c)
		if x == x1 && y == y1 {
			return
		}
		d2 := diff * 2
		if d2 > -dy {
			diff -= dy
			x += stepX
		}
		if d2 < dx {
			diff += dx
			y += stepY
		}
	}
}

// DrawCross draws a plus-shaped marker centered on (x, y).
func (fb *Framebuffer) DrawCross(x, y, radius int, c Color) {
	fb.DrawLine(x-radius, y, x+radius, y, c)
	fb.DrawLine(x, y-radius, x, y+radius, c)
}

// ToImage copies the framebuffer into an image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for i, p := range fb.Pixels {
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = p.R, p.G, p.B, p.A
	}
	return img
}

// SavePNG writes the framebuffer to path as a PNG image.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
