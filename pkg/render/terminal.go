package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/pivot/pkg/math3d"
)

// Framebuffers reach the terminal as upper half blocks: each cell shows two
// stacked pixels, the top one as foreground and the bottom one as
// background. Pixel columns map one to one onto cell columns.
const halfBlock = "▀"

// CellPixels returns the framebuffer size covering a cols×rows cell area.
func CellPixels(cols, rows int) (width, height int) {
	return cols, rows * 2
}

// CellCenter maps a terminal cell to the viewport pixel at its center.
// Mouse reports arrive in cells.
func CellCenter(col, row int) math3d.Vec2 {
	return math3d.V2(float64(col)+0.5, float64(row*2)+1)
}

// PixelCell maps a viewport pixel back to the cell showing it.
func PixelCell(p math3d.Vec2) (col, row int) {
	return int(p.X), int(p.Y) / 2
}

// Draw paints the framebuffer into area. Framebuffer row 2k lands in cell
// row area.Min.Y+k. Draw makes *Framebuffer a uv.Drawable.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		top := (row - area.Min.Y) * 2
		if top >= fb.Height {
			break
		}
		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: halfBlock,
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(x, top)),
					Bg: cellColor(fb.GetPixel(x, top+1)),
				},
			})
		}
	}
}

// DrawGlyph overlays glyph on the cell under pixel p. The cell keeps the
// framebuffer's two pixel colors blended as its background so the glyph
// reads as floating over the scene.
func (fb *Framebuffer) DrawGlyph(scr uv.Screen, p math3d.Vec2, glyph string, fg color.RGBA) bool {
	col, row := PixelCell(p)
	if col < 0 || col >= fb.Width || row < 0 || row*2 >= fb.Height {
		return false
	}
	if !(uv.Position{X: col, Y: row}).In(scr.Bounds()) {
		return false
	}
	bg := blend(fb.GetPixel(col, row*2), fb.GetPixel(col, row*2+1))
	scr.SetCell(col, row, &uv.Cell{
		Content: glyph,
		Width:   1,
		Style:   uv.Style{Fg: fg, Bg: cellColor(bg), Attrs: uv.AttrBold},
	})
	return true
}

func blend(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8((int(a.R) + int(b.R)) / 2),
		G: uint8((int(a.G) + int(b.G)) / 2),
		B: uint8((int(a.B) + int(b.B)) / 2),
		A: max(a.A, b.A),
	}
}

// cellColor maps fully transparent pixels to the terminal default color.
func cellColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Palette used by the viewer overlays and tests.
var (
	ColorBlack   = color.RGBA{0, 0, 0, 255}
	ColorWhite   = color.RGBA{255, 255, 255, 255}
	ColorRed     = color.RGBA{230, 70, 70, 255}
	ColorGreen   = color.RGBA{90, 200, 90, 255}
	ColorBlue    = color.RGBA{80, 120, 240, 255}
	ColorYellow  = color.RGBA{255, 220, 0, 255}
	ColorCyan    = color.RGBA{0, 220, 220, 255}
	ColorMagenta = color.RGBA{230, 0, 230, 255}
	ColorGray    = color.RGBA{128, 128, 128, 255}

	// ColorBackdrop fills the viewport behind the scene.
	ColorBackdrop = color.RGBA{30, 30, 40, 255}
	// ColorCPlane draws the construction plane grid.
	ColorCPlane = color.RGBA{60, 60, 75, 255}
)

// RGB creates an opaque color.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// RGBA creates a color with alpha.
func RGBA(r, g, b, a uint8) color.RGBA {
	return color.RGBA{r, g, b, a}
}
