package main

import (
	"fmt"
	"strings"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/muesli/termenv"

	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/nav"
	"github.com/taigrr/pivot/pkg/session"
	"github.com/taigrr/pivot/pkg/view"
)

// HUD renders the top and bottom status lines over the scene.
type HUD struct {
	profile termenv.Profile
	title   string

	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// hudState is everything one HUD frame shows.
type hudState struct {
	diag       session.Diagnostics
	projection view.Projection
	render     RenderMode
	result     intersect.Result
}

// NewHUD creates a HUD styled for profile.
func NewHUD(title string, profile termenv.Profile) *HUD {
	return &HUD{profile: profile, title: title, fpsTime: time.Now()}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

func (h *HUD) style(s, fg string) termenv.Style {
	return h.profile.String(s).Foreground(h.profile.Color(fg)).Background(h.profile.Color("#1e1e28"))
}

// TopLine shows the document, projection and frame rate.
func (h *HUD) TopLine(st hudState) string {
	var b strings.Builder
	b.WriteString(h.style(fmt.Sprintf(" %.0f FPS ", h.fps), "#5ad25a").String())
	b.WriteString(h.style(" "+h.title+" ", "#ffffff").Bold().String())
	b.WriteString(h.style(fmt.Sprintf(" %s · %s ", st.projection, st.render), "#00dcdc").String())
	if !st.diag.Enabled {
		b.WriteString(h.style(" navigation off ", "#e64646").Bold().String())
	}
	return b.String()
}

// BottomLine shows the gesture state and the cache counters.
func (h *HUD) BottomLine(st hudState) string {
	d := st.diag
	var b strings.Builder
	if d.State == nav.Active {
		b.WriteString(h.style(fmt.Sprintf(" %s ", strings.ToUpper(d.Mode.String())), "#ffdc00").Bold().String())
		b.WriteString(h.style(fmt.Sprintf(" %s %d obj · %s ",
			st.result.Status, st.result.ObjectCount, formatVec(st.result.Target)), "#ffffff").String())
	} else {
		b.WriteString(h.style(fmt.Sprintf(" %s ", d.State), "#808080").String())
		if d.Gesture.Gestures > 0 {
			b.WriteString(h.style(fmt.Sprintf(" last: %s %d obj in %s ",
				d.Gesture.LastStatus, d.Gesture.LastObjects, d.Gesture.LastCompute.Round(time.Microsecond)), "#a0a0a0").String())
		}
	}
	cache := fmt.Sprintf(" %d objects", d.CacheEntries)
	if d.PendingMeshJobs > 0 {
		cache += fmt.Sprintf(", %d meshing", d.PendingMeshJobs)
	}
	if d.MeshJobsFailed > 0 {
		cache += fmt.Sprintf(", %d failed", d.MeshJobsFailed)
	}
	b.WriteString(h.style(cache+" ", "#78aae6").String())
	return b.String()
}

// Draw paints both lines on the first and last row of area.
func (h *HUD) Draw(scr uv.Screen, area uv.Rectangle, st hudState) {
	if area.Dy() < 1 {
		return
	}
	top := uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1)
	uv.NewStyledString(h.TopLine(st)).Draw(scr, top)
	if area.Dy() < 2 {
		return
	}
	bottom := uv.Rect(area.Min.X, area.Max.Y-1, area.Dx(), 1)
	uv.NewStyledString(h.BottomLine(st)).Draw(scr, bottom)
}

func formatVec(v math3d.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
