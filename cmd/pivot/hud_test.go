package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/taigrr/pivot/pkg/config"
	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/nav"
	"github.com/taigrr/pivot/pkg/session"
	"github.com/taigrr/pivot/pkg/view"
)

func TestLevelFromFlags(t *testing.T) {
	tests := []struct {
		vv, v, q bool
		want     slog.Level
	}{
		{false, false, false, slog.LevelWarn},
		{false, true, false, slog.LevelInfo},
		{true, false, false, slog.LevelDebug},
		{false, false, true, slog.LevelError},
		{true, false, true, slog.LevelDebug},
		{false, true, true, slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, LevelFromFlags(tc.vv, tc.v, tc.q), "vv=%v v=%v q=%v", tc.vv, tc.v, tc.q)
	}
}

func TestHUDIdleLines(t *testing.T) {
	h := NewHUD("demo", termenv.Ascii)
	st := hudState{
		diag: session.Diagnostics{
			Enabled:         true,
			State:           nav.Idle,
			CacheEntries:    8,
			PendingMeshJobs: 3,
		},
		projection: view.Parallel,
		render:     RenderModeSolid,
	}

	top := h.TopLine(st)
	assert.Contains(t, top, "demo")
	assert.Contains(t, top, "parallel · solid")
	assert.NotContains(t, top, "navigation off")

	bottom := h.BottomLine(st)
	assert.Contains(t, bottom, "idle")
	assert.Contains(t, bottom, "8 objects, 3 meshing")
	assert.NotContains(t, bottom, "last:")

	st.diag.Enabled = false
	assert.Contains(t, h.TopLine(st), "navigation off")
}

func TestHUDActiveGesture(t *testing.T) {
	h := NewHUD("demo", termenv.Ascii)
	st := hudState{
		diag: session.Diagnostics{
			Enabled: true,
			State:   nav.Active,
			Mode:    nav.ModePan,
		},
		result: intersect.Result{Status: intersect.OnMesh, ObjectCount: 2, Target: math3d.V3(1, 2.5, -3)},
	}
	bottom := h.BottomLine(st)
	assert.Contains(t, bottom, "PAN")
	assert.Contains(t, bottom, "on-mesh 2 obj")
	assert.Contains(t, bottom, "(1.00, 2.50, -3.00)")
}

func TestHUDFPS(t *testing.T) {
	h := NewHUD("demo", termenv.Ascii)
	start := h.fpsTime
	for i := range 30 {
		h.UpdateFPS(start.Add(time.Duration(i+1) * 10 * time.Millisecond))
	}
	assert.Zero(t, h.fps, "no reading before a full second")

	h.UpdateFPS(start.Add(2 * time.Second))
	assert.InDelta(t, 15.5, h.fps, 1e-9)
}

func TestHUDDraw(t *testing.T) {
	h := NewHUD("demo", termenv.Ascii)
	scr := uv.NewScreenBuffer(60, 5)
	h.Draw(scr, scr.Bounds(), hudState{diag: session.Diagnostics{Enabled: true, CacheEntries: 1}})

	var top, bottom strings.Builder
	for x := range 60 {
		top.WriteString(scr.CellAt(x, 0).Content)
		bottom.WriteString(scr.CellAt(x, 4).Content)
	}
	assert.Contains(t, top.String(), "demo")
	assert.Contains(t, bottom.String(), "1 objects")
}

func TestPrintFields(t *testing.T) {
	var out bytes.Buffer
	printFields(&out, "/tmp/pivot.toml", config.Default().Fields())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "# /tmp/pivot.toml", lines[0])
	assert.Len(t, lines, len(config.Default().Fields())+1)
	assert.Contains(t, out.String(), "button")
	assert.Contains(t, out.String(), "middle")
	assert.NotContains(t, out.String(), "\x1b[", "no escapes when the writer is not a terminal")
}
