package main

import (
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/nav"
	"github.com/taigrr/pivot/pkg/render"
)

// terminalInput is the nav.InputSource of a terminal. Terminals report the
// mouse but cannot move or hide it, so warping always fails and the
// controller measures motion between consecutive events instead.
type terminalInput struct {
	cursorVisible bool
	captured      bool
}

func newTerminalInput() *terminalInput {
	return &terminalInput{cursorVisible: true}
}

func (t *terminalInput) SetCursorPosition(math3d.Vec2) bool { return false }
func (t *terminalInput) SetCursorVisible(visible bool)      { t.cursorVisible = visible }
func (t *terminalInput) CaptureCursor(capture bool)         { t.captured = capture }

// navButton maps a terminal mouse button onto a navigation button. Wheel
// and extra buttons map to ButtonNone.
func navButton(b uv.MouseButton) nav.Button {
	switch b {
	case uv.MouseLeft:
		return nav.ButtonLeft
	case uv.MouseMiddle:
		return nav.ButtonMiddle
	case uv.MouseRight:
		return nav.ButtonRight
	default:
		return nav.ButtonNone
	}
}

// navModifier maps terminal key modifiers onto navigation modifiers. Meta
// and Super have no navigation meaning and are dropped.
func navModifier(m uv.KeyMod) nav.Modifier {
	var mod nav.Modifier
	if m.Contains(uv.ModShift) {
		mod |= nav.ModShift
	}
	if m.Contains(uv.ModCtrl) {
		mod |= nav.ModCtrl
	}
	if m.Contains(uv.ModAlt) {
		mod |= nav.ModAlt
	}
	if m.Contains(uv.ModCapsLock) {
		mod |= nav.ModCapsLock
	}
	return mod
}

// navEvent converts a terminal mouse report into a navigation event at the
// center pixel of the reported cell.
func navEvent(m uv.Mouse) nav.Event {
	return nav.Event{
		Pos:    render.CellCenter(m.X, m.Y),
		Button: navButton(m.Button),
		Mod:    navModifier(m.Mod),
	}
}
