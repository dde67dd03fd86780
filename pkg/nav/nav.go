// Package nav implements the modal navigation state machine: a held mouse
// button plus the current modifier key selects pan, rotate, zoom or preset
// orbiting around a target inferred from the scene under the cursor.
package nav

import (
	"fmt"
	"strings"
	"time"

	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/loop"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/view"
)

// Button is a mouse button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

var buttonNames = map[Button]string{
	ButtonNone:   "none",
	ButtonLeft:   "left",
	ButtonMiddle: "middle",
	ButtonRight:  "right",
}

func (b Button) String() string {
	if s, ok := buttonNames[b]; ok {
		return s
	}
	return "unknown"
}

// ParseButton parses a button name as written by Button.String.
func ParseButton(s string) (Button, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for b, name := range buttonNames {
		if name == s && b != ButtonNone {
			return b, nil
		}
	}
	return ButtonNone, fmt.Errorf("unknown button %q", s)
}

// Modifier is a set of held modifier keys.
type Modifier uint8

// ModNone is the empty set.
const ModNone Modifier = 0

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModCapsLock
)

// modPriority orders modifiers for Primary.
var modPriority = []Modifier{ModCtrl, ModShift, ModAlt, ModCapsLock}

var modNames = map[Modifier]string{
	ModNone:     "none",
	ModShift:    "shift",
	ModCtrl:     "ctrl",
	ModAlt:      "alt",
	ModCapsLock: "capslock",
}

// Primary reduces a modifier set to the single key that selects the mode.
// When several keys are held, Ctrl wins over Shift, Shift over Alt and Alt
// over Caps Lock.
func (m Modifier) Primary() Modifier {
	for _, p := range modPriority {
		if m&p != 0 {
			return p
		}
	}
	return ModNone
}

func (m Modifier) String() string {
	if s, ok := modNames[m]; ok {
		return s
	}
	var parts []string
	for _, p := range modPriority {
		if m&p != 0 {
			parts = append(parts, modNames[p])
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "+")
}

// ParseModifier parses a single modifier name. "none" selects the binding
// used when no key is held.
func ParseModifier(s string) (Modifier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "control":
		s = "ctrl"
	case "caps", "caps-lock", "caps_lock":
		s = "capslock"
	}
	for m, name := range modNames {
		if name == s {
			return m, nil
		}
	}
	return ModNone, fmt.Errorf("unknown modifier %q", s)
}

// Mode is a navigation mode.
type Mode int

const (
	ModeNone Mode = iota
	ModePan
	ModeRotate
	ModeZoom
	ModePresets
)

// Modes lists the bindable modes in table build order.
var Modes = []Mode{ModePan, ModeRotate, ModeZoom, ModePresets}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModePan:
		return "pan"
	case ModeRotate:
		return "rotate"
	case ModeZoom:
		return "zoom"
	case ModePresets:
		return "presets"
	default:
		return "unknown"
	}
}

// State is the controller state.
type State int

const (
	// Idle means no gesture is in progress.
	Idle State = iota
	// Armed means the navigation button is down but has not moved yet.
	Armed
	// Active means a gesture is driving the camera.
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// CursorIcon is the icon drawn for the virtual cursor.
type CursorIcon int

const (
	IconNone CursorIcon = iota
	IconPan
	IconRotate
	IconZoom
	IconPresets
)

// IconFor returns the virtual cursor icon of a mode.
func IconFor(m Mode) CursorIcon {
	switch m {
	case ModePan:
		return IconPan
	case ModeRotate:
		return IconRotate
	case ModeZoom:
		return IconZoom
	case ModePresets:
		return IconPresets
	default:
		return IconNone
	}
}

func (i CursorIcon) String() string {
	switch i {
	case IconPan:
		return "pan"
	case IconRotate:
		return "rotate"
	case IconZoom:
		return "zoom"
	case IconPresets:
		return "presets"
	default:
		return "none"
	}
}

// Event is one mouse event with the modifier keys held at the time.
type Event struct {
	Pos    math3d.Vec2
	Button Button
	Mod    Modifier
}

// VirtualCursor is the on-screen stand-in for the hidden system cursor.
type VirtualCursor struct {
	Visible bool
	Pos     math3d.Vec2
	Icon    CursorIcon
}

// InputSource is the platform cursor the controller hides, captures and
// warps while a gesture is active.
type InputSource interface {
	// SetCursorPosition warps the cursor. It reports false when the
	// platform cannot move the cursor.
	SetCursorPosition(p math3d.Vec2) bool
	SetCursorVisible(visible bool)
	CaptureCursor(capture bool)
}

// Scheduler runs one-shot callbacks on the cooperative loop. *loop.Loop
// implements it.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) *loop.Timer
}

// Targeter infers the pivot under a pixel. *intersect.Intersector
// implements it.
type Targeter interface {
	Compute(vp view.Viewport, pixel math3d.Vec2, fallback math3d.Vec3) intersect.Result
}

// Selection reports how many objects are selected in the host document.
type Selection interface {
	SelectedCount() int
}

// Stats are read-only diagnostics about recent gestures.
type Stats struct {
	Gestures     int
	ModeSwitches int
	// LastStatus, LastObjects and LastCompute describe the target
	// inference of the most recent gesture.
	LastStatus  intersect.Status
	LastObjects int
	LastCompute time.Duration
	// LastGesture is the duration of the most recent completed gesture.
	LastGesture time.Duration
}
