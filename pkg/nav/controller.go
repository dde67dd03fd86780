package nav

import (
	"log/slog"
	"math"
	"time"

	"github.com/taigrr/pivot/pkg/camera"
	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/loop"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/view"
)

// Settings is the numeric configuration surface of the controller.
type Settings struct {
	Button       Button
	Bindings     Bindings
	PlanBindings Bindings

	// RotateSensitivity is radians per pixel.
	RotateSensitivity float64
	ZoomForce         float64
	ZoomInvert        bool
	// ZoomSmoothing eases the applied zoom toward the accumulated target
	// with a critically damped spring.
	ZoomSmoothing bool

	PresetSteps int
	// PresetThreshold is the pixel distance per preset step.
	PresetThreshold float64
	// PresetAlignCPlane sets the construction plane through the pivot,
	// facing the axis nearest the camera, when leaving preset mode.
	PresetAlignCPlane bool

	// Debounce is how long motion is ignored after a mode change.
	Debounce time.Duration
}

// DefaultSettings returns the controller defaults.
func DefaultSettings() Settings {
	return Settings{
		Button:            ButtonMiddle,
		Bindings:          DefaultBindings(),
		PlanBindings:      DefaultPlanBindings(),
		RotateSensitivity: 0.01,
		ZoomForce:         1,
		PresetSteps:       8,
		PresetThreshold:   60,
		Debounce:          120 * time.Millisecond,
	}
}

// zoomScale converts pixels of vertical motion to zoom units at force 1.
const zoomScale = 0.005

// Controller drives a camera from mouse gestures. It must only be used from
// the loop goroutine.
type Controller struct {
	vp        view.Viewport
	target    Targeter
	input     InputSource
	sched     Scheduler
	selection Selection
	cam       *camera.Camera
	log       *slog.Logger

	settings Settings
	pending  *Settings
	enabled  bool
	table    ActionTable
	plan     bool

	state  State
	button Button
	press  math3d.Vec2
	last   math3d.Vec2
	mod    Modifier
	action Action
	result intersect.Result
	scale  float64
	start  time.Time
	cursor VirtualCursor

	debouncing bool
	token      uint64
	timer      *loop.Timer

	presets math3d.Vec2
	zoom    *zoomEaser

	stats Stats
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithSelection sets the selection consulted by CanEngage.
func WithSelection(s Selection) Option {
	return func(c *Controller) { c.selection = s }
}

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(c *Controller) { c.settings = s }
}

// New creates an enabled controller for vp.
func New(vp view.Viewport, target Targeter, input InputSource, sched Scheduler, opts ...Option) *Controller {
	c := &Controller{
		vp:       vp,
		target:   target,
		input:    input,
		sched:    sched,
		cam:      camera.New(),
		log:      slog.Default(),
		settings: DefaultSettings(),
		enabled:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rebuild()
	return c
}

// Camera returns the camera driven by the controller.
func (c *Controller) Camera() *camera.Camera { return c.cam }

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Mode returns the active mode, or ModeNone outside a gesture.
func (c *Controller) Mode() Mode {
	if c.state != Active {
		return ModeNone
	}
	return c.action.Mode
}

// Result returns the target inference of the current or last gesture.
func (c *Controller) Result() intersect.Result { return c.result }

// VirtualCursor returns the cursor stand-in to draw.
func (c *Controller) VirtualCursor() VirtualCursor { return c.cursor }

// Stats returns gesture diagnostics.
func (c *Controller) Stats() Stats { return c.stats }

// Settings returns the settings in effect.
func (c *Controller) Settings() Settings { return c.settings }

// Table returns the action table for the current view context.
func (c *Controller) Table() ActionTable { return c.table }

// Enabled reports whether the controller may engage.
func (c *Controller) Enabled() bool { return c.enabled }

// SetEnabled switches engagement on or off. A gesture in progress runs to
// its button-up.
func (c *Controller) SetEnabled(enabled bool) { c.enabled = enabled }

// SetSelection replaces the selection consulted by CanEngage.
func (c *Controller) SetSelection(s Selection) { c.selection = s }

// SetSettings replaces the settings and rebuilds the action table. During a
// gesture the change is held until button-up.
func (c *Controller) SetSettings(s Settings) {
	if c.state != Idle {
		c.pending = &s
		return
	}
	c.settings = s
	c.rebuild()
}

// rebuild recreates the action table for the viewport's current plan-view
// context.
func (c *Controller) rebuild() {
	c.plan = view.IsPlanView(c.vp)
	b := c.settings.Bindings
	if c.plan {
		b = c.settings.PlanBindings
	}
	c.table = NewActionTable(b, map[Mode]func(math3d.Vec2){
		ModePan:     c.pan,
		ModeRotate:  c.rotate,
		ModeZoom:    c.zoomBy,
		ModePresets: c.preset,
	})
	for _, m := range c.table.Conflicts {
		c.log.Warn("navigation binding shadowed by an earlier mode", "mode", m, "plan", c.plan)
	}
}

// CanEngage reports whether ev should start a gesture: the button must be
// the navigation button, the current view context must bind the held
// modifier, and with no modifier held nothing may be selected.
func (c *Controller) CanEngage(ev Event) bool {
	if !c.enabled || ev.Button != c.settings.Button {
		return false
	}
	if view.IsPlanView(c.vp) != c.plan {
		c.rebuild()
	}
	if _, ok := c.table.Lookup(ev.Mod); !ok {
		return false
	}
	if ev.Mod.Primary() == ModNone && c.selection != nil && c.selection.SelectedCount() > 0 {
		return false
	}
	return true
}

// ButtonDown arms a gesture. It reports whether the event was consumed.
func (c *Controller) ButtonDown(ev Event) bool {
	if c.state != Idle || !c.CanEngage(ev) {
		return false
	}
	c.state = Armed
	c.button = ev.Button
	c.press = ev.Pos
	c.last = ev.Pos
	c.mod = ev.Mod.Primary()
	return true
}

// Move feeds cursor motion. It reports whether the event was consumed.
func (c *Controller) Move(ev Event) bool {
	switch c.state {
	case Idle:
		return false
	case Armed:
		if ev.Pos == c.press {
			return true
		}
		c.activate(ev)
		return true
	}

	if mod := ev.Mod.Primary(); mod != c.mod {
		c.switchMode(mod)
		c.recenter(ev.Pos)
		return true
	}
	if c.debouncing {
		c.recenter(ev.Pos)
		return true
	}

	offset := ev.Pos.Sub(c.last)
	if offset.IsZero() {
		return true
	}
	if c.action.Handle != nil {
		c.action.Handle(offset)
	}
	c.recenter(ev.Pos)
	return true
}

// ButtonUp ends the gesture. A press released without motion is not
// consumed so the host can treat it as a click.
func (c *Controller) ButtonUp(ev Event) bool {
	if c.state == Idle || ev.Button != c.button {
		return false
	}
	if c.state == Armed {
		c.state = Idle
		c.applyPending()
		return false
	}

	c.exitMode()
	if c.result.Status != intersect.None {
		c.vp.SetPivot(c.result.Target)
	}
	c.cancelTimer()
	c.debouncing = false

	c.input.CaptureCursor(false)
	c.input.SetCursorPosition(c.press)
	c.input.SetCursorVisible(true)
	c.cursor = VirtualCursor{}

	c.stats.Gestures++
	c.stats.LastGesture = c.sched.Now().Sub(c.start)
	c.state = Idle
	c.vp.Redraw()

	c.log.Debug("gesture ended",
		"status", c.result.Status,
		"pivot", c.result.Target,
		"duration", c.stats.LastGesture,
	)
	c.applyPending()
	return true
}

func (c *Controller) applyPending() {
	if c.pending == nil {
		return
	}
	s := *c.pending
	c.pending = nil
	c.SetSettings(s)
}

// activate runs on the first motion after the press: infer the target,
// bind the camera and hide the system cursor.
func (c *Controller) activate(ev Event) {
	c.start = c.sched.Now()
	c.result = c.target.Compute(c.vp, c.press, c.vp.Pivot())
	c.stats.LastStatus = c.result.Status
	c.stats.LastObjects = c.result.ObjectCount
	c.stats.LastCompute = c.result.Elapsed

	c.cam.Init(c.vp, c.result.Target)
	c.rebuild()
	c.measureScale()

	c.input.SetCursorVisible(false)
	c.input.CaptureCursor(true)

	c.state = Active
	c.mod = ev.Mod.Primary()
	c.action, _ = c.table.Lookup(c.mod)
	c.enterMode()
	c.cursor = VirtualCursor{Visible: true, Pos: c.press, Icon: IconFor(c.action.Mode)}
	c.recenter(ev.Pos)

	c.log.Debug("gesture started",
		"mode", c.action.Mode,
		"status", c.result.Status,
		"target", c.result.Target,
		"objects", c.result.ObjectCount,
		"compute", c.result.Elapsed,
	)
}

// measureScale samples pixels per world unit at the target.
func (c *Controller) measureScale() {
	c.scale = view.PixelsPerUnit(c.vp, c.result.Target)
	if c.scale <= 0 || math.IsInf(c.scale, 0) {
		c.log.Debug("no screen scale at target, using 1", "target", c.result.Target)
		c.scale = 1
	}
}

// switchMode re-derives the camera decomposition, swaps the handler and
// the icon, and starts the debounce pause.
func (c *Controller) switchMode(mod Modifier) {
	from := c.action.Mode
	c.exitMode()
	c.cam.Reset()

	c.mod = mod
	c.action, _ = c.table.Lookup(mod)
	c.enterMode()
	c.cursor.Icon = IconFor(c.action.Mode)
	c.stats.ModeSwitches++
	c.debounce()

	c.log.Debug("mode changed", "from", from, "to", c.action.Mode, "modifier", mod)
}

// debounce ignores motion until the delay elapses. A later call supersedes
// the pending one.
func (c *Controller) debounce() {
	c.cancelTimer()
	c.token++
	if c.settings.Debounce <= 0 {
		c.debouncing = false
		return
	}
	c.debouncing = true
	token := c.token
	c.timer = c.sched.After(c.settings.Debounce, func() {
		if token != c.token {
			return
		}
		c.debouncing = false
		c.timer = nil
	})
}

func (c *Controller) cancelTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.token++
}

// recenter warps the system cursor back to the press point so drags are
// not bounded by the screen edge.
func (c *Controller) recenter(pos math3d.Vec2) {
	if c.input.SetCursorPosition(c.press) {
		c.last = c.press
		return
	}
	c.last = pos
}

func (c *Controller) enterMode() {
	switch c.action.Mode {
	case ModePan:
		c.measureScale()
	case ModeZoom:
		c.zoom = nil
		if c.settings.ZoomSmoothing {
			c.zoom = newZoomEaser()
		}
	case ModePresets:
		c.presets = math3d.Vec2{}
		if step := c.presetStep(); step > 0 {
			c.cam.SnapRotation(step)
		}
	}
	c.cam.ApplyTransforms()
}

func (c *Controller) exitMode() {
	switch c.action.Mode {
	case ModeZoom:
		if c.zoom != nil {
			c.zoom.stop()
			c.zoom = nil
		}
	case ModePresets:
		if c.settings.PresetAlignCPlane {
			back := c.cam.Frame().Column(2)
			c.vp.SetConstructionPlane(c.cam.Pivot(), back.DominantAxis())
		}
	}
}
