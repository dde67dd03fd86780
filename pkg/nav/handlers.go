package nav

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/pivot/pkg/loop"
	"github.com/taigrr/pivot/pkg/math3d"
)

// pan moves the camera in its own plane so the scene follows the cursor at
// the target depth.
func (c *Controller) pan(offset math3d.Vec2) {
	c.cam.PanX -= offset.X / c.scale
	c.cam.PanY += offset.Y / c.scale
	c.cam.ApplyTransforms()
}

// rotate orbits the pivot: horizontal motion turns about world Z, vertical
// motion tilts.
func (c *Controller) rotate(offset math3d.Vec2) {
	s := c.settings.RotateSensitivity
	c.cam.RotZ -= offset.X * s
	c.cam.RotX -= offset.Y * s
	c.cam.ApplyTransforms()
}

// zoomBy dollies toward the pivot on upward motion.
func (c *Controller) zoomBy(offset math3d.Vec2) {
	delta := c.settings.ZoomForce * zoomScale * -offset.Y
	if c.settings.ZoomInvert {
		delta = -delta
	}

	z := c.zoom
	if z == nil {
		c.cam.Zoom += delta
		c.cam.ApplyTransforms()
		return
	}
	z.target += delta
	if z.timer == nil {
		c.animateZoom(z)
	}
}

func (c *Controller) presetStep() float64 {
	if c.settings.PresetSteps <= 0 {
		return 0
	}
	return 2 * math.Pi / float64(c.settings.PresetSteps)
}

// preset accumulates motion and rotates by whole steps each time an axis
// crosses the threshold.
func (c *Controller) preset(offset math3d.Vec2) {
	step := c.presetStep()
	threshold := c.settings.PresetThreshold
	if step == 0 || threshold <= 0 {
		return
	}

	c.presets = c.presets.Add(offset)
	changed := false
	for math.Abs(c.presets.X) >= threshold {
		sign := math.Copysign(1, c.presets.X)
		c.cam.RotZ -= sign * step
		c.presets.X -= sign * threshold
		changed = true
	}
	for math.Abs(c.presets.Y) >= threshold {
		sign := math.Copysign(1, c.presets.Y)
		c.cam.RotX -= sign * step
		c.presets.Y -= sign * threshold
		changed = true
	}
	if changed {
		c.cam.ApplyTransforms()
	}
}

// zoomFPS is the easing animation rate.
const zoomFPS = 60

// zoomEaser follows the accumulated zoom with a critically damped spring.
type zoomEaser struct {
	spring      harmonica.Spring
	target, pos float64
	vel         float64
	timer       *loop.Timer
	stopped     bool
}

func newZoomEaser() *zoomEaser {
	return &zoomEaser{spring: harmonica.NewSpring(harmonica.FPS(zoomFPS), 8.0, 1.0)}
}

// settleEpsilon is the zoom distance below which the spring snaps to its
// target.
const settleEpsilon = 1e-4

// step advances one frame and reports whether the target was reached.
func (z *zoomEaser) step() bool {
	z.pos, z.vel = z.spring.Update(z.pos, z.vel, z.target)
	if math.Abs(z.target-z.pos) < settleEpsilon && math.Abs(z.vel) < settleEpsilon {
		z.pos, z.vel = z.target, 0
		return true
	}
	return false
}

func (z *zoomEaser) stop() {
	z.stopped = true
	if z.timer != nil {
		z.timer.Stop()
		z.timer = nil
	}
}

// animateZoom schedules easing frames on the loop until the spring settles.
func (c *Controller) animateZoom(z *zoomEaser) {
	z.timer = c.sched.After(time.Second/zoomFPS, func() {
		z.timer = nil
		if z.stopped {
			return
		}
		settled := z.step()
		c.cam.Zoom = z.pos
		c.cam.ApplyTransforms()
		if !settled {
			c.animateZoom(z)
		}
	})
}
