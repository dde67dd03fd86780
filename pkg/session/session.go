// Package session wires the scene cache, intersector and navigation
// controller for one document and viewport on a cooperative loop.
package session

import (
	"fmt"
	"log/slog"

	"github.com/taigrr/pivot/pkg/cache"
	"github.com/taigrr/pivot/pkg/config"
	"github.com/taigrr/pivot/pkg/doc"
	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/loop"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/nav"
	"github.com/taigrr/pivot/pkg/view"
)

// Session owns the navigation services of one viewport. All methods must be
// called from the loop goroutine.
type Session struct {
	loop        *loop.Loop
	vp          view.Viewport
	cache       *cache.Cache
	intersector *intersect.Intersector
	ctl         *nav.Controller
	log         *slog.Logger

	settings    config.Settings
	doc         doc.Document
	unsubscribe func()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger handed to every service.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithSettings replaces config.Default.
func WithSettings(settings config.Settings) Option {
	return func(s *Session) { s.settings = settings }
}

// Diagnostics are read-only counters for overlays.
type Diagnostics struct {
	Document        string
	CacheEntries    int
	PendingMeshJobs int
	MeshJobsDone    uint64
	MeshJobsFailed  uint64

	Enabled bool
	State   nav.State
	Mode    nav.Mode
	Gesture nav.Stats
}

// New creates a session for vp. No document is attached yet.
func New(l *loop.Loop, vp view.Viewport, input nav.InputSource, opts ...Option) (*Session, error) {
	s := &Session{
		loop:     l,
		vp:       vp,
		log:      slog.Default(),
		settings: config.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	navSettings, err := s.settings.Nav()
	if err != nil {
		return nil, fmt.Errorf("session settings: %w", err)
	}

	s.cache = cache.New(l,
		cache.WithLogger(s.log.With("component", "cache")),
		cache.WithTransientCommands(s.settings.TransientCommands...),
	)
	s.intersector = intersect.New(s.cache,
		intersect.WithLogger(s.log.With("component", "intersect")),
		intersect.WithParallelThreshold(s.settings.ParallelMeshThreshold),
	)
	s.ctl = nav.New(vp, s.intersector, input, l,
		nav.WithLogger(s.log.With("component", "nav")),
		nav.WithSettings(navSettings),
	)
	s.ctl.SetEnabled(s.settings.Enabled)
	return s, nil
}

// Attach subscribes to d and fills the cache with one enumeration of its
// visible objects. A previously attached document is detached first.
func (s *Session) Attach(d doc.Document) {
	s.Detach()
	s.doc = d
	s.unsubscribe = d.Observe(s.cache)
	s.cache.Load(d)
	s.ctl.SetSelection(d)
	s.log.Info("document attached", "doc", d.Name(), "entries", s.cache.Len(), "pending", s.cache.Pending())
}

// Detach unsubscribes from the current document and empties the cache.
func (s *Session) Detach() {
	if s.doc == nil {
		return
	}
	name := s.doc.Name()
	s.unsubscribe()
	s.unsubscribe = nil
	s.cache.Clear()
	s.ctl.SetSelection(nil)
	s.doc = nil
	s.log.Info("document detached", "doc", name)
}

// Document returns the attached document, or nil.
func (s *Session) Document() doc.Document { return s.doc }

// Cache returns the scene cache.
func (s *Session) Cache() *cache.Cache { return s.cache }

// Controller returns the navigation controller.
func (s *Session) Controller() *nav.Controller { return s.ctl }

// Viewport returns the driven viewport.
func (s *Session) Viewport() view.Viewport { return s.vp }

// Settings returns the settings in effect.
func (s *Session) Settings() config.Settings { return s.settings }

// SetEnabled switches navigation on or off.
func (s *Session) SetEnabled(enabled bool) {
	s.settings.Enabled = enabled
	s.ctl.SetEnabled(enabled)
}

// ApplySettings validates and installs new settings. Invalid settings leave
// the current ones in place.
func (s *Session) ApplySettings(settings config.Settings) error {
	navSettings, err := settings.Nav()
	if err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	s.settings = settings
	s.ctl.SetSettings(navSettings)
	s.ctl.SetEnabled(settings.Enabled)
	s.cache.SetTransientCommands(settings.TransientCommands)
	s.intersector.SetParallelThreshold(settings.ParallelMeshThreshold)
	s.log.Debug("settings applied", "enabled", settings.Enabled, "button", settings.Button)
	return nil
}

// Pick runs one target inference at pixel without starting a gesture.
func (s *Session) Pick(pixel math3d.Vec2) intersect.Result {
	return s.intersector.Compute(s.vp, pixel, s.vp.Pivot())
}

// ButtonDown forwards a press to the controller.
func (s *Session) ButtonDown(ev nav.Event) bool { return s.ctl.ButtonDown(ev) }

// Move forwards motion to the controller.
func (s *Session) Move(ev nav.Event) bool { return s.ctl.Move(ev) }

// ButtonUp forwards a release to the controller.
func (s *Session) ButtonUp(ev nav.Event) bool { return s.ctl.ButtonUp(ev) }

// Diagnostics returns a snapshot of the session counters.
func (s *Session) Diagnostics() Diagnostics {
	d := Diagnostics{
		CacheEntries:    s.cache.Len(),
		PendingMeshJobs: s.cache.Pending(),
		MeshJobsDone:    s.cache.Queue().Processed(),
		MeshJobsFailed:  s.cache.Queue().Failed(),
		Enabled:         s.ctl.Enabled(),
		State:           s.ctl.State(),
		Mode:            s.ctl.Mode(),
		Gesture:         s.ctl.Stats(),
	}
	if s.doc != nil {
		d.Document = s.doc.Name()
	}
	return d
}
