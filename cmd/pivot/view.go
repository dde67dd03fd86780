package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/taigrr/pivot/pkg/config"
	"github.com/taigrr/pivot/pkg/doc"
	"github.com/taigrr/pivot/pkg/loop"
	"github.com/taigrr/pivot/pkg/nav"
	"github.com/taigrr/pivot/pkg/render"
	"github.com/taigrr/pivot/pkg/session"
	"github.com/taigrr/pivot/pkg/view"
)

var (
	flagFPS      int
	flagParallel bool
	flagNoWatch  bool
)

var viewCmd = &cobra.Command{
	Use:   "view [model.glb]",
	Short: "Navigate a scene in the terminal",
	Long: `Render a glTF/GLB scene (or the built-in demo scene) in the terminal and
navigate it with the mouse. Drag with the navigation button to orbit around
the object under the cursor; hold the bound modifiers to pan, zoom or step
through preset views. The settings file is reloaded when it changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().IntVar(&flagFPS, "fps", 60, "target frames per second")
	viewCmd.Flags().BoolVar(&flagParallel, "parallel", false, "start in parallel projection")
	viewCmd.Flags().BoolVar(&flagNoWatch, "no-watch", false, "do not reload the settings file on change")
	rootCmd.AddCommand(viewCmd)
}

// viewer is the terminal host. Everything except the event pump runs on
// the loop goroutine.
type viewer struct {
	term    *uv.Terminal
	loop    *loop.Loop
	vp      *render.Viewport
	sess    *session.Session
	input   *terminalInput
	painter *painter
	hud     *HUD
	log     *slog.Logger

	doc     doc.Document
	cols    int
	rows    int
	showHUD bool
	held    nav.Button
	cancel  context.CancelFunc
}

func runView(cmd *cobra.Command, args []string) error {
	log, closeLog, err := openLog(flagLogFile, defaultViewLog)
	if err != nil {
		return err
	}
	defer closeLog()

	var modelPath string
	if len(args) == 1 {
		modelPath = args[0]
	}
	d, err := loadDocument(modelPath)
	if err != nil {
		return err
	}

	settings, settingsFile, err := loadSettings(log)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	l := loop.New(loop.WithLogger(log.With("component", "loop")))
	v := &viewer{
		term:    term,
		loop:    l,
		vp:      render.NewViewport(render.CellPixels(width, height)),
		input:   newTerminalInput(),
		log:     log,
		doc:     d,
		cols:    width,
		rows:    height,
		showHUD: true,
		hud:     NewHUD(d.Name(), termenv.EnvColorProfile()),
	}
	fbWidth, fbHeight := render.CellPixels(width, height)
	v.painter = newPainter(v.vp, fbWidth, fbHeight)
	if flagParallel {
		v.vp.SetProjection(view.Parallel)
	}

	v.sess, err = session.New(l, v.vp, v.input,
		session.WithLogger(log),
		session.WithSettings(settings),
	)
	if err != nil {
		return err
	}
	v.sess.Attach(d)
	frameView(v.vp, sceneBounds(d))

	if !flagNoWatch {
		w, err := config.NewWatcher(settingsFile, func(s config.Settings) {
			l.Post(func() { v.applySettings(s) })
		}, config.WithWatcherLogger(log.With("component", "config")))
		if err != nil {
			log.Warn("settings hot reload disabled", "path", settingsFile, "error", err)
		} else {
			defer w.Close()
		}
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	term.WriteString(ansi.SetModeMouseAnyEvent + ansi.SetModeMouseExtSgr)
	defer func() {
		term.WriteString(ansi.ResetModeMouseAnyEvent + ansi.ResetModeMouseExtSgr)
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, v.cancel = context.WithCancel(ctx)
	defer v.cancel()

	go v.pump(ctx)

	fps := max(flagFPS, 1)
	frame := time.Second / time.Duration(fps)
	v.scheduleFrame(frame)

	log.Info("viewer started", "doc", d.Name(), "cols", width, "rows", height, "fps", fps)
	return l.Run(ctx, frame/4)
}

// pump forwards terminal events to the loop.
func (v *viewer) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-v.term.Events():
			if !ok {
				return
			}
			v.loop.Post(func() { v.handle(ev) })
		}
	}
}

func (v *viewer) scheduleFrame(frame time.Duration) {
	v.loop.After(frame, func() {
		if err := v.draw(); err != nil {
			v.log.Error("draw failed", "error", err)
			v.cancel()
			return
		}
		v.scheduleFrame(frame)
	})
}

func (v *viewer) handle(ev uv.Event) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		v.key(ev)

	case uv.MouseClickEvent:
		e := navEvent(ev.Mouse())
		if v.sess.ButtonDown(e) {
			v.held = e.Button
		}

	case uv.MouseMotionEvent:
		e := navEvent(ev.Mouse())
		if e.Button == nav.ButtonNone {
			e.Button = v.held
		}
		v.sess.Move(e)

	case uv.MouseReleaseEvent:
		e := navEvent(ev.Mouse())
		// Some terminals do not say which button was released.
		if e.Button == nav.ButtonNone {
			e.Button = v.held
		}
		v.sess.ButtonUp(e)
		if v.sess.Controller().State() == nav.Idle {
			v.held = nav.ButtonNone
		}
	}
}

func (v *viewer) key(ev uv.KeyPressEvent) {
	switch {
	case ev.MatchString("escape", "ctrl+c"):
		v.cancel()
	case ev.MatchString("x"):
		if v.painter.mode == RenderModeSolid {
			v.painter.mode = RenderModeWireframe
		} else {
			v.painter.mode = RenderModeSolid
		}
	case ev.MatchString("p"):
		if v.vp.IsParallel() {
			v.vp.SetProjection(view.Perspective)
		} else {
			v.vp.SetProjection(view.Parallel)
		}
		v.vp.Redraw()
	case ev.MatchString("f", "home"):
		frameView(v.vp, sceneBounds(v.doc))
	case ev.MatchString("n"):
		v.sess.SetEnabled(!v.sess.Settings().Enabled)
	case ev.MatchString("?", "shift+/"):
		v.showHUD = !v.showHUD
	}
}

func (v *viewer) resize(cols, rows int) {
	v.cols, v.rows = cols, rows
	v.term.Erase()
	v.term.Resize(cols, rows)
	v.painter.resize(render.CellPixels(cols, rows))
	v.vp.Redraw()
}

func (v *viewer) applySettings(s config.Settings) {
	if err := v.sess.ApplySettings(s); err != nil {
		v.log.Warn("reloaded settings rejected", "error", err)
	}
}

// draw renders one frame and overlays the virtual cursor and HUD.
func (v *viewer) draw() error {
	ctl := v.sess.Controller()
	g := gesture{
		active: ctl.State() == nav.Active,
		result: ctl.Result(),
		cursor: ctl.VirtualCursor(),
	}
	v.painter.paint(v.sess.Cache().Entries(), g)

	area := v.term.Bounds()
	v.painter.fb.Draw(v.term, area)
	if g.cursor.Visible {
		v.painter.fb.DrawGlyph(v.term, g.cursor.Pos, cursorGlyph(g.cursor.Icon), render.ColorYellow)
	}

	v.hud.UpdateFPS(v.loop.Now())
	if v.showHUD {
		v.hud.Draw(v.term, area, hudState{
			diag:       v.sess.Diagnostics(),
			projection: v.vp.Projection(),
			render:     v.painter.mode,
			result:     g.result,
		})
	}
	if err := v.term.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}
