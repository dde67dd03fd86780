package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/taigrr/pivot/pkg/doc"
	"github.com/taigrr/pivot/pkg/intersect"
	"github.com/taigrr/pivot/pkg/loop"
	"github.com/taigrr/pivot/pkg/math3d"
	"github.com/taigrr/pivot/pkg/render"
	"github.com/taigrr/pivot/pkg/session"
	"github.com/taigrr/pivot/pkg/view"
)

var (
	flagPickX        float64
	flagPickY        float64
	flagPickWidth    int
	flagPickHeight   int
	flagPickParallel bool
	flagPickBoxes    bool
	flagSnapshot     string
)

var pickCmd = &cobra.Command{
	Use:   "pick [model.glb]",
	Short: "Infer the navigation target under one pixel",
	Long: `Frame the scene in an off-screen viewport, run one target inference at
the given pixel and print the result. Without a model the demo scene is
used. Pixel coordinates default to the viewport center.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPick,
}

func init() {
	f := pickCmd.Flags()
	f.Float64Var(&flagPickX, "x", -1, "pixel column (default: center)")
	f.Float64Var(&flagPickY, "y", -1, "pixel row (default: center)")
	f.IntVar(&flagPickWidth, "width", 160, "viewport width in pixels")
	f.IntVar(&flagPickHeight, "height", 90, "viewport height in pixels")
	f.BoolVar(&flagPickParallel, "parallel", false, "use a parallel projection")
	f.BoolVar(&flagPickBoxes, "boxes", false, "skip mesh extraction and test bounding boxes only")
	f.StringVar(&flagSnapshot, "snapshot", "", "write a PNG of the framed view with the target marked")
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	log, closeLog, err := openLog(flagLogFile, "")
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
	settings, _, err := loadSettings(log)
	if err != nil {
		return err
	}

	vp := render.NewViewport(flagPickWidth, flagPickHeight)
	if flagPickParallel {
		vp.SetProjection(view.Parallel)
	}
	l := loop.New(loop.WithLogger(log))
	sess, err := session.New(l, vp, newTerminalInput(),
		session.WithLogger(log),
		session.WithSettings(settings),
	)
	if err != nil {
		return err
	}

	pixel := math3d.V2(flagPickX, flagPickY)
	if pixel.X < 0 {
		pixel.X = float64(flagPickWidth) / 2
	}
	if pixel.Y < 0 {
		pixel.Y = float64(flagPickHeight) / 2
	}

	res := pickOnce(sess, l, d, vp, pixel, !flagPickBoxes)
	printResult(cmd.OutOrStdout(), d, sess.Diagnostics(), pixel, res)

	if flagSnapshot != "" {
		if err := snapshot(flagSnapshot, sess, vp, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "snapshot  %s\n", flagSnapshot)
	}
	return nil
}

// pickOnce attaches d, frames it and runs one inference at pixel. With
// meshes set the deferred mesh queue is drained first.
func pickOnce(sess *session.Session, l *loop.Loop, d doc.Document, vp *render.Viewport, pixel math3d.Vec2, meshes bool) intersect.Result {
	sess.Attach(d)
	frameView(vp, sceneBounds(d))
	if meshes {
		now := l.Now()
		// One job drains per idle tick.
		limit := sess.Cache().Pending()*2 + 8
		for i := 0; sess.Cache().Pending() > 0 && i < limit; i++ {
			l.Tick(now)
		}
	}
	return sess.Pick(pixel)
}

func printResult(w io.Writer, d doc.Document, diag session.Diagnostics, pixel math3d.Vec2, res intersect.Result) {
	fmt.Fprintf(w, "document  %s (%d objects, %d meshed)\n", d.Name(), diag.CacheEntries, diag.MeshJobsDone)
	fmt.Fprintf(w, "pixel     (%.1f, %.1f)\n", pixel.X, pixel.Y)
	fmt.Fprintf(w, "status    %s\n", res.Status)
	fmt.Fprintf(w, "target    %s\n", formatVec(res.Target))
	fmt.Fprintf(w, "objects   %d\n", res.ObjectCount)
	if res.Status == intersect.OnMesh || res.Status == intersect.OnBBox {
		fmt.Fprintf(w, "box       %s .. %s\n", formatVec(res.ActiveBox.Min), formatVec(res.ActiveBox.Max))
	}
	fmt.Fprintf(w, "elapsed   %s\n", res.Elapsed.Round(time.Microsecond))
}

// snapshot renders the framed view with the inferred target marked.
func snapshot(path string, sess *session.Session, vp *render.Viewport, res intersect.Result) error {
	w, h := vp.Size()
	p := newPainter(vp, w, h)
	p.mode = RenderModeSolid
	p.paint(sess.Cache().Entries(), gesture{active: true, result: res})
	if err := p.fb.SavePNG(path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
