package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taigrr/pivot/pkg/config"
)

var (
	flagVerbose bool
	flagDebug   bool
	flagQuiet   bool
	flagLogFile string
	flagConfig  string
)

const version = "0.1.0"

// defaultViewLog receives the viewer's logs when --log-file is not given;
// the terminal itself is busy rendering.
const defaultViewLog = "pivot.log"

var rootCmd = &cobra.Command{
	Use:   "pivot",
	Short: "Cursor-inferred orbit, pan and zoom navigation for 3D scenes",
	Long: `pivot navigates 3D scenes by inferring the rotation center from the
object under the cursor. It renders glTF/GLB files in the terminal and can
run single target inferences headlessly.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log informational messages")
	pf.BoolVar(&flagDebug, "vv", false, "log debug messages")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "log errors only")
	pf.StringVar(&flagLogFile, "log-file", "", "write logs to this file (view defaults to "+defaultViewLog+")")
	pf.StringVar(&flagConfig, "config", "", "settings file (default ~/.config/pivot/pivot.toml)")
}

// LevelFromFlags returns the slog level selected by the verbosity flags.
// They are evaluated in the order vv, v, q; the default is Warn.
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func newLogger(w io.Writer) *slog.Logger {
	level := LevelFromFlags(flagDebug, flagVerbose, flagQuiet)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openLog installs the default logger. An empty path falls back to
// fallback, or stderr when that is empty too. The returned close function
// is never nil.
func openLog(path, fallback string) (*slog.Logger, func(), error) {
	if path == "" {
		path = fallback
	}
	if path == "" {
		log := newLogger(os.Stderr)
		slog.SetDefault(log)
		return log, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := newLogger(f)
	slog.SetDefault(log)
	return log, func() { f.Close() }, nil
}

// settingsPath resolves --config or the default settings location.
func settingsPath() (string, error) {
	if flagConfig != "" {
		return config.Expand(flagConfig)
	}
	return config.DefaultPath()
}

// loadSettings reads the settings file. A broken file is reported and the
// defaults are used so the viewer still starts.
func loadSettings(log *slog.Logger) (config.Settings, string, error) {
	path, err := settingsPath()
	if err != nil {
		return config.Default(), "", err
	}
	s, err := config.Load(path)
	if err != nil {
		log.Warn("using default settings", "path", path, "error", err)
	}
	return s, path, nil
}
