package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings file when it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(Settings)
	log      *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	done   chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(log *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.log = log }
}

// WithDebounce sets how long the file must stay quiet before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// DefaultWatchDebounce collapses the burst of events an editor save
// produces.
const DefaultWatchDebounce = 200 * time.Millisecond

// NewWatcher watches path and calls onChange with the reloaded settings.
// The parent directory is watched so editors that replace the file are
// followed. onChange runs on the watcher's own goroutine; invalid files
// are logged and skipped.
func NewWatcher(path string, onChange func(Settings), opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: DefaultWatchDebounce,
		onChange: onChange,
		log:      slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("settings watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	s, err := Load(w.path)
	if err != nil {
		w.log.Error("settings reload failed", "path", w.path, "error", err)
		return
	}
	w.log.Info("settings reloaded", "path", w.path)
	w.onChange(s)
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}
