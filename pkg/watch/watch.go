// Package watch reloads presets when files below the config root change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/metrics"
)

const DefaultDebounce = 250 * time.Millisecond

// Sink receives a freshly loaded preset snapshot.
type Sink interface {
	PostReload(ctx context.Context, p *config.Presets) error
}

type Watcher struct {
	root     string
	sink     Sink
	debounce time.Duration
	metrics  *metrics.Metrics
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

func New(root string, sink Sink, opts ...Option) *Watcher {
	w := &Watcher{root: root, sink: sink, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var presetDirs = []string{config.ConfigsDir, config.ThemesDir, config.StylesDir}

// Run watches until ctx is done. The root must exist; preset
// subdirectories are picked up when they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	root, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("failed to resolve config root: %w", err)
	}
	if err := fw.Add(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	for _, dir := range presetDirs {
		w.watchDir(fw, filepath.Join(root, dir))
	}
	slog.Info("Watching presets", "root", root, "debounce", w.debounce)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fw, root, ev) {
				continue
			}
			slog.Debug("Preset change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Preset watcher error", "error", err)
		case <-fire:
			fire = nil
			w.reload(ctx, root)
		}
	}
}

func (w *Watcher) watchDir(fw *fsnotify.Watcher, dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	if err := fw.Add(dir); err != nil {
		slog.Warn("Failed to watch preset directory", "dir", dir, "error", err)
	}
}

func isPresetDir(name string) bool {
	for _, d := range presetDirs {
		if name == d {
			return true
		}
	}
	return false
}

func (w *Watcher) relevant(fw *fsnotify.Watcher, root string, ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	parent, base := filepath.Dir(ev.Name), filepath.Base(ev.Name)
	if parent == root {
		if !isPresetDir(base) {
			return false
		}
		if ev.Has(fsnotify.Create) {
			w.watchDir(fw, ev.Name)
		}
		return true
	}
	if filepath.Dir(parent) != root || !isPresetDir(filepath.Base(parent)) {
		return false
	}
	_, ok := config.PresetName(base)
	return ok
}

func (w *Watcher) reload(ctx context.Context, root string) {
	p, err := config.LoadPresets(root)
	if err != nil {
		w.metrics.Reload(false)
		slog.Error("Failed to reload presets, keeping the previous ones", "root", root, "error", err)
		return
	}
	if err := w.sink.PostReload(ctx, p); err != nil {
		slog.Warn("Reload not delivered", "error", err)
		return
	}
	w.metrics.Reload(true)
	slog.Info("Presets reloaded",
		"configs", p.Configs.Len(),
		"themes", p.Themes.Len(),
		"styles", p.Styles.Len())
}
