// Package watch re-runs a function when ontology files change on disk.
// Bursts of file events are collapsed into one call after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// DefaultExtensions are the ontology file extensions watched by default.
var DefaultExtensions = []string{".rdf", ".owl", ".xml", ".nt", ".jsonld", ".json"}

// Config configures a Watcher.
type Config struct {
	// Paths are the directories or files to watch. Directories are watched
	// recursively; hidden subdirectories are skipped.
	Paths []string

	// Extensions limits the files that trigger a run.
	Extensions []string

	// Debounce is how long to wait after the last change before running.
	Debounce time.Duration

	Logger *slog.Logger
}

// RunFunc is called with the sorted paths changed since the previous call.
type RunFunc func(ctx context.Context, changed []string) error

// Watcher runs a RunFunc on debounced file changes.
type Watcher struct {
	config     Config
	fsw        *fsnotify.Watcher
	logger     *slog.Logger
	extensions map[string]bool
	files      map[string]bool
	runs       atomic.Int64
}

// New creates a Watcher and registers its paths.
func New(config Config) (*Watcher, error) {
	if len(config.Paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if len(config.Extensions) == 0 {
		config.Extensions = DefaultExtensions
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	extensions := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		config:     config,
		fsw:        fsw,
		logger:     logger,
		extensions: extensions,
		files:      make(map[string]bool),
	}

	for _, path := range config.Paths {
		if err := w.add(path); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// add watches a directory tree, or the parent directory of a single file.
func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	if !info.IsDir() {
		w.files[filepath.Clean(path)] = true
		return w.fsw.Add(filepath.Dir(path))
	}

	return filepath.Walk(path, func(dir string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if dir != path && strings.HasPrefix(filepath.Base(dir), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.logger.Debug("Watching directory", "path", dir)
		return nil
	})
}

// Runs returns how many times the RunFunc has been called.
func (w *Watcher) Runs() int64 {
	return w.runs.Load()
}

// Run blocks until ctx is done, calling fn once per burst of changes. Calls
// never overlap. An error from fn is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn RunFunc) error {
	defer w.fsw.Close()

	w.logger.Info("Watching for ontology changes",
		"paths", w.config.Paths,
		"debounce", w.config.Debounce)

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			pending[filepath.Clean(event.Name)] = true
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				timer.Reset(w.config.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			w.runs.Add(1)
			w.logger.Info("Ontology files changed", "files", len(changed))
			if err := fn(ctx, changed); err != nil {
				w.logger.Error("Regeneration failed", "error", err)
			}
		}
	}
}

// relevant reports whether an event should trigger a run. New directories
// are added to the watch list instead.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := w.add(event.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return false
		}
	}

	if len(w.files) > 0 && !w.files[filepath.Clean(event.Name)] && !w.underDirectory(event.Name) {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(event.Name))]
}

// underDirectory reports whether path lies in one of the watched directories.
func (w *Watcher) underDirectory(path string) bool {
	for _, root := range w.config.Paths {
		if w.files[filepath.Clean(root)] {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}
