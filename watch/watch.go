// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package watch re-runs a handler when source files change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before the handler runs.
const DefaultDebounce = 200 * time.Millisecond

// Handler is called with the path of a changed file.
type Handler func(path string)

type Config struct {
	Debounce   time.Duration
	Extensions []string // e.g. ".tr"; empty matches every file
	Logger     *slog.Logger
}

// Watcher watches files and directories and calls its handler once per
// burst of writes to a matching file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	exts     map[string]bool
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New creates a watcher that calls handler for matching files.
func New(cfg Config, handler Handler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	w := newWatcher(cfg, handler)
	w.watcher = fw
	return w, nil
}

func newWatcher(cfg Config, handler Handler) *Watcher {
	w := &Watcher{
		handler:  handler,
		debounce: cfg.Debounce,
		exts:     make(map[string]bool),
		logger:   cfg.Logger,
		timers:   make(map[string]*time.Timer),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	for _, ext := range cfg.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.exts[strings.ToLower(ext)] = true
	}
	return w
}

// Add watches path. A directory is watched together with its
// subdirectories; hidden subdirectories are skipped.
func (w *Watcher) Add(path string) error {
	sb, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "watch")
	}
	if !sb.IsDir() {
		return errors.Wrapf(w.watcher.Add(path), "watch %s", path)
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return errors.Wrapf(err, "watch %s", p)
		}
		w.logger.Debug("watch", "dir", p)
		return nil
	})
}

// Matches reports whether the handler runs for path.
func (w *Watcher) Matches(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// Run processes file events until ctx is done, then stops the watcher
// and waits for running handlers to return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.stopTimers()
		w.wg.Wait()
	}()
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		// pick up new subdirectories
		if sb, err := os.Stat(event.Name); err == nil && sb.IsDir() {
			if err := w.Add(event.Name); err != nil {
				w.logger.Warn("watch", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.Matches(event.Name) {
		return
	}
	w.logger.Debug("watch", "file", event.Name, "op", event.Op.String())
	w.schedule(event.Name)
}

// schedule runs the handler for path once no event has arrived for the debounce period.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		w.handler(path)
	})
	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
}
