// Package watch re-runs a callback when any of a fixed set of files
// changes. Bursts of events are coalesced into one call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/cluso-settingstext/pkg/logging"
)

// DefaultDebounce is used when no debounce window is given
const DefaultDebounce = 250 * time.Millisecond

// Handler receives the absolute paths that changed in one burst, sorted
type Handler func(changed []string)

// Watcher watches a set of files. Parent directories are watched rather
// than the files themselves so that editors which replace a file by
// rename are still seen.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	handler  Handler
	logger   logging.Logger
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the coalescing window
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) { w.logger = logging.OrDefault(l) }
}

// New creates a watcher over paths. Empty paths are ignored.
func New(paths []string, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is required")
	}

	w := &Watcher{
		files:    make(map[string]struct{}),
		debounce: DefaultDebounce,
		handler:  handler,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}

	seenDir := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seenDir[dir]; !ok {
			seenDir[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	if len(w.files) == 0 {
		return nil, errors.New("watch: no files to watch")
	}
	return w, nil
}

// Files returns the watched absolute paths, sorted
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Run watches until ctx is cancelled. ready, when non-nil, is closed once
// the directories are registered.
func (w *Watcher) Run(ctx context.Context, ready chan<- struct{}) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch: %s: %w", dir, err)
		}
	}
	if ready != nil {
		close(ready)
	}
	w.logger.Debug("watching", logging.Count(len(w.files)))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending[filepath.Clean(event.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.logger.Debug("files changed", logging.Count(len(changed)))
			w.handler(changed)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[filepath.Clean(event.Name)]
	return ok
}
