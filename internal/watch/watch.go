// Package watch runs a callback when files in a directory settle after
// a burst of changes.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before the handler runs.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives the sorted, de-duplicated paths changed since the
// last call.
type Handler func(ctx context.Context, changed []string) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the
// default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter selects which file names trigger the handler. The default
// accepts *.json.
func WithFilter(f func(name string) bool) Option {
	return func(w *Watcher) {
		w.filter = f
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// Watcher debounces create, write, remove and rename events in one
// directory. Chmod events are ignored.
type Watcher struct {
	dir      string
	handle   Handler
	debounce time.Duration
	filter   func(name string) bool
	log      *zap.Logger

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	pending map[string]struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	runs    int
}

// New creates a watcher for dir.
func New(dir string, handle Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		handle:   handle,
		debounce: DefaultDebounce,
		filter:   func(name string) bool { return strings.HasSuffix(name, ".json") },
		log:      zap.NewNop(),
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the directory is registered;
// events are handled in a background goroutine until Stop or ctx is
// done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fs != nil {
		return eris.New("watch: already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "watch: create watcher")
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close() //nolint:errcheck
		return eris.Wrapf(err, "watch: add %s", w.dir)
	}

	w.fs = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run(ctx, fsw)

	w.log.Info("watching for changes", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))
	return nil
}

// Stop ends the event loop and releases the fsnotify watcher. Pending
// changes are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw := w.fs
	if fsw == nil {
		w.mu.Unlock()
		return nil
	}
	w.fs = nil
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := fsw.Close(); err != nil {
		return eris.Wrap(err, "watch: close watcher")
	}
	return nil
}

// Run starts the watcher and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// Runs returns how many times the handler has been called.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	events, errs := fsw.Events, fsw.Errors
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			w.mu.Lock()
			w.pending[ev.Name] = struct{}{}
			w.mu.Unlock()
			timer.Reset(w.debounce)

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.log.Warn("watch: fsnotify error", zap.Error(err))

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return w.filter(filepath.Base(ev.Name))
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	if len(changed) > 0 {
		w.runs++
	}
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	if err := w.handle(ctx, changed); err != nil {
		w.log.Error("watch: handler failed", zap.Int("changed", len(changed)), zap.Error(err))
	}
}
