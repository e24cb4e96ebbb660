package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// ErrSubscribe is returned by Observe when file notifications cannot be set up.
var ErrSubscribe = errors.New("watcher: cannot subscribe to file notifications")

// DefaultPollInterval bounds how long the event loop goes without checking
// whether it was stopped.
const DefaultPollInterval = 50 * time.Millisecond

// Option configures a Watch.
type Option func(*Watch)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watch) {
		if d > 0 {
			w.poll = d
		}
	}
}

// Watch records whether a single file was written while it was observed.
// Both flags only ever go from false to true.
type Watch struct {
	path string
	poll time.Duration
	fsw  *fsnotify.Watcher

	written  atomic.Bool
	closed   atomic.Bool
	overflow atomic.Bool

	done     chan struct{}
	stopOnce sync.Once
}

// Observe starts watching path for writes. It watches the parent directory
// (not the file) so editors that save by writing a new file and renaming it
// over the original are still seen; events for other files in that directory
// are ignored. The caller must call Stop.
func Observe(path string, opts ...Option) (*Watch, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrSubscribe, path, err)
	}

	w := &Watch{
		path: filepath.Clean(abs),
		poll: DefaultPollInterval,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: create watcher: %w", ErrSubscribe, err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("%w: watch dir: %w", ErrSubscribe, err)
	}
	w.fsw = fsw

	logger.WithComponent("watcher").Debugf("observing %s", w.path)
	go w.loop()
	return w, nil
}

func (w *Watch) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	// After Stop, keep reading for one more interval so events the kernel
	// queued before the editor exited still reach us.
	var drainUntil time.Time
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		case <-ticker.C:
		}

		if w.closed.Load() {
			if drainUntil.IsZero() {
				drainUntil = time.Now().Add(w.poll)
			} else if time.Now().After(drainUntil) {
				return
			}
		}
	}
}

func (w *Watch) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	logger.WithComponent("watcher").Tracef("event %s", event)
	// Create covers editors that replace the file instead of writing in place.
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		w.written.Store(true)
	}
}

func (w *Watch) handleError(err error) {
	// Events were dropped; a write may have been among them.
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		w.overflow.Store(true)
	}
	logger.WithComponent("watcher").Warnf("watcher error: %v", err)
}

// Written reports whether a write has been observed so far.
func (w *Watch) Written() bool {
	return w.written.Load()
}

// Err returns an error wrapping ErrSubscribe when notifications were lost,
// in which case the write signal cannot be trusted.
func (w *Watch) Err() error {
	if w.overflow.Load() {
		return fmt.Errorf("%w: %w", ErrSubscribe, fsnotify.ErrEventOverflow)
	}
	return nil
}

// Stop ends observation, waits for the event loop to exit and returns the
// final write signal. Calling Stop more than once is safe.
func (w *Watch) Stop() bool {
	w.stopOnce.Do(func() {
		w.closed.Store(true)
		<-w.done
		if err := w.fsw.Close(); err != nil {
			logger.WithComponent("watcher").Warnf("close watcher: %v", err)
		}
		logger.WithComponent("watcher").Debugf("stopped observing %s, written=%v", w.path, w.written.Load())
	})
	return w.written.Load()
}
