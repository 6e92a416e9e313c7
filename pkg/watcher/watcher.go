package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/0xmhha/runonchange/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

const (
	eventBufferSize = 100
	errorBufferSize = 10
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger

	// add attaches a single directory; fsw.Add outside tests.
	add func(path string) error

	events chan Event
	errors chan error

	mu       sync.Mutex
	running  bool
	launched bool
	closed   bool
	stopChan chan struct{}
	done     sync.WaitGroup
}

// New creates a new file system watcher.
//
// Returns an error if the underlying notification facility cannot be
// initialized.
func New(log logger.Logger) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &watcher{
		fsw:      fsw,
		logger:   log,
		add:      fsw.Add,
		events:   make(chan Event, eventBufferSize),
		errors:   make(chan error, errorBufferSize),
		stopChan: make(chan struct{}),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	w.mu.Unlock()

	if len(paths) == 0 {
		w.abortStart()
		return ErrNoPaths
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			w.abortStart()
			return fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}

		if err := w.addTree(path); err != nil {
			w.abortStart()
			return err
		}

		w.logger.Info(fmt.Sprintf("Watching %q", path))
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.launched = true
	w.done.Add(1)
	w.mu.Unlock()

	go w.processEvents(ctx)

	return nil
}

// abortStart resets the running flag after a failed Start.
func (w *watcher) abortStart() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	launched := w.launched
	close(w.stopChan)
	w.mu.Unlock()

	err := w.fsw.Close()

	// processEvents owns the output channels once it has been started.
	if launched {
		w.done.Wait()
	} else {
		close(w.events)
		close(w.errors)
	}

	if err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents forwards fsnotify notifications until stopped.
func (w *watcher) processEvents(ctx context.Context) {
	defer w.done.Done()
	defer close(w.errors)
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			return

		case <-w.stopChan:
			w.logger.Debug("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				w.logger.Debug("fsnotify events channel closed")
				return
			}

			if !w.handleEvent(ctx, event) {
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.logger.Debug("fsnotify errors channel closed")
				return
			}

			if !w.handleError(ctx, err) {
				return
			}
		}
	}
}

// handleEvent converts and delivers one fsnotify event. It blocks while the
// consumer is busy and returns false if the watcher stopped meanwhile.
func (w *watcher) handleEvent(ctx context.Context, event fsnotify.Event) bool {
	kind := KindOf(event.Op)

	if kind == KindCreate {
		w.watchNewDirectory(event.Name)
	}

	w.logger.Debug("fsnotify event",
		"op", event.Op.String(),
		"kind", kind.String(),
		"path", event.Name)

	select {
	case w.events <- Event{Path: event.Name, Kind: kind, Timestamp: time.Now()}:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopChan:
		return false
	}
}

// handleError delivers a non-fatal fsnotify error.
func (w *watcher) handleError(ctx context.Context, err error) bool {
	select {
	case w.errors <- err:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopChan:
		return false
	}
}

// watchNewDirectory extends the watch to a directory created under a watched
// tree, including anything already created inside it. Failures are logged:
// the directory may already be gone again.
func (w *watcher) watchNewDirectory(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}

	err = filepath.WalkDir(path, func(subPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to watch new directory",
				"path", subPath,
				"error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}

		if addErr := w.add(subPath); addErr != nil {
			w.logger.Warn("failed to watch new directory",
				"path", subPath,
				"error", addErr)
			return nil
		}

		w.logger.Debug("added watch subdirectory", "path", subPath)
		return nil
	})
	if err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}

// addTree attaches root and every directory below it. Any directory that
// cannot be read or attached fails the whole tree. Symlinked directories
// below root are not followed; a symlinked root is resolved first.
func (w *watcher) addTree(root string) error {
	if info, err := os.Lstat(root); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
		root = resolved
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		if !entry.IsDir() {
			return nil
		}

		if err := w.add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}

		w.logger.Debug("added watch path", "path", path)
		return nil
	})
}
