package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/runonchange/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T) Watcher {
	t.Helper()

	w, err := New(logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Logf("Close() error = %v", err)
		}
	})

	return w
}

// waitForEvent returns the first event for path, skipping others.
func waitForEvent(t *testing.T, w Watcher, path string, timeout time.Duration) Event {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case event, ok := <-w.Events():
			if !ok {
				t.Fatalf("events channel closed while waiting for %s", path)
			}
			if event.Path == path {
				return event
			}
		case <-deadline:
			t.Fatalf("timeout waiting for event on %s", path)
		}
	}
}

func TestNew(t *testing.T) {
	w, err := New(logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if w == nil {
		t.Fatal("New() returned nil watcher")
	}

	if closeErr := w.Close(); closeErr != nil {
		t.Errorf("Close() error = %v", closeErr)
	}
}

func TestCloseWithoutStartClosesChannels(t *testing.T) {
	w, err := New(logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, ok := <-w.Events(); ok {
		t.Error("Events() channel still open after Close()")
	}
	if _, ok := <-w.Errors(); ok {
		t.Error("Errors() channel still open after Close()")
	}
}

func TestCloseIdempotent(t *testing.T) {
	w, err := New(logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestStart(t *testing.T) {
	w := newTestWatcher(t)

	if err := w.Start(context.Background(), []string{t.TempDir()}); err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestStartInvalidPath(t *testing.T) {
	w := newTestWatcher(t)
	nonExistent := filepath.Join(t.TempDir(), "nonexistent")

	err := w.Start(context.Background(), []string{nonExistent})
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Start() error = %v, want ErrInvalidPath", err)
	}
}

func TestStartFileIsNotDirectory(t *testing.T) {
	w := newTestWatcher(t)
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := w.Start(context.Background(), []string{file})
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Start() error = %v, want ErrInvalidPath", err)
	}
}

func TestStartNoPaths(t *testing.T) {
	w := newTestWatcher(t)

	if err := w.Start(context.Background(), nil); !errors.Is(err, ErrNoPaths) {
		t.Errorf("Start() error = %v, want ErrNoPaths", err)
	}
}

func TestStartAlreadyStarted(t *testing.T) {
	w := newTestWatcher(t)
	tmpDir := t.TempDir()

	if err := w.Start(context.Background(), []string{tmpDir}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := w.Start(context.Background(), []string{tmpDir}); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartAfterClose(t *testing.T) {
	w, err := New(logger.Noop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := w.Start(context.Background(), []string{t.TempDir()}); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Start() error = %v, want ErrWatcherClosed", err)
	}
}

func TestFileCreate(t *testing.T) {
	w := newTestWatcher(t)
	tmpDir := t.TempDir()

	if err := w.Start(context.Background(), []string{tmpDir}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	testFile := filepath.Join(tmpDir, "main.go")
	if err := os.WriteFile(testFile, []byte("package main"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	event := waitForEvent(t, w, testFile, 2*time.Second)
	if event.Kind != KindCreate && event.Kind != KindModify {
		t.Errorf("Event kind = %s, want CREATE or MODIFY", event.Kind)
	}
	if event.Timestamp.IsZero() {
		t.Error("Event timestamp is zero")
	}
}

func TestFileModify(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "main.go")
	if err := os.WriteFile(testFile, []byte("initial"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	w := newTestWatcher(t)
	if err := w.Start(context.Background(), []string{tmpDir}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f, err := os.OpenFile(testFile, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatalf("Failed to open test file: %v", err)
	}
	if _, err := f.WriteString(" more"); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	_ = f.Close()

	event := waitForEvent(t, w, testFile, 2*time.Second)
	if event.Kind != KindModify {
		t.Errorf("Event kind = %s, want MODIFY", event.Kind)
	}
}

func TestFileRemove(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "main.go")
	if err := os.WriteFile(testFile, []byte("initial"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	w := newTestWatcher(t)
	if err := w.Start(context.Background(), []string{tmpDir}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.Remove(testFile); err != nil {
		t.Fatalf("Failed to remove test file: %v", err)
	}

	event := waitForEvent(t, w, testFile, 2*time.Second)
	if event.Kind != KindRemove {
		t.Errorf("Event kind = %s, want REMOVE", event.Kind)
	}
}

func TestExistingSubdirectoryIsWatched(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "nested", "deeper")
	if err := os.MkdirAll(subDir, 0700); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	w := newTestWatcher(t)
	if err := w.Start(context.Background(), []string{tmpDir}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	testFile := filepath.Join(subDir, "file.txt")
	if err := os.WriteFile(testFile, []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	waitForEvent(t, w, testFile, 2*time.Second)
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	tmpDir := t.TempDir()

	w := newTestWatcher(t)
	if err := w.Start(context.Background(), []string{tmpDir}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	subDir := filepath.Join(tmpDir, "created-later")
	if err := os.Mkdir(subDir, 0700); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}
	waitForEvent(t, w, subDir, 2*time.Second)

	testFile := filepath.Join(subDir, "file.txt")
	if err := os.WriteFile(testFile, []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	waitForEvent(t, w, testFile, 2*time.Second)
}

func TestContextCancelClosesEvents(t *testing.T) {
	w := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx, []string{t.TempDir()}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Error("unexpected event after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Error("Events() channel not closed after context cancel")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want Kind
	}{
		{fsnotify.Create, KindCreate},
		{fsnotify.Write, KindModify},
		{fsnotify.Remove, KindRemove},
		{fsnotify.Rename, KindModify},
		{fsnotify.Chmod, KindOther},
		{0, KindOther},
		{fsnotify.Create | fsnotify.Chmod, KindCreate},
		{fsnotify.Write | fsnotify.Remove, KindModify},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := KindOf(tt.op); got != tt.want {
				t.Errorf("KindOf(%v) = %s, want %s", tt.op, got, tt.want)
			}
		})
	}
}

func TestKindIsChange(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindCreate, true},
		{KindModify, true},
		{KindRemove, true},
		{KindOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.IsChange(); got != tt.want {
				t.Errorf("%s.IsChange() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestStartFailsWhenSubdirectoryCannotBeWatched(t *testing.T) {
	root := t.TempDir()
	inner := filepath.Join(root, "locked", "inner")
	if err := os.MkdirAll(inner, 0700); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	w := newTestWatcher(t)
	impl := w.(*watcher)

	errNoSpace := errors.New("no space left on device")
	var added []string
	impl.add = func(path string) error {
		if path == inner {
			return errNoSpace
		}
		added = append(added, path)
		return impl.fsw.Add(path)
	}

	err := w.Start(context.Background(), []string{root})
	if !errors.Is(err, errNoSpace) {
		t.Fatalf("Start() error = %v, want %v", err, errNoSpace)
	}
	if !strings.Contains(err.Error(), inner) {
		t.Errorf("Start() error = %q, want it to name %s", err, inner)
	}

	want := []string{root, filepath.Join(root, "locked")}
	if !reflect.DeepEqual(added, want) {
		t.Errorf("added = %v, want %v", added, want)
	}

	// A failed Start leaves the watcher startable.
	impl.add = impl.fsw.Add
	if err := w.Start(context.Background(), []string{root}); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
}

func TestStartFailsOnUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	if err := os.MkdirAll(filepath.Join(locked, "inner"), 0700); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0700) })

	w := newTestWatcher(t)

	err := w.Start(context.Background(), []string{root})
	if err == nil {
		t.Fatal("Start() error = nil, want failure for unreadable subdirectory")
	}
	if !strings.Contains(err.Error(), locked) {
		t.Errorf("Start() error = %q, want it to name %s", err, locked)
	}
}

func TestStartSymlinkedRoot(t *testing.T) {
	target := filepath.Join(t.TempDir(), "target")
	if err := os.Mkdir(target, 0700); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}

	w := newTestWatcher(t)
	if err := w.Start(context.Background(), []string{link}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	file := filepath.Join(resolved, "x.txt")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	event := waitForEvent(t, w, file, 2*time.Second)
	if !event.Kind.IsChange() {
		t.Errorf("event kind = %v, want a change", event.Kind)
	}
}
