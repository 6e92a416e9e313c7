// Package watcher provides recursive directory monitoring.
//
// It uses fsnotify to watch directory trees and reports every change as an
// Event tagged with a Kind. Events are not debounced or filtered here: every
// fsnotify notification becomes exactly one Event, delivered in arrival order
// over a buffered channel. Directories created under a watched tree are added
// to the watch as they appear.
//
// Example usage:
//
//	w, err := watcher.New(logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"./src", "./tests"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("%s: %s\n", event.Kind, event.Path)
//	}
package watcher

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Kind classifies a filesystem change.
type Kind uint8

// Change kinds.
const (
	KindOther  Kind = iota // Permission changes and anything unrecognized
	KindCreate             // Entry created
	KindModify             // Entry written or renamed
	KindRemove             // Entry deleted
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "CREATE"
	case KindModify:
		return "MODIFY"
	case KindRemove:
		return "REMOVE"
	default:
		return "OTHER"
	}
}

// IsChange reports whether k is a create, modify or remove.
func (k Kind) IsChange() bool {
	return k == KindCreate || k == KindModify || k == KindRemove
}

// KindOf maps an fsnotify operation to a Kind.
//
// When several bits are set the first match of Create, Write, Remove, Rename
// wins. A rename is reported as a modification of the entry's name.
func KindOf(op fsnotify.Op) Kind {
	switch {
	case op.Has(fsnotify.Create):
		return KindCreate
	case op.Has(fsnotify.Write):
		return KindModify
	case op.Has(fsnotify.Remove):
		return KindRemove
	case op.Has(fsnotify.Rename):
		return KindModify
	default:
		return KindOther
	}
}

// Event represents a file system event.
type Event struct {
	// Path is the path of the entry that changed.
	Path string

	// Kind is the classified operation.
	Kind Kind

	// Timestamp is when the event was received from fsnotify.
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start attaches recursive watches to every path and begins delivering
	// events. It returns once all watches are attached; the first path that
	// cannot be watched aborts with an error.
	//
	// Delivery stops when ctx is cancelled or Close is called.
	Start(ctx context.Context, paths []string) error

	// Events returns the channel of file system events.
	// The channel is closed when the watcher stops.
	Events() <-chan Event

	// Errors returns the channel of non-fatal errors reported by fsnotify.
	// The channel is closed when the watcher stops.
	Errors() <-chan error

	// Close stops delivery and releases the underlying watches.
	Close() error
}
