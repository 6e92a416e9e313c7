package watcher

import "errors"

// Common errors returned by the watcher.
var (
	// ErrWatcherClosed is returned when attempting to use a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyStarted is returned when Start is called on a running watcher.
	ErrAlreadyStarted = errors.New("watcher already started")

	// ErrInvalidPath is returned when a watch path is missing or not a directory.
	ErrInvalidPath = errors.New("invalid watch path")

	// ErrNoPaths is returned when Start is called without paths.
	ErrNoPaths = errors.New("no watch paths given")
)
