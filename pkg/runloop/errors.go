package runloop

import "errors"

var (
	// ErrNoCommand is returned by New when the command line is empty.
	ErrNoCommand = errors.New("no command to run")

	// ErrNoSource is returned by New when no event source is given.
	ErrNoSource = errors.New("no event source")

	// ErrNoSupervisor is returned by New when no supervisor is given.
	ErrNoSupervisor = errors.New("no process supervisor")
)
