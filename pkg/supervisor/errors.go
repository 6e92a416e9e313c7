package supervisor

import (
	"errors"
	"fmt"
)

// ErrInvalidPID is returned when asked to signal a group with a non-positive
// leader PID. Signalling -0 would hit the supervisor's own group.
var ErrInvalidPID = errors.New("invalid process group leader pid")

// SpawnError reports that a command could not be started.
type SpawnError struct {
	Command string // Command line passed to the shell
	Err     error  // Underlying OS error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
