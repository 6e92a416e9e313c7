// Package supervisor starts a shell command as an independently killable
// process group and stops it again.
//
// Every command runs through the platform shell with the parent's standard
// output and standard error, as the leader of a new process group. Stopping a
// child sends SIGTERM to the whole group, reaps the leader and then waits a
// fixed grace period so the OS can release sockets the old run held before
// the next run binds them.
//
// All platform-specific process-group code lives in group_unix.go and
// group_windows.go.
package supervisor

import (
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/0xmhha/runonchange/pkg/logger"
)

// GracePeriod is the pause after a terminated child has been reaped.
const GracePeriod = 700 * time.Millisecond

// Child is a running command. Its process group id equals its PID.
type Child struct {
	cmd     *exec.Cmd
	pid     int
	command string
	started time.Time
}

// PID returns the process id of the group leader.
func (c *Child) PID() int {
	return c.pid
}

// Command returns the command line the child was started with.
func (c *Child) Command() string {
	return c.command
}

// StartedAt returns when the child was spawned.
func (c *Child) StartedAt() time.Time {
	return c.started
}

// Supervisor spawns and terminates children.
type Supervisor struct {
	logger logger.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	grace  time.Duration
	sleep  func(time.Duration)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithOutput replaces the inherited standard output and error.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithInput replaces the inherited standard input.
func WithInput(stdin io.Reader) Option {
	return func(s *Supervisor) {
		s.stdin = stdin
	}
}

// WithGracePeriod overrides GracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		s.grace = d
	}
}

// New creates a Supervisor whose children inherit os.Stdin, os.Stdout and
// os.Stderr.
func New(log logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		logger: log,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		grace:  GracePeriod,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts commandLine through the shell as the leader of a new process
// group. Successive children share the same standard input.
func (s *Supervisor) Spawn(commandLine string) (*Child, error) {
	cmd := shellCommand(commandLine)
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	setNewProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Command: commandLine, Err: err}
	}

	child := &Child{
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		command: commandLine,
		started: time.Now(),
	}

	s.logger.Debug("child spawned", "pid", child.pid)
	return child, nil
}

// Terminate stops child and every process in its group.
//
// The termination signal is best effort: failing to deliver it (the group
// may already be gone) is only logged at debug level. Terminate always waits
// for the leader to be reaped and then sleeps for the grace period.
func (s *Supervisor) Terminate(child *Child) {
	if child == nil || child.cmd == nil {
		return
	}

	if err := signalGroup(child.pid); err != nil {
		s.logger.Debug("failed to signal process group",
			"pgid", child.pid,
			"error", err)
	}

	status := "exit status 0"
	if err := child.cmd.Wait(); err != nil {
		status = err.Error()
	}

	s.logger.Debug("child reaped",
		"pid", child.pid,
		"status", status,
		"ran_for", time.Since(child.started).Round(time.Millisecond).String())

	s.sleep(s.grace)
}
