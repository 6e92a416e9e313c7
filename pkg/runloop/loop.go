// Package runloop ties change notifications, the debounce filter and the
// process supervisor together.
//
// A Loop consumes one event at a time. Each change that passes the debounce
// filter stops the previous run of the command (if any) and starts a new one.
// Nothing runs until the first accepted change.
package runloop

import (
	"context"
	"time"

	"github.com/0xmhha/runonchange/pkg/debounce"
	"github.com/0xmhha/runonchange/pkg/logger"
	"github.com/0xmhha/runonchange/pkg/metrics"
	"github.com/0xmhha/runonchange/pkg/supervisor"
	"github.com/0xmhha/runonchange/pkg/watcher"
)

// EventSource delivers change notifications. watcher.Watcher satisfies it.
type EventSource interface {
	Events() <-chan watcher.Event
	Errors() <-chan error
}

// Supervisor starts and stops the command. *supervisor.Supervisor
// satisfies it.
type Supervisor interface {
	Spawn(commandLine string) (*supervisor.Child, error)
	Terminate(child *supervisor.Child)
}

// Loop is the restart state machine. It is not safe for concurrent use;
// Run must be called from a single goroutine.
type Loop struct {
	command    string
	source     EventSource
	supervisor Supervisor
	logger     logger.Logger
	recorder   metrics.Recorder
	filter     *debounce.Filter
	now        func() time.Time

	current *supervisor.Child
}

// Option configures a Loop.
type Option func(*Loop)

// WithRecorder sets the metrics recorder. The default discards.
func WithRecorder(r metrics.Recorder) Option {
	return func(l *Loop) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithFilter replaces the default debounce filter.
func WithFilter(f *debounce.Filter) Option {
	return func(l *Loop) {
		if f != nil {
			l.filter = f
		}
	}
}

// New creates a Loop that runs command on changes reported by src.
func New(command string, src EventSource, sup Supervisor, log logger.Logger, opts ...Option) (*Loop, error) {
	if command == "" {
		return nil, ErrNoCommand
	}
	if src == nil {
		return nil, ErrNoSource
	}
	if sup == nil {
		return nil, ErrNoSupervisor
	}
	if log == nil {
		log = logger.Noop()
	}

	l := &Loop{
		command:    command,
		source:     src,
		supervisor: sup,
		logger:     log,
		recorder:   metrics.Noop(),
		filter:     debounce.New(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Run processes events until the event channel closes (nil), ctx is done
// (ctx.Err()) or the command cannot be spawned (the spawn error).
//
// A running command is left alone when Run returns; call Stop to end it.
func (l *Loop) Run(ctx context.Context) error {
	events := l.source.Events()
	errs := l.source.Errors()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				l.logger.Debug("event source closed")
				return nil
			}

			if err := l.handleEvent(event); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				// Keep draining events; a nil channel never fires.
				errs = nil
				continue
			}

			l.recorder.WatcherError()
			l.logger.Error("Watcher error: " + err.Error())
		}
	}
}

// handleEvent applies one change notification.
func (l *Loop) handleEvent(event watcher.Event) error {
	l.recorder.EventReceived(event.Kind.String())

	if !event.Kind.IsChange() {
		l.logger.Debug("ignoring event", "kind", event.Kind.String(), "path", event.Path)
		return nil
	}

	if !l.filter.Accept(l.now()) {
		l.recorder.TriggerDebounced()
		l.logger.Debug("debounced", "path", event.Path)
		return nil
	}

	l.recorder.TriggerAccepted()
	l.logger.Info("File change detected")
	l.logger.Debug("trigger", "kind", event.Kind.String(), "path", event.Path)

	if l.current != nil {
		l.stopCurrent()
		l.recorder.ChildRestarted()
	}

	l.logger.Info("Executing: " + l.command)

	child, err := l.supervisor.Spawn(l.command)
	if err != nil {
		l.recorder.SpawnFailed()
		return err
	}

	l.current = child
	l.recorder.ChildStarted()
	return nil
}

// stopCurrent terminates the running command, if any. Terminate blocks
// through reap and grace period.
func (l *Loop) stopCurrent() {
	if l.current == nil {
		return
	}

	l.supervisor.Terminate(l.current)
	l.current = nil
}

// Current returns the running command, or nil.
func (l *Loop) Current() *supervisor.Child {
	return l.current
}

// Stop terminates the running command, if any. Only call it after Run has
// returned.
func (l *Loop) Stop() {
	l.stopCurrent()
}
