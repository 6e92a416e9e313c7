// Package debounce decides which change notifications become restarts.
//
// A Filter accepts a trigger when no trigger has been accepted before, or when
// at least Window has elapsed since the last accepted one. The window is
// measured from the previous accepted trigger, not from the previous
// candidate, so a steady stream of changes restarts the command at most once
// per window. Rejected candidates leave no trace.
//
// A Filter is not safe for concurrent use; it belongs to a single run loop.
package debounce

import "time"

// Window is the quiet period between accepted triggers.
const Window = 8000 * time.Millisecond

// Filter holds the time of the last accepted trigger.
type Filter struct {
	window time.Duration
	last   time.Time
	seen   bool
}

// New returns a Filter using the standard Window.
func New() *Filter {
	return NewWithWindow(Window)
}

// NewWithWindow returns a Filter with a custom window.
func NewWithWindow(window time.Duration) *Filter {
	return &Filter{window: window}
}

// Accept reports whether a trigger at now is let through and, if so, records
// now as the last accepted trigger.
func (f *Filter) Accept(now time.Time) bool {
	if f.seen && now.Sub(f.last) < f.window {
		return false
	}

	f.last = now
	f.seen = true
	return true
}

// Last returns the last accepted trigger time, if any.
func (f *Filter) Last() (time.Time, bool) {
	return f.last, f.seen
}

// Window returns the configured quiet period.
func (f *Filter) Window() time.Duration {
	return f.window
}
