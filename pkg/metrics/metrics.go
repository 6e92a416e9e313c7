// Package metrics exposes run loop counters in the Prometheus format.
//
// Metrics are opt-in. When disabled the run loop records into Noop(), which
// does nothing.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "runonchange"

// Recorder receives run loop observations.
type Recorder interface {
	// EventReceived counts one change notification of the given kind.
	EventReceived(kind string)

	// TriggerAccepted counts a change that passed the debounce filter.
	TriggerAccepted()

	// TriggerDebounced counts a change swallowed by the debounce filter.
	TriggerDebounced()

	// ChildStarted marks a successful spawn.
	ChildStarted()

	// ChildRestarted marks a running child that was terminated for a new run.
	ChildRestarted()

	// SpawnFailed counts a spawn error.
	SpawnFailed()

	// WatcherError counts a non-fatal watcher error.
	WatcherError()
}

// Metrics is a Recorder backed by its own Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	triggers      prometheus.Counter
	debounced     prometheus.Counter
	spawns        prometheus.Counter
	restarts      prometheus.Counter
	spawnFailures prometheus.Counter
	watcherErrors prometheus.Counter
	childRunning  prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Filesystem change notifications received, by kind",
			},
			[]string{"kind"},
		),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Changes accepted by the debounce filter",
		}),
		debounced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounced_total",
			Help:      "Changes dropped by the debounce filter",
		}),
		spawns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawns_total",
			Help:      "Commands started",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Running commands terminated to start a new run",
		}),
		spawnFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawn_failures_total",
			Help:      "Commands that could not be started",
		}),
		watcherErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watcher_errors_total",
			Help:      "Non-fatal errors reported by the filesystem watcher",
		}),
		childRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "child_running",
			Help:      "1 while a command is under supervision",
		}),
	}

	m.registry.MustRegister(
		m.events,
		m.triggers,
		m.debounced,
		m.spawns,
		m.restarts,
		m.spawnFailures,
		m.watcherErrors,
		m.childRunning,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// EventReceived implements Recorder.
func (m *Metrics) EventReceived(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.events.WithLabelValues(strings.ToLower(kind)).Inc()
}

// TriggerAccepted implements Recorder.
func (m *Metrics) TriggerAccepted() { m.triggers.Inc() }

// TriggerDebounced implements Recorder.
func (m *Metrics) TriggerDebounced() { m.debounced.Inc() }

// ChildStarted implements Recorder.
func (m *Metrics) ChildStarted() {
	m.spawns.Inc()
	m.childRunning.Set(1)
}

// ChildRestarted implements Recorder.
func (m *Metrics) ChildRestarted() {
	m.restarts.Inc()
	m.childRunning.Set(0)
}

// SpawnFailed implements Recorder.
func (m *Metrics) SpawnFailed() { m.spawnFailures.Inc() }

// WatcherError implements Recorder.
func (m *Metrics) WatcherError() { m.watcherErrors.Inc() }

type noop struct{}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return noop{}
}

func (noop) EventReceived(string) {}
func (noop) TriggerAccepted()     {}
func (noop) TriggerDebounced()    {}
func (noop) ChildStarted()        {}
func (noop) ChildRestarted()      {}
func (noop) SpawnFailed()         {}
func (noop) WatcherError()        {}
