// Package metrics provides Prometheus instrumentation for the OKMQTT bridge.
//
// Metrics implements llap.Observer, so the engine reports every counted
// event straight into Prometheus collectors. Collectors live in a private
// registry rather than the global default, which keeps tests independent
// and the /metrics output limited to the bridge plus Go runtime metrics.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/okmqtt/internal/bridges/llap"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "okmqtt"

// Metrics holds all Prometheus metrics for the bridge.
//
// Thread Safety:
//   - All methods are safe for concurrent use. The engine updates collectors
//     from its loop while the HTTP handler reads them.
type Metrics struct {
	registry *prometheus.Registry

	// Radio side
	Frames       *prometheus.CounterVec
	Commands     *prometheus.CounterVec
	SerialErrors prometheus.Counter

	// Broker side
	PublishErrors   prometheus.Counter
	ConnectAttempts *prometheus.CounterVec
	Announcements   prometheus.Counter
	ConnectionState prometheus.Gauge

	state atomic.Int32
}

// New creates a Metrics instance with its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "LLAP frames from the radio by outcome",
			},
			[]string{"result"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "MQTT commands for the radio by outcome",
			},
			[]string{"result"},
		),
		SerialErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "serial_errors_total",
				Help:      "Serial port read and write failures",
			},
		),
		PublishErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_errors_total",
				Help:      "Failed publishes while connected",
			},
		),
		ConnectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_attempts_total",
				Help:      "Broker connection attempts by outcome",
			},
			[]string{"result"},
		),
		Announcements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_announcements_total",
				Help:      "Running status messages published",
			},
		),
		ConnectionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_state",
				Help:      "Broker session state (0=disconnected, 1=connecting, 2=connected, 3=faulted)",
			},
		),
	}

	m.registry.MustRegister(
		m.Frames,
		m.Commands,
		m.SerialErrors,
		m.PublishErrors,
		m.ConnectAttempts,
		m.Announcements,
		m.ConnectionState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterInboxDropped exports the transport's count of messages dropped
// because the inbox was full.
func (m *Metrics) RegisterInboxDropped(namespace string, dropped func() uint64) error {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return m.registry.Register(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_dropped_total",
			Help:      "MQTT messages dropped because the inbox was full",
		},
		func() float64 { return float64(dropped()) },
	))
}

// State returns the last connection state reported by the engine.
func (m *Metrics) State() llap.ConnectionState {
	return llap.ConnectionState(m.state.Load())
}

// llap.Observer implementation.

func (m *Metrics) FrameReceived()  { m.Frames.WithLabelValues("received").Inc() }
func (m *Metrics) FrameMalformed() { m.Frames.WithLabelValues("malformed").Inc() }
func (m *Metrics) FramePublished() { m.Frames.WithLabelValues("published").Inc() }
func (m *Metrics) FrameDropped()   { m.Frames.WithLabelValues("dropped").Inc() }
func (m *Metrics) PublishFailed()  { m.PublishErrors.Inc() }
func (m *Metrics) CommandWritten() { m.Commands.WithLabelValues("written").Inc() }
func (m *Metrics) CommandFailed()  { m.Commands.WithLabelValues("failed").Inc() }
func (m *Metrics) SerialFailed()   { m.SerialErrors.Inc() }
func (m *Metrics) Announced()      { m.Announcements.Inc() }

func (m *Metrics) ConnectAttempted(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.ConnectAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) StateChanged(state llap.ConnectionState) {
	m.state.Store(int32(state))
	m.ConnectionState.Set(float64(state))
}

var _ llap.Observer = (*Metrics)(nil)
