// Package metrics provides Prometheus instrumentation for the voice call
// layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice layer.
type Metrics struct {
	// Call lifecycle metrics
	CallsStarted      prometheus.Counter
	CallsStopped      prometheus.Counter
	CallStartFailures prometheus.Counter
	CallDuration      prometheus.Histogram
	ActiveSessions    prometheus.Gauge

	// Routing metrics
	DeviceSwitches prometheus.Counter

	// Engine interaction metrics
	EngineErrors prometheus.Counter
}

// New creates and registers all voice metrics with the given registerer.
// Passing nil registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CallsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_calls_started_total",
			Help: "Total number of voice sessions driven active",
		}),
		CallsStopped: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_calls_stopped_total",
			Help: "Total number of voice sessions torn down",
		}),
		CallStartFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_call_start_failures_total",
			Help: "Total number of failed voice session starts",
		}),
		CallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_call_duration_seconds",
			Help:    "Duration of voice sessions",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68 minutes
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voice_active_sessions",
			Help: "Current number of voice sessions with an open stream",
		}),
		DeviceSwitches: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_device_switches_total",
			Help: "Total number of live device switches",
		}),
		EngineErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_engine_errors_total",
			Help: "Total number of tolerated platform engine errors",
		}),
	}
}

// RecordCallStarted increments the calls started counter.
func (m *Metrics) RecordCallStarted() {
	m.CallsStarted.Inc()
}

// RecordCallStopped increments the calls stopped counter and records the
// session duration.
func (m *Metrics) RecordCallStopped(durationSeconds float64) {
	m.CallsStopped.Inc()
	m.CallDuration.Observe(durationSeconds)
}

// RecordCallStartFailure increments the start failure counter.
func (m *Metrics) RecordCallStartFailure() {
	m.CallStartFailures.Inc()
}

// RecordDeviceSwitch increments the device switch counter.
func (m *Metrics) RecordDeviceSwitch() {
	m.DeviceSwitches.Inc()
}

// RecordEngineError increments the engine error counter.
func (m *Metrics) RecordEngineError() {
	m.EngineErrors.Inc()
}

// SetActiveSessions sets the active session gauge.
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}
