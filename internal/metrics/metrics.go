// Package metrics records provisioning counters and exports them as a
// Prometheus textfile for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Launch paths.
const (
	PathOnDemand = "on-demand"
	PathSpot     = "spot"
)

// Polling loops.
const (
	LoopSpot      = "spot"
	LoopReadiness = "readiness"
	LoopCommand   = "command"
)

// Recorder owns a registry and the provisioning metrics registered in it.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	launchesTotal     *prometheus.CounterVec
	bindsTotal        prometheus.Counter
	terminationsTotal prometheus.Counter
	commandsTotal     *prometheus.CounterVec
	pollAttemptsTotal *prometheus.CounterVec
	readinessWait     prometheus.Histogram
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		launchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gwerks",
				Subsystem: "compute",
				Name:      "launches_total",
				Help:      "Total number of machine launches by path",
			},
			[]string{"path"},
		),
		bindsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gwerks",
				Subsystem: "compute",
				Name:      "binds_total",
				Help:      "Total number of binds to existing machines",
			},
		),
		terminationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gwerks",
				Subsystem: "compute",
				Name:      "terminations_total",
				Help:      "Total number of completed terminations",
			},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gwerks",
				Subsystem: "remote",
				Name:      "commands_total",
				Help:      "Total number of remote commands by final status",
			},
			[]string{"status"},
		),
		pollAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gwerks",
				Name:      "poll_attempts_total",
				Help:      "Total number of polling attempts by loop",
			},
			[]string{"loop"},
		),
		readinessWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "gwerks",
				Subsystem: "readiness",
				Name:      "wait_seconds",
				Help:      "Time from the first readiness check to a confirmed ready machine",
				Buckets:   prometheus.ExponentialBuckets(15, 2, 8), // 15s to ~32min
			},
		),
	}

	r.registry.MustRegister(
		r.launchesTotal,
		r.bindsTotal,
		r.terminationsTotal,
		r.commandsTotal,
		r.pollAttemptsTotal,
		r.readinessWait,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordLaunch records a launch through path.
func (r *Recorder) RecordLaunch(path string) {
	if r == nil {
		return
	}
	r.launchesTotal.WithLabelValues(path).Inc()
}

// RecordBind records a bind to an existing machine.
func (r *Recorder) RecordBind() {
	if r == nil {
		return
	}
	r.bindsTotal.Inc()
}

// RecordTermination records a completed termination.
func (r *Recorder) RecordTermination() {
	if r == nil {
		return
	}
	r.terminationsTotal.Inc()
}

// RecordCommand records a remote command's final status.
func (r *Recorder) RecordCommand(status string) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(status).Inc()
}

// RecordPollAttempt records one attempt of a polling loop.
func (r *Recorder) RecordPollAttempt(loop string) {
	if r == nil {
		return
	}
	r.pollAttemptsTotal.WithLabelValues(loop).Inc()
}

// ObserveReadinessWait records how long a machine took to become ready.
func (r *Recorder) ObserveReadinessWait(d time.Duration) {
	if r == nil {
		return
	}
	r.readinessWait.Observe(d.Seconds())
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
