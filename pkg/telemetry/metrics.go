package telemetry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config read outcomes recorded by RecordConfigRead.
const (
	ConfigReadOK      = "ok"
	ConfigReadMissing = "missing"
	ConfigReadFault   = "fault"
)

// Metrics provides Prometheus metrics for Qt tool runs and qconfig.pri reads.
// A nil *Metrics, or one built from a disabled config, records nothing.
type Metrics struct {
	config MetricsConfig

	toolRuns     *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	configReads  *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		toolRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_runs_total",
				Help:      "Total number of Qt tool runs by tool and exit code",
			},
			[]string{"tool", "exit_code"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_run_duration_seconds",
				Help:      "Duration of Qt tool runs in seconds",
				Buckets:   buckets,
			},
			[]string{"tool"},
		),
		configReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "qconfig_reads_total",
				Help:      "Total number of qconfig.pri reads by outcome",
			},
			[]string{"result"},
		),
	}

	if err := registry.Register(m.toolRuns); err != nil {
		return nil, fmt.Errorf("failed to register tool run counter: %w", err)
	}
	if err := registry.Register(m.toolDuration); err != nil {
		return nil, fmt.Errorf("failed to register tool duration histogram: %w", err)
	}
	if err := registry.Register(m.configReads); err != nil {
		return nil, fmt.Errorf("failed to register config read counter: %w", err)
	}

	return m, nil
}

// RecordToolRun records a finished tool run with its exit code and duration.
func (m *Metrics) RecordToolRun(tool string, exitCode int, duration time.Duration) {
	if m == nil || m.toolRuns == nil {
		return
	}
	m.toolRuns.WithLabelValues(tool, strconv.Itoa(exitCode)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordConfigRead records the outcome of a qconfig.pri read.
func (m *Metrics) RecordConfigRead(result string) {
	if m == nil || m.configReads == nil {
		return
	}
	m.configReads.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all collected metrics to the configured textfile path.
// It is a no-op when metrics are disabled or no path is configured.
func (m *Metrics) WriteTextfile() error {
	if m == nil || m.registry == nil || m.config.TextfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.config.TextfilePath, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
