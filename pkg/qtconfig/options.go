package qtconfig

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/qtvstools/qtvs/pkg/telemetry"
)

const defaultDebounce = 500 * time.Millisecond

// Option configures Read, Load and Watcher.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	debounce time.Duration
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:   zerolog.Nop(),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = telemetry.ComponentLogger(logger, "qtconfig")
	}
}

// WithMetrics records read outcomes on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithDebounce sets how long a Watcher waits for file events to settle
// before re-reading qconfig.pri.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}
