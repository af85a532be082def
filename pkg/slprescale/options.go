package slprescale

import (
	"io"

	"github.com/bft-labs/slprescale/pkg/log"
)

// Option configures optional behavior of a Rescaler.
type Option func(*options)

type options struct {
	logger   log.Logger
	progress bool
	out      io.Writer
}

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress enables progress bars on stderr.
func WithProgress(enabled bool) Option {
	return func(o *options) {
		o.progress = enabled
	}
}

// WithProgressWriter enables progress bars on w.
func WithProgressWriter(w io.Writer) Option {
	return func(o *options) {
		o.progress = w != nil
		o.out = w
	}
}
