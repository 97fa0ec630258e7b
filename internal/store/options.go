package store

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
)

type options struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

// Option configures a table.
type Option func(*options)

// WithClock sets the clock used for generation timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
