package directory

import (
	"time"

	"github.com/ILGurin/spp-course-work/observability/logger"
)

const (
	defaultAttempts = 3
	defaultDelay    = 10 * time.Millisecond
)

// Option configures a Provisioner or a Service.
type Option func(*options)

type options struct {
	attempts uint
	delay    time.Duration
	now      func() time.Time
	logger   logger.Logger
}

func defaultOptions() options {
	return options{
		attempts: defaultAttempts,
		delay:    defaultDelay,
		now:      time.Now,
		logger:   logger.Named("directory"),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAttempts bounds the create/conflict/refetch cycles of root provisioning.
func WithAttempts(n uint) Option {
	return func(o *options) {
		o.attempts = max(n, 1)
	}
}

// WithDelay sets the pause between provisioning attempts.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithClock replaces time.Now for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
