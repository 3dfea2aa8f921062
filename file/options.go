package file

import (
	"time"

	"github.com/ILGurin/spp-course-work/observability/logger"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger logger.Logger
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		logger: logger.Named("file"),
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
