package dispatch

import (
	"github.com/ILGurin/spp-course-work/observability/logger"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	logger logger.Logger
}

func defaultOptions() options {
	return options{logger: logger.Named("dispatch")}
}

// WithLogger sets the logger the command wrappers log to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
