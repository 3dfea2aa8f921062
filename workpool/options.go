package workpool

import (
	"github.com/ILGurin/spp-course-work/observability/logger"
)

// Option is a functional option for New.
type Option func(*options)

type options struct {
	logger logger.Logger
}

func defaultOptions() options {
	return options{logger: logger.Named("workpool")}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
