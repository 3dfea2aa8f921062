package tracing

import "time"

const (
	reconnectionPeriod = 30 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// Config holds the tracing settings.
type Config struct {
	// Disable installs a no-op tracer provider. Spans are still created but never exported.
	Disable bool `yaml:"disable" default:"true"`

	// SampleRate is the fraction of root traces to sample, between 0 and 1.
	SampleRate float64 `yaml:"sample_rate" default:"1" validate:"gte=0,lte=1"`

	// ExporterHost and ExporterPort address the OTLP gRPC collector.
	ExporterHost string `yaml:"exporter_host" validate:"required_if=Disable false"`
	ExporterPort int    `yaml:"exporter_port" validate:"required_if=Disable false"`

	// Tags are added as resource attributes to every span.
	Tags map[string]string `yaml:"tags"`
}
