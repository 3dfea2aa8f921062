package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDFrom returns the trace id of the span in ctx. When there is no
// recording span a "man-" prefixed uuid is returned so logs still correlate.
func TraceIDFrom(ctx context.Context) string {
	if id := trace.SpanFromContext(ctx).SpanContext().TraceID(); id.IsValid() {
		return id.String()
	}
	return "man-" + uuid.NewString()
}
