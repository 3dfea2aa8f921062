package wrapper

import (
	"context"

	"github.com/ILGurin/spp-course-work/cqrs/command"
	"github.com/ILGurin/spp-course-work/meta"
	"github.com/ILGurin/spp-course-work/observability/tracing"
)

type MetaInjectCommandWrapper[I command.Input, R command.Result] struct {
	operation string
	actorOf   func(I) string
	next      command.Command[I, R]
}

// NewMetaInjectCommandWrapper puts the trace id, the service identity, the
// operation name and the acting user into the context of the command.
// actorOf may be nil for operations addressed by record id only.
func NewMetaInjectCommandWrapper[I command.Input, R command.Result](
	operation string,
	actorOf func(I) string,
) command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &MetaInjectCommandWrapper[I, R]{operation: operation, actorOf: actorOf, next: next}
	}
}

func (cmd *MetaInjectCommandWrapper[I, R]) Execute(ctx context.Context, input I) (R, error) {
	md := meta.ServiceMeta()
	md[meta.Operation] = cmd.operation

	// keep the caller's trace id if it already set one
	if _, err := meta.ShouldGetMeta(ctx, meta.TraceID); err != nil {
		md[meta.TraceID] = tracing.TraceIDFrom(ctx)
	}
	if cmd.actorOf != nil {
		md[meta.ActorID] = cmd.actorOf(input)
		md[meta.ActorType] = "user"
	}

	return cmd.next.Execute(meta.InjectMetaToContext(ctx, md), input)
}
