package wrapper

import (
	"context"
	"fmt"
	"runtime"

	"github.com/code19m/errx"

	"github.com/ILGurin/spp-course-work/cqrs/command"
	"github.com/ILGurin/spp-course-work/observability/logger"
)

const (
	CodePanicRecovered = "PANIC_RECOVERED"

	stackTraceSize = 4096
)

type RecoveryCommandWrapper[I command.Input, R command.Result] struct {
	logger logger.Logger
	next   command.Command[I, R]
}

func NewRecoveryCommandWrapper[I command.Input, R command.Result](
	log logger.Logger,
	cmdName string,
) command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &RecoveryCommandWrapper[I, R]{
			logger: log.Named("cqrs.command.recovery").With("command_name", cmdName),
			next:   next,
		}
	}
}

func (cmd *RecoveryCommandWrapper[I, R]) Execute(ctx context.Context, input I) (result R, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		stackTrace := make([]byte, stackTraceSize)
		stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

		cmd.logger.
			WithContext(ctx).
			With("stack_trace", string(stackTrace)).
			With("panic_values", fmt.Sprintf("%v", r)).
			Error("panic recovered in recovery wrapper")

		var zero R
		result = zero
		err = errx.New("panic recovered in recovery wrapper",
			errx.WithCode(CodePanicRecovered),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{
				"stack_trace":  string(stackTrace),
				"panic_values": fmt.Sprintf("%v", r),
			}),
		)
	}()

	return cmd.next.Execute(ctx, input)
}
