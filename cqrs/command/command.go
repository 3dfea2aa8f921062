// Package command defines the unit of work every storage operation is run as.
//
// A Command takes one input and produces one result. Cross-cutting behavior
// (metadata, tracing, logging, panic recovery) is layered on with WrapFunc.
package command

import "context"

// EmptyResult is the result of commands that only report success or failure.
type EmptyResult = struct{}

type (
	// Input represents the input type for a command.
	Input any

	// Result represents the result type for a command.
	Result any
)

// Command executes one operation.
type Command[I Input, R Result] interface {
	Execute(ctx context.Context, input I) (R, error)
}

// WrapFunc decorates a Command.
type WrapFunc[I Input, R Result] func(Command[I, R]) Command[I, R]

// Func adapts a plain function to Command.
type Func[I Input, R Result] func(ctx context.Context, input I) (R, error)

func (f Func[I, R]) Execute(ctx context.Context, input I) (R, error) {
	return f(ctx, input)
}

// Chain applies wraps to cmd. The first wrap is the outermost one.
func Chain[I Input, R Result](cmd Command[I, R], wraps ...WrapFunc[I, R]) Command[I, R] {
	for i := len(wraps) - 1; i >= 0; i-- {
		cmd = wraps[i](cmd)
	}
	return cmd
}
