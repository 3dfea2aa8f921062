// Package workpool runs blocking storage operations on a bounded set of
// goroutines and hands results back as futures.
//
// Submission never blocks the caller. A submitted task waits for a free slot,
// runs with the caller's context, and resolves its Future with the result,
// the error, or a recovered panic.
package workpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/code19m/errx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/ILGurin/spp-course-work/observability/logger"
)

const (
	CodePoolClosed     = "POOL_CLOSED"
	CodePanicRecovered = "PANIC_RECOVERED"

	stackSize = 4096
)

// Pool bounds the number of tasks running at once.
type Pool struct {
	sem  *semaphore.Weighted
	size int
	wg   sync.WaitGroup

	// mu orders Submit's closed check and wg.Add before Close starts waiting.
	mu     sync.RWMutex
	closed bool

	tracer trace.Tracer
	logger logger.Logger
}

// New returns a pool running at most size tasks concurrently. size < 1 is treated as 1.
func New(size int, opts ...Option) *Pool {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	size = max(size, 1)
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		size:   size,
		tracer: otel.Tracer("workpool"),
		logger: o.logger,
	}
}

// Size returns the concurrency bound.
func (p *Pool) Size() int {
	return p.size
}

// Close stops accepting tasks and waits for submitted ones to finish or ctx to end.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errx.Wrap(ctx.Err(), errx.WithDetails(errx.D{"reason": "workpool shutdown timeout"}))
	}
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task finishes or ctx ends, in which case ctx.Err()
// is returned as is. Giving up on a future does not cancel its task; cancel
// the context passed to Submit for that.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) resolve(value T, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Resolved returns an already completed future.
func Resolved[T any](value T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.resolve(value, err)
	return f
}

// Submit schedules fn on p. name labels the task's span.
func Submit[T any](ctx context.Context, p *Pool, name string, fn func(context.Context) (T, error)) *Future[T] {
	var zero T

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return Resolved(zero, errx.New(
			"workpool is closed",
			errx.WithCode(CodePoolClosed),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"task": name}),
		))
	}

	f := &Future[T]{done: make(chan struct{})}
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		// A task cancelled while queued never runs and resolves with ctx.Err().
		if err := p.sem.Acquire(ctx, 1); err != nil {
			f.resolve(zero, err)
			return
		}
		defer p.sem.Release(1)

		f.resolve(runTask(ctx, p, name, fn))
	}()

	return f
}

func runTask[T any](ctx context.Context, p *Pool, name string, fn func(context.Context) (T, error)) (value T, err error) {
	ctx, span := p.tracer.Start(ctx, "workpool."+name)
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, stackSize)
			stack = stack[:runtime.Stack(stack, false)]

			p.logger.
				WithContext(ctx).
				With("task", name).
				With("stack_trace", string(stack)).
				With("panic_values", fmt.Sprintf("%v", r)).
				Error("panic recovered in workpool task")

			err = errx.New("panic recovered in workpool task",
				errx.WithCode(CodePanicRecovered),
				errx.WithType(errx.T_Internal),
				errx.WithDetails(errx.D{
					"task":         name,
					"stack_trace":  string(stack),
					"panic_values": fmt.Sprintf("%v", r),
				}),
			)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return fn(ctx)
}
