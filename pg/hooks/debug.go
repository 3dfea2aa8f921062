// Package hooks contains bun query hooks.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/ILGurin/spp-course-work/observability/logger"
)

var _ bun.QueryHook = (*DebugHook)(nil)

// DebugHook logs bun queries through the service logger.
// Failed queries go out at error level, empty results and slow queries at warn,
// and everything else at debug when verbose.
type DebugHook struct {
	enabled            bool
	verbose            bool
	slowQueryThreshold time.Duration
}

// DebugHookOption configures a DebugHook.
type DebugHookOption func(*DebugHook)

// NewDebugHook returns an enabled, verbose hook with a 100ms slow-query threshold.
func NewDebugHook(opts ...DebugHookOption) *DebugHook {
	h := &DebugHook{
		enabled:            true,
		verbose:            true,
		slowQueryThreshold: 100 * time.Millisecond, //nolint:mnd // default threshold
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithEnabled turns the hook on or off.
func WithEnabled(enabled bool) DebugHookOption {
	return func(h *DebugHook) { h.enabled = enabled }
}

// WithVerbose controls whether successful fast queries are logged.
func WithVerbose(verbose bool) DebugHookOption {
	return func(h *DebugHook) { h.verbose = verbose }
}

// WithSlowQueryThreshold sets the slow-query threshold. Zero disables the check.
func WithSlowQueryThreshold(threshold time.Duration) DebugHookOption {
	return func(h *DebugHook) { h.slowQueryThreshold = threshold }
}

func (h *DebugHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *DebugHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if !h.enabled {
		return
	}

	duration := time.Since(event.StartTime)
	noRows := errors.Is(event.Err, sql.ErrNoRows)
	failed := event.Err != nil && !noRows && !errors.Is(event.Err, sql.ErrTxDone)
	slow := h.slowQueryThreshold > 0 && duration >= h.slowQueryThreshold

	if !h.verbose && !failed && !noRows && !slow {
		return
	}

	log := logger.Named("pg.query").
		WithContext(ctx).
		With("query", strings.ReplaceAll(event.Query, `"`, "")).
		With("duration", duration.Round(time.Microsecond).String())

	msg := "[pg] " + event.Operation()
	switch {
	case failed:
		log.With("error", event.Err.Error()).Error(msg)
	case noRows:
		log.With("error", event.Err.Error()).Warn(msg)
	case slow:
		log.With("slow", true).Warn(msg)
	default:
		log.Debug(msg)
	}
}
