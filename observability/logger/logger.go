package logger

import (
	"context"
	"errors"

	"github.com/code19m/errx"
	"go.uber.org/zap"

	"github.com/ILGurin/spp-course-work/meta"
)

// Logger is the logging interface handed to components.
type Logger interface {
	Debug(msg any)
	Info(msg any)
	Warn(msg any)
	Error(msg any)
	// Fatal logs and then calls os.Exit(1).
	Fatal(msg any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)

	// Warnx, Errorx and Fatalx log an error together with its errx code,
	// type, trace, fields and details.
	Warnx(err error)
	Errorx(err error)
	Fatalx(err error)

	// With returns a child logger carrying the given key-value pairs.
	With(keysAndValues ...any) Logger
	// WithContext returns a child logger carrying the metadata found in ctx.
	WithContext(ctx context.Context) Logger
	// Named adds a sub-scope to the logger name.
	Named(name string) Logger

	// Sync flushes buffered entries. Call it on shutdown.
	Sync() error
}

type logger struct {
	*zap.SugaredLogger
}

// New builds a Logger from cfg.
func New(cfg Config) (Logger, error) {
	if cfg.Disable {
		return &logger{zap.NewNop().Sugar()}, nil
	}

	zapCfg, err := cfg.zapConfig()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	if cfg.Encoding == encPretty {
		return &logger{newPrettyLogger(zapCfg).Sugar()}, nil
	}

	zl, err := zapCfg.Build()
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &logger{zl.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &logger{zap.NewNop().Sugar()}
}

func (l *logger) Warnx(err error) {
	l.withErr(err).Warn(err.Error())
}

func (l *logger) Errorx(err error) {
	l.withErr(err).Error(err.Error())
}

func (l *logger) Fatalx(err error) {
	l.withErr(err).Fatal(err.Error())
}

// withErr attaches errx attributes when err carries them.
func (l *logger) withErr(err error) Logger {
	var e errx.ErrorX
	if !errors.As(err, &e) {
		return l
	}
	return l.With(
		"error_code", e.Code(),
		"error_type", e.Type().String(),
		"error_trace", e.Trace(),
		"error_fields", e.Fields(),
		"error_details", e.Details(),
	)
}

func (l *logger) With(keysAndValues ...any) Logger {
	return &logger{l.SugaredLogger.With(keysAndValues...)}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	md := meta.ExtractMetaFromContext(ctx)
	if len(md) == 0 {
		return l
	}

	fields := make([]any, 0, len(md)*2) //nolint:mnd // key + value
	for k, v := range md {
		fields = append(fields, string(k), v)
	}
	return l.With(fields...)
}

func (l *logger) Named(name string) Logger {
	return &logger{l.SugaredLogger.Named(name)}
}

func (l *logger) Debug(msg any) { l.SugaredLogger.Debug(msg) }
func (l *logger) Info(msg any)  { l.SugaredLogger.Info(msg) }
func (l *logger) Warn(msg any)  { l.SugaredLogger.Warn(msg) }
func (l *logger) Error(msg any) { l.SugaredLogger.Error(msg) }
func (l *logger) Fatal(msg any) { l.SugaredLogger.Fatal(msg) }
