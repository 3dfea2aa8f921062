package logger

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // static palette
var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel:  color.New(color.FgCyan),
	zapcore.InfoLevel:   color.New(color.FgGreen),
	zapcore.WarnLevel:   color.New(color.FgYellow),
	zapcore.ErrorLevel:  color.New(color.FgRed, color.Bold),
	zapcore.DPanicLevel: color.New(color.FgRed, color.Bold),
	zapcore.PanicLevel:  color.New(color.FgRed, color.Bold),
	zapcore.FatalLevel:  color.New(color.FgMagenta, color.Bold),
}

//nolint:gochecknoglobals // static palette
var (
	faint    = color.New(color.Faint)
	nameTint = color.New(color.FgBlue)
)

// prettyEncoder renders entries as a colored one-line header followed by
// the remaining fields as indented JSON.
type prettyEncoder struct {
	zapcore.Encoder

	pool buffer.Pool
}

func newPrettyLogger(cfg *zap.Config) *zap.Logger {
	enc := &prettyEncoder{
		Encoder: zapcore.NewJSONEncoder(cfg.EncoderConfig),
		pool:    buffer.NewPool(),
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), cfg.Level)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(os.Stderr)))
}

// Clone keeps derived loggers on the pretty encoder.
func (e *prettyEncoder) Clone() zapcore.Encoder {
	return &prettyEncoder{Encoder: e.Encoder.Clone(), pool: e.pool}
}

func (e *prettyEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	raw, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}
	defer raw.Free()

	var sb strings.Builder
	sb.WriteString(faint.Sprint(entry.Time.Format("15:04:05.000")))
	sb.WriteByte(' ')
	sb.WriteString(colorLevel(entry.Level))
	if entry.LoggerName != "" {
		sb.WriteByte(' ')
		sb.WriteString(nameTint.Sprint(entry.LoggerName))
	}
	sb.WriteByte(' ')
	sb.WriteString(entry.Message)

	var obj map[string]any
	if json.Unmarshal(raw.Bytes(), &obj) != nil {
		sb.WriteByte(' ')
		sb.WriteString(strings.TrimRight(raw.String(), "\n"))
	} else if rest := stripHeader(obj); len(rest) > 0 {
		if indented, mErr := json.MarshalIndent(rest, "", "  "); mErr == nil {
			sb.WriteByte('\n')
			sb.Write(indented)
		}
	}

	out := e.pool.Get()
	out.AppendString(sb.String())
	out.AppendByte('\n')
	return out, nil
}

// stripHeader drops keys already printed in the header line.
func stripHeader(obj map[string]any) map[string]any {
	for _, k := range []string{messageKey, levelKey, nameKey, timeKey} {
		delete(obj, k)
	}
	return obj
}

func colorLevel(level zapcore.Level) string {
	c, ok := levelColors[level]
	if !ok {
		return level.CapitalString()
	}
	return c.Sprint(level.CapitalString())
}
