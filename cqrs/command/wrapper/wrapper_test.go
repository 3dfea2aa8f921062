package wrapper_test

import (
	"context"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILGurin/spp-course-work/cqrs/command"
	"github.com/ILGurin/spp-course-work/cqrs/command/wrapper"
	"github.com/ILGurin/spp-course-work/meta"
	"github.com/ILGurin/spp-course-work/observability/logger"
)

func TestRecoveryTurnsPanicIntoError(t *testing.T) {
	cmd := command.Chain[int, string](
		command.Func[int, string](func(context.Context, int) (string, error) {
			panic("boom")
		}),
		wrapper.NewRecoveryCommandWrapper[int, string](logger.Nop(), "explode"),
	)

	out, err := cmd.Execute(t.Context(), 1)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errx.IsCodeIn(err, wrapper.CodePanicRecovered))
	assert.Equal(t, errx.T_Internal, errx.GetType(err))
}

func TestMetaInject(t *testing.T) {
	var seen context.Context
	inner := command.Func[string, int](func(ctx context.Context, _ string) (int, error) {
		seen = ctx
		return 0, nil
	})

	t.Run("generates trace id and sets actor", func(t *testing.T) {
		cmd := command.Chain[string, int](inner,
			wrapper.NewMetaInjectCommandWrapper[string, int]("file.upload", func(in string) string { return in }))

		_, err := cmd.Execute(t.Context(), "user-1")
		require.NoError(t, err)

		md := meta.ExtractMetaFromContext(seen)
		assert.Equal(t, "file.upload", md[meta.Operation])
		assert.Equal(t, "user-1", md[meta.ActorID])
		assert.Equal(t, "user", md[meta.ActorType])
		assert.NotEmpty(t, md[meta.TraceID])
	})

	t.Run("keeps caller trace id", func(t *testing.T) {
		cmd := command.Chain[string, int](inner,
			wrapper.NewMetaInjectCommandWrapper[string, int]("file.delete", nil))

		ctx := meta.InjectMetaToContext(t.Context(), map[meta.ContextKey]string{meta.TraceID: "trace-123"})
		_, err := cmd.Execute(ctx, "ignored")
		require.NoError(t, err)

		md := meta.ExtractMetaFromContext(seen)
		assert.Equal(t, "trace-123", md[meta.TraceID])
		assert.NotContains(t, md, meta.ActorID)
	})
}

func TestTracingAndLoggerPassErrorsThrough(t *testing.T) {
	failure := errx.New("missing", errx.WithCode("THING_NOT_FOUND"), errx.WithType(errx.T_NotFound))

	cmd := command.Chain[int, int](
		command.Func[int, int](func(context.Context, int) (int, error) { return 0, failure }),
		wrapper.NewTracingCommandWrapper[int, int]("thing.get"),
		wrapper.NewLoggerCommandWrapper[int, int](logger.Nop(), "thing.get"),
	)

	_, err := cmd.Execute(t.Context(), 7)
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, "THING_NOT_FOUND"))

	ok := command.Chain[int, int](
		command.Func[int, int](func(_ context.Context, n int) (int, error) { return n + 1, nil }),
		wrapper.NewTracingCommandWrapper[int, int]("thing.inc"),
		wrapper.NewLoggerCommandWrapper[int, int](logger.Nop(), "thing.inc"),
	)
	n, err := ok.Execute(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
