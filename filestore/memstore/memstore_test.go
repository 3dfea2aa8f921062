package memstore_test

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILGurin/spp-course-work/filestore"
	"github.com/ILGurin/spp-course-work/filestore/memstore"
)

func TestStorePutGet(t *testing.T) {
	ctx := t.Context()
	store := memstore.New()
	require.NoError(t, filestore.EnsureContainer(ctx, store, "files"))

	info, err := store.Put(ctx, "files", "k1", strings.NewReader("hello"), 5, filestore.ContentTypeText)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.NotEmpty(t, info.ETag)

	obj, err := store.Get(ctx, "files", "k1")
	require.NoError(t, err)
	defer obj.Content.Close()

	body, err := io.ReadAll(obj.Content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, filestore.ContentTypeText, obj.Info.ContentType)
	assert.Equal(t, []string{"k1"}, store.Keys("files"))
}

func TestStoreErrors(t *testing.T) {
	ctx := t.Context()
	store := memstore.New()

	_, err := store.Put(ctx, "nope", "k", strings.NewReader("x"), 1, "")
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, filestore.CodeContainerNotFound))

	require.NoError(t, store.CreateContainer(ctx, "files"))

	_, err = store.Put(ctx, "files", "k", strings.NewReader("abc"), 10, "")
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, filestore.CodeSizeMismatch))

	_, err = store.Get(ctx, "files", "missing")
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, filestore.CodeObjectNotFound))
}

func TestEnsureContainerIsIdempotent(t *testing.T) {
	ctx := t.Context()
	store := memstore.New()

	require.NoError(t, filestore.EnsureContainer(ctx, store, "files"))
	require.NoError(t, filestore.EnsureContainer(ctx, store, "files"))

	ok, err := store.ContainerExists(ctx, "files")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPresignedGetURL(t *testing.T) {
	ctx := t.Context()
	store := memstore.New()
	require.NoError(t, store.CreateContainer(ctx, "files"))
	_, err := store.Put(ctx, "files", "k1", strings.NewReader("x"), -1, "")
	require.NoError(t, err)

	u, err := store.PresignedGetURL(ctx, "files", "k1", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "mem://files/k1?expires="))

	_, err = store.PresignedGetURL(ctx, "files", "k2", time.Hour)
	require.Error(t, err)
}
