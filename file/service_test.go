package file_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILGurin/spp-course-work/directory"
	"github.com/ILGurin/spp-course-work/entity"
	"github.com/ILGurin/spp-course-work/file"
	"github.com/ILGurin/spp-course-work/filestore"
	"github.com/ILGurin/spp-course-work/filestore/memstore"
	"github.com/ILGurin/spp-course-work/metadata"
	"github.com/ILGurin/spp-course-work/observability/logger"
	"github.com/ILGurin/spp-course-work/pagination"
	"github.com/ILGurin/spp-course-work/val"
)

const bucket = "test-files"

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	repos   metadata.Repos
	store   *memstore.Store
	dirs    *directory.Service
	prov    *directory.Provisioner
	service *file.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, metadata.NewMemRepos(), nil)
}

// newFixtureWith builds the services over repos. A non-nil wrapStore
// decorates the in-memory object store.
func newFixtureWith(t *testing.T, repos metadata.Repos, wrapStore func(filestore.ObjectStore) filestore.ObjectStore) *fixture {
	t.Helper()

	clock := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	dirOpts := []directory.Option{directory.WithClock(clock.Now), directory.WithLogger(logger.Nop())}

	store := memstore.New()
	var objects filestore.ObjectStore = store
	if wrapStore != nil {
		objects = wrapStore(store)
	}

	prov := directory.NewProvisioner(repos.Directories, dirOpts...)
	svc, err := file.NewService(repos, prov, objects, file.Config{Bucket: bucket},
		file.WithClock(clock.Now),
		file.WithLogger(logger.Nop()),
	)
	require.NoError(t, err)

	return &fixture{
		repos:   repos,
		store:   store,
		dirs:    directory.NewService(repos.Directories, prov, dirOpts...),
		prov:    prov,
		service: svc,
	}
}

func upload(name, content string) file.UploadFile {
	return file.UploadFile{
		Name:        name,
		ContentType: filestore.ContentTypeText,
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

func (f *fixture) fileCount(t *testing.T) int {
	t.Helper()
	n, err := f.repos.Files.Count(t.Context(), metadata.FileFilter{})
	require.NoError(t, err)
	return n
}

var errConnReset = errors.New("connection reset by peer")

// failingStore fails every Put after the first okPuts.
type failingStore struct {
	filestore.ObjectStore

	okPuts int32
	puts   atomic.Int32
}

func (s *failingStore) Put(
	ctx context.Context,
	container, key string,
	r io.Reader,
	size int64,
	contentType string,
) (*filestore.ObjectInfo, error) {
	if s.puts.Add(1) > s.okPuts {
		return nil, errConnReset
	}
	return s.ObjectStore.Put(ctx, container, key, r, size, contentType)
}

// brokenFileRepo fails every insert.
type brokenFileRepo struct {
	metadata.FileRepo
}

func (brokenFileRepo) Create(context.Context, *entity.File) (*entity.File, error) {
	return nil, errx.New("insert failed", errx.WithCode("DB_DOWN"))
}

// duplicatingFileRepo lists every file twice.
type duplicatingFileRepo struct {
	metadata.FileRepo
}

func (r duplicatingFileRepo) List(ctx context.Context, filters metadata.FileFilter) ([]entity.File, error) {
	files, err := r.FileRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return append(files, files...), nil
}

func TestFirstUploadProvisionsRoot(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	stored, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: user,
		Files:  []file.UploadFile{upload("hello.txt", "hello world")},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	root, err := f.prov.FindBase(t.Context(), user)
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, root.ID, stored[0].DirectoryID)
	assert.Equal(t, "hello.txt", stored[0].FileName)
	assert.Equal(t, int64(11), stored[0].FileSize)
	assert.Equal(t, filestore.ContentTypeText, stored[0].MimeType)
	assert.Equal(t, "/v1/files/download/"+stored[0].ID.String(), stored[0].DownloadURL)

	page, err := f.service.FindAllByUser(t.Context(), file.ListInput{UserID: user})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestUploadSkipsEmptyFiles(t *testing.T) {
	f := newFixture(t)

	stored, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: uuid.New(),
		Files: []file.UploadFile{
			upload("a.txt", "aaa"),
			{Name: "empty.txt", Size: 0},
			{Name: "declared-empty.txt", Size: 0, Content: strings.NewReader("ignored")},
			upload("c.txt", "ccc"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "c.txt"}, lo.Map(stored, func(s file.StoredFile, _ int) string { return s.FileName }))
	assert.Equal(t, 2, f.fileCount(t))
	assert.Len(t, f.store.Keys(bucket), 2)
}

func TestUploadDefaults(t *testing.T) {
	f := newFixture(t)

	stored, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: uuid.New(),
		Files:  []file.UploadFile{{Size: 3, Content: strings.NewReader("xyz")}},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "unnamed_file", stored[0].FileName)
	assert.Equal(t, filestore.ContentTypeOctetStream, stored[0].MimeType)
}

func TestUploadValidatesWholeBatchFirst(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	_, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: user,
		Files: []file.UploadFile{
			upload("ok.txt", "fine"),
			upload(strings.Repeat("n", 256), "too long a name"),
		},
	})
	require.Error(t, err)
	assert.Equal(t, errx.T_Validation, errx.GetType(err))
	assert.True(t, errx.IsCodeIn(err, val.CodeValidationFailed))

	assert.Zero(t, f.fileCount(t))
	assert.Empty(t, f.store.Keys(bucket))
	root, err := f.prov.FindBase(t.Context(), user)
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestUploadEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	owner, intruder := uuid.New(), uuid.New()

	dirID, err := f.dirs.Create(t.Context(), directory.CreateInput{UserID: owner, Name: "private"})
	require.NoError(t, err)

	_, err = f.service.Upload(t.Context(), file.UploadInput{
		UserID:      intruder,
		DirectoryID: &dirID,
		Files:       []file.UploadFile{upload("x.txt", "x")},
	})
	require.Error(t, err)
	assert.Equal(t, errx.T_Validation, errx.GetType(err))
	assert.True(t, errx.IsCodeIn(err, file.CodeDirectoryOwnershipMismatch))
	assert.Zero(t, f.fileCount(t))
	assert.Empty(t, f.store.Keys(bucket))
}

func TestUploadIntoMissingDirectory(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()

	_, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID:      uuid.New(),
		DirectoryID: &missing,
		Files:       []file.UploadFile{upload("x.txt", "x")},
	})
	require.Error(t, err)
	assert.Equal(t, errx.T_NotFound, errx.GetType(err))
	assert.True(t, errx.IsCodeIn(err, metadata.CodeDirectoryNotFound))
}

func TestUploadAbortsOnStorageFailure(t *testing.T) {
	f := newFixtureWith(t, metadata.NewMemRepos(), func(s filestore.ObjectStore) filestore.ObjectStore {
		return &failingStore{ObjectStore: s, okPuts: 1}
	})

	_, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: uuid.New(),
		Files: []file.UploadFile{
			upload("1.txt", "one"),
			upload("2.txt", "two"),
			upload("3.txt", "three"),
		},
	})
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, file.CodeStorageError))
	assert.Equal(t, errx.T_Internal, errx.GetType(err))
	assert.ErrorIs(t, err, errConnReset)

	// The first file made it and stays.
	assert.Equal(t, 1, f.fileCount(t))
	assert.Len(t, f.store.Keys(bucket), 1)
}

func TestUploadMetadataFailureLeavesBlob(t *testing.T) {
	repos := metadata.NewMemRepos()
	repos.Files = brokenFileRepo{repos.Files}
	f := newFixtureWith(t, repos, nil)

	_, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: uuid.New(),
		Files:  []file.UploadFile{upload("a.txt", "a")},
	})
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, "DB_DOWN"))
	assert.Len(t, f.store.Keys(bucket), 1)
}

func TestFindAllByUser(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	t.Run("no root", func(t *testing.T) {
		page, err := f.service.FindAllByUser(t.Context(), file.ListInput{
			UserID: user,
			Params: pagination.Params{Limit: 500, Offset: -3},
		})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Zero(t, page.Total)
		assert.Equal(t, 20, page.Limit)
		assert.Equal(t, 0, page.Offset)

		root, err := f.prov.FindBase(t.Context(), user)
		require.NoError(t, err)
		assert.Nil(t, root)
	})

	files := make([]file.UploadFile, 0, 25)
	for i := range 25 {
		files = append(files, upload(string(rune('a'+i))+".txt", "data"))
	}
	_, err := f.service.Upload(t.Context(), file.UploadInput{UserID: user, Files: files})
	require.NoError(t, err)

	t.Run("normalized window", func(t *testing.T) {
		page, err := f.service.FindAllByUser(t.Context(), file.ListInput{
			UserID: user,
			Params: pagination.Params{Limit: -5, Offset: -1},
		})
		require.NoError(t, err)
		assert.Equal(t, 20, page.Limit)
		assert.Equal(t, 0, page.Offset)
		assert.Equal(t, 25, page.Total)
		assert.Len(t, page.Items, 20)
		assert.Equal(t, "a.txt", page.Items[0].FileName)
	})

	t.Run("second page", func(t *testing.T) {
		page, err := f.service.FindAllByUser(t.Context(), file.ListInput{
			UserID: user,
			Params: pagination.Params{Limit: 10, Offset: 20},
		})
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)
		assert.Equal(t, "u.txt", page.Items[0].FileName)
		assert.False(t, page.HasNext())
	})

	t.Run("other directory", func(t *testing.T) {
		docs, err := f.dirs.Create(t.Context(), directory.CreateInput{UserID: user, Name: "docs"})
		require.NoError(t, err)

		page, err := f.service.FindAllByUser(t.Context(), file.ListInput{UserID: user, DirectoryID: &docs})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
	})
}

func TestFindAllByUserDeduplicates(t *testing.T) {
	repos := metadata.NewMemRepos()
	repos.Files = duplicatingFileRepo{repos.Files}
	f := newFixtureWith(t, repos, nil)
	user := uuid.New()

	_, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: user,
		Files:  []file.UploadFile{upload("a.txt", "a"), upload("b.txt", "b")},
	})
	require.NoError(t, err)

	page, err := f.service.FindAllByUser(t.Context(), file.ListInput{UserID: user})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []string{"a.txt", "b.txt"}, lo.Map(page.Items, func(s file.StoredFile, _ int) string { return s.FileName }))
}

func TestDeleteExcludesFile(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	stored, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: user,
		Files:  []file.UploadFile{upload("keep.txt", "k"), upload("drop.txt", "d")},
	})
	require.NoError(t, err)
	drop := stored[1].ID

	id, err := f.service.Delete(t.Context(), drop)
	require.NoError(t, err)
	assert.Equal(t, drop, id)

	_, err = f.service.FindByID(t.Context(), drop)
	require.Error(t, err)
	assert.Equal(t, errx.T_NotFound, errx.GetType(err))
	assert.True(t, errx.IsCodeIn(err, metadata.CodeFileNotFound))

	page, err := f.service.FindAllByUser(t.Context(), file.ListInput{UserID: user})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, stored[0].ID, page.Items[0].ID)

	_, err = f.service.Delete(t.Context(), drop)
	require.Error(t, err)
	assert.Equal(t, errx.T_NotFound, errx.GetType(err))

	_, err = f.service.Download(t.Context(), drop)
	require.Error(t, err)
	assert.Equal(t, errx.T_NotFound, errx.GetType(err))

	// Soft delete keeps the blob.
	assert.Len(t, f.store.Keys(bucket), 2)
}

func TestDownload(t *testing.T) {
	f := newFixture(t)

	stored, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: uuid.New(),
		Files:  []file.UploadFile{upload("notes.txt", "remember the milk")},
	})
	require.NoError(t, err)

	dl, err := f.service.Download(t.Context(), stored[0].ID)
	require.NoError(t, err)
	defer dl.Content.Close()

	body, err := io.ReadAll(dl.Content)
	require.NoError(t, err)
	assert.Equal(t, "remember the milk", string(body))
	assert.Equal(t, "notes.txt", dl.FileName)
	assert.Equal(t, filestore.ContentTypeText, dl.MimeType)
	assert.Equal(t, int64(17), dl.Size)
}

func TestPresignDownload(t *testing.T) {
	f := newFixture(t)

	stored, err := f.service.Upload(t.Context(), file.UploadInput{
		UserID: uuid.New(),
		Files:  []file.UploadFile{upload("a.txt", "a")},
	})
	require.NoError(t, err)

	u, err := f.service.PresignDownload(t.Context(), stored[0].ID, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "mem://"+bucket+"/"))

	_, err = f.service.PresignDownload(t.Context(), uuid.New(), time.Minute)
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, metadata.CodeFileNotFound))
}
