package repogen_test

import (
	"sync"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILGurin/spp-course-work/repogen"
)

type note struct {
	ID     string
	Owner  string
	Pinned bool
	Rank   int
}

type noteFilter struct {
	Owner      string
	PinnedOnly bool
}

const (
	codeNoteNotFound = "NOTE_NOT_FOUND"
	codePinnedTaken  = "PINNED_TAKEN"
)

func newNoteRepo() *repogen.MemRepo[note, noteFilter] {
	return repogen.NewMemRepoBuilder[note, noteFilter](func(n note) string { return n.ID }).
		WithNotFoundCode(codeNoteNotFound).
		WithMatchFunc(func(n note, f noteFilter) bool {
			return (f.Owner == "" || n.Owner == f.Owner) && (!f.PinnedOnly || n.Pinned)
		}).
		WithOrder(func(a, b note) bool { return a.Rank < b.Rank }).
		WithConstraint(repogen.MemConstraint[note]{
			Name: "notes_owner_pinned_uidx",
			Code: codePinnedTaken,
			Violates: func(existing, candidate note) bool {
				return existing.Pinned && candidate.Pinned && existing.Owner == candidate.Owner
			},
		}).
		Build()
}

func TestMemRepoCreateAndRead(t *testing.T) {
	ctx := t.Context()
	repo := newNoteRepo()

	for _, n := range []note{
		{ID: "n1", Owner: "alice", Rank: 3},
		{ID: "n2", Owner: "alice", Rank: 1, Pinned: true},
		{ID: "n3", Owner: "bob", Rank: 2},
	} {
		_, err := repo.Create(ctx, &n)
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, noteFilter{Owner: "alice"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, "n1", list[1].ID)

	count, err := repo.Count(ctx, noteFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	pinned, err := repo.Get(ctx, noteFilter{Owner: "alice", PinnedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "n2", pinned.ID)

	first, err := repo.FirstOrNil(ctx, noteFilter{Owner: "carol"})
	require.NoError(t, err)
	assert.Nil(t, first)

	exists, err := repo.Exists(ctx, noteFilter{Owner: "bob"})
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemRepoGetErrors(t *testing.T) {
	ctx := t.Context()
	repo := newNoteRepo()
	_, _ = repo.Create(ctx, &note{ID: "n1", Owner: "alice"})
	_, _ = repo.Create(ctx, &note{ID: "n2", Owner: "alice"})

	_, err := repo.Get(ctx, noteFilter{Owner: "bob"})
	require.Error(t, err)
	assert.Equal(t, codeNoteNotFound, errx.AsErrorX(err).Code())
	assert.Equal(t, errx.T_NotFound, errx.GetType(err))

	_, err = repo.Get(ctx, noteFilter{Owner: "alice"})
	require.Error(t, err)
	assert.Equal(t, repogen.CodeMultipleRowsFound, errx.AsErrorX(err).Code())
}

func TestMemRepoConstraints(t *testing.T) {
	ctx := t.Context()
	repo := newNoteRepo()

	_, err := repo.Create(ctx, &note{ID: "n1", Owner: "alice", Pinned: true})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &note{ID: "n1", Owner: "bob"})
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, repogen.CodeDuplicateKey))

	_, err = repo.Create(ctx, &note{ID: "n2", Owner: "alice", Pinned: true})
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, codePinnedTaken))
	assert.Equal(t, errx.T_Conflict, errx.GetType(err))

	// Updating the pinned row itself must not trip over its own old version.
	_, err = repo.Update(ctx, &note{ID: "n1", Owner: "alice", Pinned: true, Rank: 5})
	require.NoError(t, err)

	_, err = repo.Update(ctx, &note{ID: "missing"})
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, repogen.CodeIncorrectRowsAffection))
}

func TestMemRepoConcurrentConstraint(t *testing.T) {
	ctx := t.Context()
	repo := newNoteRepo()

	const writers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range writers {
		wg.Go(func() {
			_, err := repo.Create(ctx, &note{ID: string(rune('a' + i)), Owner: "alice", Pinned: true})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestMemRepoReturnsCopies(t *testing.T) {
	ctx := t.Context()
	repo := newNoteRepo()
	_, _ = repo.Create(ctx, &note{ID: "n1", Owner: "alice", Rank: 1})

	got, err := repo.Get(ctx, noteFilter{Owner: "alice"})
	require.NoError(t, err)
	got.Rank = 99

	again, err := repo.Get(ctx, noteFilter{Owner: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Rank)
}
