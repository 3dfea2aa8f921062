package repogen

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/code19m/errx"
	"github.com/samber/lo"
)

// MemConstraint is a uniqueness rule checked on every write.
// Violates reports whether candidate may not coexist with existing.
type MemConstraint[E any] struct {
	Name     string
	Code     string
	Violates func(existing, candidate E) bool
}

// MemRepo is a mutex-guarded in-memory Repo. It applies the same error codes
// and types as PgRepo, so services behave identically on either backend.
// Every write is checked against all constraints under the lock, which makes
// constraint checks atomic with respect to concurrent writers.
type MemRepo[E any, F any] struct {
	mu   sync.RWMutex
	rows []E

	keyOf        func(E) string
	match        func(E, F) bool
	less         func(a, b E) bool
	constraints  []MemConstraint[E]
	notFoundCode string
}

// MemRepoBuilder builds a MemRepo.
type MemRepoBuilder[E any, F any] struct {
	repo *MemRepo[E, F]
}

// NewMemRepoBuilder starts a builder. keyOf must return the primary key of an entity.
func NewMemRepoBuilder[E any, F any](keyOf func(E) string) *MemRepoBuilder[E, F] {
	return &MemRepoBuilder[E, F]{repo: &MemRepo[E, F]{
		keyOf:        keyOf,
		match:        func(E, F) bool { return true },
		notFoundCode: "OBJECT_NOT_FOUND",
	}}
}

// WithMatchFunc sets the in-memory equivalent of a filter function.
func (b *MemRepoBuilder[E, F]) WithMatchFunc(fn func(E, F) bool) *MemRepoBuilder[E, F] {
	b.repo.match = fn
	return b
}

// WithOrder sets the listing order. Without it rows come back in insertion order.
func (b *MemRepoBuilder[E, F]) WithOrder(less func(a, b E) bool) *MemRepoBuilder[E, F] {
	b.repo.less = less
	return b
}

// WithNotFoundCode sets the code returned by Get when nothing matches.
func (b *MemRepoBuilder[E, F]) WithNotFoundCode(code string) *MemRepoBuilder[E, F] {
	b.repo.notFoundCode = code
	return b
}

// WithConstraint registers a uniqueness rule.
func (b *MemRepoBuilder[E, F]) WithConstraint(c MemConstraint[E]) *MemRepoBuilder[E, F] {
	b.repo.constraints = append(b.repo.constraints, c)
	return b
}

// Build returns the configured repository.
func (b *MemRepoBuilder[E, F]) Build() *MemRepo[E, F] {
	return b.repo
}

func (r *MemRepo[E, F]) Get(ctx context.Context, filters F) (*E, error) {
	found, err := r.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, errx.New(
			fmt.Sprintf("no %s found", nameOf(new(E))),
			errx.WithCode(r.notFoundCode),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"filters": filters}),
		)
	case 1:
		return &found[0], nil
	default:
		return nil, errx.New(
			fmt.Sprintf("multiple %s found", nameOf(new(E))),
			errx.WithCode(CodeMultipleRowsFound),
			errx.WithDetails(errx.D{"filters": filters}),
		)
	}
}

func (r *MemRepo[E, F]) List(ctx context.Context, filters F) ([]E, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	r.mu.RLock()
	found := lo.Filter(r.rows, func(e E, _ int) bool { return r.match(e, filters) })
	r.mu.RUnlock()

	if r.less != nil {
		slices.SortStableFunc(found, func(a, b E) int {
			switch {
			case r.less(a, b):
				return -1
			case r.less(b, a):
				return 1
			default:
				return 0
			}
		})
	}
	return found, nil
}

func (r *MemRepo[E, F]) Count(ctx context.Context, filters F) (int, error) {
	found, err := r.List(ctx, filters)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}

func (r *MemRepo[E, F]) FirstOrNil(ctx context.Context, filters F) (*E, error) {
	found, err := r.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error here
	}
	return &found[0], nil
}

func (r *MemRepo[E, F]) Exists(ctx context.Context, filters F) (bool, error) {
	n, err := r.Count(ctx, filters)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MemRepo[E, F]) Create(ctx context.Context, entity *E) (*E, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.keyOf(*entity)
	if slices.ContainsFunc(r.rows, func(e E) bool { return r.keyOf(e) == key }) {
		return nil, errx.New(
			fmt.Sprintf("conflict while creating %s", nameOf(entity)),
			errx.WithCode(CodeDuplicateKey),
			errx.WithType(errx.T_Conflict),
			errx.WithDetails(errx.D{"key": key}),
		)
	}

	if err := r.checkConstraints(*entity, -1, "creating"); err != nil {
		return nil, err
	}

	r.rows = append(r.rows, *entity)
	stored := *entity
	return &stored, nil
}

func (r *MemRepo[E, F]) Update(ctx context.Context, entity *E) (*E, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.keyOf(*entity)
	idx := slices.IndexFunc(r.rows, func(e E) bool { return r.keyOf(e) == key })
	if idx < 0 {
		return nil, errx.New(
			fmt.Sprintf("no %s found to update", nameOf(entity)),
			errx.WithCode(CodeIncorrectRowsAffection),
			errx.WithDetails(errx.D{"key": key}),
		)
	}

	if err := r.checkConstraints(*entity, idx, "updating"); err != nil {
		return nil, err
	}

	r.rows[idx] = *entity
	stored := *entity
	return &stored, nil
}

// checkConstraints must be called with the write lock held. skip is the
// index of the row being replaced, or -1.
func (r *MemRepo[E, F]) checkConstraints(candidate E, skip int, action string) error {
	for _, c := range r.constraints {
		for i, existing := range r.rows {
			if i == skip || !c.Violates(existing, candidate) {
				continue
			}
			return errx.New(
				fmt.Sprintf("conflict while %s %s", action, nameOf(new(E))),
				errx.WithCode(c.Code),
				errx.WithType(errx.T_Conflict),
				errx.WithDetails(errx.D{"constraint": c.Name, "key": r.keyOf(candidate)}),
			)
		}
	}
	return nil
}
