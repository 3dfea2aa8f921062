// Package repogen provides generic repository interfaces and their
// PostgreSQL (bun) and in-memory implementations.
//
// A repository is parametrized by an entity type E and a filter type F. The
// filter is interpreted by a backend-specific function, so callers describe
// what they want once and can swap storage without touching business code.
package repogen

import (
	"context"
)

// Error codes shared by all backends.
const (
	CodeMultipleRowsFound      = "MULTIPLE_ROWS_FOUND"
	CodeIncorrectRowsAffection = "INCORRECT_ROWS_AFFECTION"
	CodeDuplicateKey           = "DUPLICATE_KEY"
)

// ReadOnlyRepo is a generic read-only repository.
type ReadOnlyRepo[E any, F any] interface {
	// Get returns the single entity matching filters. It fails with the
	// repository's not-found code (type T_NotFound) when nothing matches and
	// with CodeMultipleRowsFound when more than one row matches.
	Get(ctx context.Context, filters F) (*E, error)
	// List returns all matching entities in the order the filter asks for.
	List(ctx context.Context, filters F) ([]E, error)
	// Count returns the number of matching entities.
	Count(ctx context.Context, filters F) (int, error)
	// FirstOrNil returns the first matching entity or nil.
	FirstOrNil(ctx context.Context, filters F) (*E, error)
	// Exists reports whether any entity matches.
	Exists(ctx context.Context, filters F) (bool, error)
}

// Repo is a generic read-write repository. Rows are never removed through it;
// deletion is modelled by the entity itself.
type Repo[E any, F any] interface {
	ReadOnlyRepo[E, F]
	// Create inserts entity. A violated uniqueness constraint that has a
	// registered code is reported with that code and type T_Conflict.
	Create(ctx context.Context, entity *E) (*E, error)
	// Update overwrites the stored row with the same primary key.
	Update(ctx context.Context, entity *E) (*E, error)
}
