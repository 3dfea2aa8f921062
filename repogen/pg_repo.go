package repogen

import (
	"context"
	"fmt"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/ILGurin/spp-course-work/pg"
)

// PgRepo adds writes to PgReadOnlyRepo.
type PgRepo[E any, F any] struct {
	*PgReadOnlyRepo[E, F]

	// conflictCodes maps constraint or unique index names to error codes,
	// e.g. "files_object_key_key" -> "OBJECT_KEY_TAKEN".
	conflictCodes map[string]string
}

// PgRepoBuilder builds a PgRepo with sensible defaults.
type PgRepoBuilder[E any, F any] struct {
	repo PgRepo[E, F]
}

// NewPgRepoBuilder starts a builder for a repository over idb in schema "public".
func NewPgRepoBuilder[E any, F any](idb bun.IDB) *PgRepoBuilder[E, F] {
	return &PgRepoBuilder[E, F]{repo: PgRepo[E, F]{
		PgReadOnlyRepo: &PgReadOnlyRepo[E, F]{
			idb:          idb,
			schemaName:   "public",
			notFoundCode: "OBJECT_NOT_FOUND",
			filterFunc:   func(q *bun.SelectQuery, _ F) *bun.SelectQuery { return q },
		},
		conflictCodes: map[string]string{},
	}}
}

// WithSchemaName sets the schema holding the table.
func (b *PgRepoBuilder[E, F]) WithSchemaName(name string) *PgRepoBuilder[E, F] {
	b.repo.schemaName = name
	return b
}

// WithNotFoundCode sets the code returned by Get when nothing matches.
func (b *PgRepoBuilder[E, F]) WithNotFoundCode(code string) *PgRepoBuilder[E, F] {
	b.repo.notFoundCode = code
	return b
}

// WithConflictCode maps a constraint or unique index name to an error code.
func (b *PgRepoBuilder[E, F]) WithConflictCode(constraint, code string) *PgRepoBuilder[E, F] {
	b.repo.conflictCodes[constraint] = code
	return b
}

// WithFilterFunc sets how F is turned into WHERE/ORDER clauses.
func (b *PgRepoBuilder[E, F]) WithFilterFunc(fn func(q *bun.SelectQuery, filters F) *bun.SelectQuery) *PgRepoBuilder[E, F] {
	b.repo.filterFunc = fn
	return b
}

// Build returns the configured repository.
func (b *PgRepoBuilder[E, F]) Build() *PgRepo[E, F] {
	repo := b.repo
	return &repo
}

func (r *PgRepo[E, F]) Create(ctx context.Context, entity *E) (*E, error) {
	q := r.idb.NewInsert().Model(entity).Returning("*")
	q = q.ModelTableExpr("?.?", bun.Ident(r.schemaName), bun.Ident(tableName(q.GetModel())))

	if _, err := q.Exec(ctx); err != nil {
		return nil, r.wrapWriteErr(err, q, "creating")
	}
	return entity, nil
}

func (r *PgRepo[E, F]) Update(ctx context.Context, entity *E) (*E, error) {
	q := r.idb.NewUpdate().Model(entity).WherePK().Returning("*")
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	q = q.ModelTableExpr("?.? AS ?", bun.Ident(r.schemaName), bun.Ident(table.Name), bun.Ident(table.Alias))

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, r.wrapWriteErr(err, q, "updating")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	if affected == 0 {
		return nil, errx.New(
			fmt.Sprintf("no %s found to update", nameOf(entity)),
			errx.WithCode(CodeIncorrectRowsAffection),
			errx.WithDetails(pg.GetPgErrorDetails(nil, q)),
		)
	}
	return entity, nil
}

func (r *PgRepo[E, F]) wrapWriteErr(err error, q fmt.Stringer, action string) error {
	if code, ok := r.conflictCodes[pg.ConstraintName(err)]; ok {
		return errx.New(
			fmt.Sprintf("conflict while %s %s", action, nameOf(new(E))),
			errx.WithCode(code),
			errx.WithType(errx.T_Conflict),
			errx.WithDetails(pg.GetPgErrorDetails(err, q)),
		)
	}
	if pg.IsConflict(err) {
		return errx.Wrap(err, errx.WithCode(CodeDuplicateKey), errx.WithType(errx.T_Conflict),
			errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
}

func tableName(model bun.Model) string {
	return model.(bun.TableModel).Table().Name //nolint:errcheck // struct models always have a table
}
