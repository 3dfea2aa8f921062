package repogen

import (
	"context"
	"fmt"
	"reflect"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"

	"github.com/ILGurin/spp-course-work/pg"
)

// PgReadOnlyRepo provides read access to one table through bun.
type PgReadOnlyRepo[E any, F any] struct {
	idb          bun.IDB
	schemaName   string
	notFoundCode string

	filterFunc func(q *bun.SelectQuery, filters F) *bun.SelectQuery
}

func (r *PgReadOnlyRepo[E, F]) Get(ctx context.Context, filters F) (*E, error) {
	entities := make([]E, 0)
	q := r.idb.NewSelect().Model(&entities).Limit(2) //nolint:mnd // limit 2 to detect multiple rows
	q = r.filterFunc(r.applyModelTableExpr(q), filters)

	if err := q.Scan(ctx); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	switch len(entities) {
	case 0:
		return nil, errx.New(
			fmt.Sprintf("no %s found", nameOf(new(E))),
			errx.WithCode(r.notFoundCode),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"filters": filters}),
		)
	case 1:
		return &entities[0], nil
	default:
		return nil, errx.New(
			fmt.Sprintf("multiple %s found", nameOf(new(E))),
			errx.WithCode(CodeMultipleRowsFound),
			errx.WithDetails(errx.D{"filters": filters}),
		)
	}
}

func (r *PgReadOnlyRepo[E, F]) List(ctx context.Context, filters F) ([]E, error) {
	entities := make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.filterFunc(r.applyModelTableExpr(q), filters)

	if err := q.Scan(ctx); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return entities, nil
}

func (r *PgReadOnlyRepo[E, F]) Count(ctx context.Context, filters F) (int, error) {
	q := r.idb.NewSelect().Model((*E)(nil))
	q = r.filterFunc(r.applyModelTableExpr(q), filters)

	count, err := q.Count(ctx)
	if err != nil {
		return 0, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return count, nil
}

func (r *PgReadOnlyRepo[E, F]) FirstOrNil(ctx context.Context, filters F) (*E, error) {
	entities := make([]E, 0)
	q := r.idb.NewSelect().Model(&entities)
	q = r.filterFunc(r.applyModelTableExpr(q), filters).Limit(1)

	if err := q.Scan(ctx); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	if len(entities) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error here
	}
	return &entities[0], nil
}

func (r *PgReadOnlyRepo[E, F]) Exists(ctx context.Context, filters F) (bool, error) {
	q := r.idb.NewSelect().Model((*E)(nil))
	q = r.filterFunc(r.applyModelTableExpr(q), filters)

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return exists, nil
}

func (r *PgReadOnlyRepo[E, F]) applyModelTableExpr(q *bun.SelectQuery) *bun.SelectQuery {
	table := q.GetModel().(bun.TableModel).Table() //nolint:errcheck // table name is always available
	return q.ModelTableExpr("?.? AS ?", bun.Ident(r.schemaName), bun.Ident(table.Name), bun.Ident(table.Alias))
}

// nameOf returns the type name of v, dereferencing pointers.
func nameOf(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		return t.Elem().Name()
	}
	return t.Name()
}
