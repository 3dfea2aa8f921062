// Package pg provides the PostgreSQL connection used by the metadata repositories.
//
// It builds a pgx pool, exposes it through bun with the pgdialect, attaches
// query logging and OpenTelemetry hooks, and classifies PostgreSQL errors.
package pg

import (
	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/ILGurin/spp-course-work/pg/hooks"
)

// NewBunDB opens a pooled bun database for cfg.
func NewBunDB(cfg Config) (*bun.DB, error) {
	pool, err := NewPool(cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())

	// Query logging is a no-op unless cfg.Debug is set; slow and failed
	// queries are still reported when it is.
	db.AddQueryHook(hooks.NewDebugHook(
		hooks.WithEnabled(cfg.Debug),
		hooks.WithSlowQueryThreshold(cfg.SlowQueryThreshold),
	))
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(cfg.Database)))

	return db, nil
}
