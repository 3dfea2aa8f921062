package pg_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ILGurin/spp-course-work/pg"
)

func TestIsConflictAndConstraintName(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "directories_user_root_uidx"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "files_directory_id_fkey"}

	tests := []struct {
		name       string
		err        error
		conflict   bool
		constraint string
	}{
		{name: "unique violation", err: unique, conflict: true, constraint: "directories_user_root_uidx"},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", unique), conflict: true, constraint: "directories_user_root_uidx"},
		{name: "foreign key violation", err: fk},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.conflict, pg.IsConflict(tc.err))
			assert.Equal(t, tc.constraint, pg.ConstraintName(tc.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, pg.IsNotFound(fmt.Errorf("scan: %w", sql.ErrNoRows)))
	assert.False(t, pg.IsNotFound(errors.New("other")))
}

type panickyQuery struct{}

func (panickyQuery) String() string { panic("not ready") }

func TestGetPgErrorDetails(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", TableName: "files", ConstraintName: "files_object_key_key"}

	d := pg.GetPgErrorDetails(err, panickyQuery{})

	assert.Equal(t, errx.D{
		"pg.code":       "23505",
		"pg.message":    "",
		"pg.detail":     "",
		"pg.table":      "files",
		"pg.constraint": "files_object_key_key",
	}, d)
}
