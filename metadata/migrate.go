package metadata

import (
	"context"
	"fmt"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"
)

// Migrate creates the schema, tables and indexes if they do not exist.
// The partial unique index on root directories is what makes concurrent
// first-use provisioning safe.
func Migrate(ctx context.Context, db bun.IDB, schema string) error {
	_, err := db.ExecContext(ctx, schemaSQL(schema))
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{"schema": schema}))
	}
	return nil
}

func schemaSQL(schema string) string {
	return fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[1]s.directories (
    id         UUID PRIMARY KEY,
    user_id    UUID NOT NULL,
    parent_id  UUID NULL,
    name       VARCHAR(255) NOT NULL,
    path       VARCHAR(2048) NULL,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS %[2]s
    ON %[1]s.directories (user_id)
    WHERE parent_id IS NULL AND active;

CREATE INDEX IF NOT EXISTS directories_user_parent_idx
    ON %[1]s.directories (user_id, parent_id, created_at)
    WHERE active;

CREATE TABLE IF NOT EXISTS %[1]s.files (
    id           UUID PRIMARY KEY,
    user_id      UUID NOT NULL,
    directory_id UUID NOT NULL REFERENCES %[1]s.directories (id),
    file_name    VARCHAR(255) NOT NULL,
    object_key   VARCHAR(64) NOT NULL,
    file_size    BIGINT NOT NULL,
    mime_type    VARCHAR(128) NOT NULL,
    active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT %[3]s UNIQUE (object_key)
);

CREATE INDEX IF NOT EXISTS files_user_directory_idx
    ON %[1]s.files (user_id, directory_id, created_at)
    WHERE active;
`, schema, RootDirectoryIndex, ObjectKeyConstraint)
}
