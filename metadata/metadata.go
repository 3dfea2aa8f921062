// Package metadata binds the directory and file records to a repository
// backend: PostgreSQL through bun, or memory for tests and local runs.
package metadata

import (
	"github.com/google/uuid"

	"github.com/ILGurin/spp-course-work/entity"
	"github.com/ILGurin/spp-course-work/repogen"
)

const (
	CodeDirectoryNotFound     = "DIRECTORY_NOT_FOUND"
	CodeFileNotFound          = "FILE_NOT_FOUND"
	CodeBaseDirectoryConflict = "BASE_DIRECTORY_CONFLICT"
	CodeObjectKeyTaken        = "OBJECT_KEY_TAKEN"
)

// Storage-level names of the uniqueness rules.
const (
	RootDirectoryIndex  = "directories_user_root_uidx"
	ObjectKeyConstraint = "files_object_key_key"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DirectoryFilter selects directories. Nil fields do not constrain.
// Results are ordered by creation time, oldest first, then by id.
type DirectoryFilter struct {
	ID       *uuid.UUID
	UserID   *uuid.UUID
	ParentID *uuid.UUID
	// RootOnly keeps directories without a parent.
	RootOnly bool
	// ActiveOnly hides soft-deleted directories.
	ActiveOnly bool
}

// FileFilter selects files. Nil fields do not constrain.
// Results are ordered by creation time, oldest first, then by id.
type FileFilter struct {
	ID          *uuid.UUID
	UserID      *uuid.UUID
	DirectoryID *uuid.UUID
	ActiveOnly  bool
}

type (
	DirectoryRepo = repogen.Repo[entity.Directory, DirectoryFilter]
	FileRepo      = repogen.Repo[entity.File, FileFilter]
)

// Repos groups the repositories of one backend.
type Repos struct {
	Directories DirectoryRepo
	Files       FileRepo
}
