// Package entity defines the persisted records of the storage subsystem.
package entity

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ILGurin/spp-course-work/pg"
)

// Base is the field set shared by every record: identity, the soft-delete
// flag, and timestamps. Records are never physically removed; Active=false
// hides them from every lookup except Directory by id.
type Base struct {
	ID     uuid.UUID `bun:"id,pk,type:uuid"  json:"id"`
	Active bool      `bun:"active,notnull"   json:"active"`

	pg.BaseModel
}

// NewBase returns an active Base with a fresh id.
func NewBase() Base {
	return Base{ID: uuid.New(), Active: true}
}

// Directory is a node of a user's directory tree. A directory with no parent
// is the user's root ("base directory"); at most one active root may exist per user.
type Directory struct {
	bun.BaseModel `bun:"table:directories,alias:d"`

	Base

	UserID   uuid.UUID  `bun:"user_id,type:uuid,notnull"   json:"user_id"`
	ParentID *uuid.UUID `bun:"parent_id,type:uuid"         json:"parent_id"`
	Name     string     `bun:"name,notnull"                json:"name"`
	// Path is advisory and not kept consistent with the tree.
	Path *string `bun:"path" json:"path"`
}

// IsRoot reports whether d has no parent.
func (d Directory) IsRoot() bool {
	return d.ParentID == nil
}

// File is the metadata of an uploaded blob. ObjectKey links the row to the
// blob in the object store; it never changes and is never reused.
type File struct {
	bun.BaseModel `bun:"table:files,alias:f"`

	Base

	UserID      uuid.UUID `bun:"user_id,type:uuid,notnull"      json:"user_id"`
	DirectoryID uuid.UUID `bun:"directory_id,type:uuid,notnull" json:"directory_id"`
	FileName    string    `bun:"file_name,notnull"              json:"file_name"`
	ObjectKey   string    `bun:"object_key,notnull,unique"      json:"object_key"`
	FileSize    int64     `bun:"file_size,notnull"              json:"file_size"`
	MimeType    string    `bun:"mime_type,notnull"              json:"mime_type"`
}
