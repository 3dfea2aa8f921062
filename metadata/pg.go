package metadata

import (
	"github.com/uptrace/bun"

	"github.com/ILGurin/spp-course-work/entity"
	"github.com/ILGurin/spp-course-work/repogen"
)

// NewPgRepos returns PostgreSQL repositories over tables in schema.
func NewPgRepos(idb bun.IDB, schema string) Repos {
	return Repos{
		Directories: NewPgDirectoryRepo(idb, schema),
		Files:       NewPgFileRepo(idb, schema),
	}
}

func NewPgDirectoryRepo(idb bun.IDB, schema string) DirectoryRepo {
	return repogen.NewPgRepoBuilder[entity.Directory, DirectoryFilter](idb).
		WithSchemaName(schema).
		WithNotFoundCode(CodeDirectoryNotFound).
		WithConflictCode(RootDirectoryIndex, CodeBaseDirectoryConflict).
		WithFilterFunc(directoryFilter).
		Build()
}

func NewPgFileRepo(idb bun.IDB, schema string) FileRepo {
	return repogen.NewPgRepoBuilder[entity.File, FileFilter](idb).
		WithSchemaName(schema).
		WithNotFoundCode(CodeFileNotFound).
		WithConflictCode(ObjectKeyConstraint, CodeObjectKeyTaken).
		WithFilterFunc(fileFilter).
		Build()
}

func directoryFilter(q *bun.SelectQuery, f DirectoryFilter) *bun.SelectQuery {
	if f.ID != nil {
		q = q.Where("d.id = ?", *f.ID)
	}
	if f.UserID != nil {
		q = q.Where("d.user_id = ?", *f.UserID)
	}
	if f.ParentID != nil {
		q = q.Where("d.parent_id = ?", *f.ParentID)
	}
	if f.RootOnly {
		q = q.Where("d.parent_id IS NULL")
	}
	if f.ActiveOnly {
		q = q.Where("d.active")
	}
	return q.Order("d.created_at ASC", "d.id ASC")
}

func fileFilter(q *bun.SelectQuery, f FileFilter) *bun.SelectQuery {
	if f.ID != nil {
		q = q.Where("f.id = ?", *f.ID)
	}
	if f.UserID != nil {
		q = q.Where("f.user_id = ?", *f.UserID)
	}
	if f.DirectoryID != nil {
		q = q.Where("f.directory_id = ?", *f.DirectoryID)
	}
	if f.ActiveOnly {
		q = q.Where("f.active")
	}
	return q.Order("f.created_at ASC", "f.id ASC")
}
