package metadata

import (
	"github.com/ILGurin/spp-course-work/entity"
	"github.com/ILGurin/spp-course-work/repogen"
)

// NewMemRepos returns empty in-memory repositories enforcing the same
// uniqueness rules as the PostgreSQL schema.
func NewMemRepos() Repos {
	return Repos{
		Directories: NewMemDirectoryRepo(),
		Files:       NewMemFileRepo(),
	}
}

func NewMemDirectoryRepo() *repogen.MemRepo[entity.Directory, DirectoryFilter] {
	return repogen.NewMemRepoBuilder[entity.Directory, DirectoryFilter](func(d entity.Directory) string {
		return d.ID.String()
	}).
		WithNotFoundCode(CodeDirectoryNotFound).
		WithMatchFunc(matchDirectory).
		WithOrder(func(a, b entity.Directory) bool { return olderFirst(a.Base, b.Base) }).
		WithConstraint(repogen.MemConstraint[entity.Directory]{
			Name: RootDirectoryIndex,
			Code: CodeBaseDirectoryConflict,
			Violates: func(existing, candidate entity.Directory) bool {
				return existing.UserID == candidate.UserID &&
					existing.IsRoot() && candidate.IsRoot() &&
					existing.Active && candidate.Active
			},
		}).
		Build()
}

func NewMemFileRepo() *repogen.MemRepo[entity.File, FileFilter] {
	return repogen.NewMemRepoBuilder[entity.File, FileFilter](func(f entity.File) string {
		return f.ID.String()
	}).
		WithNotFoundCode(CodeFileNotFound).
		WithMatchFunc(matchFile).
		WithOrder(func(a, b entity.File) bool { return olderFirst(a.Base, b.Base) }).
		WithConstraint(repogen.MemConstraint[entity.File]{
			Name: ObjectKeyConstraint,
			Code: CodeObjectKeyTaken,
			Violates: func(existing, candidate entity.File) bool {
				return existing.ObjectKey == candidate.ObjectKey
			},
		}).
		Build()
}

func matchDirectory(d entity.Directory, f DirectoryFilter) bool {
	switch {
	case f.ID != nil && d.ID != *f.ID,
		f.UserID != nil && d.UserID != *f.UserID,
		f.ParentID != nil && (d.ParentID == nil || *d.ParentID != *f.ParentID),
		f.RootOnly && !d.IsRoot(),
		f.ActiveOnly && !d.Active:
		return false
	}
	return true
}

func matchFile(file entity.File, f FileFilter) bool {
	switch {
	case f.ID != nil && file.ID != *f.ID,
		f.UserID != nil && file.UserID != *f.UserID,
		f.DirectoryID != nil && file.DirectoryID != *f.DirectoryID,
		f.ActiveOnly && !file.Active:
		return false
	}
	return true
}

func olderFirst(a, b entity.Base) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
