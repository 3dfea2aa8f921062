package directory

import (
	"context"
	"slices"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ILGurin/spp-course-work/entity"
	"github.com/ILGurin/spp-course-work/metadata"
	"github.com/ILGurin/spp-course-work/observability/logger"
	"github.com/ILGurin/spp-course-work/val"
)

const maxTreeDepth = 256

// CreateInput describes a new directory. A nil ParentID places it under the
// user's root, which is provisioned when missing.
type CreateInput struct {
	UserID   uuid.UUID  `json:"user_id"   validate:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
	Name     string     `json:"name"      validate:"required,max=255"`
	Path     *string    `json:"path"      validate:"omitempty,max=2048"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name     *string    `json:"name"      validate:"omitempty,min=1,max=255"`
	ParentID *uuid.UUID `json:"parent_id"`
	Path     *string    `json:"path"      validate:"omitempty,max=2048"`
}

// Service implements the directory tree operations.
type Service struct {
	repo        metadata.DirectoryRepo
	provisioner *Provisioner
	now         func() time.Time
	logger      logger.Logger
}

func NewService(repo metadata.DirectoryRepo, provisioner *Provisioner, opts ...Option) *Service {
	o := applyOptions(opts)
	return &Service{
		repo:        repo,
		provisioner: provisioner,
		now:         o.now,
		logger:      o.logger.Named("service"),
	}
}

// CreateBase creates the user's root directory. Unlike the provisioner it is
// strict: an existing active root, or losing the insert race to a concurrent
// creator, fails with CodeBaseDirectoryExists.
func (s *Service) CreateBase(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	exists, err := s.repo.Exists(ctx, metadata.DirectoryFilter{
		UserID:     &userID,
		RootOnly:   true,
		ActiveOnly: true,
	})
	if err != nil {
		return uuid.Nil, errx.Wrap(err)
	}
	if exists {
		return uuid.Nil, baseExists(userID)
	}

	created, err := s.repo.Create(ctx, newRoot(userID, s.now()))
	if errx.IsCodeIn(err, metadata.CodeBaseDirectoryConflict) {
		return uuid.Nil, baseExists(userID)
	}
	if err != nil {
		return uuid.Nil, errx.Wrap(err)
	}

	s.logger.WithContext(ctx).With("user_id", userID).With("directory_id", created.ID).Info("base directory created")
	return created.ID, nil
}

// Create inserts a directory. The parent's existence is not verified.
func (s *Service) Create(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	if err := val.ValidateSchema(in); err != nil {
		return uuid.Nil, errx.Wrap(err)
	}

	parentID := in.ParentID
	if parentID == nil {
		rootID, err := s.provisioner.GetOrCreateBase(ctx, in.UserID)
		if err != nil {
			return uuid.Nil, errx.Wrap(err)
		}
		parentID = &rootID
	}

	d := &entity.Directory{
		Base:     entity.NewBase(),
		UserID:   in.UserID,
		ParentID: parentID,
		Name:     in.Name,
		Path:     in.Path,
	}
	d.Touch(s.now())

	created, err := s.repo.Create(ctx, d)
	if err != nil {
		return uuid.Nil, errx.Wrap(err)
	}
	return created.ID, nil
}

// FindByID returns the directory whether or not it is active.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*View, error) {
	d, err := s.get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return lo.ToPtr(toView(*d)), nil
}

// FindAll lists the active children of parentID owned by userID, oldest
// first. A nil parentID means the user's root; a user without a root gets
// an empty list and no root is created.
func (s *Service) FindAll(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID) ([]View, error) {
	if parentID == nil {
		root, err := s.provisioner.FindBase(ctx, userID)
		if err != nil {
			return nil, errx.Wrap(err)
		}
		if root == nil {
			return []View{}, nil
		}
		parentID = &root.ID
	}

	dirs, err := s.repo.List(ctx, metadata.DirectoryFilter{
		UserID:     &userID,
		ParentID:   parentID,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return lo.Map(dirs, func(d entity.Directory, _ int) View { return toView(d) }), nil
}

// Update applies the non-nil fields of in and refreshes the updated timestamp.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (uuid.UUID, error) {
	d, err := s.get(ctx, id, false)
	if err != nil {
		return uuid.Nil, err
	}
	if err = val.ValidateSchema(in); err != nil {
		return uuid.Nil, errx.Wrap(err)
	}

	if in.ParentID != nil && d.ParentID != nil && *in.ParentID == *d.ParentID {
		in.ParentID = nil
	}
	if in.ParentID != nil {
		if err = s.checkParent(ctx, d, *in.ParentID); err != nil {
			return uuid.Nil, err
		}
		d.ParentID = in.ParentID
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Path != nil {
		d.Path = in.Path
	}
	d.Touch(s.now())

	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		return uuid.Nil, errx.Wrap(err)
	}
	return updated.ID, nil
}

// Delete soft-deletes an active directory. Children and files are left as they are.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.get(ctx, id, true)
	if err != nil {
		return err
	}

	d.Active = false
	d.Touch(s.now())

	_, err = s.repo.Update(ctx, d)
	return errx.Wrap(err)
}

// Ancestors returns the parents of the directory, root first. A parent
// missing from storage ends the chain.
func (s *Service) Ancestors(ctx context.Context, id uuid.UUID) ([]View, error) {
	d, err := s.get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	var chain []View
	err = s.walkUp(ctx, d, func(parent entity.Directory) bool {
		chain = append(chain, toView(parent))
		return true
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(chain)
	return chain, nil
}

// checkParent rejects a parent that would detach d from its tree.
func (s *Service) checkParent(ctx context.Context, d *entity.Directory, parentID uuid.UUID) error {
	if parentID == d.ID {
		return invalidParent(d.ID, parentID, "directory cannot be its own parent")
	}

	parent, err := s.repo.FirstOrNil(ctx, metadata.DirectoryFilter{ID: &parentID, ActiveOnly: true})
	if err != nil {
		return errx.Wrap(err)
	}
	if parent == nil {
		return invalidParent(d.ID, parentID, "parent directory does not exist")
	}
	if parent.UserID != d.UserID {
		return invalidParent(d.ID, parentID, "parent directory belongs to another user")
	}

	cyclic := false
	err = s.walkUp(ctx, parent, func(ancestor entity.Directory) bool {
		cyclic = ancestor.ID == d.ID
		return !cyclic
	})
	if err != nil {
		return err
	}
	if cyclic {
		return invalidParent(d.ID, parentID, "parent directory is a descendant")
	}
	return nil
}

// walkUp calls visit for each parent of from, nearest first, until visit
// returns false or the root is reached.
func (s *Service) walkUp(ctx context.Context, from *entity.Directory, visit func(entity.Directory) bool) error {
	cur := from
	for depth := 0; cur.ParentID != nil; depth++ {
		if depth >= maxTreeDepth {
			return errx.New(
				"directory tree exceeds maximum depth",
				errx.WithCode(CodeTreeTooDeep),
				errx.WithType(errx.T_Internal),
				errx.WithDetails(errx.D{"directory_id": from.ID, "max_depth": maxTreeDepth}),
			)
		}

		parent, err := s.repo.FirstOrNil(ctx, metadata.DirectoryFilter{ID: cur.ParentID})
		if err != nil {
			return errx.Wrap(err)
		}
		if parent == nil || !visit(*parent) {
			return nil
		}
		cur = parent
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID, activeOnly bool) (*entity.Directory, error) {
	d, err := s.repo.Get(ctx, metadata.DirectoryFilter{ID: &id, ActiveOnly: activeOnly})
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"entity": "directory", "id": id}))
	}
	return d, nil
}

func baseExists(userID uuid.UUID) error {
	return errx.New(
		"base directory already exists",
		errx.WithCode(CodeBaseDirectoryExists),
		errx.WithType(errx.T_Conflict),
		errx.WithDetails(errx.D{"user_id": userID}),
	)
}

func invalidParent(id, parentID uuid.UUID, reason string) error {
	return errx.New(
		reason,
		errx.WithCode(CodeInvalidParent),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"directory_id": id, "parent_id": parentID}),
	)
}
