// Package file stores user files: contents go to the object store, metadata
// rows to the metadata repository.
//
// The two stores are not transactional. A blob is always written before its
// row, so a failure in between leaves an unreferenced blob, which is logged
// and never served.
package file

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ILGurin/spp-course-work/directory"
	"github.com/ILGurin/spp-course-work/entity"
	"github.com/ILGurin/spp-course-work/filestore"
	"github.com/ILGurin/spp-course-work/metadata"
	"github.com/ILGurin/spp-course-work/observability/logger"
	"github.com/ILGurin/spp-course-work/pagination"
	"github.com/ILGurin/spp-course-work/val"
)

const unnamedFile = "unnamed_file"

// UploadFile is one item of an upload. Size is the declared length of Content
// and alone decides emptiness: a file declared with Size 0 is skipped unread.
type UploadFile struct {
	Name        string    `json:"name"         validate:"max=255"`
	ContentType string    `json:"content_type" validate:"max=128"`
	Size        int64     `json:"size"         validate:"gte=0"`
	Content     io.Reader `json:"-"            validate:"required_unless=Size 0"`
}

// UploadInput is a batch upload. A nil DirectoryID stores the files in the
// user's root, which is provisioned when missing.
type UploadInput struct {
	UserID      uuid.UUID    `json:"user_id"      validate:"required"`
	DirectoryID *uuid.UUID   `json:"directory_id"`
	Files       []UploadFile `json:"files"        validate:"dive"`
}

// ListInput selects a page of a user's files. A nil DirectoryID means the user's root.
type ListInput struct {
	UserID      uuid.UUID  `json:"user_id"`
	DirectoryID *uuid.UUID `json:"directory_id"`

	pagination.Params
}

// Service implements the file operations.
type Service struct {
	directories metadata.DirectoryRepo
	files       metadata.FileRepo
	provisioner *directory.Provisioner
	store       filestore.ObjectStore

	bucket         string
	downloadPrefix string
	presignTTL     time.Duration

	now    func() time.Time
	logger logger.Logger
}

// NewService returns a Service. Zero fields of cfg take their defaults.
func NewService(
	repos metadata.Repos,
	provisioner *directory.Provisioner,
	store filestore.ObjectStore,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		directories:    repos.Directories,
		files:          repos.Files,
		provisioner:    provisioner,
		store:          store,
		bucket:         cfg.Bucket,
		downloadPrefix: strings.TrimSuffix(cfg.DownloadPathPrefix, "/"),
		presignTTL:     cfg.PresignTTL,
		now:            o.now,
		logger:         o.logger.Named("service"),
	}, nil
}

// Upload stores the files of in, in order, and returns the stored ones.
//
// The whole batch is validated and the target directory resolved before
// anything is written. Empty files are skipped. The first object store
// failure aborts the call; files stored before it are kept.
func (s *Service) Upload(ctx context.Context, in UploadInput) ([]StoredFile, error) {
	if err := val.ValidateSchema(in); err != nil {
		return nil, errx.Wrap(err)
	}

	dirID, err := s.resolveDirectory(ctx, in.UserID, in.DirectoryID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithContext(ctx).With("user_id", in.UserID).With("directory_id", dirID)

	stored := make([]StoredFile, 0, len(in.Files))
	containerReady := false
	for i, f := range in.Files {
		if f.Size == 0 {
			log.With("index", i).With("file_name", f.Name).Info("skipping empty file")
			continue
		}

		if !containerReady {
			if err = filestore.EnsureContainer(ctx, s.store, s.bucket); err != nil {
				return nil, storageError(err, s.bucket, "")
			}
			containerReady = true
		}

		rec, err := s.storeOne(ctx, log, in.UserID, dirID, f)
		if err != nil {
			return nil, err
		}
		stored = append(stored, s.toStoredFile(*rec))
	}

	return stored, nil
}

func (s *Service) storeOne(
	ctx context.Context,
	log logger.Logger,
	userID, dirID uuid.UUID,
	f UploadFile,
) (*entity.File, error) {
	key := uuid.NewString()
	contentType := lo.Ternary(f.ContentType != "", f.ContentType, filestore.ContentTypeOctetStream)

	if _, err := s.store.Put(ctx, s.bucket, key, f.Content, f.Size, contentType); err != nil {
		return nil, storageError(err, s.bucket, key)
	}

	rec := &entity.File{
		Base:        entity.NewBase(),
		UserID:      userID,
		DirectoryID: dirID,
		FileName:    lo.Ternary(f.Name != "", f.Name, unnamedFile),
		ObjectKey:   key,
		FileSize:    f.Size,
		MimeType:    contentType,
	}
	rec.Touch(s.now())

	created, err := s.files.Create(ctx, rec)
	if err != nil {
		log.With("object_key", key).With("error", err.Error()).Warn("file metadata not saved, blob left unreferenced")
		return nil, errx.Wrap(err)
	}
	return created, nil
}

// FindByID returns an active file.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*StoredFile, error) {
	rec, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return lo.ToPtr(s.toStoredFile(*rec)), nil
}

// FindAllByUser returns one page of the active files in a directory. A user
// without a root gets an empty page and no root is created.
func (s *Service) FindAllByUser(ctx context.Context, in ListInput) (pagination.Page[StoredFile], error) {
	params := in.Params
	params.Normalize(pagination.DefaultConfig())

	dirID := in.DirectoryID
	if dirID == nil {
		root, err := s.provisioner.FindBase(ctx, in.UserID)
		if err != nil {
			return pagination.Page[StoredFile]{}, errx.Wrap(err)
		}
		if root == nil {
			return pagination.Empty[StoredFile](params), nil
		}
		dirID = &root.ID
	}

	files, err := s.files.List(ctx, metadata.FileFilter{
		UserID:      &in.UserID,
		DirectoryID: dirID,
		ActiveOnly:  true,
	})
	if err != nil {
		return pagination.Page[StoredFile]{}, errx.Wrap(err)
	}

	files = lo.UniqBy(files, func(f entity.File) uuid.UUID { return f.ID })
	return pagination.Slice(lo.Map(files, func(f entity.File, _ int) StoredFile { return s.toStoredFile(f) }), params), nil
}

// Delete soft-deletes an active file. Its blob stays in the object store.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	rec, err := s.getActive(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}

	rec.Active = false
	rec.Touch(s.now())

	if _, err = s.files.Update(ctx, rec); err != nil {
		return uuid.Nil, errx.Wrap(err)
	}
	return rec.ID, nil
}

// Download opens the contents of an active file.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*Download, error) {
	rec, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Get(ctx, s.bucket, rec.ObjectKey)
	if err != nil {
		return nil, storageError(err, s.bucket, rec.ObjectKey)
	}

	return &Download{
		Content:  obj.Content,
		FileName: rec.FileName,
		MimeType: rec.MimeType,
		Size:     rec.FileSize,
	}, nil
}

// PresignDownload returns a time-limited URL for fetching an active file
// directly from the object store. ttl <= 0 uses the configured default.
func (s *Service) PresignDownload(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error) {
	rec, err := s.getActive(ctx, id)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = s.presignTTL
	}

	u, err := s.store.PresignedGetURL(ctx, s.bucket, rec.ObjectKey, ttl)
	if err != nil {
		return "", storageError(err, s.bucket, rec.ObjectKey)
	}
	return u, nil
}

// resolveDirectory returns the directory an upload goes to. A given
// directory must be active and owned by userID.
func (s *Service) resolveDirectory(ctx context.Context, userID uuid.UUID, dirID *uuid.UUID) (uuid.UUID, error) {
	if dirID == nil {
		rootID, err := s.provisioner.GetOrCreateBase(ctx, userID)
		return rootID, errx.Wrap(err)
	}

	d, err := s.directories.Get(ctx, metadata.DirectoryFilter{ID: dirID, ActiveOnly: true})
	if err != nil {
		return uuid.Nil, errx.Wrap(err, errx.WithDetails(errx.D{"entity": "directory", "id": *dirID}))
	}
	if d.UserID != userID {
		return uuid.Nil, errx.New(
			"directory belongs to another user",
			errx.WithCode(CodeDirectoryOwnershipMismatch),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"directory_id": d.ID, "user_id": userID}),
		)
	}
	return d.ID, nil
}

func (s *Service) getActive(ctx context.Context, id uuid.UUID) (*entity.File, error) {
	rec, err := s.files.Get(ctx, metadata.FileFilter{ID: &id, ActiveOnly: true})
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"entity": "file", "id": id}))
	}
	return rec, nil
}

func storageError(cause error, container, key string) error {
	return errx.Wrap(cause,
		errx.WithCode(CodeStorageError),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{
			"container":  container,
			"object_key": key,
		}),
	)
}
