// Package dispatch is the asynchronous entry point to the storage core.
//
// Every operation runs as a command (metadata, tracing, logging and panic
// recovery wrapped around the manager call) on a bounded worker pool, and the
// caller gets a future back immediately.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ILGurin/spp-course-work/cqrs/command"
	"github.com/ILGurin/spp-course-work/cqrs/command/wrapper"
	"github.com/ILGurin/spp-course-work/directory"
	"github.com/ILGurin/spp-course-work/file"
	"github.com/ILGurin/spp-course-work/observability/logger"
	"github.com/ILGurin/spp-course-work/pagination"
	"github.com/ILGurin/spp-course-work/workpool"
)

// DirectoryManager is the directory tree API dispatched by Service.
type DirectoryManager interface {
	CreateBase(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	Create(ctx context.Context, in directory.CreateInput) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*directory.View, error)
	FindAll(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID) ([]directory.View, error)
	Update(ctx context.Context, id uuid.UUID, in directory.UpdateInput) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ancestors(ctx context.Context, id uuid.UUID) ([]directory.View, error)
}

// FileManager is the file API dispatched by Service.
type FileManager interface {
	Upload(ctx context.Context, in file.UploadInput) ([]file.StoredFile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*file.StoredFile, error)
	FindAllByUser(ctx context.Context, in file.ListInput) (pagination.Page[file.StoredFile], error)
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	Download(ctx context.Context, id uuid.UUID) (*file.Download, error)
	PresignDownload(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error)
}

type listDirectoriesInput struct {
	UserID   uuid.UUID  `json:"user_id"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type updateDirectoryInput struct {
	ID uuid.UUID `json:"id"`

	directory.UpdateInput
}

type presignInput struct {
	ID  uuid.UUID     `json:"id"`
	TTL time.Duration `json:"ttl"`
}

// Service submits manager operations to a worker pool.
type Service struct {
	pool *workpool.Pool

	createBaseDirectory command.Command[uuid.UUID, uuid.UUID]
	createDirectory     command.Command[directory.CreateInput, uuid.UUID]
	findDirectory       command.Command[uuid.UUID, *directory.View]
	listDirectories     command.Command[listDirectoriesInput, []directory.View]
	updateDirectory     command.Command[updateDirectoryInput, uuid.UUID]
	deleteDirectory     command.Command[uuid.UUID, command.EmptyResult]
	directoryAncestors  command.Command[uuid.UUID, []directory.View]

	uploadFiles     command.Command[file.UploadInput, []file.StoredFile]
	findFile        command.Command[uuid.UUID, *file.StoredFile]
	listFiles       command.Command[file.ListInput, pagination.Page[file.StoredFile]]
	deleteFile      command.Command[uuid.UUID, uuid.UUID]
	downloadFile    command.Command[uuid.UUID, *file.Download]
	presignDownload command.Command[presignInput, string]
}

func New(pool *workpool.Pool, dirs DirectoryManager, files FileManager, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger

	return &Service{
		pool: pool,

		createBaseDirectory: newCommand(log, "directory.create_base", uuid.UUID.String, dirs.CreateBase),
		createDirectory: newCommand(log, "directory.create",
			func(in directory.CreateInput) string { return in.UserID.String() },
			dirs.Create),
		findDirectory: newCommand(log, "directory.find_by_id", nil, dirs.FindByID),
		listDirectories: newCommand(log, "directory.find_all",
			func(in listDirectoriesInput) string { return in.UserID.String() },
			func(ctx context.Context, in listDirectoriesInput) ([]directory.View, error) {
				return dirs.FindAll(ctx, in.UserID, in.ParentID)
			}),
		updateDirectory: newCommand(log, "directory.update", nil,
			func(ctx context.Context, in updateDirectoryInput) (uuid.UUID, error) {
				return dirs.Update(ctx, in.ID, in.UpdateInput)
			}),
		deleteDirectory: newCommand(log, "directory.delete", nil,
			func(ctx context.Context, id uuid.UUID) (command.EmptyResult, error) {
				return command.EmptyResult{}, dirs.Delete(ctx, id)
			}),
		directoryAncestors: newCommand(log, "directory.ancestors", nil, dirs.Ancestors),

		uploadFiles: newCommand(log, "file.upload",
			func(in file.UploadInput) string { return in.UserID.String() },
			files.Upload),
		findFile: newCommand(log, "file.find_by_id", nil, files.FindByID),
		listFiles: newCommand(log, "file.find_all_by_user",
			func(in file.ListInput) string { return in.UserID.String() },
			files.FindAllByUser),
		deleteFile:   newCommand(log, "file.delete", nil, files.Delete),
		downloadFile: newCommand(log, "file.download", nil, files.Download),
		presignDownload: newCommand(log, "file.presign_download", nil,
			func(ctx context.Context, in presignInput) (string, error) {
				return files.PresignDownload(ctx, in.ID, in.TTL)
			}),
	}
}

func (s *Service) CreateBaseDirectory(ctx context.Context, userID uuid.UUID) *workpool.Future[uuid.UUID] {
	return submit(ctx, s.pool, "directory.create_base", s.createBaseDirectory, userID)
}

func (s *Service) CreateDirectory(ctx context.Context, in directory.CreateInput) *workpool.Future[uuid.UUID] {
	return submit(ctx, s.pool, "directory.create", s.createDirectory, in)
}

func (s *Service) FindDirectory(ctx context.Context, id uuid.UUID) *workpool.Future[*directory.View] {
	return submit(ctx, s.pool, "directory.find_by_id", s.findDirectory, id)
}

// ListDirectories lists the children of parentID, or of the user's root when parentID is nil.
func (s *Service) ListDirectories(
	ctx context.Context,
	userID uuid.UUID,
	parentID *uuid.UUID,
) *workpool.Future[[]directory.View] {
	return submit(ctx, s.pool, "directory.find_all", s.listDirectories,
		listDirectoriesInput{UserID: userID, ParentID: parentID})
}

func (s *Service) UpdateDirectory(
	ctx context.Context,
	id uuid.UUID,
	in directory.UpdateInput,
) *workpool.Future[uuid.UUID] {
	return submit(ctx, s.pool, "directory.update", s.updateDirectory,
		updateDirectoryInput{ID: id, UpdateInput: in})
}

func (s *Service) DeleteDirectory(ctx context.Context, id uuid.UUID) *workpool.Future[command.EmptyResult] {
	return submit(ctx, s.pool, "directory.delete", s.deleteDirectory, id)
}

func (s *Service) DirectoryAncestors(ctx context.Context, id uuid.UUID) *workpool.Future[[]directory.View] {
	return submit(ctx, s.pool, "directory.ancestors", s.directoryAncestors, id)
}

// UploadFiles stores a batch. The readers in in must stay usable until the future resolves.
func (s *Service) UploadFiles(ctx context.Context, in file.UploadInput) *workpool.Future[[]file.StoredFile] {
	return submit(ctx, s.pool, "file.upload", s.uploadFiles, in)
}

func (s *Service) FindFile(ctx context.Context, id uuid.UUID) *workpool.Future[*file.StoredFile] {
	return submit(ctx, s.pool, "file.find_by_id", s.findFile, id)
}

func (s *Service) ListFiles(
	ctx context.Context,
	in file.ListInput,
) *workpool.Future[pagination.Page[file.StoredFile]] {
	return submit(ctx, s.pool, "file.find_all_by_user", s.listFiles, in)
}

func (s *Service) DeleteFile(ctx context.Context, id uuid.UUID) *workpool.Future[uuid.UUID] {
	return submit(ctx, s.pool, "file.delete", s.deleteFile, id)
}

func (s *Service) DownloadFile(ctx context.Context, id uuid.UUID) *workpool.Future[*file.Download] {
	return submit(ctx, s.pool, "file.download", s.downloadFile, id)
}

func (s *Service) PresignDownload(ctx context.Context, id uuid.UUID, ttl time.Duration) *workpool.Future[string] {
	return submit(ctx, s.pool, "file.presign_download", s.presignDownload, presignInput{ID: id, TTL: ttl})
}

// newCommand wraps fn in the standard chain. The outermost wrapper runs first.
func newCommand[I command.Input, R command.Result](
	log logger.Logger,
	name string,
	actorOf func(I) string,
	fn command.Func[I, R],
) command.Command[I, R] {
	return command.Chain[I, R](fn,
		wrapper.NewMetaInjectCommandWrapper[I, R](name, actorOf),
		wrapper.NewTracingCommandWrapper[I, R](name),
		wrapper.NewLoggerCommandWrapper[I, R](log, name),
		wrapper.NewRecoveryCommandWrapper[I, R](log, name),
	)
}

func submit[I command.Input, R command.Result](
	ctx context.Context,
	pool *workpool.Pool,
	name string,
	cmd command.Command[I, R],
	input I,
) *workpool.Future[R] {
	return workpool.Submit(ctx, pool, name, func(ctx context.Context) (R, error) {
		return cmd.Execute(ctx, input)
	})
}
