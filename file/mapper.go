package file

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ILGurin/spp-course-work/entity"
)

// StoredFile describes a stored file to callers.
type StoredFile struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	DirectoryID uuid.UUID `json:"directory_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Download is an open file. The caller must close Content.
type Download struct {
	Content  io.ReadCloser
	FileName string
	MimeType string
	Size     int64
}

func (s *Service) toStoredFile(f entity.File) StoredFile {
	return StoredFile{
		ID:          f.ID,
		UserID:      f.UserID,
		DirectoryID: f.DirectoryID,
		FileName:    f.FileName,
		FileSize:    f.FileSize,
		MimeType:    f.MimeType,
		DownloadURL: s.downloadPrefix + "/" + f.ID.String(),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
