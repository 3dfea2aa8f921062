package file

import "time"

// Config holds the file storage settings.
type Config struct {
	// Bucket is the object store container holding file contents.
	Bucket string `yaml:"bucket" default:"user-files" validate:"required"`

	// DownloadPathPrefix is joined with the file id to build download URLs.
	DownloadPathPrefix string `yaml:"download_path_prefix" default:"/v1/files/download"`

	// PresignTTL is the validity of pre-signed URLs when the caller asks for none.
	PresignTTL time.Duration `yaml:"presign_ttl" default:"15m" validate:"gt=0"`
}
