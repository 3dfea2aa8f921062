// Package filestore defines the object store contract used for file contents.
//
// Objects live in containers (buckets) under opaque keys. Implementations
// must be safe for concurrent use. They are not transactional with respect
// to the metadata store.
package filestore

import (
	"context"
	"io"
	"time"

	"github.com/code19m/errx"
)

// ObjectStore stores and serves blobs.
type ObjectStore interface {
	// ContainerExists reports whether container exists.
	ContainerExists(ctx context.Context, container string) (bool, error)

	// CreateContainer creates container.
	CreateContainer(ctx context.Context, container string) error

	// Put writes the object stored under key. size is the declared length of
	// r; a negative size means unknown.
	Put(ctx context.Context, container, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// Get opens the object for reading. The caller must close Object.Content.
	// A missing object fails with CodeObjectNotFound.
	Get(ctx context.Context, container, key string) (*Object, error)

	// PresignedGetURL returns a URL that allows anonymous download of the
	// object until ttl elapses.
	PresignedGetURL(ctx context.Context, container, key string, ttl time.Duration) (string, error)
}

// Object is an open stored object.
type Object struct {
	Content io.ReadCloser
	Info    ObjectInfo
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// EnsureContainer creates container unless it already exists. A concurrent
// creator winning the race is not an error.
func EnsureContainer(ctx context.Context, store ObjectStore, container string) error {
	exists, err := store.ContainerExists(ctx, container)
	if err != nil {
		return errx.Wrap(err)
	}
	if exists {
		return nil
	}

	createErr := store.CreateContainer(ctx, container)
	if createErr == nil {
		return nil
	}

	exists, err = store.ContainerExists(ctx, container)
	if err == nil && exists {
		return nil
	}
	return errx.Wrap(createErr, errx.WithDetails(errx.D{"container": container}))
}
