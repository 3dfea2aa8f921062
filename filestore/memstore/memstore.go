// Package memstore is an in-memory filestore.ObjectStore for tests and local runs.
package memstore

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // ETag, not security
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/code19m/errx"

	"github.com/ILGurin/spp-course-work/filestore"
)

var _ filestore.ObjectStore = (*Store)(nil)

type object struct {
	data []byte
	info filestore.ObjectInfo
}

// Store keeps objects in memory.
type Store struct {
	mu         sync.RWMutex
	containers map[string]map[string]object
	now        func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		containers: make(map[string]map[string]object),
		now:        time.Now,
	}
}

func (s *Store) ContainerExists(ctx context.Context, container string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errx.Wrap(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.containers[container]
	return ok, nil
}

func (s *Store) CreateContainer(ctx context.Context, container string) error {
	if err := ctx.Err(); err != nil {
		return errx.Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.containers[container]; ok {
		return errx.New("container already exists", errx.WithDetails(errx.D{"container": container}))
	}
	s.containers[container] = make(map[string]object)
	return nil
}

func (s *Store) Put(
	ctx context.Context,
	container, key string,
	r io.Reader,
	size int64,
	contentType string,
) (*filestore.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"container": container, "key": key}))
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, errx.New(
			fmt.Sprintf("read %d bytes, declared %d", len(data), size),
			errx.WithCode(filestore.CodeSizeMismatch),
			errx.WithDetails(errx.D{"container": container, "key": key}),
		)
	}
	if err = ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	sum := md5.Sum(data) //nolint:gosec // ETag, not security
	info := filestore.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.containers[container]
	if !ok {
		return nil, containerNotFound(container)
	}
	objects[key] = object{data: data, info: info}

	return &info, nil
}

func (s *Store) Get(ctx context.Context, container, key string) (*filestore.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.containers[container]
	if !ok {
		return nil, containerNotFound(container)
	}
	obj, ok := objects[key]
	if !ok {
		return nil, errx.New(
			"object not found",
			errx.WithCode(filestore.CodeObjectNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"container": container, "key": key}),
		)
	}

	return &filestore.Object{
		Content: io.NopCloser(bytes.NewReader(obj.data)),
		Info:    obj.info,
	}, nil
}

func (s *Store) PresignedGetURL(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	if _, err := s.Get(ctx, container, key); err != nil {
		return "", err
	}

	u := url.URL{
		Scheme:   "mem",
		Host:     container,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {s.now().Add(ttl).UTC().Format(time.RFC3339)}}.Encode(),
	}
	return u.String(), nil
}

// Keys returns the keys stored in container.
func (s *Store) Keys(container string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.containers[container]))
	for k := range s.containers[container] {
		keys = append(keys, k)
	}
	return keys
}

func containerNotFound(container string) error {
	return errx.New(
		"container not found",
		errx.WithCode(filestore.CodeContainerNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"container": container}),
	)
}
