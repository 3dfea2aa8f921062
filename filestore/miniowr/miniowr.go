// Package miniowr implements filestore.ObjectStore on top of MinIO.
package miniowr

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/code19m/errx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ILGurin/spp-course-work/filestore"
)

const (
	codeNoSuchKey    = "NoSuchKey"
	codeNoSuchBucket = "NoSuchBucket"
)

var _ filestore.ObjectStore = (*Client)(nil)

// Client is a MinIO-backed object store.
type Client struct {
	client *minio.Client
	region string
}

// New creates a MinIO client. It does not contact the server.
func New(cfg Config) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"endpoint": cfg.Endpoint}))
	}

	return &Client{client: client, region: cfg.Region}, nil
}

func (c *Client) ContainerExists(ctx context.Context, container string) (bool, error) {
	ok, err := c.client.BucketExists(ctx, container)
	if err != nil {
		return false, errx.Wrap(err, errx.WithDetails(errx.D{"bucket": container}))
	}
	return ok, nil
}

func (c *Client) CreateContainer(ctx context.Context, container string) error {
	err := c.client.MakeBucket(ctx, container, minio.MakeBucketOptions{Region: c.region})
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{"bucket": container}))
	}
	return nil
}

func (c *Client) Put(
	ctx context.Context,
	container, key string,
	r io.Reader,
	size int64,
	contentType string,
) (*filestore.ObjectInfo, error) {
	info, err := c.client.PutObject(ctx, container, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, wrapMinioError(err, container, key)
	}

	return &filestore.ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ContentType:  contentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

func (c *Client) Get(ctx context.Context, container, key string) (*filestore.Object, error) {
	obj, err := c.client.GetObject(ctx, container, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapMinioError(err, container, key)
	}

	// GetObject is lazy; Stat performs the request and surfaces a missing key.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, wrapMinioError(err, container, key)
	}

	return &filestore.Object{
		Content: obj,
		Info: filestore.ObjectInfo{
			Key:          key,
			Size:         stat.Size,
			ContentType:  stat.ContentType,
			ETag:         stat.ETag,
			LastModified: stat.LastModified,
		},
	}, nil
}

func (c *Client) PresignedGetURL(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, container, key, ttl, url.Values{})
	if err != nil {
		return "", wrapMinioError(err, container, key)
	}
	return u.String(), nil
}

// wrapMinioError maps MinIO error responses to filestore codes.
func wrapMinioError(err error, container, key string) error {
	details := errx.WithDetails(errx.D{"bucket": container, "key": key})

	switch minio.ToErrorResponse(err).Code {
	case codeNoSuchKey:
		return errx.New("object not found", errx.WithCode(filestore.CodeObjectNotFound), errx.WithType(errx.T_NotFound), details)
	case codeNoSuchBucket:
		return errx.New("bucket not found", errx.WithCode(filestore.CodeContainerNotFound), errx.WithType(errx.T_NotFound), details)
	default:
		return errx.Wrap(err, details)
	}
}
