package blob

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/summittax/apiserver/config"
)

const metaFilename = "filename"

// MinioClient backs the blob store with a MinIO (or S3-compatible) server.
type MinioClient struct {
	client *minio.Client
}

// NewMinioClient constructs a MinIO backend from config.
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioClient{client: client}, nil
}

// EnsureBucket ensures the named bucket exists.
func (m *MinioClient) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

// Put uploads an object under the given key.
func (m *MinioClient) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType, filename string) error {
	_, err := m.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{metaFilename: filename},
	})
	return err
}

// Open stats the object for its metadata, then returns a lazy reader.
func (m *MinioClient) Open(ctx context.Context, bucket, key string) (*Object, error) {
	info, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	filename := info.UserMetadata["Filename"]
	if filename == "" {
		filename = info.UserMetadata[metaFilename]
	}

	return &Object{
		ReadCloser:  obj,
		ContentType: info.ContentType,
		Filename:    filename,
		Size:        info.Size,
	}, nil
}

// Delete removes an object from the named bucket.
func (m *MinioClient) Delete(ctx context.Context, bucket, key string) error {
	return m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

// Client exposes the underlying MinIO SDK client.
func (m *MinioClient) Client() *minio.Client {
	return m.client
}
