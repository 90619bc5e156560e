package blob

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/summittax/apiserver/config"
	"google.golang.org/api/option"
)

// GCSClient backs the blob store with Google Cloud Storage.
type GCSClient struct {
	client    *storage.Client
	projectID string
}

// NewGCSClient constructs a GCS backend from config.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSClient{
		client:    client,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket ensures the named bucket exists.
func (g *GCSClient) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := g.client.Bucket(bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(bucket).Create(ctx, g.projectID, nil)
}

// Put uploads an object under the given key.
func (g *GCSClient) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType, filename string) error {
	writer := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if strings.TrimSpace(contentType) != "" {
		writer.ContentType = contentType
	}
	writer.Metadata = map[string]string{metaFilename: filename}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Open reads the object's attributes, then returns a lazy reader.
func (g *GCSClient) Open(ctx context.Context, bucket, key string) (*Object, error) {
	handle := g.client.Bucket(bucket).Object(key)

	attrs, err := handle.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reader, err := handle.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &Object{
		ReadCloser:  reader,
		ContentType: attrs.ContentType,
		Filename:    attrs.Metadata[metaFilename],
		Size:        attrs.Size,
	}, nil
}

// Delete removes an object from the named bucket.
func (g *GCSClient) Delete(ctx context.Context, bucket, key string) error {
	err := g.client.Bucket(bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// Client exposes the underlying GCS SDK client.
func (g *GCSClient) Client() *storage.Client {
	return g.client
}
