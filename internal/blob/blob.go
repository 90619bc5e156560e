package blob

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// Bucket names. Documents and avatars are kept apart so an avatar key can
// never resolve a client document and vice versa.
const (
	BucketDocuments = "documents"
	BucketAvatars   = "avatars"
)

// ErrNotFound is returned when no object matches the key in the bucket.
var ErrNotFound = errors.New("object not found")

// Object is an opened blob: a lazy byte stream plus the metadata recorded
// at upload time. Read errors after the first byte surface through the
// reader, not as a truncated stream.
type Object struct {
	io.ReadCloser

	ContentType string
	Filename    string
	Size        int64
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context, bucket string) error
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType, filename string) error
	Open(ctx context.Context, bucket, key string) (*Object, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Store wraps an ObjectStorage backend with a stable API and generated keys.
type Store struct {
	backend ObjectStorage
}

// NewStore constructs a Store wrapper for the provided backend.
func NewStore(backend ObjectStorage) *Store {
	return &Store{backend: backend}
}

// EnsureBuckets creates the well-known buckets if they do not exist.
func (s *Store) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{BucketDocuments, BucketAvatars} {
		if err := s.backend.EnsureBucket(ctx, bucket); err != nil {
			return err
		}
	}
	return nil
}

// Upload writes the full buffer to the bucket under a generated key and
// returns the key. The upload is all-or-nothing from the caller's view.
func (s *Store) Upload(ctx context.Context, bucket, filename, contentType string, data []byte) (string, error) {
	key := uuid.NewString()
	if err := s.backend.Put(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), contentType, filename); err != nil {
		return "", err
	}
	return key, nil
}

// Open returns a lazy reader over the object, suitable for direct HTTP
// streaming. ErrNotFound when no object matches the key in the bucket.
func (s *Store) Open(ctx context.Context, bucket, key string) (*Object, error) {
	return s.backend.Open(ctx, bucket, key)
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	return s.backend.Delete(ctx, bucket, key)
}
