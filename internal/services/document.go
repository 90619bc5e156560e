package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/summittax/apiserver/internal/blob"
	"github.com/summittax/apiserver/internal/store"
	"github.com/summittax/apiserver/types"
)

// DocumentRepository defines persistence operations for document records.
type DocumentRepository interface {
	Create(ctx context.Context, doc types.Document) (types.Document, error)
	GetByID(ctx context.Context, id int) (types.Document, error)
	ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Document, int, error)
	List(ctx context.Context, offset, limit int) ([]types.Document, int, error)
	ListAll(ctx context.Context) ([]types.Document, error)
	Reassign(ctx context.Context, id, targetOwnerID, sharedByID int) (types.Document, error)
	CopyForOwner(ctx context.Context, sourceID, targetOwnerID, sharedByID int) (types.Document, error)
}

// BlobStore defines the object operations the services need.
type BlobStore interface {
	Upload(ctx context.Context, bucket, filename, contentType string, data []byte) (string, error)
	Open(ctx context.Context, bucket, key string) (*blob.Object, error)
	Delete(ctx context.Context, bucket, key string) error
}

// EventPublisher sends back-office events. Nil disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Event channels consumed by the back office.
const (
	ChannelDocumentUploaded = "document.uploaded"
	ChannelRefundReceived   = "refund.request.received"
)

// DocumentService encapsulates document use-cases: upload, download,
// listing, and the admin share/copy operations.
type DocumentService struct {
	repo   DocumentRepository
	users  UserRepository
	blobs  BlobStore
	events EventPublisher
}

func NewDocumentService(repo DocumentRepository, users UserRepository, blobs BlobStore, events EventPublisher) *DocumentService {
	return &DocumentService{
		repo:   repo,
		users:  users,
		blobs:  blobs,
		events: events,
	}
}

// Upload writes the file to the documents bucket and creates the metadata
// record. The two steps are not transactional: if the record insert fails,
// the freshly written blob is deleted best effort.
func (s *DocumentService) Upload(ctx context.Context, ownerID, uploaderID int, filename, contentType string, data []byte) (types.Document, error) {
	key, err := s.blobs.Upload(ctx, blob.BucketDocuments, filename, contentType, data)
	if err != nil {
		return types.Document{}, err
	}

	doc, err := s.repo.Create(ctx, types.Document{
		UserID:      ownerID,
		UploadedBy:  uploaderID,
		BlobKey:     key,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Status:      types.StatusUploaded,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, blob.BucketDocuments, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("failed to clean up blob after record insert failure")
		}
		return types.Document{}, err
	}

	s.publish(ctx, ChannelDocumentUploaded, map[string]any{
		"documentId": doc.ID,
		"userId":     doc.UserID,
		"filename":   doc.Filename,
	})

	return doc, nil
}

// Open returns the record and an opened blob stream for download. A record
// whose blob no longer exists is reported as not found, not as a failure.
func (s *DocumentService) Open(ctx context.Context, id int) (types.Document, *blob.Object, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Document{}, nil, err
	}

	obj, err := s.blobs.Open(ctx, blob.BucketDocuments, doc.BlobKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return types.Document{}, nil, store.ErrNotFound
		}
		return types.Document{}, nil, err
	}

	return doc, obj, nil
}

func (s *DocumentService) GetByID(ctx context.Context, id int) (types.Document, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DocumentService) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Document, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByOwner(ctx, ownerID, offset, limit)
}

func (s *DocumentService) List(ctx context.Context, offset, limit int) ([]types.Document, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *DocumentService) ListAll(ctx context.Context) ([]types.Document, error) {
	return s.repo.ListAll(ctx)
}

// Share transfers ownership of the document to the user with the target
// email and marks it shared. The document is untouched when the target
// user does not exist.
func (s *DocumentService) Share(ctx context.Context, documentID int, targetEmail string, sharedByID int) (types.Document, error) {
	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Document{}, ErrTargetUserNotFound
		}
		return types.Document{}, err
	}
	return s.repo.Reassign(ctx, documentID, target.ID, sharedByID)
}

// Copy duplicates the document's metadata for the target user. The new
// record references the same blob; the bytes are not duplicated, so the
// two records alias one physical object. Concurrent copies of the same
// source may both succeed (at-least-once, not exactly-once).
func (s *DocumentService) Copy(ctx context.Context, documentID int, targetEmail string, sharedByID int) (types.Document, error) {
	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Document{}, ErrTargetUserNotFound
		}
		return types.Document{}, err
	}
	return s.repo.CopyForOwner(ctx, documentID, target.ID, sharedByID)
}

func (s *DocumentService) publish(ctx context.Context, channel string, payload map[string]any) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	attrs := map[string]string{}
	if id, ok := payload["documentId"].(int); ok {
		attrs["documentId"] = strconv.Itoa(id)
	}
	if _, err := s.events.Publish(ctx, channel, data, attrs); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("failed to publish event")
	}
}
