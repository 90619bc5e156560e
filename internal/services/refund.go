package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/summittax/apiserver/internal/blob"
	"github.com/summittax/apiserver/types"
)

// RefundRepository defines persistence operations for refund requests.
type RefundRepository interface {
	Create(ctx context.Context, req types.RefundRequest) (types.RefundRequest, error)
	Filter(ctx context.Context, status types.RefundStatus, email string) ([]types.RefundRequest, error)
	ListByEmail(ctx context.Context, email string) ([]types.RefundRequest, error)
	UpdateStatus(ctx context.Context, id int, status types.RefundStatus) error
}

// RefundService encapsulates refund-request intake and listing.
type RefundService struct {
	repo   RefundRepository
	docs   DocumentRepository
	blobs  BlobStore
	events EventPublisher
}

func NewRefundService(repo RefundRepository, docs DocumentRepository, blobs BlobStore, events EventPublisher) *RefundService {
	return &RefundService{
		repo:   repo,
		docs:   docs,
		blobs:  blobs,
		events: events,
	}
}

// Create validates and persists an intake record. All of name, email,
// phone, and message are required; nothing is persisted on validation
// failure. Email is lower-cased and trimmed, other strings trimmed.
func (s *RefundService) Create(ctx context.Context, req types.RefundRequest) (types.RefundRequest, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)

	if req.FullName == "" {
		return types.RefundRequest{}, fmt.Errorf("%w: full name is required", ErrValidation)
	}
	if req.Email == "" {
		return types.RefundRequest{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if req.Phone == "" {
		return types.RefundRequest{}, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if req.Message == "" {
		return types.RefundRequest{}, fmt.Errorf("%w: message is required", ErrValidation)
	}

	req.Status = types.RefundPending

	created, err := s.repo.Create(ctx, req)
	if err != nil {
		return types.RefundRequest{}, err
	}

	if s.events != nil {
		payload, err := json.Marshal(map[string]any{
			"requestId": created.ID,
			"email":     created.Email,
		})
		if err == nil {
			if _, err := s.events.Publish(ctx, ChannelRefundReceived, payload, nil); err != nil {
				log.Warn().Err(err).Msg("failed to publish refund event")
			}
		}
	}

	// Email delivery is out of scope; the notification is logged only.
	log.Info().Int("requestId", created.ID).Str("email", created.Email).Msg("refund request received")

	return created, nil
}

// Filter returns requests matching the optional status and email (admin).
func (s *RefundService) Filter(ctx context.Context, status types.RefundStatus, email string) ([]types.RefundRequest, error) {
	return s.repo.Filter(ctx, status, email)
}

// UpdateStatus sets the review state of a request.
func (s *RefundService) UpdateStatus(ctx context.Context, id int, status types.RefundStatus) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

// ResolvedRef is a document reference enriched with live record metadata.
type ResolvedRef struct {
	DocumentID int       `json:"documentId"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// RequestView is a refund request whose document references have been
// resolved; unresolved references are dropped rather than errored.
type RequestView struct {
	types.RefundRequest
	Documents           []ResolvedRef `json:"documents"`
	AdditionalDocuments []ResolvedRef `json:"additionalDocuments"`
}

// ListByEmail returns the requester's own requests with each document
// reference resolved against the record and blob stores. References whose
// record or blob no longer exist are filtered out; a partial listing is
// preferred over failing the whole request.
func (s *RefundService) ListByEmail(ctx context.Context, email string) ([]RequestView, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	reqs, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(reqs))
	for _, req := range reqs {
		view := RequestView{
			RefundRequest:       req,
			Documents:           s.resolveRefs(ctx, req.Documents),
			AdditionalDocuments: s.resolveRefs(ctx, req.AdditionalDocuments),
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *RefundService) resolveRefs(ctx context.Context, refs []types.DocumentRef) []ResolvedRef {
	resolved := make([]ResolvedRef, 0, len(refs))
	for _, ref := range refs {
		doc, err := s.docs.GetByID(ctx, ref.DocumentID)
		if err != nil {
			continue
		}

		obj, err := s.blobs.Open(ctx, blob.BucketDocuments, doc.BlobKey)
		if err != nil {
			if !errors.Is(err, blob.ErrNotFound) {
				log.Warn().Err(err).Int("documentId", doc.ID).Msg("blob check failed during refund listing")
			}
			continue
		}
		_ = obj.Close()

		resolved = append(resolved, ResolvedRef{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			UploadedAt: doc.CreatedAt,
		})
	}
	return resolved
}
