package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/summittax/apiserver/types"
)

// RefundRepository handles persistence for refund requests.
type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

const refundColumns = `id, full_name, email, phone, message, status, documents, additional_documents, created_at, updated_at`

func scanRefund(row interface{ Scan(...any) error }) (types.RefundRequest, error) {
	var req types.RefundRequest
	var docsJSON, additionalJSON []byte
	err := row.Scan(
		&req.ID,
		&req.FullName,
		&req.Email,
		&req.Phone,
		&req.Message,
		&req.Status,
		&docsJSON,
		&additionalJSON,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return types.RefundRequest{}, err
	}

	_ = json.Unmarshal(docsJSON, &req.Documents)
	_ = json.Unmarshal(additionalJSON, &req.AdditionalDocuments)
	return req, nil
}

func (r *RefundRepository) Create(ctx context.Context, req types.RefundRequest) (types.RefundRequest, error) {
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = types.RefundPending
	}
	if req.Documents == nil {
		req.Documents = []types.DocumentRef{}
	}
	if req.AdditionalDocuments == nil {
		req.AdditionalDocuments = []types.DocumentRef{}
	}

	docsJSON, err := json.Marshal(req.Documents)
	if err != nil {
		return types.RefundRequest{}, err
	}
	additionalJSON, err := json.Marshal(req.AdditionalDocuments)
	if err != nil {
		return types.RefundRequest{}, err
	}

	const query = `
		INSERT INTO refund_requests (full_name, email, phone, message, status, documents, additional_documents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		req.FullName,
		req.Email,
		req.Phone,
		req.Message,
		req.Status,
		docsJSON,
		additionalJSON,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.ID); err != nil {
		return types.RefundRequest{}, err
	}
	return req, nil
}

// Filter returns refund requests matching the optional status and email,
// newest first. Empty filters match everything.
func (r *RefundRepository) Filter(ctx context.Context, status types.RefundStatus, email string) ([]types.RefundRequest, error) {
	const query = `
		SELECT ` + refundColumns + `
		FROM refund_requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR email = $2)
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, string(status), email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []types.RefundRequest
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

// ListByEmail returns the requester's own refund requests, newest first.
func (r *RefundRepository) ListByEmail(ctx context.Context, email string) ([]types.RefundRequest, error) {
	return r.Filter(ctx, "", email)
}

// UpdateStatus sets the review state of a refund request.
func (r *RefundRepository) UpdateStatus(ctx context.Context, id int, status types.RefundStatus) error {
	const query = `
		UPDATE refund_requests
		SET status = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
