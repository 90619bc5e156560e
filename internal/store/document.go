package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/summittax/apiserver/types"
)

// DocumentRepository handles persistence for document records.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, user_id, uploaded_by, blob_key, filename, content_type, size_bytes, status, is_shared, shared_by, shared_at, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (types.Document, error) {
	var doc types.Document
	var sharedBy sql.NullInt64
	var sharedAt sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.UploadedBy,
		&doc.BlobKey,
		&doc.Filename,
		&doc.ContentType,
		&doc.SizeBytes,
		&doc.Status,
		&doc.IsShared,
		&sharedBy,
		&sharedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return types.Document{}, err
	}
	doc.SharedBy = int(sharedBy.Int64)
	if sharedAt.Valid {
		t := sharedAt.Time
		doc.SharedAt = &t
	}
	return doc, nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc types.Document) (types.Document, error) {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = types.StatusUploaded
	}

	const query = `
		INSERT INTO documents (user_id, uploaded_by, blob_key, filename, content_type, size_bytes, status, is_shared, shared_by, shared_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		doc.UserID,
		doc.UploadedBy,
		doc.BlobKey,
		doc.Filename,
		doc.ContentType,
		doc.SizeBytes,
		doc.Status,
		doc.IsShared,
		nullInt(doc.SharedBy),
		doc.SharedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID); err != nil {
		return types.Document{}, err
	}
	return doc, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int) (types.Document, error) {
	const query = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Document{}, ErrNotFound
		}
		return types.Document{}, err
	}
	return doc, nil
}

// ListByOwner returns a page of the owner's documents, newest first, along
// with the owner's total document count.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]types.Document, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM documents WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, ownerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := make([]types.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// List returns a page over all documents, newest first, with the total count.
func (r *DocumentRepository) List(ctx context.Context, offset, limit int) ([]types.Document, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}

	const countQuery = `SELECT COUNT(1) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := make([]types.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// ListAll returns every document, newest first, for exports.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]types.Document, error) {
	const query = `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Reassign transfers ownership of the record to targetOwnerID and marks it
// shared by sharedByID.
func (r *DocumentRepository) Reassign(ctx context.Context, id, targetOwnerID, sharedByID int) (types.Document, error) {
	now := time.Now()

	const query = `
		UPDATE documents
		SET user_id = $1,
			is_shared = TRUE,
			shared_by = $2,
			shared_at = $3,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, targetOwnerID, sharedByID, now, id)
	if err != nil {
		return types.Document{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Document{}, err
	}
	if affected == 0 {
		return types.Document{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// CopyForOwner duplicates the record's metadata for targetOwnerID. The new
// record references the same blob key as the source; the bytes are not
// copied and the two records alias one physical object.
func (r *DocumentRepository) CopyForOwner(ctx context.Context, sourceID, targetOwnerID, sharedByID int) (types.Document, error) {
	source, err := r.GetByID(ctx, sourceID)
	if err != nil {
		return types.Document{}, err
	}

	now := time.Now()
	copied := types.Document{
		UserID:      targetOwnerID,
		UploadedBy:  source.UploadedBy,
		BlobKey:     source.BlobKey,
		Filename:    source.Filename,
		ContentType: source.ContentType,
		SizeBytes:   source.SizeBytes,
		Status:      source.Status,
		IsShared:    true,
		SharedBy:    sharedByID,
		SharedAt:    &now,
	}
	return r.Create(ctx, copied)
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
