package types

import "time"

// RefundStatus is the review state of a refund request.
type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

// DocumentRef is a denormalized reference to a document record held by a
// refund request. The filename is a snapshot taken at attach time.
type DocumentRef struct {
	DocumentID int    `json:"documentId"`
	Filename   string `json:"filename"`
}

// RefundRequest is a customer intake record submitted through the contact
// form, optionally referencing uploaded documents.
type RefundRequest struct {
	ID       int    `json:"id" db:"id"`
	FullName string `json:"fullName" db:"full_name"`

	// Email is stored lower-cased and trimmed; it keys the requester's
	// own file listing.
	Email   string `json:"email" db:"email"`
	Phone   string `json:"phone" db:"phone"`
	Message string `json:"message" db:"message"`

	Status RefundStatus `json:"status" db:"status"`

	// Documents and AdditionalDocuments are ordered reference lists,
	// persisted as JSONB.
	Documents           []DocumentRef `json:"documents" db:"documents"`
	AdditionalDocuments []DocumentRef `json:"additionalDocuments" db:"additional_documents"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
