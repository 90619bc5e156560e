package types

import "time"

// DocumentStatus is a free-form lifecycle label on a document record.
// No transition function is enforced between the known values.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "UPLOADED"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusRejected   DocumentStatus = "REJECTED"
)

// Document represents a stored client file: metadata linking an owning
// user to an object in the documents blob bucket.
type Document struct {
	// ID is the unique identifier of the document record.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the owning user.
	UserID int `json:"userId" db:"user_id"`

	// UploadedBy is the identifier of the user that performed the upload.
	// It differs from UserID when an admin uploads on a client's behalf.
	UploadedBy int `json:"uploadedBy" db:"uploaded_by"`

	// BlobKey is the object key in the documents bucket. Multiple records
	// may reference the same key after an admin copy; the bytes are not
	// duplicated and there is no reference counting.
	BlobKey string `json:"fileId" db:"blob_key"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename" db:"filename"`

	// ContentType is the declared MIME type of the file.
	ContentType string `json:"contentType" db:"content_type"`

	// SizeBytes is the size of the uploaded file in bytes.
	SizeBytes int64 `json:"size" db:"size_bytes"`

	// Status is the document's lifecycle label.
	Status DocumentStatus `json:"status" db:"status"`

	// IsShared, SharedBy, and SharedAt record an admin share or copy.
	IsShared bool       `json:"isShared" db:"is_shared"`
	SharedBy int        `json:"sharedBy,omitempty" db:"shared_by"`
	SharedAt *time.Time `json:"sharedAt,omitempty" db:"shared_at"`

	// CreatedAt is the timestamp at which the record was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
