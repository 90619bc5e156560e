package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/summittax/apiserver/internal/services"
	"github.com/summittax/apiserver/types"
)

// RefundHandler provides the public intake form and the requester's own
// file listing.
type RefundHandler struct {
	refunds *services.RefundService
}

func NewRefundHandler(refunds *services.RefundService) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

// RefundRouter registers the public intake route.
func RefundRouter(r chi.Router, refunds *services.RefundService) {
	handler := NewRefundHandler(refunds)
	r.Post("/", handler.Create)
}

// MyFilesRouter registers the session-scoped listing of the caller's
// refund requests and their resolved documents.
func MyFilesRouter(r chi.Router, refunds *services.RefundService, sessionMiddleware func(http.Handler) http.Handler) {
	handler := NewRefundHandler(refunds)
	r.With(sessionMiddleware).Get("/", handler.MyFiles)
}

type RefundCreateRequest struct {
	FullName            string              `json:"fullName"`
	Email               string              `json:"email"`
	Phone               string              `json:"phone"`
	Message             string              `json:"message"`
	Documents           []types.DocumentRef `json:"documents"`
	AdditionalDocuments []types.DocumentRef `json:"additionalDocuments"`
}

// Create accepts an intake record from the public contact form.
func (h *RefundHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RefundCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.refunds.Create(r.Context(), types.RefundRequest{
		FullName:            req.FullName,
		Email:               req.Email,
		Phone:               req.Phone,
		Message:             req.Message,
		Documents:           req.Documents,
		AdditionalDocuments: req.AdditionalDocuments,
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to submit request")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "request": created})
}

// MyFiles lists the caller's refund requests with document references
// resolved; references to deleted documents are omitted.
func (h *RefundHandler) MyFiles(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	views, err := h.refunds.ListByEmail(r.Context(), identity.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "requests": views})
}
