package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/summittax/apiserver/internal/services"
	"github.com/summittax/apiserver/internal/store"
	"github.com/summittax/apiserver/types"
)

// AdminHandler provides the back-office console: user and file listings
// with export, role management, and cross-user document operations.
type AdminHandler struct {
	users   *services.UserService
	docs    *services.DocumentService
	refunds *services.RefundService
}

func NewAdminHandler(users *services.UserService, docs *services.DocumentService, refunds *services.RefundService) *AdminHandler {
	return &AdminHandler{
		users:   users,
		docs:    docs,
		refunds: refunds,
	}
}

// AdminRouter registers admin routes. Every route requires an elevated
// session: the session middleware yields 401 without a token, the admin
// middleware 403 without the role.
func AdminRouter(
	r chi.Router,
	users *services.UserService,
	docs *services.DocumentService,
	refunds *services.RefundService,
	sessionMiddleware func(http.Handler) http.Handler,
	adminMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAdminHandler(users, docs, refunds)

	r.Use(sessionMiddleware, adminMiddleware)
	r.Get("/users", handler.ListUsers)
	r.Get("/files", handler.ListFiles)
	r.Get("/refund-requests", handler.ListRefundRequests)
	r.Post("/users/{userID}/role", handler.SetRole)
	r.Post("/documents/share", handler.ShareDocument)
	r.Post("/documents/upload", handler.UploadForUser)
}

// UserListResponse is the paginated user listing payload.
type UserListResponse struct {
	Success     bool         `json:"success"`
	Users       []types.User `json:"users"`
	TotalUsers  int          `json:"totalUsers"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

// ExportResponse carries a full unpaginated data set.
type ExportResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ListUsers returns users newest first, paginated, or everything when
// export=all. Exports are never cached.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if exportAll(r) {
		users, err := h.users.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to export users")
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, ExportResponse{Success: true, Data: users})
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, total, err := h.users.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Success:     true,
		Users:       users,
		TotalUsers:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	})
}

// ListFiles returns all document records newest first, paginated, or
// everything when export=all.
func (h *AdminHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	if exportAll(r) {
		docs, err := h.docs.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to export files")
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, ExportResponse{Success: true, Data: docs})
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, total, err := h.docs.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}

	writeJSON(w, http.StatusOK, DocumentListResponse{
		Success:     true,
		Files:       docs,
		TotalFiles:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	})
}

// ListRefundRequests filters intake records by optional status and email.
func (h *AdminHandler) ListRefundRequests(w http.ResponseWriter, r *http.Request) {
	status := types.RefundStatus(r.URL.Query().Get("status"))
	email := r.URL.Query().Get("email")

	reqs, err := h.refunds.Filter(r.Context(), status, email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list refund requests")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"requests":      reqs,
		"totalContacts": len(reqs),
	})
}

type SetRoleRequest struct {
	Role types.Role `json:"role"`
}

// SetRole promotes or demotes a user. Assigning the role the user already
// holds still reports success.
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := h.users.SetRole(r.Context(), userID, req.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

type ShareDocumentRequest struct {
	DocumentID      int    `json:"documentId"`
	TargetUserEmail string `json:"targetUserEmail"`
	Action          string `json:"action"`
}

// ShareDocument reassigns or copies a document to another user. "share"
// mutates ownership of the existing record; "copy" creates a new record
// referencing the same blob.
func (h *AdminHandler) ShareDocument(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ShareDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.DocumentID < 1 || req.TargetUserEmail == "" {
		writeError(w, http.StatusBadRequest, "documentId and targetUserEmail are required")
		return
	}

	var doc types.Document
	switch req.Action {
	case "share":
		doc, err = h.docs.Share(r.Context(), req.DocumentID, req.TargetUserEmail, identity.UserID)
	case "copy":
		doc, err = h.docs.Copy(r.Context(), req.DocumentID, req.TargetUserEmail, identity.UserID)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	if err != nil {
		if errors.Is(err, services.ErrTargetUserNotFound) {
			writeError(w, http.StatusNotFound, "Target user not found")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to share document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "file": doc})
}

// UploadForUser stores a multipart file on behalf of the target user.
func (h *AdminHandler) UploadForUser(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filename, contentType, data, err := parseUpload(r, formFieldFile, maxDocumentBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	targetEmail := r.FormValue("targetUserEmail")
	if targetEmail == "" {
		writeError(w, http.StatusBadRequest, "targetUserEmail is required")
		return
	}

	target, err := h.users.GetByEmail(r.Context(), targetEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Target user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	doc, err := h.docs.Upload(r.Context(), target.ID, identity.UserID, filename, contentType, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "file": doc})
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
