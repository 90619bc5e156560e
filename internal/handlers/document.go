package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/summittax/apiserver/internal/services"
	"github.com/summittax/apiserver/internal/store"
	"github.com/summittax/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxDocumentBytes   = 32 << 20
	formFieldFile      = "file"
)

// DocumentHandler provides upload, listing, and download of client
// documents.
type DocumentHandler struct {
	docs *services.DocumentService
}

func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// DocumentRouter registers document routes. All routes require a session.
func DocumentRouter(r chi.Router, docs *services.DocumentService, sessionMiddleware func(http.Handler) http.Handler) {
	handler := NewDocumentHandler(docs)

	r.Use(sessionMiddleware)
	r.Get("/", handler.List)
	r.Post("/", handler.Upload)
	r.Get("/{documentID}/download", handler.Download)
}

// DocumentListResponse is the paginated listing payload.
type DocumentListResponse struct {
	Success     bool             `json:"success"`
	Files       []types.Document `json:"files"`
	TotalFiles  int              `json:"totalFiles"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

// List returns the caller's own documents, newest first, paginated.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, total, err := h.docs.ListByOwner(r.Context(), identity.UserID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
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

// Upload stores a multipart file for the caller.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.docs.Upload(r.Context(), identity.UserID, identity.UserID, filename, contentType, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "file": doc})
}

// Download streams the document's bytes. Owners and admins only; a
// mismatched caller gets Forbidden regardless of whether the document
// exists for someone else.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseDocumentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}

	if doc.UserID != identity.UserID && !identity.IsAdmin() {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	_, obj, err := h.docs.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open document")
		return
	}
	defer obj.Close()

	streamObject(w, doc.Filename, obj.ContentType, obj.Size, obj)
}

func streamObject(w http.ResponseWriter, filename, contentType string, size int64, r io.Reader) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	// A read error mid-copy aborts the response; the client sees a
	// truncated transfer against the declared length, not a silent
	// success.
	_, _ = io.Copy(w, r)
}

func parseDocumentID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "documentID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid document id")
	}
	return id, nil
}

func parseUpload(r *http.Request, field string, limit int64) (filename, contentType string, data []byte, err error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return "", "", nil, errors.New("invalid multipart form")
	}
	return readFormFile(r.MultipartForm, field, limit)
}

func readFormFile(form *multipart.Form, field string, limit int64) (filename, contentType string, data []byte, err error) {
	if form == nil {
		return "", "", nil, errors.New("missing form data")
	}

	files := form.File[field]
	if len(files) == 0 {
		return "", "", nil, fmt.Errorf("%s is required", field)
	}
	if len(files) > 1 {
		return "", "", nil, fmt.Errorf("only one %s is allowed", field)
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return "", "", nil, errors.New("failed to read upload")
	}
	defer file.Close()

	data, err = readFileLimited(file, limit)
	if err != nil {
		return "", "", nil, err
	}

	contentType = header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return header.Filename, contentType, data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
