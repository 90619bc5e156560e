package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/summittax/apiserver/internal/blob"
	"github.com/summittax/apiserver/internal/cache"
	"github.com/summittax/apiserver/internal/services"
)

const (
	maxAvatarBytes  = 5 << 20
	formFieldAvatar = "avatar"
)

// AvatarHandler stores and serves user avatars from the avatars bucket.
type AvatarHandler struct {
	users *services.UserService
	blobs services.BlobStore
	cache *cache.AvatarCache
}

// NewAvatarHandler constructs an AvatarHandler. The cache may be nil.
func NewAvatarHandler(users *services.UserService, blobs services.BlobStore, avatarCache *cache.AvatarCache) *AvatarHandler {
	return &AvatarHandler{
		users: users,
		blobs: blobs,
		cache: avatarCache,
	}
}

// AvatarUploadRouter registers the session-scoped avatar upload route.
func AvatarUploadRouter(r chi.Router, handler *AvatarHandler, sessionMiddleware func(http.Handler) http.Handler) {
	r.With(sessionMiddleware).Post("/", handler.Upload)
}

// AvatarServeRouter registers the public avatar streaming route.
func AvatarServeRouter(r chi.Router, handler *AvatarHandler) {
	r.Get("/{imageID}", handler.Serve)
}

// Upload replaces the caller's avatar. Images only, 5MB cap. The previous
// avatar blob is left in place; only the reference moves.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filename, contentType, data, err := parseUpload(r, formFieldAvatar, maxAvatarBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	key, err := h.blobs.Upload(r.Context(), blob.BucketAvatars, filename, contentType, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	if err := h.users.SetAvatarKey(r.Context(), identity.UserID, key); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update avatar")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"avatarKey": key,
	})
}

// Serve streams an avatar by blob key. Public: avatar keys are unguessable
// uuids and the bucket holds nothing but avatars.
func (h *AvatarHandler) Serve(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageID")
	if strings.TrimSpace(imageID) == "" {
		writeError(w, http.StatusNotFound, "avatar not found")
		return
	}

	if h.cache != nil {
		if entry, err := h.cache.Get(r.Context(), imageID); err == nil {
			serveAvatar(w, entry.Filename, entry.ContentType, entry.Data)
			return
		}
	}

	obj, err := h.blobs.Open(r.Context(), blob.BucketAvatars, imageID)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			writeError(w, http.StatusNotFound, "avatar not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open avatar")
		return
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxAvatarBytes))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read avatar")
		return
	}

	if h.cache != nil {
		entry := &cache.AvatarEntry{
			ContentType: obj.ContentType,
			Filename:    obj.Filename,
			Data:        data,
		}
		if err := h.cache.Set(r.Context(), imageID, entry); err != nil {
			log.Warn().Err(err).Str("imageId", imageID).Msg("failed to cache avatar")
		}
	}

	serveAvatar(w, obj.Filename, obj.ContentType, data)
}

func serveAvatar(w http.ResponseWriter, filename, contentType string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
