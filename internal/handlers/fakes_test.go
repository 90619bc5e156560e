package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/summittax/apiserver/internal/auth"
	"github.com/summittax/apiserver/internal/blob"
	"github.com/summittax/apiserver/internal/services"
	"github.com/summittax/apiserver/internal/store"
	"github.com/summittax/apiserver/types"
)

const testJWTSecret = "handler-test-secret"

// memUserRepo is an insertion-ordered in-memory user store. Listings are
// newest first to match the SQL repositories.
type memUserRepo struct {
	users  []types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1}
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return types.User{}, store.ErrConflict
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users = append(r.users, user)
	return user, nil
}

func (r *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = user
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) SetRole(_ context.Context, id int, role types.Role) error {
	for i, u := range r.users {
		if u.ID == id {
			r.users[i].Role = role
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *memUserRepo) SetAvatarKey(_ context.Context, id int, key string) error {
	for i, u := range r.users {
		if u.ID == id {
			r.users[i].AvatarKey = key
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *memUserRepo) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	all, _ := r.ListAll(ctx)
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memUserRepo) ListAll(_ context.Context) ([]types.User, error) {
	all := make([]types.User, 0, len(r.users))
	for i := len(r.users) - 1; i >= 0; i-- {
		all = append(all, r.users[i])
	}
	return all, nil
}

type memDocRepo struct {
	docs   []types.Document
	nextID int
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{nextID: 1}
}

func (r *memDocRepo) Create(_ context.Context, doc types.Document) (types.Document, error) {
	doc.ID = r.nextID
	r.nextID++
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	r.docs = append(r.docs, doc)
	return doc, nil
}

func (r *memDocRepo) GetByID(_ context.Context, id int) (types.Document, error) {
	for _, d := range r.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return types.Document{}, store.ErrNotFound
}

func (r *memDocRepo) ListByOwner(_ context.Context, ownerID, offset, limit int) ([]types.Document, int, error) {
	var owned []types.Document
	for i := len(r.docs) - 1; i >= 0; i-- {
		if r.docs[i].UserID == ownerID {
			owned = append(owned, r.docs[i])
		}
	}
	total := len(owned)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (r *memDocRepo) List(ctx context.Context, offset, limit int) ([]types.Document, int, error) {
	all, _ := r.ListAll(ctx)
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memDocRepo) ListAll(_ context.Context) ([]types.Document, error) {
	all := make([]types.Document, 0, len(r.docs))
	for i := len(r.docs) - 1; i >= 0; i-- {
		all = append(all, r.docs[i])
	}
	return all, nil
}

func (r *memDocRepo) Reassign(_ context.Context, id, targetOwnerID, sharedByID int) (types.Document, error) {
	for i, d := range r.docs {
		if d.ID == id {
			now := time.Now()
			r.docs[i].UserID = targetOwnerID
			r.docs[i].IsShared = true
			r.docs[i].SharedBy = sharedByID
			r.docs[i].SharedAt = &now
			return r.docs[i], nil
		}
	}
	return types.Document{}, store.ErrNotFound
}

func (r *memDocRepo) CopyForOwner(ctx context.Context, sourceID, targetOwnerID, sharedByID int) (types.Document, error) {
	source, err := r.GetByID(ctx, sourceID)
	if err != nil {
		return types.Document{}, err
	}
	now := time.Now()
	copied := source
	copied.UserID = targetOwnerID
	copied.IsShared = true
	copied.SharedBy = sharedByID
	copied.SharedAt = &now
	return r.Create(ctx, copied)
}

type memRefundRepo struct {
	requests []types.RefundRequest
	nextID   int
}

func newMemRefundRepo() *memRefundRepo {
	return &memRefundRepo{nextID: 1}
}

func (r *memRefundRepo) Create(_ context.Context, req types.RefundRequest) (types.RefundRequest, error) {
	req.ID = r.nextID
	r.nextID++
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	r.requests = append(r.requests, req)
	return req, nil
}

func (r *memRefundRepo) Filter(_ context.Context, status types.RefundStatus, email string) ([]types.RefundRequest, error) {
	var out []types.RefundRequest
	for i := len(r.requests) - 1; i >= 0; i-- {
		req := r.requests[i]
		if status != "" && req.Status != status {
			continue
		}
		if email != "" && req.Email != email {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *memRefundRepo) ListByEmail(ctx context.Context, email string) ([]types.RefundRequest, error) {
	return r.Filter(ctx, "", email)
}

func (r *memRefundRepo) UpdateStatus(_ context.Context, id int, status types.RefundStatus) error {
	for i, req := range r.requests {
		if req.ID == id {
			r.requests[i].Status = status
			return nil
		}
	}
	return store.ErrNotFound
}

type memBlobEntry struct {
	data        []byte
	contentType string
	filename    string
}

type memBlobStore struct {
	objects map[string]memBlobEntry
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string]memBlobEntry)}
}

func (s *memBlobStore) Upload(_ context.Context, bucket, filename, contentType string, data []byte) (string, error) {
	key := uuid.NewString()
	s.objects[bucket+"/"+key] = memBlobEntry{data: data, contentType: contentType, filename: filename}
	return key, nil
}

func (s *memBlobStore) Open(_ context.Context, bucket, key string) (*blob.Object, error) {
	entry, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return &blob.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(entry.data)),
		ContentType: entry.contentType,
		Filename:    entry.filename,
		Size:        int64(len(entry.data)),
	}, nil
}

func (s *memBlobStore) Delete(_ context.Context, bucket, key string) error {
	delete(s.objects, bucket+"/"+key)
	return nil
}

// testEnv wires the full route tree against in-memory stores.
type testEnv struct {
	router   http.Handler
	userRepo *memUserRepo
	docRepo  *memDocRepo
	blobs    *memBlobStore
	users    *services.UserService
	docs     *services.DocumentService
	refunds  *services.RefundService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		userRepo: newMemUserRepo(),
		docRepo:  newMemDocRepo(),
		blobs:    newMemBlobStore(),
	}
	env.users = services.NewUserService(env.userRepo)
	env.docs = services.NewDocumentService(env.docRepo, env.userRepo, env.blobs, nil)
	env.refunds = services.NewRefundService(newMemRefundRepo(), env.docRepo, env.blobs, nil)

	sessionMW := RequireSession([]byte(testJWTSecret))
	adminMW := RequireAdmin(env.users)

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)
	r.Route("/auth", func(sr chi.Router) {
		AuthRouter(sr, env.users, testJWTSecret)
	})
	r.Route("/documents", func(sr chi.Router) {
		DocumentRouter(sr, env.docs, sessionMW)
	})
	r.Route("/refund-requests", func(sr chi.Router) {
		RefundRouter(sr, env.refunds)
	})
	r.Route("/my-files", func(sr chi.Router) {
		MyFilesRouter(sr, env.refunds, sessionMW)
	})
	avatars := NewAvatarHandler(env.users, env.blobs, nil)
	r.Route("/users/avatar", func(sr chi.Router) {
		AvatarUploadRouter(sr, avatars, sessionMW)
	})
	r.Route("/avatars", func(sr chi.Router) {
		AvatarServeRouter(sr, avatars)
	})
	r.Route("/admin", func(sr chi.Router) {
		AdminRouter(sr, env.users, env.docs, env.refunds, sessionMW, adminMW)
	})
	env.router = r
	return env
}

func (e *testEnv) seedUser(t *testing.T, email string, role types.Role) types.User {
	t.Helper()
	user, err := e.userRepo.Create(context.Background(), types.User{
		Email:        email,
		Name:         "Test User",
		Role:         role,
		PasswordHash: "unusable",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) token(t *testing.T, user types.User) string {
	t.Helper()
	token, err := auth.IssueToken(user, []byte(testJWTSecret), time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doMultipart(t *testing.T, path, token, field, filename, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="` + field + `"; filename="` + filename + `"`},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
