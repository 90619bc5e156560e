package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/summittax/apiserver/types"
)

func TestRefundCreatePublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/refund-requests", "", RefundCreateRequest{
		FullName: "Jane Doe",
		Email:    "JANE@X.com",
		Phone:    "555-123-4567",
		Message:  "Where is my refund?",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	request := body["request"].(map[string]any)
	assert.Equal(t, "jane@x.com", request["email"])
	assert.Equal(t, string(types.RefundPending), request["status"])
}

func TestRefundCreateMissingMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/refund-requests", "", RefundCreateRequest{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Phone:    "555-123-4567",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "message is required")
}

func TestRefundCreateInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/refund-requests", "", "not an object")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMyFilesRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/my-files", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyFilesListsOwnRequests(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jane@x.com", types.RoleMember)

	for _, email := range []string{"jane@x.com", "other@x.com"} {
		rec := env.doJSON(t, http.MethodPost, "/refund-requests", "", RefundCreateRequest{
			FullName: "Client",
			Email:    email,
			Phone:    "555-123-4567",
			Message:  "refund please",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.doJSON(t, http.MethodGet, "/my-files", env.token(t, user), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	requests := body["requests"].([]any)
	require.Len(t, requests, 1, "only the caller's own requests are listed")
	first := requests[0].(map[string]any)
	assert.Equal(t, "jane@x.com", first["email"])
}

func TestMyFilesResolvesDocumentRefs(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "jane@x.com", types.RoleMember)
	token := env.token(t, user)

	rec := env.doMultipart(t, "/documents", token,
		"file", "w2.pdf", "application/pdf", []byte("pdf"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/refund-requests", "", RefundCreateRequest{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Phone:    "555-123-4567",
		Message:  "refund please",
		Documents: []types.DocumentRef{
			{DocumentID: 1, Filename: "w2.pdf"},
			{DocumentID: 42, Filename: "deleted.pdf"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/my-files", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	requests := body["requests"].([]any)
	require.Len(t, requests, 1)
	docs := requests[0].(map[string]any)["documents"].([]any)
	require.Len(t, docs, 1, "references to missing documents are dropped")
	assert.Equal(t, "w2.pdf", docs[0].(map[string]any)["filename"])
}
