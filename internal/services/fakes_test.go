package services

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/summittax/apiserver/internal/blob"
	"github.com/summittax/apiserver/internal/store"
	"github.com/summittax/apiserver/types"
)

type fakeUserRepo struct {
	byEmail map[string]types.User
	byID    map[int]types.User
}

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	r := &fakeUserRepo{
		byEmail: make(map[string]types.User),
		byID:    make(map[int]types.User),
	}
	for _, u := range users {
		r.byEmail[u.Email] = u
		r.byID[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = len(r.byID) + 1
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) SetRole(_ context.Context, id int, role types.Role) error {
	u, ok := r.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	r.byID[id] = u
	r.byEmail[u.Email] = u
	return nil
}

func (r *fakeUserRepo) SetAvatarKey(_ context.Context, id int, key string) error {
	u, ok := r.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.AvatarKey = key
	r.byID[id] = u
	r.byEmail[u.Email] = u
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]types.User, int, error) {
	all, _ := r.ListAll(context.Background())
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

func (r *fakeUserRepo) ListAll(_ context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	return users, nil
}

type fakeDocumentRepo struct {
	docs      map[int]types.Document
	nextID    int
	createErr error
}

func newFakeDocumentRepo(docs ...types.Document) *fakeDocumentRepo {
	r := &fakeDocumentRepo{docs: make(map[int]types.Document), nextID: 1}
	for _, d := range docs {
		r.docs[d.ID] = d
		if d.ID >= r.nextID {
			r.nextID = d.ID + 1
		}
	}
	return r
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc types.Document) (types.Document, error) {
	if r.createErr != nil {
		return types.Document{}, r.createErr
	}
	doc.ID = r.nextID
	r.nextID++
	r.docs[doc.ID] = doc
	return doc, nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id int) (types.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return types.Document{}, store.ErrNotFound
	}
	return d, nil
}

func (r *fakeDocumentRepo) ListByOwner(_ context.Context, ownerID, offset, limit int) ([]types.Document, int, error) {
	var owned []types.Document
	for _, d := range r.docs {
		if d.UserID == ownerID {
			owned = append(owned, d)
		}
	}
	return owned, len(owned), nil
}

func (r *fakeDocumentRepo) List(_ context.Context, offset, limit int) ([]types.Document, int, error) {
	all, _ := r.ListAll(context.Background())
	return all, len(all), nil
}

func (r *fakeDocumentRepo) ListAll(_ context.Context) ([]types.Document, error) {
	docs := make([]types.Document, 0, len(r.docs))
	for _, d := range r.docs {
		docs = append(docs, d)
	}
	return docs, nil
}

func (r *fakeDocumentRepo) Reassign(ctx context.Context, id, targetOwnerID, sharedByID int) (types.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return types.Document{}, store.ErrNotFound
	}
	d.UserID = targetOwnerID
	d.IsShared = true
	d.SharedBy = sharedByID
	r.docs[id] = d
	return d, nil
}

func (r *fakeDocumentRepo) CopyForOwner(ctx context.Context, sourceID, targetOwnerID, sharedByID int) (types.Document, error) {
	source, ok := r.docs[sourceID]
	if !ok {
		return types.Document{}, store.ErrNotFound
	}
	copied := source
	copied.UserID = targetOwnerID
	copied.IsShared = true
	copied.SharedBy = sharedByID
	return r.Create(ctx, copied)
}

type fakeBlobObject struct {
	data        []byte
	contentType string
	filename    string
}

type fakeBlobStore struct {
	objects map[string]fakeBlobObject
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string]fakeBlobObject)}
}

func blobKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *fakeBlobStore) put(bucket, key, contentType, filename string, data []byte) {
	s.objects[blobKey(bucket, key)] = fakeBlobObject{data: data, contentType: contentType, filename: filename}
}

func (s *fakeBlobStore) Upload(_ context.Context, bucket, filename, contentType string, data []byte) (string, error) {
	key := "key-" + strings.ReplaceAll(filename, " ", "-")
	s.put(bucket, key, contentType, filename, data)
	return key, nil
}

func (s *fakeBlobStore) Open(_ context.Context, bucket, key string) (*blob.Object, error) {
	obj, ok := s.objects[blobKey(bucket, key)]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return &blob.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Filename:    obj.filename,
		Size:        int64(len(obj.data)),
	}, nil
}

func (s *fakeBlobStore) Delete(_ context.Context, bucket, key string) error {
	delete(s.objects, blobKey(bucket, key))
	s.deleted = append(s.deleted, blobKey(bucket, key))
	return nil
}

type publishedEvent struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakeEvents struct {
	published []publishedEvent
}

func (e *fakeEvents) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	e.published = append(e.published, publishedEvent{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

type fakeRefundRepo struct {
	requests []types.RefundRequest
	nextID   int
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{nextID: 1}
}

func (r *fakeRefundRepo) Create(_ context.Context, req types.RefundRequest) (types.RefundRequest, error) {
	req.ID = r.nextID
	r.nextID++
	r.requests = append(r.requests, req)
	return req, nil
}

func (r *fakeRefundRepo) Filter(_ context.Context, status types.RefundStatus, email string) ([]types.RefundRequest, error) {
	var out []types.RefundRequest
	for _, req := range r.requests {
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

func (r *fakeRefundRepo) ListByEmail(ctx context.Context, email string) ([]types.RefundRequest, error) {
	return r.Filter(ctx, "", email)
}

func (r *fakeRefundRepo) UpdateStatus(_ context.Context, id int, status types.RefundStatus) error {
	for i, req := range r.requests {
		if req.ID == id {
			r.requests[i].Status = status
			return nil
		}
	}
	return store.ErrNotFound
}
