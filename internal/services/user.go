package services

import (
	"context"

	"github.com/summittax/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	SetRole(ctx context.Context, id int, role types.Role) error
	SetAvatarKey(ctx context.Context, id int, key string) error
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	ListAll(ctx context.Context) ([]types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Update(ctx, user)
}

// SetRole assigns the role. Assigning a role the user already holds is a
// no-op that still succeeds.
func (s *UserService) SetRole(ctx context.Context, id int, role types.Role) error {
	return s.repo.SetRole(ctx, id, role)
}

func (s *UserService) SetAvatarKey(ctx context.Context, id int, key string) error {
	return s.repo.SetAvatarKey(ctx, id, key)
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *UserService) ListAll(ctx context.Context) ([]types.User, error) {
	return s.repo.ListAll(ctx)
}
