package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/platform/httpx"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error)
	CreateUser(ctx context.Context, params CreateParams) (User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateParams) (User, error)
}

// Service handles user management business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Role      auth.Role
}

// UpdateInput carries a partial account update; nil fields are unchanged.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *auth.Role
	IsActive  *bool
}

// ListUsers returns one page of users with the total count.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

// CreateUser hashes the password and stores the account with a folded
// username so the uniqueness constraint is case-insensitive.
func (s *Service) CreateUser(ctx context.Context, input CreateInput) (User, error) {
	if !input.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, input.Role)
	}
	username := auth.NormalizeUsername(strings.TrimSpace(input.Username))
	if username == "" {
		return User{}, fmt.Errorf("%w: username required", httpx.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, CreateParams{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hash),
		Role:         input.Role,
	})
}

// UpdateUser applies a partial update.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateInput) (User, error) {
	if input.Role != nil && !input.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, *input.Role)
	}
	return s.repo.UpdateUser(ctx, id, UpdateParams{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Role:      input.Role,
		IsActive:  input.IsActive,
	})
}
