package books

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/authz"
	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/token"
)

// RepositoryPort defines data access methods for books.
type RepositoryPort interface {
	ListBooks(ctx context.Context, limit, offset int) ([]Book, int64, error)
	GetBook(ctx context.Context, id int64) (Book, error)
	CreateBook(ctx context.Context, params CreateParams) (Book, error)
	UpdateBook(ctx context.Context, id int64, params UpdateParams) (Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// Service handles book business logic, including the ownership checks that
// need the stored record. Existence is confirmed before ownership so a missing
// book yields not-found rather than forbidden.
type Service struct {
	repo   RepositoryPort
	policy *authz.Policy
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, policy *authz.Policy) *Service {
	return &Service{repo: repo, policy: policy}
}

// CreateInput carries the fields for a new book. AuthorID overrides the
// creator as owner; only admins may set it.
type CreateInput struct {
	Title       string
	Description string
	AuthorID    *uuid.UUID
}

// UpdateInput carries a partial book update; nil fields are unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
}

// ListBooks returns one page of the public catalog.
func (s *Service) ListBooks(ctx context.Context, limit, offset int) ([]Book, int64, error) {
	return s.repo.ListBooks(ctx, limit, offset)
}

// GetBook fetches a single catalog entry.
func (s *Service) GetBook(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetBook(ctx, id)
}

// CreateBook stores a new book owned by the caller, or by the named author
// when an admin creates on someone's behalf.
func (s *Service) CreateBook(ctx context.Context, identity token.Identity, input CreateInput) (Book, error) {
	if err := s.policy.Authorize(identity, authz.ActionBooksCreate); err != nil {
		return Book{}, err
	}
	owner, err := uuid.Parse(identity.Subject)
	if err != nil {
		return Book{}, httpx.ErrUnauthorized
	}
	if input.AuthorID != nil && *input.AuthorID != owner {
		if auth.Role(identity.Role) != auth.RoleAdmin {
			return Book{}, fmt.Errorf("%w: cannot create a book for another author", httpx.ErrForbidden)
		}
		owner = *input.AuthorID
	}
	return s.repo.CreateBook(ctx, CreateParams{
		Title:       input.Title,
		Description: input.Description,
		AuthorID:    owner,
	})
}

// UpdateBook applies a partial update after the ownership check.
func (s *Service) UpdateBook(ctx context.Context, identity token.Identity, id int64, input UpdateInput) (Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if err := s.policy.AuthorizeOwner(identity, authz.ActionBooksUpdate, book.AuthorID.String()); err != nil {
		return Book{}, err
	}
	return s.repo.UpdateBook(ctx, id, UpdateParams{
		Title:       input.Title,
		Description: input.Description,
	})
}

// DeleteBook removes a book after the ownership check.
func (s *Service) DeleteBook(ctx context.Context, identity token.Identity, id int64) error {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.AuthorizeOwner(identity, authz.ActionBooksDelete, book.AuthorID.String()); err != nil {
		return err
	}
	return s.repo.DeleteBook(ctx, id)
}
