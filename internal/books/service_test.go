package books

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/authz"
	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/token"
	_ "github.com/bookward/bookward/testing"
)

type mockRepository struct {
	books  map[int64]Book
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{books: make(map[int64]Book), nextID: 1}
}

func (m *mockRepository) ListBooks(ctx context.Context, limit, offset int) ([]Book, int64, error) {
	all := make([]Book, 0, len(m.books))
	for _, b := range m.books {
		all = append(all, b)
	}
	return all, int64(len(all)), nil
}

func (m *mockRepository) GetBook(ctx context.Context, id int64) (Book, error) {
	b, ok := m.books[id]
	if !ok {
		return Book{}, httpx.ErrNotFound
	}
	return b, nil
}

func (m *mockRepository) CreateBook(ctx context.Context, params CreateParams) (Book, error) {
	b := Book{
		ID:          m.nextID,
		Title:       params.Title,
		Description: params.Description,
		AuthorID:    params.AuthorID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.nextID++
	m.books[b.ID] = b
	return b, nil
}

func (m *mockRepository) UpdateBook(ctx context.Context, id int64, params UpdateParams) (Book, error) {
	b, ok := m.books[id]
	if !ok {
		return Book{}, httpx.ErrNotFound
	}
	if params.Title != nil {
		b.Title = *params.Title
	}
	if params.Description != nil {
		b.Description = *params.Description
	}
	m.books[id] = b
	return b, nil
}

func (m *mockRepository) DeleteBook(ctx context.Context, id int64) error {
	if _, ok := m.books[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func asIdentity(role auth.Role) token.Identity {
	return token.Identity{Subject: uuid.NewString(), Role: string(role)}
}

func seedBook(t *testing.T, repo *mockRepository, owner token.Identity) Book {
	t.Helper()
	ownerID, err := uuid.Parse(owner.Subject)
	require.NoError(t, err)
	book, err := repo.CreateBook(context.Background(), CreateParams{
		Title:    "Seeded",
		AuthorID: ownerID,
	})
	require.NoError(t, err)
	return book
}

func TestCreateBookOwnedByCaller(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, authz.NewPolicy())
	author := asIdentity(auth.RoleAuthor)

	book, err := service.CreateBook(context.Background(), author, CreateInput{Title: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, author.Subject, book.AuthorID.String())
}

func TestCreateBookDeniedForPlainUsers(t *testing.T) {
	service := NewService(newMockRepository(), authz.NewPolicy())

	_, err := service.CreateBook(context.Background(), asIdentity(auth.RoleUser), CreateInput{Title: "Nope"})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateBookForAnotherAuthor(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, authz.NewPolicy())
	other := uuid.New()

	// Authors cannot assign ownership elsewhere.
	_, err := service.CreateBook(context.Background(), asIdentity(auth.RoleAuthor), CreateInput{
		Title:    "Ghostwritten",
		AuthorID: &other,
	})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// Admins can.
	book, err := service.CreateBook(context.Background(), asIdentity(auth.RoleAdmin), CreateInput{
		Title:    "Commissioned",
		AuthorID: &other,
	})
	require.NoError(t, err)
	assert.Equal(t, other, book.AuthorID)
}

func TestUpdateBookOwnership(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, authz.NewPolicy())
	owner := asIdentity(auth.RoleAuthor)
	book := seedBook(t, repo, owner)

	title := "Renamed"

	// The owner may update.
	updated, err := service.UpdateBook(context.Background(), owner, book.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	// A different author may not.
	_, err = service.UpdateBook(context.Background(), asIdentity(auth.RoleAuthor), book.ID, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// An admin may update anyone's book.
	_, err = service.UpdateBook(context.Background(), asIdentity(auth.RoleAdmin), book.ID, UpdateInput{Title: &title})
	assert.NoError(t, err)
}

func TestUpdateMissingBookIsNotFoundBeforeForbidden(t *testing.T) {
	service := NewService(newMockRepository(), authz.NewPolicy())
	title := "Renamed"

	// Even a caller who could never own the book sees not-found; existence is
	// checked before ownership.
	_, err := service.UpdateBook(context.Background(), asIdentity(auth.RoleUser), 42, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteBookOwnership(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, authz.NewPolicy())
	owner := asIdentity(auth.RoleAuthor)

	book := seedBook(t, repo, owner)
	err := service.DeleteBook(context.Background(), asIdentity(auth.RoleAuthor), book.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, service.DeleteBook(context.Background(), owner, book.ID))

	// Gone now.
	err = service.DeleteBook(context.Background(), owner, book.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
