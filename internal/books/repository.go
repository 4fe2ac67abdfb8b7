package books

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookward/bookward/internal/platform/httpx"
)

// CreateParams carries a new book's fields.
type CreateParams struct {
	Title       string
	Description string
	AuthorID    uuid.UUID
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookColumns = `id, title, description, author_id, created_at, updated_at`

// ListBooks returns a page of books plus the total count.
func (r *Repository) ListBooks(ctx context.Context, limit, offset int) ([]Book, int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookColumns+`, count(*) OVER() AS total
		 FROM books ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []Book
		total  int64
	)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.AuthorID,
			&b.CreatedAt, &b.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// GetBook fetches a single book.
func (r *Repository) GetBook(ctx context.Context, id int64) (Book, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	return scanBook(row)
}

// CreateBook inserts a new book.
func (r *Repository) CreateBook(ctx context.Context, params CreateParams) (Book, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO books (title, description, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING `+bookColumns,
		params.Title, params.Description, params.AuthorID)
	return scanBook(row)
}

// UpdateBook applies a partial update.
func (r *Repository) UpdateBook(ctx context.Context, id int64, params UpdateParams) (Book, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE books SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			updated_at  = now()
		 WHERE id = $1
		 RETURNING `+bookColumns,
		id, params.Title, params.Description)
	return scanBook(row)
}

// DeleteBook removes a book.
func (r *Repository) DeleteBook(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, httpx.ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}
