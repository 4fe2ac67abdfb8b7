package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/platform/httpx"
)

// CreateParams carries a new account's fields. PasswordHash is already hashed
// by the service.
type CreateParams struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	Role         auth.Role
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *auth.Role
	IsActive  *bool
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, first_name, last_name, username, email, role, is_active, created_at, updated_at`

// ListUsers returns a page of live users plus the total count.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+`, count(*) OVER() AS total
		 FROM accounts WHERE deleted_at IS NULL
		 ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []User
		total  int64
	)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// CreateUser inserts a new account. A username or email collision maps to the
// duplicate sentinel.
func (r *Repository) CreateUser(ctx context.Context, params CreateParams) (User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (id, first_name, last_name, username, email, password_hash, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
		 RETURNING `+userColumns,
		uuid.New(), params.FirstName, params.LastName, params.Username, params.Email,
		params.PasswordHash, params.Role)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, httpx.ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

// UpdateUser applies a partial update to a live account.
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateParams) (User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE accounts SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			email      = COALESCE($4, email),
			role       = COALESCE($5, role),
			is_active  = COALESCE($6, is_active),
			updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+userColumns,
		id, params.FirstName, params.LastName, params.Email, params.Role, params.IsActive)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, httpx.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, httpx.ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
