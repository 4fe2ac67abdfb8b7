package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookward/bookward/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, first_name, last_name, username, email, password_hash, role, is_active, created_at, updated_at, deleted_at`

// FindByUsername fetches a live account by its folded username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1 AND deleted_at IS NULL`,
		NormalizeUsername(username))
	return scanAccount(row)
}

// FindByID fetches a live account by ID.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanAccount(row)
}

// SetActive flips the activation flag. The update is a single-row write, so
// the data store's atomicity guarantee covers concurrent flips.
func (r *PGRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET is_active = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SoftDelete marks the account deleted. There is no undelete operation;
// reversal requires direct data intervention.
func (r *PGRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		acct      Account
		deletedAt *time.Time
	)
	err := row.Scan(&acct.ID, &acct.FirstName, &acct.LastName, &acct.Username, &acct.Email,
		&acct.PasswordHash, &acct.Role, &acct.IsActive, &acct.CreatedAt, &acct.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	acct.DeletedAt = deletedAt
	return &acct, nil
}
