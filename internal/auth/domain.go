package auth

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Role groups accounts into the three permission tiers.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleUser   Role = "user"
)

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuthor, RoleUser:
		return true
	}
	return false
}

// Account represents a user account row. Soft-deleted accounts keep their row
// with DeletedAt set and are excluded from lookups.
type Account struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Disabled reports whether the account must be refused at the request gate.
func (a *Account) Disabled() bool {
	return a == nil || !a.IsActive || a.DeletedAt != nil
}

// NormalizeUsername applies Unicode case folding so lookups and the uniqueness
// constraint treat "Reader" and "reader" as the same account. A fresh Caser is
// built per call; Casers are stateful and not safe to share.
func NormalizeUsername(username string) string {
	return cases.Fold().String(username)
}
