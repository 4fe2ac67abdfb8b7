package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/bookward/bookward/internal/auth"
)

// User represents a user account for management. The password hash never
// leaves the repository layer.
type User struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
