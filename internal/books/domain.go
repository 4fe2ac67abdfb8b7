package books

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a catalog entry. AuthorID is the ownership link checked by
// the authorization policy: authors may only mutate their own books.
type Book struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AuthorID    uuid.UUID `json:"authorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
