// Package authz decides whether a verified identity may perform an action.
// Decisions live in one table (action × role) instead of per-route middleware
// chains, so the rules are centrally testable.
package authz

import (
	"fmt"
	"net/http"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/token"
)

// Action names a guarded operation.
type Action string

const (
	ActionUsersList       Action = "users.list"
	ActionUsersCreate     Action = "users.create"
	ActionUsersUpdate     Action = "users.update"
	ActionUsersDelete     Action = "users.delete"
	ActionUsersDeactivate Action = "users.deactivate"
	ActionBooksList       Action = "books.list"
	ActionBooksGet        Action = "books.get"
	ActionBooksCreate     Action = "books.create"
	ActionBooksUpdate     Action = "books.update"
	ActionBooksDelete     Action = "books.delete"
)

// Decision is the outcome of a table lookup.
type Decision int

const (
	// Deny refuses the action outright.
	Deny Decision = iota
	// Allow permits the action on any resource.
	Allow
	// Own permits the action only when the resource owner matches the
	// identity's subject.
	Own
)

// Policy is the authorization table. Unknown actions and unknown roles deny.
type Policy struct {
	rules map[Action]map[auth.Role]Decision
}

// NewPolicy builds the default table: admins manage everything, authors manage
// their own books, plain users only get self-service deactivation. Book reads
// are public (the catalog); the user listing is admin-only.
func NewPolicy() *Policy {
	return &Policy{rules: map[Action]map[auth.Role]Decision{
		ActionUsersList:   {auth.RoleAdmin: Allow},
		ActionUsersCreate: {auth.RoleAdmin: Allow},
		ActionUsersUpdate: {auth.RoleAdmin: Allow},
		ActionUsersDelete: {auth.RoleAdmin: Allow},
		ActionUsersDeactivate: {
			auth.RoleAdmin:  Allow,
			auth.RoleAuthor: Allow,
			auth.RoleUser:   Allow,
		},
		ActionBooksList: {
			auth.RoleAdmin:  Allow,
			auth.RoleAuthor: Allow,
			auth.RoleUser:   Allow,
		},
		ActionBooksGet: {
			auth.RoleAdmin:  Allow,
			auth.RoleAuthor: Allow,
			auth.RoleUser:   Allow,
		},
		ActionBooksCreate: {
			auth.RoleAdmin:  Allow,
			auth.RoleAuthor: Allow,
		},
		ActionBooksUpdate: {
			auth.RoleAdmin:  Allow,
			auth.RoleAuthor: Own,
		},
		ActionBooksDelete: {
			auth.RoleAdmin:  Allow,
			auth.RoleAuthor: Own,
		},
	}}
}

// Decide looks up the table entry for a role and action.
func (p *Policy) Decide(role auth.Role, action Action) Decision {
	byRole, ok := p.rules[action]
	if !ok {
		return Deny
	}
	return byRole[role]
}

// Authorize permits actions that need no ownership context. An Own entry is
// not enough here; callers with a concrete resource use AuthorizeOwner.
func (p *Policy) Authorize(identity token.Identity, action Action) error {
	if p.Decide(auth.Role(identity.Role), action) == Allow {
		return nil
	}
	return fmt.Errorf("%w: %s", httpx.ErrForbidden, action)
}

// AuthorizeOwner permits an action against a resource owned by ownerID.
// Callers must confirm the resource exists first so a missing resource yields
// not-found rather than forbidden.
func (p *Policy) AuthorizeOwner(identity token.Identity, action Action, ownerID string) error {
	switch p.Decide(auth.Role(identity.Role), action) {
	case Allow:
		return nil
	case Own:
		if ownerID != "" && ownerID == identity.Subject {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", httpx.ErrForbidden, action)
}

// Require is route middleware enforcing a table entry with no ownership
// context. The identity must already be attached by the authentication gate.
func (p *Policy) Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if err := p.Authorize(identity, action); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
