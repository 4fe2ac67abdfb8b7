package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/authz"
	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/token"
	_ "github.com/bookward/bookward/testing"
)

func identity(role auth.Role) token.Identity {
	return token.Identity{Subject: uuid.NewString(), Role: string(role)}
}

func TestDecideTable(t *testing.T) {
	policy := authz.NewPolicy()

	cases := []struct {
		role   auth.Role
		action authz.Action
		want   authz.Decision
	}{
		{auth.RoleAdmin, authz.ActionUsersList, authz.Allow},
		{auth.RoleAuthor, authz.ActionUsersList, authz.Deny},
		{auth.RoleUser, authz.ActionUsersList, authz.Deny},
		{auth.RoleAdmin, authz.ActionUsersCreate, authz.Allow},
		{auth.RoleAuthor, authz.ActionUsersCreate, authz.Deny},
		{auth.RoleAdmin, authz.ActionUsersDelete, authz.Allow},
		{auth.RoleUser, authz.ActionUsersDelete, authz.Deny},
		{auth.RoleUser, authz.ActionUsersDeactivate, authz.Allow},
		{auth.RoleAuthor, authz.ActionUsersDeactivate, authz.Allow},
		{auth.RoleUser, authz.ActionBooksList, authz.Allow},
		{auth.RoleUser, authz.ActionBooksCreate, authz.Deny},
		{auth.RoleAuthor, authz.ActionBooksCreate, authz.Allow},
		{auth.RoleAdmin, authz.ActionBooksUpdate, authz.Allow},
		{auth.RoleAuthor, authz.ActionBooksUpdate, authz.Own},
		{auth.RoleUser, authz.ActionBooksUpdate, authz.Deny},
		{auth.RoleAuthor, authz.ActionBooksDelete, authz.Own},
		{auth.Role("ghost"), authz.ActionBooksList, authz.Deny},
		{auth.RoleAdmin, authz.Action("unknown.action"), authz.Deny},
	}
	for _, tc := range cases {
		got := policy.Decide(tc.role, tc.action)
		assert.Equal(t, tc.want, got, "role=%s action=%s", tc.role, tc.action)
	}
}

func TestAuthorizeRequiresAllow(t *testing.T) {
	policy := authz.NewPolicy()

	assert.NoError(t, policy.Authorize(identity(auth.RoleAdmin), authz.ActionUsersList))
	assert.ErrorIs(t, policy.Authorize(identity(auth.RoleUser), authz.ActionUsersList), httpx.ErrForbidden)

	// An Own entry is not enough without a concrete resource.
	assert.ErrorIs(t, policy.Authorize(identity(auth.RoleAuthor), authz.ActionBooksUpdate), httpx.ErrForbidden)
}

func TestAuthorizeOwner(t *testing.T) {
	policy := authz.NewPolicy()
	author := identity(auth.RoleAuthor)
	otherOwner := uuid.NewString()

	// An author may touch their own book but not someone else's.
	assert.NoError(t, policy.AuthorizeOwner(author, authz.ActionBooksUpdate, author.Subject))
	assert.ErrorIs(t, policy.AuthorizeOwner(author, authz.ActionBooksUpdate, otherOwner), httpx.ErrForbidden)
	assert.ErrorIs(t, policy.AuthorizeOwner(author, authz.ActionBooksDelete, otherOwner), httpx.ErrForbidden)

	// Admins bypass the ownership match entirely.
	assert.NoError(t, policy.AuthorizeOwner(identity(auth.RoleAdmin), authz.ActionBooksDelete, otherOwner))

	// A Deny entry stays denied even for the owner.
	user := identity(auth.RoleUser)
	assert.ErrorIs(t, policy.AuthorizeOwner(user, authz.ActionBooksUpdate, user.Subject), httpx.ErrForbidden)

	// A blank owner never matches.
	assert.ErrorIs(t, policy.AuthorizeOwner(author, authz.ActionBooksUpdate, ""), httpx.ErrForbidden)
}

func TestRequireMiddleware(t *testing.T) {
	policy := authz.NewPolicy()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := policy.Require(authz.ActionUsersList)(next)

	t.Run("no identity", func(t *testing.T) {
		res := httptest.NewRecorder()
		guarded.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity(auth.RoleUser)))
		res := httptest.NewRecorder()
		guarded.ServeHTTP(res, req)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("allowed role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity(auth.RoleAdmin)))
		res := httptest.NewRecorder()
		guarded.ServeHTTP(res, req)
		assert.Equal(t, http.StatusNoContent, res.Code)
	})
}
