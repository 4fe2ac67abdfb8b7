package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookward/bookward/internal/auth"
	"github.com/bookward/bookward/internal/token"
)

type failureCounter struct {
	mu      sync.Mutex
	reasons map[string]int
}

func (c *failureCounter) AuthFailure(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reasons == nil {
		c.reasons = make(map[string]int)
	}
	c.reasons[reason]++
}

func (c *failureCounter) count(reason string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reasons[reason]
}

func gatedHandler(gate auth.Middleware) (http.Handler, *token.Identity) {
	var seen token.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := auth.IdentityFromContext(r.Context()); ok {
			seen = identity
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return gate.Authenticate(next), &seen
}

func TestAuthenticatePassesValidToken(t *testing.T) {
	service, repo, _ := newAuthFixture(t)
	acct := newAccount(t, "writer", auth.RoleAuthor)
	repo.add(acct)

	pair, err := service.Login(context.Background(), "writer", testPassword)
	require.NoError(t, err)

	handler, seen := gatedHandler(auth.NewMiddleware(service, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, acct.ID.String(), seen.Subject)
	assert.Equal(t, string(auth.RoleAuthor), seen.Role)
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	metrics := &failureCounter{}
	handler, _ := gatedHandler(auth.NewMiddleware(service, nil, metrics))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, 1, metrics.count("missing_token"))
}

func TestAuthenticateRejectsTamperedToken(t *testing.T) {
	service, repo, _ := newAuthFixture(t)
	repo.add(newAccount(t, "writer", auth.RoleAuthor))

	pair, err := service.Login(context.Background(), "writer", testPassword)
	require.NoError(t, err)

	metrics := &failureCounter{}
	handler, _ := gatedHandler(auth.NewMiddleware(service, nil, metrics))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken+"x")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, 1, metrics.count("bad_signature"))
}

func TestAuthenticateRejectsRefreshTokenAtGate(t *testing.T) {
	service, repo, _ := newAuthFixture(t)
	repo.add(newAccount(t, "writer", auth.RoleAuthor))

	pair, err := service.Login(context.Background(), "writer", testPassword)
	require.NoError(t, err)

	handler, _ := gatedHandler(auth.NewMiddleware(service, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticateRejectsDeactivatedAccount(t *testing.T) {
	service, repo, _ := newAuthFixture(t)
	acct := newAccount(t, "reader", auth.RoleUser)
	repo.add(acct)

	pair, err := service.Login(context.Background(), "reader", testPassword)
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(context.Background(), acct.ID.String()))

	metrics := &failureCounter{}
	handler, _ := gatedHandler(auth.NewMiddleware(service, nil, metrics))

	// The access token itself is still unexpired; the live check refuses it.
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, 1, metrics.count("revoked_or_disabled"))
}

func TestAuthenticateRejectsSoftDeletedAccount(t *testing.T) {
	service, repo, _ := newAuthFixture(t)
	acct := newAccount(t, "writer", auth.RoleAuthor)
	repo.add(acct)

	pair, err := service.Login(context.Background(), "writer", testPassword)
	require.NoError(t, err)

	require.NoError(t, service.SoftDelete(context.Background(), acct.ID))

	handler, _ := gatedHandler(auth.NewMiddleware(service, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
