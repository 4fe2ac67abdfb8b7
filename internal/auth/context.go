package auth

import (
	"context"

	"github.com/bookward/bookward/internal/token"
)

type identityContextKey struct{}

// ContextWithIdentity stores the verified identity in the request context.
func ContextWithIdentity(ctx context.Context, identity token.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the identity placed by the request gate.
func IdentityFromContext(ctx context.Context) (token.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(token.Identity)
	return identity, ok
}
