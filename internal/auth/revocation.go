package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookward/bookward/internal/token"
)

const (
	revokedTokenPrefix   = "auth:revoked:jti:"
	revokedSubjectPrefix = "auth:revoked:sub:"
)

// Revocations is a Redis-backed revocation list. Tokens themselves stay
// stateless; the list only records refresh JTIs retired by rotation or logout
// and per-subject revoke-all marks written on deactivation and soft deletion.
// Every entry expires with the longest outstanding token, so the list never
// grows beyond the refresh window.
type Revocations struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocations constructs a Revocations store.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, now: time.Now}
}

// RevokeToken lists a single token's JTI until the token would have expired.
func (r *Revocations) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("auth: jti required")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing to track.
		return nil
	}
	return r.client.Set(ctx, revokedTokenPrefix+jti, "1", ttl).Err()
}

// RevokeSubject invalidates every token issued to the subject before now.
// The mark outlives the refresh window so no outstanding token survives it.
func (r *Revocations) RevokeSubject(ctx context.Context, subject string, window time.Duration) error {
	if subject == "" {
		return errors.New("auth: subject required")
	}
	mark := strconv.FormatInt(r.now().Unix(), 10)
	return r.client.Set(ctx, revokedSubjectPrefix+subject, mark, window).Err()
}

// IsRevoked reports whether the verified claims have been revoked, either
// individually by JTI or through a subject-wide mark.
func (r *Revocations) IsRevoked(ctx context.Context, claims *token.Claims) (bool, error) {
	if claims == nil {
		return true, nil
	}
	listed, err := r.client.Exists(ctx, revokedTokenPrefix+claims.ID).Result()
	if err != nil {
		return false, err
	}
	if listed > 0 {
		return true, nil
	}

	mark, err := r.client.Get(ctx, revokedSubjectPrefix+claims.Subject).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	markUnix, err := strconv.ParseInt(mark, 10, 64)
	if err != nil {
		return false, err
	}
	if claims.IssuedAt == nil {
		return true, nil
	}
	// Marks have second granularity; a token issued in the same second as the
	// revocation is treated as revoked.
	return !claims.IssuedAt.Time.After(time.Unix(markUnix, 0)), nil
}
