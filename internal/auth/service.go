package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/token"
)

// ErrAccountDisabled marks a structurally valid token whose account has since
// been deactivated or soft-deleted. It surfaces to callers as a plain 401; the
// distinction exists for logging only.
var ErrAccountDisabled = errors.New("auth: account disabled")

// Service orchestrates login, token refresh, and account state transitions.
type Service struct {
	repo        Repository
	tokens      *token.Service
	revocations *Revocations
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *token.Service, revocations *Revocations, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, revocations: revocations, logger: logger}
}

// Login validates username/password credentials and issues a token pair.
// Unknown usernames, wrong passwords, and disabled accounts all fail with the
// same error so callers cannot enumerate usernames.
func (s *Service) Login(ctx context.Context, username, password string) (token.Pair, error) {
	acct, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return token.Pair{}, httpx.ErrInvalidCredentials
		}
		return token.Pair{}, err
	}
	if acct.Disabled() {
		s.logger.Info("login refused for disabled account", slog.String("account_id", acct.ID.String()))
		return token.Pair{}, httpx.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return token.Pair{}, httpx.ErrInvalidCredentials
	}
	// The role is copied verbatim at issuance; a later role change takes
	// effect on the next issued token, not mid-lifetime.
	identity := token.Identity{Subject: acct.ID.String(), Role: string(acct.Role)}
	return s.tokens.IssuePair(identity)
}

// Refresh verifies a refresh token and mints a brand-new pair from the
// embedded identity, retiring the presented token (rotation). Account status
// is re-checked so refresh dies with the account.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	claims, err := s.tokens.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		s.logger.Info("refresh token rejected", slog.String("reason", err.Error()))
		return token.Pair{}, httpx.ErrUnauthorized
	}
	if err := s.checkLive(ctx, claims); err != nil {
		return token.Pair{}, err
	}

	if claims.ExpiresAt != nil {
		if err := s.revocations.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return token.Pair{}, err
		}
	}
	return s.tokens.IssuePair(claims.Identity())
}

// Logout retires the presented refresh token. The short-lived access token is
// left to expire naturally.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return httpx.ErrUnauthorized
	}
	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.revocations.RevokeToken(ctx, claims.ID, expiresAt)
}

// Deactivate flips the caller's own account to inactive and revokes all of its
// outstanding tokens. Deactivating an already inactive account is a no-op.
func (s *Service) Deactivate(ctx context.Context, subject string) error {
	id, err := uuid.Parse(subject)
	if err != nil {
		return httpx.ErrUnauthorized
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !acct.IsActive {
		return nil
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	return s.revocations.RevokeSubject(ctx, subject, s.tokens.RefreshTTL())
}

// SoftDelete marks the target account deleted and revokes its tokens. Role
// checks happen upstream in the authorization policy; cascading book cleanup
// is the data store's concern.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	return s.revocations.RevokeSubject(ctx, id.String(), s.tokens.RefreshTTL())
}

// checkLive rejects verified claims whose account no longer exists, was
// deactivated, was soft-deleted, or whose tokens were revoked.
func (s *Service) checkLive(ctx context.Context, claims *token.Claims) error {
	revoked, err := s.revocations.IsRevoked(ctx, claims)
	if err != nil {
		return err
	}
	if revoked {
		s.logger.Info("revoked token presented", slog.String("subject", claims.Subject))
		return httpx.ErrUnauthorized
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return httpx.ErrUnauthorized
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return httpx.ErrUnauthorized
		}
		return err
	}
	if acct.Disabled() {
		s.logger.Info("token presented for disabled account", slog.String("account_id", claims.Subject))
		return httpx.ErrUnauthorized
	}
	return nil
}
