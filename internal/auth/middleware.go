package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookward/bookward/internal/platform/httpx"
	"github.com/bookward/bookward/internal/token"
)

// FailureRecorder counts authentication failures by internal reason.
type FailureRecorder interface {
	AuthFailure(reason string)
}

// Middleware gates protected routes. It verifies the bearer token, re-checks
// live account status on every request so a deactivated or soft-deleted
// account is rejected even while its tokens are still unexpired, and attaches
// the identity to the request context.
type Middleware struct {
	service *Service
	logger  *slog.Logger
	metrics FailureRecorder
}

// NewMiddleware constructs the request gate. metrics may be nil.
func NewMiddleware(service *Service, logger *slog.Logger, metrics FailureRecorder) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return Middleware{service: service, logger: logger, metrics: metrics}
}

// Authenticate short-circuits with 401 before any domain logic executes when
// the bearer token or account state is not acceptable.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			m.countFailure("missing_token")
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		claims, err := m.service.tokens.Verify(raw, token.KindAccess)
		if err != nil {
			// Malformed, expired, and bad-signature all collapse to 401.
			m.logger.Info("access token rejected",
				slog.String("reason", err.Error()),
				slog.String("path", r.URL.Path))
			m.countFailure(failureReason(err))
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		if err := m.service.checkLive(r.Context(), claims); err != nil {
			m.countFailure("revoked_or_disabled")
			httpx.RespondError(w, err)
			return
		}

		ctx := ContextWithIdentity(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) countFailure(reason string) {
	if m.metrics != nil {
		m.metrics.AuthFailure(reason)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return strings.TrimSpace(raw), true
}
