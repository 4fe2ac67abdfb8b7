// Package token issues and verifies the signed access and refresh tokens
// carrying a user identity and role claim. Tokens are stateless; validity is
// determined solely by signature and expiry at verification time.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which signing secret a token is bound to.
type Kind string

const (
	// KindAccess marks short-lived tokens presented on every protected request.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived tokens used solely to mint a new pair.
	KindRefresh Kind = "refresh"
)

// Typed verification failures. Handlers collapse all of them to a single
// unauthorized response; the distinction is kept for logging.
var (
	ErrMalformed    = errors.New("token: malformed")
	ErrExpired      = errors.New("token: expired")
	ErrBadSignature = errors.New("token: bad signature")
)

// Identity is the payload embedded in every issued token. It is derived from
// the account at issuance time and never recomputed mid-lifetime.
type Identity struct {
	Subject string
	Role    string
}

// Claims is the JWT claim set for both token kinds.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity reconstructs the embedded identity from verified claims.
func (c *Claims) Identity() Identity {
	return Identity{Subject: c.Subject, Role: c.Role}
}

// Pair bundles the access and refresh tokens issued together. Both always
// encode the same identity.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Config holds the signing secrets and lifetimes. It is passed by ownership
// into NewService so tests can run with isolated keys.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
	defaultIssuer     = "bookward"
)

// Service signs and verifies tokens. It is stateless and safe for concurrent use.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService constructs a Service, applying defaults for unset lifetimes.
func NewService(cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	return &Service{cfg: cfg, now: time.Now}
}

// AccessTTL exposes the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// RefreshTTL exposes the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

// IssueAccessToken produces a signed, time-bounded access token.
func (s *Service) IssueAccessToken(identity Identity) (string, error) {
	return s.issue(identity, KindAccess, s.cfg.AccessTTL)
}

// IssueRefreshToken produces a signed, time-bounded refresh token.
func (s *Service) IssueRefreshToken(identity Identity) (string, error) {
	return s.issue(identity, KindRefresh, s.cfg.RefreshTTL)
}

// IssuePair issues an access and refresh token encoding the same identity.
func (s *Service) IssuePair(identity Identity) (Pair, error) {
	access, err := s.IssueAccessToken(identity)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.IssueRefreshToken(identity)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks the token signature against the secret associated with the
// expected kind and validates its time bounds. A token signed with the other
// kind's secret fails with ErrBadSignature.
func (s *Service) Verify(tokenString string, kind Kind) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformed
	}
	secret, err := s.secretFor(kind)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapVerificationError(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

func (s *Service) issue(identity Identity, kind Kind, ttl time.Duration) (string, error) {
	secret, err := s.secretFor(kind)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	claims := Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *Service) secretFor(kind Kind) ([]byte, error) {
	switch kind {
	case KindAccess:
		if len(s.cfg.AccessSecret) == 0 {
			return nil, errors.New("token: access secret not configured")
		}
		return s.cfg.AccessSecret, nil
	case KindRefresh:
		if len(s.cfg.RefreshSecret) == 0 {
			return nil, errors.New("token: refresh secret not configured")
		}
		return s.cfg.RefreshSecret, nil
	default:
		return nil, errors.New("token: unknown kind")
	}
}

func mapVerificationError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrMalformed
	}
}
