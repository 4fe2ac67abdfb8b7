package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(Config{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
	})
}

func TestRoundTrip(t *testing.T) {
	svc := newTestService()
	identity := Identity{Subject: "u1", Role: "author"}

	signed, err := svc.IssueAccessToken(identity)
	require.NoError(t, err)

	claims, err := svc.Verify(signed, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, identity, claims.Identity())
	assert.NotEmpty(t, claims.ID, "token must carry a jti")
}

func TestPairEncodesSameIdentity(t *testing.T) {
	svc := newTestService()
	identity := Identity{Subject: "u1", Role: "admin"}

	pair, err := svc.IssuePair(identity)
	require.NoError(t, err)

	access, err := svc.Verify(pair.AccessToken, KindAccess)
	require.NoError(t, err)
	refresh, err := svc.Verify(pair.RefreshToken, KindRefresh)
	require.NoError(t, err)

	assert.Equal(t, access.Identity(), refresh.Identity())
}

func TestSecretSeparation(t *testing.T) {
	svc := newTestService()
	identity := Identity{Subject: "u1", Role: "user"}

	access, err := svc.IssueAccessToken(identity)
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken(identity)
	require.NoError(t, err)

	_, err = svc.Verify(access, KindRefresh)
	assert.ErrorIs(t, err, ErrBadSignature)
	_, err = svc.Verify(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService()
	identity := Identity{Subject: "u1", Role: "user"}

	signed, err := svc.IssueAccessToken(identity)
	require.NoError(t, err)

	// Advance the verification clock past the access TTL.
	svc.now = func() time.Time { return time.Now().Add(svc.cfg.AccessTTL + time.Minute) }

	_, err = svc.Verify(signed, KindAccess)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMalformedToken(t *testing.T) {
	svc := newTestService()

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(input, KindAccess)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", input)
	}
}

func TestWrongIssuerRejected(t *testing.T) {
	other := NewService(Config{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		Issuer:        "someone-else",
	})
	signed, err := other.IssueAccessToken(Identity{Subject: "u1", Role: "user"})
	require.NoError(t, err)

	_, err = newTestService().Verify(signed, KindAccess)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDefaultsApplied(t *testing.T) {
	svc := newTestService()
	assert.Equal(t, 15*time.Minute, svc.AccessTTL())
	assert.Equal(t, 30*24*time.Hour, svc.RefreshTTL())
}
