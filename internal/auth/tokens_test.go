package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("a", "r", time.Minute, time.Hour)

	access, exp, err := issuer.IssueAccess(Identity{UserID: "u1", Username: "alice", Email: "a@example.com"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	identity, err := issuer.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Username: "alice", Email: "a@example.com"}, identity)

	refresh, _, err := issuer.IssueRefresh(Identity{UserID: "u1"})
	require.NoError(t, err)
	userID, err := issuer.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestTokenIssuerRejectsForeignSecretAndAlgorithm(t *testing.T) {
	issuer := NewTokenIssuer("a", "r", time.Minute, time.Hour)
	other := NewTokenIssuer("other", "other-r", time.Minute, time.Hour)

	access, _, err := other.IssueAccess(Identity{UserID: "u1"})
	require.NoError(t, err)
	_, err = issuer.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		Type:             tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: issuerName, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerExpiry(t *testing.T) {
	issuer := NewTokenIssuer("a", "r", time.Minute, time.Hour)
	access, _, err := issuer.IssueAccess(Identity{UserID: "u1"})
	require.NoError(t, err)

	issuer.WithNowFunc(func() time.Time { return time.Now().Add(time.Hour) })
	_, err = issuer.ParseAccess(access)
	assert.True(t, errors.Is(err, ErrTokenExpired), "got %v", err)
}
