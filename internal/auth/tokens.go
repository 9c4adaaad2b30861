package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates a token failed signature, type or claim validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates a well-formed token whose lifetime has ended.
	ErrTokenExpired = errors.New("token expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	issuerName       = "vidtube"
)

type claims struct {
	Type     string `json:"typ"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access and refresh tokens. Access and
// refresh tokens use distinct secrets so one can never stand in for the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessSecret == "" || refreshSecret == "" {
		panic("auth: token secrets must not be empty")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (i *TokenIssuer) WithNowFunc(now func() time.Time) {
	i.now = now
}

// IssueAccess signs a short-lived access token for the identity.
func (i *TokenIssuer) IssueAccess(identity Identity) (string, time.Time, error) {
	return i.sign(tokenTypeAccess, identity, i.accessSecret, i.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the identity.
func (i *TokenIssuer) IssueRefresh(identity Identity) (string, time.Time, error) {
	return i.sign(tokenTypeRefresh, Identity{UserID: identity.UserID}, i.refreshSecret, i.refreshTTL)
}

// ParseAccess validates an access token and returns the identity it carries.
func (i *TokenIssuer) ParseAccess(token string) (Identity, error) {
	c, err := i.parse(token, tokenTypeAccess, i.accessSecret)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: c.Subject, Username: c.Username, Email: c.Email}, nil
}

// ParseRefresh validates a refresh token and returns the user id it was issued to.
func (i *TokenIssuer) ParseRefresh(token string) (string, error) {
	c, err := i.parse(token, tokenTypeRefresh, i.refreshSecret)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

func (i *TokenIssuer) sign(kind string, identity Identity, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if identity.UserID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}
	now := i.now().UTC()
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Type:     kind,
		Username: identity.Username,
		Email:    identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuerName,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

func (i *TokenIssuer) parse(token, kind string, secret []byte) (claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims{}, ErrTokenExpired
		}
		return claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Type != kind || c.Subject == "" {
		return claims{}, ErrInvalidToken
	}
	return c, nil
}
