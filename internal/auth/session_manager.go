package auth

import (
	"context"
	"errors"
	"time"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// SessionStore persists the single active refresh token of each user.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, userID string) (Session, error)
	Delete(ctx context.Context, userID string) error
}

// Session is the refresh token currently issued to a user.
type Session struct {
	Identity     Identity
	RefreshToken string
}

// Manager manages the lifecycle of issued session tokens backed by a persistent store.
type Manager struct {
	tokens *TokenIssuer
	store  SessionStore
}

// NewManager constructs a Manager that signs tokens with issuer and records
// refresh tokens in store.
func NewManager(tokens *TokenIssuer, store SessionStore) *Manager {
	if tokens == nil || store == nil {
		panic("auth: token issuer and session store must not be nil")
	}
	return &Manager{tokens: tokens, store: store}
}

// Issue creates a new pair of access and refresh tokens for the identity,
// replacing any refresh token issued before.
func (m *Manager) Issue(ctx context.Context, identity Identity) (models.SessionTokens, error) {
	if identity.UserID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	access, accessExp, err := m.tokens.IssueAccess(identity)
	if err != nil {
		return models.SessionTokens{}, err
	}
	refresh, refreshExp, err := m.tokens.IssueRefresh(identity)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.Save(ctx, Session{Identity: identity, RefreshToken: refresh}); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges the user's current refresh token for a new pair. A
// validly signed token that is no longer the stored one is rejected.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	userID, err := m.tokens.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return models.SessionTokens{}, ErrRefreshTokenExpired
		}
		return models.SessionTokens{}, err
	}

	session, err := m.store.Find(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if session.RefreshToken != refreshToken {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	return m.Issue(ctx, session.Identity)
}

// Authenticate validates an access token.
func (m *Manager) Authenticate(accessToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, ErrUnauthenticated
	}
	return m.tokens.ParseAccess(accessToken)
}

// Revoke clears the user's stored refresh token.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.Delete(ctx, userID)
}

// AccessTTL and RefreshTTL expose the token lifetimes for cookie expiry.
func (m *Manager) AccessTTL() time.Duration  { return m.tokens.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.tokens.refreshTTL }
