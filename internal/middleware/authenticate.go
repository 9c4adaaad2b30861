package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// Cookie names used for browser sessions.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// TokenAuthenticator validates access tokens.
type TokenAuthenticator interface {
	Authenticate(accessToken string) (auth.Identity, error)
}

// UserLookup resolves the account behind a token.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Authenticator attaches the caller's identity to the request context.
type Authenticator struct {
	Tokens TokenAuthenticator
	Users  UserLookup
}

// Require rejects requests without a valid access token for an existing user.
func (a Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.identify(r)
		if err != nil {
			logging.FromContext(r.Context()).Warn("request unauthenticated", "error", err)
			writeEnvelope(w, http.StatusUnauthorized, "unauthorized request")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches an identity when the request carries a valid token and
// otherwise serves the request anonymously.
func (a Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.identify(r)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				logging.FromContext(r.Context()).Debug("ignoring invalid access token", "error", err)
			}
			ctx = r.Context()
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a Authenticator) identify(r *http.Request) (context.Context, error) {
	if a.Tokens == nil {
		return nil, auth.ErrUnauthenticated
	}
	identity, err := a.Tokens.Authenticate(AccessToken(r))
	if err != nil {
		return nil, err
	}

	ctx := r.Context()
	if a.Users != nil {
		user, err := a.Users.FindByID(ctx, identity.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, auth.ErrInvalidToken
			}
			return nil, err
		}
		identity.Username = user.Username
		identity.Email = user.Email
	}

	ctx = auth.WithIdentity(ctx, identity)
	return logging.WithUserID(ctx, identity.UserID), nil
}

// AccessToken reads the access token from the cookie or a Bearer header.
func AccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
