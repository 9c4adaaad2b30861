package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated indicates the request carries no valid identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the authenticated principal of a request.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

type identityKey struct{}

// WithIdentity stores the identity on the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.UserID == "" {
		return Identity{}, false
	}
	return identity, true
}

// RequireIdentity is IdentityFromContext returning ErrUnauthenticated when absent.
func RequireIdentity(ctx context.Context) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return identity, nil
}
