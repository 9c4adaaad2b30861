package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/db"
)

// PostgresSessionStore keeps each user's current refresh token on the users row.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save replaces the user's refresh token.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2
        WHERE id = $1
    `, session.Identity.UserID, session.RefreshToken)
	if err != nil {
		return translate(err, "store refresh token")
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// Find loads the user's identity and current refresh token.
func (s *PostgresSessionStore) Find(ctx context.Context, userID string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var session auth.Session
	err = conn.QueryRow(ctx, `
        SELECT id, username, email, refresh_token
        FROM users
        WHERE id = $1
    `, userID).Scan(&session.Identity.UserID, &session.Identity.Username, &session.Identity.Email, &session.RefreshToken)
	if err != nil {
		if errors.Is(translate(err, ""), ErrNotFound) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("select session: %w", err)
	}
	if session.RefreshToken == "" {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	return session, nil
}

// Delete clears the user's refresh token.
func (s *PostgresSessionStore) Delete(ctx context.Context, userID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = ''
        WHERE id = $1
    `, userID); err != nil {
		return translate(err, "clear refresh token")
	}
	return nil
}
