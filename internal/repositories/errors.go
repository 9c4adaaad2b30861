package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/viewbuilder"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrConstraint indicates the attempted write breaks a check constraint.
	ErrConstraint = errors.New("record violates constraint")
)

// translate maps driver errors onto the repository sentinels and wraps the rest with op.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, viewbuilder.ErrNoDocuments) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		case "23514":
			return ErrConstraint
		case "22P02":
			// malformed uuid in a path parameter
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
