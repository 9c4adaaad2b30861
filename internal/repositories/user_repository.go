package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const userColumns = `id, username, email, fullname, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Fullname, &user.Avatar, &user.CoverImage,
		&user.Password, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// Create persists a new user record. Username and email are stored lower-cased.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO users (id, username, email, fullname, avatar_url, cover_image_url, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        RETURNING `+userColumns,
		user.ID, strings.ToLower(user.Username), strings.ToLower(user.Email), user.Fullname,
		user.Avatar, user.CoverImage, user.Password, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "insert user")
	}
	return created, nil
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return models.User{}, translate(err, "select user by id")
	}
	return user, nil
}

// FindByLogin fetches the user matching either the username or the email.
// Empty arguments never match.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
        ORDER BY created_at
        LIMIT 1
    `, strings.ToLower(strings.TrimSpace(username)), strings.ToLower(strings.TrimSpace(email)))
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "select user by login")
	}
	return user, nil
}

// UpdateAccount changes the display name and email of a user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullname, email string) (models.User, error) {
	return r.updateReturning(ctx, "update account", `
        UPDATE users
        SET fullname = $2, email = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, fullname, strings.ToLower(email))
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.updateReturning(ctx, "update password", `
        UPDATE users
        SET password_hash = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, passwordHash)
	return err
}

// UpdateAvatar replaces the avatar location.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, location string) (models.User, error) {
	return r.updateReturning(ctx, "update avatar", `
        UPDATE users
        SET avatar_url = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, location)
}

// UpdateCoverImage replaces the cover image location.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id, location string) (models.User, error) {
	return r.updateReturning(ctx, "update cover image", `
        UPDATE users
        SET cover_image_url = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, location)
}

func (r *PostgresUserRepository) updateReturning(ctx context.Context, op, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.User{}, translate(err, op)
	}
	return user, nil
}
