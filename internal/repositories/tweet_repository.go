package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const tweetColumns = `id, owner_id, content, created_at, updated_at`

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var t models.Tweet
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create stores a tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error) {
	return r.one(ctx, "insert tweet", `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4)
        RETURNING `+tweetColumns, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt)
}

// FindByID fetches a tweet by id.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	return r.one(ctx, "select tweet", `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id)
}

// UpdateContent replaces the text of a tweet.
func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, content string) (models.Tweet, error) {
	return r.one(ctx, "update tweet", `
        UPDATE tweets
        SET content = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+tweetColumns, id, content)
}

// Delete removes a tweet.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete tweet")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresTweetRepository) one(ctx context.Context, op, query string, args ...any) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	t, err := scanTweet(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Tweet{}, translate(err, op)
	}
	return t, nil
}
