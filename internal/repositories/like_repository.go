package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

var likeTargetTables = map[models.LikeTarget]string{
	models.LikeTargetVideo:   "videos",
	models.LikeTargetComment: "comments",
	models.LikeTargetTweet:   "tweets",
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle removes the like if the user already likes the target and creates it
// otherwise. The target must exist. Concurrent toggles are serialized by the
// transaction and the unique (likedBy, kind, target) index.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, like models.Like) (models.ToggleResult, error) {
	table, ok := likeTargetTables[like.TargetKind]
	if !ok {
		return models.ToggleResult{}, fmt.Errorf("toggle like: unknown target kind %q", like.TargetKind)
	}

	var result models.ToggleResult
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, like.TargetID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		tag, err := tx.Exec(ctx, `
            DELETE FROM likes
            WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
        `, like.LikedBy, string(like.TargetKind), like.TargetID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			result = models.ToggleResult{Active: false}
			return nil
		}

		if _, err := tx.Exec(ctx, `
            INSERT INTO likes (id, liked_by, target_kind, target_id, created_at)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (liked_by, target_kind, target_id) DO NOTHING
        `, like.ID, like.LikedBy, string(like.TargetKind), like.TargetID, like.CreatedAt); err != nil {
			return err
		}
		result = models.ToggleResult{Active: true}
		return nil
	})
	if err != nil {
		return models.ToggleResult{}, translate(err, "toggle like")
	}
	return result, nil
}
