package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const playlistColumns = `id, owner_id, name, description, created_at, updated_at`

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create stores an empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	return r.one(ctx, "insert playlist", `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        RETURNING `+playlistColumns, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt)
}

// FindByID fetches a playlist by id.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	return r.one(ctx, "select playlist", `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id)
}

// Update writes the name and description of a playlist.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	return r.one(ctx, "update playlist", `
        UPDATE playlists
        SET name = $2, description = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+playlistColumns, playlist.ID, playlist.Name, playlist.Description)
}

// Delete removes a playlist together with its entries.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete playlist")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVideo appends a video to the end of a playlist. Adding a video twice
// returns ErrConflict; a missing video returns ErrNotFound.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		_, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
            SELECT $1, $2, COALESCE(MAX(position), 0) + 1, $3
            FROM playlist_videos
            WHERE playlist_id = $1
        `, playlistID, videoID, at)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE playlists SET updated_at = now() WHERE id = $1`, playlistID)
		return err
	})
	if err != nil {
		return translate(err, "add playlist video")
	}
	return nil
}

// RemoveVideo drops a video from a playlist, returning ErrNotFound when it was not there.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE playlists SET updated_at = now() WHERE id = $1`, playlistID)
		return err
	})
	if err != nil {
		return translate(err, "remove playlist video")
	}
	return nil
}

func (r *PostgresPlaylistRepository) one(ctx context.Context, op, query string, args ...any) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	p, err := scanPlaylist(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Playlist{}, translate(err, op)
	}
	return p, nil
}
