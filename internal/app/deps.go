package app

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	objects, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}
	uploader := media.NewUploader(objects, media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout), cfg.UploadDir, cfg.MaxUploadBytes)

	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessions := auth.NewManager(tokens, repositories.NewPostgresSessionStore(pool))

	return handlers.Dependencies{
		DB:            pool,
		Users:         users,
		Sessions:      sessions,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Views:         repositories.NewPostgresViewRepository(pool),
		Media:         uploader,
		Auth:          middleware.Authenticator{Tokens: sessions, Users: users},
		AuthLimiter:   middleware.NewKeyedRateLimiter(cfg.AuthRateLimit, cfg.AuthRateLimitWindow, 0, 0),
		CookieSecure:  cfg.CookieSecure,
	}, nil
}
