package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes sub.SubscriberID to sub.ChannelID, or unsubscribes when
// already subscribed. A missing channel returns ErrNotFound.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, sub models.Subscription) (models.ToggleResult, error) {
	var result models.ToggleResult
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM subscriptions
            WHERE subscriber_id = $1 AND channel_id = $2
        `, sub.SubscriberID, sub.ChannelID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			result = models.ToggleResult{Active: false}
			return nil
		}

		if _, err := tx.Exec(ctx, `
            INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (subscriber_id, channel_id) DO NOTHING
        `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt); err != nil {
			return err
		}
		result = models.ToggleResult{Active: true}
		return nil
	})
	if err != nil {
		return models.ToggleResult{}, translate(err, "toggle subscription")
	}
	return result, nil
}
