package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// SubscriptionHandler manages channel subscriptions.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Views         ViewStore
}

type subscriptionResponse struct {
	IsSubscribed bool `json:"isSubscribed"`
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if id, err := uuid.Parse(channelID); err == nil {
		channelID = id.String()
	}
	if channelID == identity.UserID {
		respondError(ctx, w, invalid("you cannot subscribe to your own channel"))
		return
	}

	result, err := h.Subscriptions.Toggle(ctx, models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: identity.UserID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "unsubscribed successfully"
	if result.Active {
		message = "subscribed successfully"
	}
	respond(ctx, w, http.StatusOK, subscriptionResponse{IsSubscribed: result.Active}, message)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	subscribers, err := h.Views.ChannelSubscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, subscribers, "subscribers fetched successfully")
}

// Channels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, err := pathID(r, "subscriberId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channels, err := h.Views.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}
