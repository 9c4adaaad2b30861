package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// TweetHandler serves short text posts.
type TweetHandler struct {
	Tweets  TweetStore
	Views   ViewStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	content, err := readContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	now := time.Now().UTC()
	if h.NowFunc != nil {
		now = h.NowFunc()
	}
	tweet, err := h.Tweets.Create(ctx, models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   identity.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

// ListForUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tweets, err := h.Views.UserTweets(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, tweets, "tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweet, ok := loadOwned(w, r, "tweetId", h.Tweets.FindByID)
	if !ok {
		return
	}
	content, err := readContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Tweets.UpdateContent(ctx, tweet.ID, content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, updated, "tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweet, ok := loadOwned(w, r, "tweetId", h.Tweets.FindByID)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "tweet deleted successfully")
}
