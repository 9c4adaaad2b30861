package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// LikeHandler toggles likes and lists liked videos.
type LikeHandler struct {
	Likes LikeStore
	Views ViewStore
}

type likeResponse struct {
	IsLiked bool `json:"isLiked"`
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, "videoId")
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, "commentId")
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet, "tweetId")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeTarget, param string) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	targetID, err := pathID(r, param)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	like, err := models.NewLike(uuid.NewString(), identity.UserID, kind, targetID, time.Now().UTC())
	if err != nil {
		respondError(ctx, w, invalid("%s", err.Error()))
		return
	}

	result, err := h.Likes.Toggle(ctx, like)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := string(kind) + " unliked"
	if result.Active {
		message = string(kind) + " liked"
	}
	respond(ctx, w, http.StatusOK, likeResponse{IsLiked: result.Active}, message)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := h.Views.LikedVideos(ctx, identity.UserID, pageRequest(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, page, "liked videos fetched successfully")
}
