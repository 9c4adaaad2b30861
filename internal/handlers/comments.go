package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// CommentHandler serves video comments.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Views    ViewStore
	NowFunc  func() time.Time
}

type contentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func readContent(r *http.Request) (string, error) {
	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", invalid("content is required")
	}
	return content, nil
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := h.Views.VideoComments(ctx, videoID, pageRequest(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, page, "comments fetched successfully")
}

// Create handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	content, err := readContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	comment, err := h.Comments.Create(ctx, models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   identity.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comment, ok := loadOwned(w, r, "commentId", h.Comments.FindByID)
	if !ok {
		return
	}
	content, err := readContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, comment.ID, content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, updated, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comment, ok := loadOwned(w, r, "commentId", h.Comments.FindByID)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
