package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// PlaylistHandler manages user playlists.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Views     ViewStore
	NowFunc   func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	playlist, err := h.Playlists.Create(ctx, models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     identity.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// ListForUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Views.UserPlaylists(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	detail, err := h.Views.PlaylistDetail(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, detail, "playlist fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := loadOwned(w, r, "playlistId", h.Playlists.FindByID)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist.Name = strings.TrimSpace(req.Name)
	playlist.Description = strings.TrimSpace(req.Description)

	updated, err := h.Playlists.Update(ctx, playlist)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, updated, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := loadOwned(w, r, "playlistId", h.Playlists.FindByID)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := loadOwned(w, r, "playlistId", h.Playlists.FindByID)
	if !ok {
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID, h.now()); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := loadOwned(w, r, "playlistId", h.Playlists.FindByID)
	if !ok {
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "video removed from playlist")
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
