package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

type updateAccountRequest struct {
	Fullname string `json:"fullname" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByID(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.UpdateAccount(ctx, identity.UserID, strings.TrimSpace(req.Fullname), req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, user, "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", func(u models.User) string { return u.Avatar }, h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", func(u models.User) string { return u.CoverImage }, h.Users.UpdateCoverImage)
}

// replaceImage uploads the image in field, points the user at it and then
// deletes the image it replaced.
func (h UserHandler) replaceImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	current func(models.User) string,
	update func(ctx context.Context, id, location string) (models.User, error),
) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, invalid("expected a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file := formFile(r, field)
	if file == nil {
		respondError(ctx, w, invalid("%s file is missing", field))
		return
	}

	before, err := h.Users.FindByID(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	asset, err := h.Media.Upload(ctx, media.KindImage, file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := update(ctx, identity.UserID, asset.URL)
	if err != nil {
		h.Media.Remove(ctx, asset.URL)
		respondError(ctx, w, err)
		return
	}
	h.Media.Remove(ctx, current(before))

	respond(ctx, w, http.StatusOK, user, field+" updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username, err := pathID(r, "username")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	profile, err := h.Views.ChannelProfile(ctx, username, viewerID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, profile, "user channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	history, err := h.Views.WatchHistory(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}
