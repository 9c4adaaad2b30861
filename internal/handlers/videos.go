package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler provides endpoints for publishing, browsing and watching videos.
type VideoHandler struct {
	Videos  VideoStore
	Views   ViewStore
	Media   MediaUploader
	NowFunc func() time.Time
}

type videoForm struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"required,max=5000"`
}

func readVideoForm(r *http.Request) (videoForm, error) {
	form := videoForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	return form, validateStruct(form)
}

// Feed handles GET /api/v1/videos.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := repositories.FeedQuery{
		Page:    pageRequest(r),
		OwnerID: strings.TrimSpace(q.Get("userId")),
		SortBy:  q.Get("sortBy"),
		Desc:    !strings.EqualFold(q.Get("sortType"), "asc"),
	}
	if query.SortBy == "" {
		query.SortBy = "createdAt"
	}
	if !repositories.FeedSortFields[query.SortBy] {
		respondError(ctx, w, invalid("cannot sort videos by %q", query.SortBy))
		return
	}

	page, err := h.Views.VideoFeed(ctx, query)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, page, "videos fetched successfully")
}

// Create handles POST /api/v1/videos.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	form, err := readVideoForm(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	videoFile, thumbFile := formFile(r, "videoFile"), formFile(r, "thumbnail")
	if videoFile == nil || thumbFile == nil {
		respondError(ctx, w, invalid("videoFile and thumbnail are required"))
		return
	}

	video, err := h.Media.Upload(ctx, media.KindVideo, videoFile)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	thumbnail, err := h.Media.Upload(ctx, media.KindImage, thumbFile)
	if err != nil {
		h.Media.Remove(ctx, video.URL)
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	created, err := h.Videos.Create(ctx, models.Video{
		ID:          uuid.NewString(),
		OwnerID:     identity.UserID,
		VideoFile:   video.URL,
		Thumbnail:   thumbnail.URL,
		Title:       form.Title,
		Description: form.Description,
		Duration:    video.Duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		h.Media.Remove(ctx, video.URL)
		h.Media.Remove(ctx, thumbnail.URL)
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, created, "video published successfully")
}

// Watch handles GET /api/v1/videos/{videoId}/watch. Each call counts a view
// and, for signed-in viewers, refreshes their watch history.
func (h VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	viewer := viewerID(ctx)

	detail, err := h.Views.VideoDetail(ctx, videoID, viewer)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if !detail.IsPublished && detail.Owner.ID != viewer {
		respondError(ctx, w, repositories.ErrNotFound)
		return
	}

	if err := h.Videos.RecordView(ctx, videoID, viewer, h.now()); err != nil {
		logging.FromContext(ctx).Warn("record video view", "videoId", videoID, "error", err)
	} else {
		detail.Views++
	}
	respond(ctx, w, http.StatusOK, detail, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. A new thumbnail replaces
// and deletes the previous one.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, invalid("expected a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form, err := readVideoForm(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	previousThumb := ""
	if file := formFile(r, "thumbnail"); file != nil {
		thumb, err := h.Media.Upload(ctx, media.KindImage, file)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		previousThumb, video.Thumbnail = video.Thumbnail, thumb.URL
	}
	video.Title = form.Title
	video.Description = form.Description

	updated, err := h.Videos.Update(ctx, video)
	if err != nil {
		if previousThumb != "" {
			h.Media.Remove(ctx, video.Thumbnail)
		}
		respondError(ctx, w, err)
		return
	}
	h.Media.Remove(ctx, previousThumb)
	respond(ctx, w, http.StatusOK, updated, "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}. Comments, likes and
// playlist entries of the video are kept; read views skip them.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, err)
		return
	}
	h.Media.Remove(ctx, video.VideoFile)
	h.Media.Remove(ctx, video.Thumbnail)
	respond(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	updated, err := h.Videos.TogglePublish(ctx, video.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, updated, "publish status toggled successfully")
}

func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	return loadOwned(w, r, "videoId", h.Videos.FindByID)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
