package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	vb "github.com/vidtube/backend/internal/viewbuilder"
)

func ownedVideoFixture() models.Video {
	return models.Video{
		ID:          "v-1",
		OwnerID:     "owner",
		VideoFile:   "https://cdn.example.com/video/v1.mp4",
		Thumbnail:   "https://cdn.example.com/image/v1.png",
		Title:       "original",
		Description: "original description",
		IsPublished: true,
	}
}

func TestVideoFeedQueryParameters(t *testing.T) {
	views := &stubViews{feed: vb.NewPage([]models.VideoSummary{{ID: "v-1"}}, 1, vb.PageRequest{Page: 2, Limit: 5})}
	handler := VideoHandler{Views: views}

	rec := httptest.NewRecorder()
	handler.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos?page=2&limit=5&sortBy=views&sortType=asc&userId=u-9", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, vb.PageRequest{Page: 2, Limit: 5}, views.lastFeed.Page)
	assert.Equal(t, "views", views.lastFeed.SortBy)
	assert.False(t, views.lastFeed.Desc)
	assert.Equal(t, "u-9", views.lastFeed.OwnerID)

	var page vb.Page[models.VideoSummary]
	envelope(t, rec, &page)
	assert.Equal(t, 1, page.TotalDocs)
	assert.Len(t, page.Docs, 1)

	rec = httptest.NewRecorder()
	handler.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos?limit=abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, vb.PageRequest{Page: 1, Limit: vb.DefaultLimit}, views.lastFeed.Page)
	assert.Equal(t, "createdAt", views.lastFeed.SortBy)
	assert.True(t, views.lastFeed.Desc)

	rec = httptest.NewRecorder()
	handler.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos?sortBy=password", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideoCreate(t *testing.T) {
	store := newInMemoryVideoStore()
	uploader := &stubUploader{}
	handler := VideoHandler{Videos: store, Media: uploader}

	req := multipartRequest(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "My clip", "description": "about it"},
		upload{field: "videoFile", filename: "clip.mp4", contentType: "video/mp4", content: "mp4"},
		upload{field: "thumbnail", filename: "thumb.png", contentType: "image/png", content: "png"},
	)
	rec := httptest.NewRecorder()
	handler.Create(rec, withIdentity(req, "owner"))

	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Video
	envelope(t, rec, &created)
	assert.Equal(t, "owner", created.OwnerID)
	assert.Equal(t, 12.5, created.Duration)
	assert.True(t, created.IsPublished)
	assert.Equal(t, "https://cdn.example.com/video/clip.mp4", created.VideoFile)

	_, err := store.FindByID(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestVideoCreateRejectsMissingFiles(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore(), Media: &stubUploader{}}

	req := multipartRequest(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "My clip", "description": "about it"},
		upload{field: "videoFile", filename: "clip.mp4", contentType: "video/mp4", content: "mp4"},
	)
	rec := httptest.NewRecorder()
	handler.Create(rec, withIdentity(req, "owner"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVideoCreateStorageFailure(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore(), Media: &stubUploader{err: media.ErrStorage}}

	req := multipartRequest(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "My clip", "description": "about it"},
		upload{field: "videoFile", filename: "clip.mp4", contentType: "video/mp4", content: "mp4"},
		upload{field: "thumbnail", filename: "thumb.png", contentType: "image/png", content: "png"},
	)
	rec := httptest.NewRecorder()
	handler.Create(rec, withIdentity(req, "owner"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestVideoWatch(t *testing.T) {
	detail := models.VideoDetail{ID: "v-1", Views: 3, IsPublished: true, Owner: models.ChannelBadge{ID: "owner"}}

	t.Run("records the view for signed-in viewers", func(t *testing.T) {
		store := newInMemoryVideoStore(ownedVideoFixture())
		views := &stubViews{detail: detail}
		handler := VideoHandler{Videos: store, Views: views}

		req := withIdentity(withPath(httptest.NewRequest(http.MethodGet, "/api/v1/videos/v-1/watch", nil), "videoId", "v-1"), "viewer")
		rec := httptest.NewRecorder()
		handler.Watch(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.VideoDetail
		envelope(t, rec, &got)
		assert.Equal(t, int64(4), got.Views)
		assert.Equal(t, []string{"viewer"}, store.views)
		assert.Equal(t, "viewer", views.lastViewer)
	})

	t.Run("hides unpublished videos from other users", func(t *testing.T) {
		hidden := detail
		hidden.IsPublished = false
		store := newInMemoryVideoStore(ownedVideoFixture())
		handler := VideoHandler{Videos: store, Views: &stubViews{detail: hidden}}

		rec := httptest.NewRecorder()
		handler.Watch(rec, withPath(httptest.NewRequest(http.MethodGet, "/api/v1/videos/v-1/watch", nil), "videoId", "v-1"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, store.views)

		rec = httptest.NewRecorder()
		handler.Watch(rec, withIdentity(withPath(httptest.NewRequest(http.MethodGet, "/api/v1/videos/v-1/watch", nil), "videoId", "v-1"), "owner"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing video", func(t *testing.T) {
		handler := VideoHandler{Videos: newInMemoryVideoStore(), Views: &stubViews{detailMissing: true}}
		rec := httptest.NewRecorder()
		handler.Watch(rec, withPath(httptest.NewRequest(http.MethodGet, "/api/v1/videos/nope/watch", nil), "videoId", "nope"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestVideoMutationsRequireOwnership(t *testing.T) {
	tests := map[string]func(VideoHandler) http.HandlerFunc{
		"update":  func(h VideoHandler) http.HandlerFunc { return h.Update },
		"delete":  func(h VideoHandler) http.HandlerFunc { return h.Delete },
		"publish": func(h VideoHandler) http.HandlerFunc { return h.TogglePublish },
	}

	for name, pick := range tests {
		t.Run(name, func(t *testing.T) {
			store := newInMemoryVideoStore(ownedVideoFixture())
			uploader := &stubUploader{}
			handler := VideoHandler{Videos: store, Media: uploader}

			req := multipartRequest(t, http.MethodPatch, "/api/v1/videos/v-1", map[string]string{"title": "hijacked", "description": "x"})
			rec := httptest.NewRecorder()
			pick(handler)(rec, withIdentity(withPath(req, "videoId", "v-1"), "intruder"))

			require.Equal(t, http.StatusForbidden, rec.Code)
			resp := envelope(t, rec, nil)
			assert.False(t, resp.Success)

			after, err := store.FindByID(context.Background(), "v-1")
			require.NoError(t, err)
			assert.Equal(t, ownedVideoFixture(), after)
			assert.Empty(t, uploader.removed)
		})
	}
}

func TestVideoUpdateReplacesThumbnail(t *testing.T) {
	store := newInMemoryVideoStore(ownedVideoFixture())
	uploader := &stubUploader{}
	handler := VideoHandler{Videos: store, Media: uploader}

	req := multipartRequest(t, http.MethodPatch, "/api/v1/videos/v-1",
		map[string]string{"title": "renamed", "description": "new description"},
		upload{field: "thumbnail", filename: "new.png", contentType: "image/png", content: "png"},
	)
	rec := httptest.NewRecorder()
	handler.Update(rec, withIdentity(withPath(req, "videoId", "v-1"), "owner"))

	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Video
	envelope(t, rec, &updated)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "https://cdn.example.com/image/new.png", updated.Thumbnail)
	assert.Equal(t, []string{ownedVideoFixture().Thumbnail}, uploader.removed)
}

func TestVideoDeleteAndTogglePublish(t *testing.T) {
	store := newInMemoryVideoStore(ownedVideoFixture())
	uploader := &stubUploader{}
	handler := VideoHandler{Videos: store, Media: uploader}

	rec := httptest.NewRecorder()
	handler.TogglePublish(rec, withIdentity(withPath(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/v-1/publish", nil), "videoId", "v-1"), "owner"))
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled models.Video
	envelope(t, rec, &toggled)
	assert.False(t, toggled.IsPublished)

	rec = httptest.NewRecorder()
	handler.Delete(rec, withIdentity(withPath(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/v-1", nil), "videoId", "v-1"), "owner"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{ownedVideoFixture().VideoFile, ownedVideoFixture().Thumbnail}, uploader.removed)

	rec = httptest.NewRecorder()
	handler.Delete(rec, withIdentity(withPath(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/v-1", nil), "videoId", "v-1"), "owner"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	handler := DashboardHandler{Views: &stubViews{}}

	rec := httptest.NewRecorder()
	handler.Stats(rec, withPath(httptest.NewRequest(http.MethodGet, "/api/v1/videos/c-1/stats", nil), "channelId", "c-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.ChannelStats
	envelope(t, rec, &stats)
	assert.Equal(t, int64(30), stats.TotalViews)

	rec = httptest.NewRecorder()
	handler.Stats(rec, withPath(httptest.NewRequest(http.MethodGet, "/api/v1/videos/missing/stats", nil), "channelId", "missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
