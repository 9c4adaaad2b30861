package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	vb "github.com/vidtube/backend/internal/viewbuilder"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore(users ...models.User) *inMemoryUserStore {
	s := &inMemoryUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.User{}, repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UpdateAccount(_ context.Context, id, fullname, email string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.Fullname, u.Email = fullname, email })
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := s.update(id, func(u *models.User) { u.Password = hash })
	return err
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, id, location string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.Avatar = location })
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, id, location string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.CoverImage = location })
}

func (s *inMemoryUserStore) update(id string, fn func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	fn(&user)
	s.users[id] = user
	return user, nil
}

type stubUploader struct {
	mu       sync.Mutex
	uploaded []string
	removed  []string
	err      error
}

func (u *stubUploader) Upload(_ context.Context, kind media.Kind, h *multipart.FileHeader) (media.Asset, error) {
	if u.err != nil {
		return media.Asset{}, u.err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	asset := media.Asset{URL: "https://cdn.example.com/" + string(kind) + "/" + h.Filename}
	if kind == media.KindVideo {
		asset.Duration = 12.5
	}
	u.uploaded = append(u.uploaded, asset.URL)
	return asset, nil
}

func (u *stubUploader) Remove(_ context.Context, location string) {
	if location == "" {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.removed = append(u.removed, location)
}

type inMemoryVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
	views  []string
}

func newInMemoryVideoStore(videos ...models.Video) *inMemoryVideoStore {
	s := &inMemoryVideoStore{videos: make(map[string]models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return video, nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return video, nil
}

func (s *inMemoryVideoStore) TogglePublish(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return video, nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *inMemoryVideoStore) RecordView(_ context.Context, videoID, viewerID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[videoID] = video
	s.views = append(s.views, viewerID)
	return nil
}

// contentStore backs both comments and tweets in tests.
type contentStore[T interface{ Owner() string }] struct {
	mu      sync.Mutex
	items   map[string]T
	id      func(T) string
	setText func(T, string) T
}

func (s *contentStore[T]) Create(_ context.Context, item T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[s.id(item)] = item
	return item, nil
}

func (s *contentStore[T]) FindByID(_ context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, repositories.ErrNotFound
	}
	return item, nil
}

func (s *contentStore[T]) UpdateContent(_ context.Context, id, content string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, repositories.ErrNotFound
	}
	item = s.setText(item, content)
	s.items[id] = item
	return item, nil
}

func (s *contentStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func newCommentStore(comments ...models.Comment) *contentStore[models.Comment] {
	s := &contentStore[models.Comment]{
		items:   make(map[string]models.Comment),
		id:      func(c models.Comment) string { return c.ID },
		setText: func(c models.Comment, text string) models.Comment { c.Content = text; return c },
	}
	for _, c := range comments {
		s.items[c.ID] = c
	}
	return s
}

func newTweetStore(tweets ...models.Tweet) *contentStore[models.Tweet] {
	s := &contentStore[models.Tweet]{
		items:   make(map[string]models.Tweet),
		id:      func(t models.Tweet) string { return t.ID },
		setText: func(t models.Tweet, text string) models.Tweet { t.Content = text; return t },
	}
	for _, t := range tweets {
		s.items[t.ID] = t
	}
	return s
}

type inMemoryPlaylistStore struct {
	mu        sync.Mutex
	playlists map[string]models.Playlist
	entries   map[string][]string
}

func newInMemoryPlaylistStore(playlists ...models.Playlist) *inMemoryPlaylistStore {
	s := &inMemoryPlaylistStore{playlists: make(map[string]models.Playlist), entries: make(map[string][]string)}
	for _, p := range playlists {
		s.playlists[p.ID] = p
	}
	return s
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, p models.Playlist) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[p.ID] = p
	return p, nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return p, nil
}

func (s *inMemoryPlaylistStore) Update(_ context.Context, p models.Playlist) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[p.ID] = p
	return p, nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playlists, id)
	delete(s.entries, id)
	return nil
}

func (s *inMemoryPlaylistStore) AddVideo(_ context.Context, playlistID, videoID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.entries[playlistID] {
		if v == videoID {
			return repositories.ErrConflict
		}
	}
	s.entries[playlistID] = append(s.entries[playlistID], videoID)
	return nil
}

func (s *inMemoryPlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.entries[playlistID]
	for i, v := range entries {
		if v == videoID {
			s.entries[playlistID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// toggleSet models a unique relationship that flips on every toggle.
type toggleSet struct {
	mu     sync.Mutex
	active map[string]bool
}

func newToggleSet() *toggleSet { return &toggleSet{active: make(map[string]bool)} }

func (s *toggleSet) flip(key string) models.ToggleResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[key] = !s.active[key]
	return models.ToggleResult{Active: s.active[key]}
}

type stubLikeStore struct{ *toggleSet }

func (s stubLikeStore) Toggle(_ context.Context, like models.Like) (models.ToggleResult, error) {
	return s.flip(like.LikedBy + "|" + string(like.TargetKind) + "|" + like.TargetID), nil
}

type stubSubscriptionStore struct{ *toggleSet }

func (s stubSubscriptionStore) Toggle(_ context.Context, sub models.Subscription) (models.ToggleResult, error) {
	return s.flip(sub.SubscriberID + "|" + sub.ChannelID), nil
}

type failingSubscriptionStore struct{ err error }

func (s failingSubscriptionStore) Toggle(context.Context, models.Subscription) (models.ToggleResult, error) {
	return models.ToggleResult{}, s.err
}

// stubViews returns canned read models and records the arguments it saw.
type stubViews struct {
	profile       models.ChannelProfile
	detail        models.VideoDetail
	feed          vb.Page[models.VideoSummary]
	comments      vb.Page[models.CommentView]
	lastFeed      repositories.FeedQuery
	lastPage      vb.PageRequest
	lastViewer    string
	detailMissing bool
}

func (s *stubViews) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	s.lastViewer = viewerID
	if username != s.profile.Username {
		return models.ChannelProfile{}, repositories.ErrNotFound
	}
	p := s.profile
	p.IsSubscribed = viewerID != ""
	return p, nil
}

func (s *stubViews) WatchHistory(context.Context, string) ([]models.WatchHistoryEntry, error) {
	return []models.WatchHistoryEntry{}, nil
}

func (s *stubViews) ChannelStats(_ context.Context, channelID string) (models.ChannelStats, error) {
	if channelID == "missing" {
		return models.ChannelStats{}, repositories.ErrNotFound
	}
	return models.ChannelStats{TotalVideos: 2, TotalViews: 30, TotalLikes: 4, TotalSubscribers: 1}, nil
}

func (s *stubViews) ChannelVideos(context.Context, string) ([]models.VideoSummary, error) {
	return []models.VideoSummary{}, nil
}

func (s *stubViews) VideoFeed(_ context.Context, q repositories.FeedQuery) (vb.Page[models.VideoSummary], error) {
	s.lastFeed = q
	return s.feed, nil
}

func (s *stubViews) VideoDetail(_ context.Context, _ string, viewerID string) (models.VideoDetail, error) {
	s.lastViewer = viewerID
	if s.detailMissing {
		return models.VideoDetail{}, repositories.ErrNotFound
	}
	return s.detail, nil
}

func (s *stubViews) VideoComments(_ context.Context, _ string, page vb.PageRequest) (vb.Page[models.CommentView], error) {
	s.lastPage = page
	return s.comments, nil
}

func (s *stubViews) LikedVideos(_ context.Context, _ string, page vb.PageRequest) (vb.Page[models.VideoSummary], error) {
	s.lastPage = page
	return vb.NewPage([]models.VideoSummary{}, 0, page), nil
}

func (s *stubViews) UserTweets(context.Context, string) ([]models.TweetView, error) {
	return []models.TweetView{}, nil
}

func (s *stubViews) UserPlaylists(context.Context, string) ([]models.PlaylistSummary, error) {
	return []models.PlaylistSummary{}, nil
}

func (s *stubViews) PlaylistDetail(_ context.Context, id string) (models.PlaylistDetail, error) {
	return models.PlaylistDetail{ID: id, Videos: []models.VideoSummary{}}, nil
}

func (s *stubViews) ChannelSubscribers(context.Context, string) ([]models.SubscriptionView, error) {
	return []models.SubscriptionView{}, nil
}

func (s *stubViews) SubscribedChannels(context.Context, string) ([]models.SubscriptionView, error) {
	return []models.SubscriptionView{}, nil
}

// withIdentity returns r carrying an authenticated user id.
func withIdentity(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: userID}))
}

// withPath sets path wildcards the way the ServeMux would.
func withPath(r *http.Request, kv ...string) *http.Request {
	for i := 0; i+1 < len(kv); i += 2 {
		r.SetPathValue(kv[i], kv[i+1])
	}
	return r
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type upload struct {
	field, filename, contentType, content string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// envelope decodes the response envelope, unmarshalling data into out when non-nil.
func envelope(t *testing.T, rec *httptest.ResponseRecorder, out any) models.APIResponse {
	t.Helper()
	var raw struct {
		StatusCode int             `json:"statusCode"`
		Data       json.RawMessage `json:"data"`
		Message    string          `json:"message"`
		Success    bool            `json:"success"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return models.APIResponse{StatusCode: raw.StatusCode, Message: raw.Message, Success: raw.Success}
}
