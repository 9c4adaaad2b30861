package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

func newUserHandler(t *testing.T, users ...models.User) (UserHandler, *inMemoryUserStore, *stubUploader, *auth.InMemorySessionStore) {
	t.Helper()
	store := newInMemoryUserStore(users...)
	sessions := auth.NewInMemorySessionStore()
	manager := auth.NewManager(auth.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour), sessions)
	uploader := &stubUploader{}
	return UserHandler{
		Users:        store,
		Sessions:     manager,
		Views:        &stubViews{profile: models.ChannelProfile{ID: "u-2", Username: "bob"}},
		Media:        uploader,
		CookieSecure: true,
	}, store, uploader, sessions
}

func existingUser(t *testing.T, id, username, password string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return models.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Fullname: username,
		Avatar:   "https://cdn.example.com/image/" + username + ".png",
		Password: hash,
	}
}

func TestRegisterCreatesUserWithUploadedImages(t *testing.T) {
	handler, store, uploader, _ := newUserHandler(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullname": "Alice A", "email": "Alice@Example.com", "username": "Alice", "password": "supersafe"},
		upload{field: "avatar", filename: "a.png", contentType: "image/png", content: "png"},
		upload{field: "coverImage", filename: "c.jpg", contentType: "image/jpeg", content: "jpg"},
	)
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var user models.User
	resp := envelope(t, rec, &user)
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "https://cdn.example.com/image/a.png", user.Avatar)
	assert.Equal(t, "https://cdn.example.com/image/c.jpg", user.CoverImage)
	assert.NotContains(t, rec.Body.String(), "supersafe")

	stored, err := store.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, auth.CheckPassword(stored.Password, "supersafe"))
	assert.Len(t, uploader.uploaded, 2)
}

func TestRegisterValidation(t *testing.T) {
	taken := existingUser(t, "u-1", "alice", "password123")

	tests := []struct {
		name   string
		fields map[string]string
		files  []upload
		status int
	}{
		{
			name:   "missing avatar",
			fields: map[string]string{"fullname": "B", "email": "b@example.com", "username": "bob", "password": "supersafe"},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad email",
			fields: map[string]string{"fullname": "B", "email": "nope", "username": "bob", "password": "supersafe"},
			files:  []upload{{field: "avatar", filename: "a.png", contentType: "image/png", content: "x"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "short password",
			fields: map[string]string{"fullname": "B", "email": "b@example.com", "username": "bob", "password": "short"},
			files:  []upload{{field: "avatar", filename: "a.png", contentType: "image/png", content: "x"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "taken username",
			fields: map[string]string{"fullname": "A", "email": "other@example.com", "username": "ALICE", "password": "supersafe"},
			files:  []upload{{field: "avatar", filename: "a.png", contentType: "image/png", content: "x"}},
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, uploader, _ := newUserHandler(t, taken)
			rec := httptest.NewRecorder()
			handler.Register(rec, multipartRequest(t, http.MethodPost, "/api/v1/users/register", tt.fields, tt.files...))

			assert.Equal(t, tt.status, rec.Code)
			resp := envelope(t, rec, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Empty(t, uploader.uploaded)
		})
	}
}

func TestLoginSetsCookiesAndRefreshRotates(t *testing.T) {
	user := existingUser(t, "u-1", "alice", "password123")
	handler, _, _, sessions := newUserHandler(t, user)

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "ALICE@example.com", "password": "password123"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var login loginResponse
	envelope(t, rec, &login)
	assert.Equal(t, "u-1", login.User.ID)
	require.NotEmpty(t, login.RefreshToken)
	assert.True(t, sessions.Has("u-1"))

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, middleware.AccessTokenCookie)
	require.Contains(t, cookies, middleware.RefreshTokenCookie)
	assert.True(t, cookies[middleware.AccessTokenCookie].HttpOnly)
	assert.True(t, cookies[middleware.AccessTokenCookie].Secure)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(cookies[middleware.RefreshTokenCookie])
	rec = httptest.NewRecorder()
	handler.RefreshToken(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated tokensResponse
	envelope(t, rec, &rotated)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	rec = httptest.NewRecorder()
	handler.RefreshToken(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/refresh-token", refreshRequest{RefreshToken: login.RefreshToken}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.RefreshToken(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	user := existingUser(t, "u-1", "alice", "password123")
	handler, _, _, _ := newUserHandler(t, user)

	tests := map[string]struct {
		body   map[string]string
		status int
	}{
		"wrong password": {body: map[string]string{"username": "alice", "password": "nope"}, status: http.StatusUnauthorized},
		"unknown user":   {body: map[string]string{"username": "carol", "password": "password123"}, status: http.StatusNotFound},
		"no identifier":  {body: map[string]string{"password": "password123"}, status: http.StatusBadRequest},
		"no password":    {body: map[string]string{"username": "alice"}, status: http.StatusBadRequest},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", tt.body))
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	user := existingUser(t, "u-1", "alice", "password123")
	handler, _, _, sessions := newUserHandler(t, user)
	_, err := handler.Sessions.Issue(context.Background(), identityOf(user))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.Logout(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil), "u-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sessions.Has("u-1"))
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestChangePassword(t *testing.T) {
	user := existingUser(t, "u-1", "alice", "password123")
	handler, store, _, _ := newUserHandler(t, user)

	rec := httptest.NewRecorder()
	handler.ChangePassword(rec, withIdentity(jsonRequest(t, http.MethodPost, "/api/v1/users/change-password",
		changePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"}), "u-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ChangePassword(rec, withIdentity(jsonRequest(t, http.MethodPost, "/api/v1/users/change-password",
		changePasswordRequest{OldPassword: "password123", NewPassword: "newpassword"}), "u-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NoError(t, auth.CheckPassword(stored.Password, "newpassword"))
}

func TestUpdateAvatarDeletesPreviousImage(t *testing.T) {
	user := existingUser(t, "u-1", "alice", "password123")
	handler, _, uploader, _ := newUserHandler(t, user)

	req := multipartRequest(t, http.MethodPatch, "/api/v1/users/avatar", nil,
		upload{field: "avatar", filename: "new.png", contentType: "image/png", content: "png"})
	rec := httptest.NewRecorder()
	handler.UpdateAvatar(rec, withIdentity(req, "u-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.User
	envelope(t, rec, &updated)
	assert.Equal(t, "https://cdn.example.com/image/new.png", updated.Avatar)
	assert.Equal(t, []string{user.Avatar}, uploader.removed)
}

func TestUpdateAccount(t *testing.T) {
	handler, _, _, _ := newUserHandler(t, existingUser(t, "u-1", "alice", "password123"))

	rec := httptest.NewRecorder()
	handler.UpdateAccount(rec, withIdentity(jsonRequest(t, http.MethodPatch, "/api/v1/users/update-account",
		updateAccountRequest{Fullname: "Alice B", Email: "alice.b@example.com"}), "u-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	envelope(t, rec, &updated)
	assert.Equal(t, "Alice B", updated.Fullname)

	rec = httptest.NewRecorder()
	handler.UpdateAccount(rec, withIdentity(jsonRequest(t, http.MethodPatch, "/api/v1/users/update-account",
		map[string]string{"fullname": ""}), "u-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChannelProfileUsesOptionalViewer(t *testing.T) {
	handler, _, _, _ := newUserHandler(t)
	views := handler.Views.(*stubViews)

	rec := httptest.NewRecorder()
	handler.ChannelProfile(rec, withPath(httptest.NewRequest(http.MethodGet, "/api/v1/users/c/bob", nil), "username", "bob"))
	require.Equal(t, http.StatusOK, rec.Code)
	var anon models.ChannelProfile
	envelope(t, rec, &anon)
	assert.False(t, anon.IsSubscribed)
	assert.Empty(t, views.lastViewer)

	rec = httptest.NewRecorder()
	handler.ChannelProfile(rec, withIdentity(withPath(httptest.NewRequest(http.MethodGet, "/api/v1/users/c/bob", nil), "username", "bob"), "u-1"))
	var signedIn models.ChannelProfile
	envelope(t, rec, &signedIn)
	assert.True(t, signedIn.IsSubscribed)
	assert.Equal(t, "u-1", views.lastViewer)

	rec = httptest.NewRecorder()
	handler.ChannelProfile(rec, withPath(httptest.NewRequest(http.MethodGet, "/api/v1/users/c/zed", nil), "username", "zed"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedUserEndpointsRequireIdentity(t *testing.T) {
	handler, _, _, _ := newUserHandler(t)

	for name, fn := range map[string]http.HandlerFunc{
		"current user": handler.CurrentUser,
		"history":      handler.WatchHistory,
		"logout":       handler.Logout,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
