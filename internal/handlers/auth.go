package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const maxMultipartMemory = 32 << 20

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Users        UserStore
	Sessions     SessionManager
	Views        ViewStore
	Media        MediaUploader
	CookieSecure bool
	NowFunc      func() time.Time
}

type registerRequest struct {
	Fullname string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3,max=30,alphanum"`
	Password string `validate:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, invalid("expected a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := registerRequest{
		Fullname: strings.TrimSpace(r.FormValue("fullname")),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Username: strings.ToLower(strings.TrimSpace(r.FormValue("username"))),
		Password: r.FormValue("password"),
	}
	if err := validateStruct(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	avatarFile := formFile(r, "avatar")
	if avatarFile == nil {
		respondError(ctx, w, invalid("avatar file is required"))
		return
	}

	if _, err := h.Users.FindByLogin(ctx, req.Username, req.Email); err == nil {
		logger.Warn("register existing account", "username", req.Username)
		respond(ctx, w, http.StatusConflict, nil, "user with email or username already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	avatar, err := h.Media.Upload(ctx, media.KindImage, avatarFile)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	var cover media.Asset
	if coverFile := formFile(r, "coverImage"); coverFile != nil {
		cover, err = h.Media.Upload(ctx, media.KindImage, coverFile)
		if err != nil {
			h.Media.Remove(ctx, avatar.URL)
			respondError(ctx, w, err)
			return
		}
	}

	now := h.now()
	user, err := h.Users.Create(ctx, models.User{
		ID:         uuid.NewString(),
		Username:   req.Username,
		Email:      req.Email,
		Fullname:   req.Fullname,
		Avatar:     avatar.URL,
		CoverImage: cover.URL,
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		h.Media.Remove(ctx, avatar.URL)
		h.Media.Remove(ctx, cover.URL)
		respondError(ctx, w, err)
		return
	}

	logger.Info("user registered", "userId", user.ID)
	respond(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" && req.Email == "" {
		respondError(ctx, w, invalid("username or email is required"))
		return
	}

	user, err := h.Users.FindByLogin(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respond(ctx, w, http.StatusNotFound, nil, "user does not exist")
			return
		}
		respondError(ctx, w, err)
		return
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.Issue(ctx, identityOf(user))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Sessions.Revoke(ctx, identity.UserID); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.clearSessionCookies(w)
	respond(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The token is read
// from the refresh cookie first and the JSON body second.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := ""
	if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(ctx, w, err)
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		respondError(ctx, w, auth.ErrUnauthenticated)
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, tokensResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByID(ctx, identity.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := auth.CheckPassword(user.Password, req.OldPassword); err != nil {
		respondError(ctx, w, invalid("invalid old password"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

func (h UserHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(middleware.RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c := h.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h UserHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: sameSite,
	}
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func identityOf(user models.User) auth.Identity {
	return auth.Identity{UserID: user.ID, Username: user.Username, Email: user.Email}
}

// formFile returns the first file uploaded under field, or nil.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
