package handlers

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	vb "github.com/vidtube/backend/internal/viewbuilder"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id, fullname, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, location string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, location string) (models.User, error)
}

// SessionManager issues, rotates and revokes session tokens.
type SessionManager interface {
	Issue(ctx context.Context, identity auth.Identity) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// MediaUploader stores uploaded files and removes replaced ones.
type MediaUploader interface {
	Upload(ctx context.Context, kind media.Kind, h *multipart.FileHeader) (media.Asset, error)
	Remove(ctx context.Context, location string)
}

// VideoStore captures video persistence.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) (models.Video, error)
	TogglePublish(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	RecordView(ctx context.Context, videoID, viewerID string, at time.Time) error
}

// CommentStore captures comment persistence.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) (models.Comment, error)
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// TweetStore captures tweet persistence.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error)
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures playlist persistence.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// LikeStore toggles likes.
type LikeStore interface {
	Toggle(ctx context.Context, like models.Like) (models.ToggleResult, error)
}

// SubscriptionStore toggles subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, sub models.Subscription) (models.ToggleResult, error)
}

// ViewStore serves the denormalized read models.
type ViewStore interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
	ChannelVideos(ctx context.Context, channelID string) ([]models.VideoSummary, error)
	VideoFeed(ctx context.Context, q repositories.FeedQuery) (vb.Page[models.VideoSummary], error)
	VideoDetail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error)
	VideoComments(ctx context.Context, videoID string, page vb.PageRequest) (vb.Page[models.CommentView], error)
	LikedVideos(ctx context.Context, userID string, page vb.PageRequest) (vb.Page[models.VideoSummary], error)
	UserTweets(ctx context.Context, userID string) ([]models.TweetView, error)
	UserPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error)
	PlaylistDetail(ctx context.Context, playlistID string) (models.PlaylistDetail, error)
	ChannelSubscribers(ctx context.Context, channelID string) ([]models.SubscriptionView, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscriptionView, error)
}
