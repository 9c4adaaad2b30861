package models

import "time"

// PublicProfile is the subset of a user that other users may see.
type PublicProfile struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Avatar   string `json:"avatar"`
}

// ChannelProfile is a user's channel page with live subscription counts.
type ChannelProfile struct {
	ID                        string `json:"_id"`
	Username                  string `json:"username"`
	Fullname                  string `json:"fullname"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// ChannelStats aggregates a channel's totals.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

// VideoSummary is a video row as listed on a channel or in a feed.
type VideoSummary struct {
	ID          string         `json:"_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Thumbnail   string         `json:"thumbnail"`
	VideoFile   string         `json:"videoFile,omitempty"`
	Duration    float64        `json:"duration"`
	Views       int64          `json:"views"`
	IsPublished bool           `json:"isPublished"`
	CreatedAt   time.Time      `json:"createdAt"`
	Owner       *PublicProfile `json:"owner,omitempty"`
}

// VideoDetail is the watch-page projection of a single video.
type VideoDetail struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Thumbnail   string       `json:"thumbnail"`
	VideoFile   string       `json:"videoFile"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	IsPublished bool         `json:"isPublished"`
	CreatedAt   time.Time    `json:"createdAt"`
	Owner       ChannelBadge `json:"owner"`
	LikesCount  int64        `json:"likesCount"`
	IsLiked     bool         `json:"isLiked"`
}

// ChannelBadge is an owner profile decorated with subscription state.
type ChannelBadge struct {
	ID               string `json:"_id"`
	Username         string `json:"username"`
	Fullname         string `json:"fullname"`
	Avatar           string `json:"avatar"`
	SubscribersCount int64  `json:"subscribersCount"`
	IsSubscribed     bool   `json:"isSubscribed"`
}

// WatchHistoryEntry is a watched video with its owner's public profile.
type WatchHistoryEntry struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Thumbnail   string        `json:"thumbnail"`
	Duration    float64       `json:"duration"`
	Views       int64         `json:"views"`
	CreatedAt   time.Time     `json:"createdAt"`
	WatchedAt   time.Time     `json:"watchedAt"`
	Owner       PublicProfile `json:"owner"`
}

// CommentView is a comment with its author.
type CommentView struct {
	ID         string        `json:"_id"`
	Content    string        `json:"content"`
	CreatedAt  time.Time     `json:"createdAt"`
	Owner      PublicProfile `json:"owner"`
	LikesCount int64         `json:"likesCount"`
}

// TweetView is a tweet with its author.
type TweetView struct {
	ID         string        `json:"_id"`
	Content    string        `json:"content"`
	CreatedAt  time.Time     `json:"createdAt"`
	Owner      PublicProfile `json:"owner"`
	LikesCount int64         `json:"likesCount"`
}

// PlaylistSummary is a playlist row on a user's playlist page.
type PlaylistSummary struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int64     `json:"videoCount"`
	TotalViews  int64     `json:"totalViews"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistDetail is a playlist with its ordered videos.
type PlaylistDetail struct {
	ID          string         `json:"_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Owner       PublicProfile  `json:"owner"`
	Videos      []VideoSummary `json:"videos"`
}

// SubscriptionView is one side of a subscription with the other user's profile.
type SubscriptionView struct {
	User         PublicProfile `json:"user"`
	SubscribedAt time.Time     `json:"subscribedAt"`
}
