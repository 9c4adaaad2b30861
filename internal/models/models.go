package models

import (
	"fmt"
	"time"
)

// User represents an account (and channel) within the VidTube platform.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Fullname     string    `json:"fullname"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	Password     string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Video is an uploaded video owned by a channel.
type Video struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"owner"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Comment is a remark left by a user on a video.
type Comment struct {
	ID        string    `json:"_id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tweet is a short text post published by a user.
type Tweet struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is an ordered, user-curated list of videos.
type Playlist struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription links a subscriber to a channel.
type Subscription struct {
	ID           string    `json:"_id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LikeTarget names the kind of entity a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Valid reports whether t is one of the known target kinds.
func (t LikeTarget) Valid() bool {
	switch t {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
		return true
	}
	return false
}

// Like records that a user likes exactly one target.
type Like struct {
	ID         string     `json:"_id"`
	LikedBy    string     `json:"likedBy"`
	TargetKind LikeTarget `json:"targetKind"`
	TargetID   string     `json:"target"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewLike builds a like for a single, explicitly typed target.
func NewLike(id, likedBy string, kind LikeTarget, targetID string, at time.Time) (Like, error) {
	if !kind.Valid() {
		return Like{}, fmt.Errorf("unknown like target %q", kind)
	}
	if targetID == "" {
		return Like{}, fmt.Errorf("like target id is required")
	}
	return Like{ID: id, LikedBy: likedBy, TargetKind: kind, TargetID: targetID, CreatedAt: at}, nil
}

// ToggleResult reports the state of a relationship after a toggle.
type ToggleResult struct {
	Active bool `json:"active"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Owner reports the owning user id of each owner-scoped entity.

func (v Video) Owner() string    { return v.OwnerID }
func (c Comment) Owner() string  { return c.OwnerID }
func (t Tweet) Owner() string    { return t.OwnerID }
func (p Playlist) Owner() string { return p.OwnerID }
