package repositories

import "github.com/vidtube/backend/internal/viewbuilder"

const (
	collUsers          = "users"
	collVideos         = "videos"
	collComments       = "comments"
	collLikes          = "likes"
	collPlaylists      = "playlists"
	collPlaylistVideos = "playlistVideos"
	collSubscriptions  = "subscriptions"
	collTweets         = "tweets"
	collWatchHistory   = "watchHistory"
)

// Schema exposes each table as a document collection. Credentials
// (password hash, refresh token) are deliberately absent.
var Schema = viewbuilder.Schema{
	collUsers: {
		Table: "users",
		Fields: []viewbuilder.Field{
			{Name: "_id", Column: "id", Type: viewbuilder.TypeUUID},
			{Name: "username", Column: "username", Type: "TEXT"},
			{Name: "email", Column: "email", Type: "TEXT"},
			{Name: "fullname", Column: "fullname"},
			{Name: "avatar", Column: "avatar_url"},
			{Name: "coverImage", Column: "cover_image_url"},
			{Name: "createdAt", Column: "created_at", Type: viewbuilder.TypeTimestamptz},
			{Name: "updatedAt", Column: "updated_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"created_at", "id"},
	},
	collVideos: {
		Table: "videos",
		Fields: []viewbuilder.Field{
			{Name: "_id", Column: "id", Type: viewbuilder.TypeUUID},
			{Name: "owner", Column: "owner_id", Type: viewbuilder.TypeUUID},
			{Name: "videoFile", Column: "video_file_url"},
			{Name: "thumbnail", Column: "thumbnail_url"},
			{Name: "title", Column: "title"},
			{Name: "description", Column: "description"},
			{Name: "duration", Column: "duration"},
			{Name: "views", Column: "views"},
			{Name: "isPublished", Column: "is_published", Type: "BOOL"},
			{Name: "createdAt", Column: "created_at", Type: viewbuilder.TypeTimestamptz},
			{Name: "updatedAt", Column: "updated_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"created_at", "id"},
	},
	collComments: {
		Table: "comments",
		Fields: []viewbuilder.Field{
			{Name: "_id", Column: "id", Type: viewbuilder.TypeUUID},
			{Name: "video", Column: "video_id", Type: viewbuilder.TypeUUID},
			{Name: "owner", Column: "owner_id", Type: viewbuilder.TypeUUID},
			{Name: "content", Column: "content"},
			{Name: "createdAt", Column: "created_at", Type: viewbuilder.TypeTimestamptz},
			{Name: "updatedAt", Column: "updated_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"created_at", "id"},
	},
	collLikes: {
		Table: "likes",
		Fields: []viewbuilder.Field{
			{Name: "_id", Column: "id", Type: viewbuilder.TypeUUID},
			{Name: "likedBy", Column: "liked_by", Type: viewbuilder.TypeUUID},
			{Name: "targetKind", Column: "target_kind", Type: "TEXT"},
			{Name: "target", Column: "target_id", Type: viewbuilder.TypeUUID},
			{Name: "createdAt", Column: "created_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"created_at", "id"},
	},
	collPlaylists: {
		Table: "playlists",
		Fields: []viewbuilder.Field{
			{Name: "_id", Column: "id", Type: viewbuilder.TypeUUID},
			{Name: "owner", Column: "owner_id", Type: viewbuilder.TypeUUID},
			{Name: "name", Column: "name"},
			{Name: "description", Column: "description"},
			{Name: "createdAt", Column: "created_at", Type: viewbuilder.TypeTimestamptz},
			{Name: "updatedAt", Column: "updated_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"created_at", "id"},
	},
	collPlaylistVideos: {
		Table: "playlist_videos",
		Fields: []viewbuilder.Field{
			{Name: "playlist", Column: "playlist_id", Type: viewbuilder.TypeUUID},
			{Name: "video", Column: "video_id", Type: viewbuilder.TypeUUID},
			{Name: "position", Column: "position"},
			{Name: "addedAt", Column: "added_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"position"},
	},
	collSubscriptions: {
		Table: "subscriptions",
		Fields: []viewbuilder.Field{
			{Name: "_id", Column: "id", Type: viewbuilder.TypeUUID},
			{Name: "subscriber", Column: "subscriber_id", Type: viewbuilder.TypeUUID},
			{Name: "channel", Column: "channel_id", Type: viewbuilder.TypeUUID},
			{Name: "createdAt", Column: "created_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"created_at", "id"},
	},
	collTweets: {
		Table: "tweets",
		Fields: []viewbuilder.Field{
			{Name: "_id", Column: "id", Type: viewbuilder.TypeUUID},
			{Name: "owner", Column: "owner_id", Type: viewbuilder.TypeUUID},
			{Name: "content", Column: "content"},
			{Name: "createdAt", Column: "created_at", Type: viewbuilder.TypeTimestamptz},
			{Name: "updatedAt", Column: "updated_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"created_at", "id"},
	},
	collWatchHistory: {
		Table: "watch_history",
		Fields: []viewbuilder.Field{
			{Name: "user", Column: "user_id", Type: viewbuilder.TypeUUID},
			{Name: "video", Column: "video_id", Type: viewbuilder.TypeUUID},
			{Name: "watchedAt", Column: "watched_at", Type: viewbuilder.TypeTimestamptz},
		},
		Order: []string{"watched_at"},
	},
}
