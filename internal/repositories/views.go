package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	vb "github.com/vidtube/backend/internal/viewbuilder"
)

var (
	publicProfileFields = vb.Fields("_id", "username", "fullname", "avatar")
	videoSummaryFields  = vb.Fields("_id", "title", "description", "thumbnail", "videoFile", "duration", "views", "isPublished", "createdAt")
)

// FeedSortFields lists the fields the video feed may be sorted by.
var FeedSortFields = map[string]bool{
	"createdAt": true,
	"views":     true,
	"duration":  true,
	"title":     true,
}

// FeedQuery selects a page of the published video feed.
type FeedQuery struct {
	Page    vb.PageRequest
	OwnerID string
	SortBy  string
	Desc    bool
}

// ownerJoin attaches the public profile of the user referenced by local under as.
func ownerJoin(local, as string, flatten vb.Flatten) vb.Join {
	return vb.Join{
		From:         collUsers,
		LocalField:   local,
		ForeignField: "_id",
		As:           as,
		Pipeline:     []vb.Stage{vb.Project{Fields: publicProfileFields}},
		Flatten:      flatten,
	}
}

// likesJoin attaches the likes of kind pointing at the document's _id.
func likesJoin(kind models.LikeTarget) vb.Join {
	return vb.Join{
		From:         collLikes,
		LocalField:   "_id",
		ForeignField: "target",
		As:           "likes",
		Pipeline:     []vb.Stage{vb.Match{Conditions: []vb.Condition{vb.Eq("targetKind", string(kind))}}},
	}
}

// prefixed projects each field from under prefix, keeping its name.
func prefixed(prefix string, names ...string) []vb.Projection {
	out := make([]vb.Projection, 0, len(names))
	for _, name := range names {
		out = append(out, vb.Projection{Name: name, From: prefix + "." + name})
	}
	return out
}

func fieldNames(fields []vb.Projection) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func channelProfileView(username, viewerID string) vb.View {
	return vb.View{
		From:  collUsers,
		Match: []vb.Condition{vb.Eq("username", strings.ToLower(strings.TrimSpace(username)))},
		Joins: []vb.Join{
			{From: collSubscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
			{From: collSubscriptions, LocalField: "_id", ForeignField: "subscriber", As: "subscribedTo"},
		},
		Derived: []vb.Stage{
			vb.Size{As: "subscribersCount", Field: "subscribers"},
			vb.Size{As: "channelsSubscribedToCount", Field: "subscribedTo"},
			vb.Contains{As: "isSubscribed", Field: "subscribers", Path: "subscriber", Value: viewerID},
		},
		Project: vb.Fields("_id", "username", "fullname", "email", "avatar", "coverImage",
			"subscribersCount", "channelsSubscribedToCount", "isSubscribed"),
	}
}

func watchHistoryView(userID string) vb.View {
	video := vb.Join{
		From:         collVideos,
		LocalField:   "video",
		ForeignField: "_id",
		As:           "video",
		Pipeline:     ownerJoin("owner", "owner", vb.FlattenFirst).Stages(),
		Flatten:      vb.FlattenUnwind,
	}
	project := prefixed("video", "_id", "title", "description", "thumbnail", "duration", "views", "createdAt", "owner")
	project = append(project, vb.Projection{Name: "watchedAt"})
	return vb.View{
		From:    collWatchHistory,
		Match:   []vb.Condition{vb.Eq("user", userID)},
		Joins:   []vb.Join{video},
		Project: project,
		Sort:    []vb.SortKey{{Field: "watchedAt", Desc: true}},
	}
}

func channelStatsView(channelID string) vb.View {
	videos := vb.Join{
		From:         collVideos,
		LocalField:   "_id",
		ForeignField: "owner",
		As:           "videos",
		Pipeline: append(likesJoin(models.LikeTargetVideo).Stages(),
			vb.Size{As: "likesCount", Field: "likes"},
			vb.Project{Fields: vb.Fields("views", "likesCount")},
		),
	}
	return vb.View{
		From:  collUsers,
		Match: []vb.Condition{vb.Eq("_id", channelID)},
		Joins: []vb.Join{
			videos,
			{From: collSubscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
		},
		Derived: []vb.Stage{
			vb.Size{As: "totalVideos", Field: "videos"},
			vb.Sum{As: "totalViews", Field: "videos", Path: "views"},
			vb.Sum{As: "totalLikes", Field: "videos", Path: "likesCount"},
			vb.Size{As: "totalSubscribers", Field: "subscribers"},
		},
		Project: vb.Fields("totalVideos", "totalViews", "totalLikes", "totalSubscribers"),
	}
}

func channelVideosView(channelID string) vb.View {
	return vb.View{
		From:    collVideos,
		Match:   []vb.Condition{vb.Eq("owner", channelID)},
		Project: videoSummaryFields,
		Sort:    []vb.SortKey{{Field: "createdAt", Desc: true}},
	}
}

func videoFeedView(q FeedQuery) vb.View {
	match := []vb.Condition{vb.Eq("isPublished", true)}
	if q.OwnerID != "" {
		match = append(match, vb.Eq("owner", q.OwnerID))
	}
	sortBy := q.SortBy
	if !FeedSortFields[sortBy] {
		sortBy = "createdAt"
	}
	return vb.View{
		From:    collVideos,
		Match:   match,
		Joins:   []vb.Join{ownerJoin("owner", "owner", vb.FlattenUnwind)},
		Project: append(append([]vb.Projection(nil), videoSummaryFields...), vb.Projection{Name: "owner"}),
		Sort:    []vb.SortKey{{Field: sortBy, Desc: q.Desc}},
	}
}

func videoDetailView(videoID, viewerID string) vb.View {
	owner := vb.Join{
		From:         collUsers,
		LocalField:   "owner",
		ForeignField: "_id",
		As:           "owner",
		Pipeline: []vb.Stage{
			vb.Lookup{From: collSubscriptions, LocalField: "_id", ForeignField: "channel", As: "subscribers"},
			vb.Size{As: "subscribersCount", Field: "subscribers"},
			vb.Contains{As: "isSubscribed", Field: "subscribers", Path: "subscriber", Value: viewerID},
			vb.Project{Fields: vb.Fields("_id", "username", "fullname", "avatar", "subscribersCount", "isSubscribed")},
		},
		Flatten: vb.FlattenUnwind,
	}
	return vb.View{
		From:  collVideos,
		Match: []vb.Condition{vb.Eq("_id", videoID)},
		Joins: []vb.Join{likesJoin(models.LikeTargetVideo), owner},
		Derived: []vb.Stage{
			vb.Size{As: "likesCount", Field: "likes"},
			vb.Contains{As: "isLiked", Field: "likes", Path: "likedBy", Value: viewerID},
		},
		Project: append(append([]vb.Projection(nil), videoSummaryFields...), vb.Fields("owner", "likesCount", "isLiked")...),
	}
}

func videoCommentsView(videoID string) vb.View {
	return vb.View{
		From:    collComments,
		Match:   []vb.Condition{vb.Eq("video", videoID)},
		Joins:   []vb.Join{ownerJoin("owner", "owner", vb.FlattenUnwind), likesJoin(models.LikeTargetComment)},
		Derived: []vb.Stage{vb.Size{As: "likesCount", Field: "likes"}},
		Project: vb.Fields("_id", "content", "createdAt", "owner", "likesCount"),
		Sort:    []vb.SortKey{{Field: "createdAt", Desc: true}},
	}
}

func likedVideosView(userID string) vb.View {
	video := vb.Join{
		From:         collVideos,
		LocalField:   "target",
		ForeignField: "_id",
		As:           "video",
		Pipeline:     ownerJoin("owner", "owner", vb.FlattenFirst).Stages(),
		Flatten:      vb.FlattenUnwind,
	}
	project := prefixed("video", append(fieldNames(videoSummaryFields), "owner")...)
	project = append(project, vb.Projection{Name: "likedAt", From: "createdAt"})
	return vb.View{
		From: collLikes,
		Match: []vb.Condition{
			vb.Eq("likedBy", userID),
			vb.Eq("targetKind", string(models.LikeTargetVideo)),
		},
		Joins:   []vb.Join{video},
		Project: project,
		Sort:    []vb.SortKey{{Field: "likedAt", Desc: true}},
	}
}

func userTweetsView(userID string) vb.View {
	return vb.View{
		From:    collTweets,
		Match:   []vb.Condition{vb.Eq("owner", userID)},
		Joins:   []vb.Join{ownerJoin("owner", "owner", vb.FlattenUnwind), likesJoin(models.LikeTargetTweet)},
		Derived: []vb.Stage{vb.Size{As: "likesCount", Field: "likes"}},
		Project: vb.Fields("_id", "content", "createdAt", "owner", "likesCount"),
		Sort:    []vb.SortKey{{Field: "createdAt", Desc: true}},
	}
}

func userPlaylistsView(userID string) vb.View {
	entries := vb.Join{
		From:         collPlaylistVideos,
		LocalField:   "_id",
		ForeignField: "playlist",
		As:           "entries",
		Pipeline: append(
			vb.Join{From: collVideos, LocalField: "video", ForeignField: "_id", As: "video", Flatten: vb.FlattenUnwind}.Stages(),
			vb.Project{Fields: []vb.Projection{{Name: "views", From: "video.views"}}},
		),
	}
	return vb.View{
		From:  collPlaylists,
		Match: []vb.Condition{vb.Eq("owner", userID)},
		Joins: []vb.Join{entries},
		Derived: []vb.Stage{
			vb.Size{As: "videoCount", Field: "entries"},
			vb.Sum{As: "totalViews", Field: "entries", Path: "views"},
		},
		Project: vb.Fields("_id", "name", "description", "videoCount", "totalViews", "createdAt", "updatedAt"),
		Sort:    []vb.SortKey{{Field: "createdAt", Desc: true}},
	}
}

func playlistDetailView(playlistID string) vb.View {
	video := vb.Join{
		From:         collVideos,
		LocalField:   "video",
		ForeignField: "_id",
		As:           "video",
		Pipeline: append(
			[]vb.Stage{vb.Match{Conditions: []vb.Condition{vb.Eq("isPublished", true)}}},
			ownerJoin("owner", "owner", vb.FlattenFirst).Stages()...,
		),
		Flatten: vb.FlattenUnwind,
	}
	entries := vb.Join{
		From:         collPlaylistVideos,
		LocalField:   "_id",
		ForeignField: "playlist",
		As:           "videos",
		Pipeline: append(video.Stages(),
			vb.Project{Fields: prefixed("video", append(fieldNames(videoSummaryFields), "owner")...)},
		),
	}
	return vb.View{
		From:    collPlaylists,
		Match:   []vb.Condition{vb.Eq("_id", playlistID)},
		Joins:   []vb.Join{ownerJoin("owner", "owner", vb.FlattenUnwind), entries},
		Project: vb.Fields("_id", "name", "description", "createdAt", "updatedAt", "owner", "videos"),
	}
}

// subscriptionsView lists subscriptions matched on side, joining the user on
// the other side.
func subscriptionsView(side, id, other string) vb.View {
	return vb.View{
		From:  collSubscriptions,
		Match: []vb.Condition{vb.Eq(side, id)},
		Joins: []vb.Join{ownerJoin(other, "user", vb.FlattenUnwind)},
		Project: []vb.Projection{
			{Name: "user"},
			{Name: "subscribedAt", From: "createdAt"},
		},
		Sort: []vb.SortKey{{Field: "subscribedAt", Desc: true}},
	}
}

// PostgresViewRepository serves the denormalized read models.
type PostgresViewRepository struct {
	pool    db.Pool
	builder *vb.Builder
}

// NewPostgresViewRepository constructs a view repository over the shared schema.
func NewPostgresViewRepository(pool db.Pool) *PostgresViewRepository {
	return &PostgresViewRepository{pool: pool, builder: vb.New(Schema)}
}

// ChannelProfile returns a channel page; isSubscribed reflects viewerID, which may be empty.
func (r *PostgresViewRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	return findOne[models.ChannelProfile](ctx, r, "channel profile", channelProfileView(username, viewerID))
}

// WatchHistory returns the user's watched videos, most recent first.
func (r *PostgresViewRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	return findAll[models.WatchHistoryEntry](ctx, r, "watch history", watchHistoryView(userID))
}

// ChannelStats returns the dashboard totals of a channel.
func (r *PostgresViewRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	return findOne[models.ChannelStats](ctx, r, "channel stats", channelStatsView(channelID))
}

// ChannelVideos returns every video of a channel, newest first, published or not.
func (r *PostgresViewRepository) ChannelVideos(ctx context.Context, channelID string) ([]models.VideoSummary, error) {
	return findAll[models.VideoSummary](ctx, r, "channel videos", channelVideosView(channelID))
}

// VideoFeed returns a page of published videos.
func (r *PostgresViewRepository) VideoFeed(ctx context.Context, q FeedQuery) (vb.Page[models.VideoSummary], error) {
	return findPage[models.VideoSummary](ctx, r, "video feed", videoFeedView(q), q.Page)
}

// VideoDetail returns the watch page of a video; like and subscription state reflect viewerID.
func (r *PostgresViewRepository) VideoDetail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error) {
	return findOne[models.VideoDetail](ctx, r, "video detail", videoDetailView(videoID, viewerID))
}

// VideoComments returns a page of a video's comments, newest first.
func (r *PostgresViewRepository) VideoComments(ctx context.Context, videoID string, page vb.PageRequest) (vb.Page[models.CommentView], error) {
	return findPage[models.CommentView](ctx, r, "video comments", videoCommentsView(videoID), page)
}

// LikedVideos returns a page of the videos a user liked, most recently liked first.
func (r *PostgresViewRepository) LikedVideos(ctx context.Context, userID string, page vb.PageRequest) (vb.Page[models.VideoSummary], error) {
	return findPage[models.VideoSummary](ctx, r, "liked videos", likedVideosView(userID), page)
}

// UserTweets returns a user's tweets, newest first.
func (r *PostgresViewRepository) UserTweets(ctx context.Context, userID string) ([]models.TweetView, error) {
	return findAll[models.TweetView](ctx, r, "user tweets", userTweetsView(userID))
}

// UserPlaylists returns a user's playlists with their sizes and view totals.
func (r *PostgresViewRepository) UserPlaylists(ctx context.Context, userID string) ([]models.PlaylistSummary, error) {
	return findAll[models.PlaylistSummary](ctx, r, "user playlists", userPlaylistsView(userID))
}

// PlaylistDetail returns a playlist with its published videos in playlist order.
func (r *PostgresViewRepository) PlaylistDetail(ctx context.Context, playlistID string) (models.PlaylistDetail, error) {
	return findOne[models.PlaylistDetail](ctx, r, "playlist detail", playlistDetailView(playlistID))
}

// ChannelSubscribers lists the users subscribed to a channel.
func (r *PostgresViewRepository) ChannelSubscribers(ctx context.Context, channelID string) ([]models.SubscriptionView, error) {
	return findAll[models.SubscriptionView](ctx, r, "channel subscribers", subscriptionsView("channel", channelID, "subscriber"))
}

// SubscribedChannels lists the channels a user subscribes to.
func (r *PostgresViewRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscriptionView, error) {
	return findAll[models.SubscriptionView](ctx, r, "subscribed channels", subscriptionsView("subscriber", subscriberID, "channel"))
}

func findOne[T any](ctx context.Context, r *PostgresViewRepository, name string, v vb.View) (T, error) {
	doc, err := vb.FindOne[T](ctx, r.pool, r.builder, v.Pipeline())
	if err != nil {
		var zero T
		return zero, translate(err, "query "+name)
	}
	return doc, nil
}

func findAll[T any](ctx context.Context, r *PostgresViewRepository, name string, v vb.View) ([]T, error) {
	docs, err := vb.Find[T](ctx, r.pool, r.builder, v.Pipeline())
	if err != nil {
		return nil, translate(err, "query "+name)
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

func findPage[T any](ctx context.Context, r *PostgresViewRepository, name string, v vb.View, page vb.PageRequest) (vb.Page[T], error) {
	p, err := vb.FindPage[T](ctx, r.pool, r.builder, v, page)
	if err != nil {
		return vb.Page[T]{}, fmt.Errorf("query %s: %w", name, err)
	}
	return p, nil
}
