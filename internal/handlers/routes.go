package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/middleware"
)

const apiPrefix = "/api/v1"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	DB            Pinger
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Playlists     PlaylistStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Views         ViewStore
	Media         MediaUploader
	Auth          middleware.Authenticator
	AuthLimiter   middleware.RateLimiter
	CookieSecure  bool
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	users := UserHandler{
		Users:        deps.Users,
		Sessions:     deps.Sessions,
		Views:        deps.Views,
		Media:        deps.Media,
		CookieSecure: deps.CookieSecure,
	}
	videos := VideoHandler{Videos: deps.Videos, Views: deps.Views, Media: deps.Media}
	dashboard := DashboardHandler{Views: deps.Views}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Views: deps.Views}
	likes := LikeHandler{Likes: deps.Likes, Views: deps.Views}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Views: deps.Views}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Views: deps.Views}
	tweets := TweetHandler{Tweets: deps.Tweets, Views: deps.Views}

	public := func(h http.HandlerFunc) http.Handler { return h }
	optional := func(h http.HandlerFunc) http.Handler { return deps.Auth.Optional(h) }
	private := func(h http.HandlerFunc) http.Handler { return deps.Auth.Require(h) }
	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(deps.AuthLimiter, scope)(h)
	}

	routes := []struct {
		pattern string
		handler http.Handler
	}{
		{"GET /healthz", public(health.Live)},
		{"GET " + apiPrefix + "/healthcheck", public(health.Ready)},

		{"POST " + apiPrefix + "/users/register", limited("register", users.Register)},
		{"POST " + apiPrefix + "/users/login", limited("login", users.Login)},
		{"POST " + apiPrefix + "/users/refresh-token", limited("refresh", users.RefreshToken)},
		{"POST " + apiPrefix + "/users/logout", private(users.Logout)},
		{"POST " + apiPrefix + "/users/change-password", private(users.ChangePassword)},
		{"GET " + apiPrefix + "/users/current-user", private(users.CurrentUser)},
		{"PATCH " + apiPrefix + "/users/update-account", private(users.UpdateAccount)},
		{"PATCH " + apiPrefix + "/users/avatar", private(users.UpdateAvatar)},
		{"PATCH " + apiPrefix + "/users/cover-image", private(users.UpdateCoverImage)},
		{"GET " + apiPrefix + "/users/c/{username}", optional(users.ChannelProfile)},
		{"GET " + apiPrefix + "/users/history", private(users.WatchHistory)},

		{"GET " + apiPrefix + "/videos", public(videos.Feed)},
		{"POST " + apiPrefix + "/videos", private(videos.Create)},
		{"GET " + apiPrefix + "/videos/{videoId}/watch", optional(videos.Watch)},
		{"PATCH " + apiPrefix + "/videos/{videoId}", private(videos.Update)},
		{"DELETE " + apiPrefix + "/videos/{videoId}", private(videos.Delete)},
		{"PATCH " + apiPrefix + "/videos/{videoId}/publish", private(videos.TogglePublish)},
		{"GET " + apiPrefix + "/videos/{channelId}/stats", public(dashboard.Stats)},
		{"GET " + apiPrefix + "/videos/{channelId}", public(dashboard.Videos)},

		{"GET " + apiPrefix + "/comments/{videoId}", public(comments.List)},
		{"POST " + apiPrefix + "/comments/{videoId}", private(comments.Create)},
		{"PATCH " + apiPrefix + "/comments/c/{commentId}", private(comments.Update)},
		{"DELETE " + apiPrefix + "/comments/c/{commentId}", private(comments.Delete)},

		{"POST " + apiPrefix + "/likes/toggle/v/{videoId}", private(likes.ToggleVideo)},
		{"POST " + apiPrefix + "/likes/toggle/c/{commentId}", private(likes.ToggleComment)},
		{"POST " + apiPrefix + "/likes/toggle/t/{tweetId}", private(likes.ToggleTweet)},
		{"GET " + apiPrefix + "/likes/videos", private(likes.LikedVideos)},

		{"POST " + apiPrefix + "/playlists", private(playlists.Create)},
		{"GET " + apiPrefix + "/playlists/user/{userId}", public(playlists.ListForUser)},
		{"GET " + apiPrefix + "/playlists/{playlistId}", public(playlists.Get)},
		{"PATCH " + apiPrefix + "/playlists/{playlistId}", private(playlists.Update)},
		{"DELETE " + apiPrefix + "/playlists/{playlistId}", private(playlists.Delete)},
		{"PATCH " + apiPrefix + "/playlists/add/{videoId}/{playlistId}", private(playlists.AddVideo)},
		{"PATCH " + apiPrefix + "/playlists/remove/{videoId}/{playlistId}", private(playlists.RemoveVideo)},

		{"POST " + apiPrefix + "/subscriptions/c/{channelId}", private(subscriptions.Toggle)},
		{"GET " + apiPrefix + "/subscriptions/c/{channelId}", public(subscriptions.Subscribers)},
		{"GET " + apiPrefix + "/subscriptions/u/{subscriberId}", public(subscriptions.Channels)},

		{"POST " + apiPrefix + "/tweets", private(tweets.Create)},
		{"GET " + apiPrefix + "/tweets/user/{userId}", public(tweets.ListForUser)},
		{"PATCH " + apiPrefix + "/tweets/{tweetId}", private(tweets.Update)},
		{"DELETE " + apiPrefix + "/tweets/{tweetId}", private(tweets.Delete)},
	}

	for _, route := range routes {
		mux.Handle(route.pattern, route.handler)
	}
}
