package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger *slog.Logger

	Accounts  AccountService
	Videos    VideoService
	Comments  CommentService
	Tweets    TweetService
	Playlists PlaylistService
	Views     ViewService
	Ledger    Toggler

	Tokens      middleware.TokenVerifier
	AuthLimiter middleware.RateLimiter
	Recorder    middleware.RequestRecorder
	Metrics     http.Handler
	DB          Pinger

	// TrustedProxies may report the client address in X-Forwarded-For.
	TrustedProxies middleware.TrustedProxies
	MaxUploadBytes int64
}

// NewRouter wires every endpoint under /api/v1 plus /healthz and /metrics.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{DB: deps.DB}
	users := UserHandler{Accounts: deps.Accounts, Views: deps.Views, MaxUploadBytes: deps.MaxUploadBytes}
	videos := VideoHandler{Videos: deps.Videos, MaxUploadBytes: deps.MaxUploadBytes}
	comments := CommentHandler{Comments: deps.Comments, Views: deps.Views}
	likes := LikeHandler{Ledger: deps.Ledger, Views: deps.Views}
	subscriptions := SubscriptionHandler{Ledger: deps.Ledger, Views: deps.Views}
	tweets := TweetHandler{Tweets: deps.Tweets}
	playlists := PlaylistHandler{Playlists: deps.Playlists}
	dashboard := DashboardHandler{Views: deps.Views}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	if deps.Recorder != nil {
		r.Use(middleware.Metrics(deps.Recorder))
	}

	r.Get("/healthz", health.Handle)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Tokens))
		authed := r.With(middleware.RequireUser)

		r.Get("/healthcheck", health.Check)

		r.Route("/users", func(r chi.Router) {
			limited := r.With(middleware.RateLimit(deps.AuthLimiter, "auth", deps.TrustedProxies))
			limited.Post("/register", users.Register)
			limited.Post("/login", users.Login)
			limited.Post("/refresh-token", users.Refresh)

			r.Get("/c/{username}", users.ChannelProfile)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.Current)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCover)
				r.Get("/history", users.WatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videos.List)
			r.Get("/{videoId}", videos.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", videos.Publish)
				r.Patch("/{videoId}", videos.Update)
				r.Delete("/{videoId}", videos.Delete)
				r.Patch("/toggle/publish/{videoId}", videos.TogglePublish)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{videoId}", comments.List)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/{videoId}", comments.Add)
				r.Patch("/c/{commentId}", comments.Update)
				r.Delete("/c/{commentId}", comments.Delete)
			})
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Post("/toggle/v/{videoId}", likes.ToggleVideo)
			r.Post("/toggle/c/{commentId}", likes.ToggleComment)
			r.Post("/toggle/t/{tweetId}", likes.ToggleTweet)
			r.Get("/videos", likes.LikedVideos)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/c/{channelId}", subscriptions.Subscribers)
			r.Get("/u/{subscriberId}", subscriptions.SubscribedChannels)
			r.With(middleware.RequireUser).Post("/c/{channelId}", subscriptions.Toggle)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Get("/user/{userId}", tweets.ListByUser)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", tweets.Create)
				r.Patch("/{tweetId}", tweets.Update)
				r.Delete("/{tweetId}", tweets.Delete)
			})
		})

		r.Route("/playlist", func(r chi.Router) {
			r.Get("/{playlistId}", playlists.Get)
			r.Get("/user/{userId}", playlists.ListByUser)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", playlists.Create)
				r.Patch("/{playlistId}", playlists.Update)
				r.Delete("/{playlistId}", playlists.Delete)
				r.Patch("/add/{videoId}/{playlistId}", playlists.AddVideo)
				r.Patch("/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
			})
		})

		authed.Get("/dashboard/stats", dashboard.Stats)
		authed.Get("/dashboard/stats/{userId}", dashboard.Stats)
		authed.Get("/dashboard/videos", dashboard.Videos)
	})

	return r
}
