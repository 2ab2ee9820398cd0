package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidstream/backend/internal/accounts"
	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/config"
	"github.com/vidstream/backend/internal/content"
	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/handlers"
	"github.com/vidstream/backend/internal/ledger"
	"github.com/vidstream/backend/internal/metrics"
	"github.com/vidstream/backend/internal/middleware"
	"github.com/vidstream/backend/internal/repositories"
	"github.com/vidstream/backend/internal/storage"
	"github.com/vidstream/backend/internal/videos"
	"github.com/vidstream/backend/internal/views"
)

const rateLimitTTL = 10 * time.Minute

// cleanupFunc releases background workers started by buildDependencies.
type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}
	m := metrics.New()

	objects, err := objectStore(ctx, cfg.ObjectStore, logger)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	janitor := storage.NewJanitor(objects, storage.JanitorConfig{
		QueueSize: cfg.Janitor.QueueSize,
		Workers:   cfg.Janitor.Workers,
	}, logger)
	janitor.OnDelete(m.ObserveObjectDelete)

	userRepo := repositories.NewPostgresUserRepository(pool)
	videoRepo := repositories.NewPostgresVideoRepository(pool)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
	sessions := auth.NewManager(tokens, cfg.Auth.RefreshTTL, repositories.NewPostgresSessionStore(pool))

	catalogue := views.New(pool)
	prober := videos.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)

	deps := handlers.Dependencies{
		Logger:    logger,
		Accounts:  accounts.NewService(userRepo, sessions, objects, janitor),
		Videos:    videos.NewService(videoRepo, catalogue, objects, prober, janitor),
		Comments:  content.NewComments(repositories.NewPostgresCommentRepository(pool), videoRepo),
		Tweets:    content.NewTweets(repositories.NewPostgresTweetRepository(pool), userRepo),
		Playlists: content.NewPlaylists(repositories.NewPostgresPlaylistRepository(pool), videoRepo, userRepo),
		Views:     catalogue,
		Ledger:    ledger.New(repositories.NewPostgresRelationStore(pool), m),

		Tokens:      sessions,
		AuthLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute, cfg.RateLimit.Burst, rateLimitTTL),
		Recorder:    m,
		Metrics:     m.Handler(),
		DB:          pool,

		TrustedProxies: proxies,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	return deps, janitor.Shutdown, nil
}

// objectStore picks S3 when a bucket is configured and process memory
// otherwise, behind a circuit breaker either way.
func objectStore(ctx context.Context, cfg config.ObjectStoreConfig, logger *slog.Logger) (storage.Storage, error) {
	var (
		backend storage.Storage
		name    string
	)
	if cfg.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("configure object store: %w", err)
		}
		backend, name = s3, "s3:"+cfg.Bucket
	} else {
		logger.Warn("no object store bucket configured, keeping uploads in memory")
		backend, name = storage.NewMemoryStorage(cfg.PublicBaseURL), "memory"
	}

	return storage.NewBreakerStorage(backend, storage.BreakerConfig{
		Name:             name,
		FailureThreshold: cfg.BreakerTrips,
		Timeout:          cfg.BreakerTimeout,
		Logger:           logger,
	}), nil
}
