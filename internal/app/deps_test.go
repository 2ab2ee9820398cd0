package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"

	"github.com/vidstream/backend/internal/config"
	"github.com/vidstream/backend/internal/storage"
)

func testConfig() config.Config {
	return config.Config{
		MaxUploadBytes: 1 << 20,
		FFProbePath:    "ffprobe",
		FFProbeTimeout: time.Second,
		Auth: config.AuthConfig{
			JWTSecret:  "secret",
			Issuer:     "vidstream-test",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 10, Burst: 2},
		Janitor:   config.JanitorConfig{Workers: 1, QueueSize: 4},
		ObjectStore: config.ObjectStoreConfig{
			BreakerTrips:   3,
			BreakerTimeout: time.Second,
		},
	}
}

func TestBuildDependencies(t *testing.T) {
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, cleanup, err := buildDependencies(context.Background(), pool, testConfig(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	}()

	checks := map[string]bool{
		"accounts":     deps.Accounts != nil,
		"videos":       deps.Videos != nil,
		"comments":     deps.Comments != nil,
		"tweets":       deps.Tweets != nil,
		"playlists":    deps.Playlists != nil,
		"views":        deps.Views != nil,
		"ledger":       deps.Ledger != nil,
		"tokens":       deps.Tokens != nil,
		"auth limiter": deps.AuthLimiter != nil,
		"recorder":     deps.Recorder != nil,
		"metrics":      deps.Metrics != nil,
		"db":           deps.DB != nil,
	}
	for name, ok := range checks {
		if !ok {
			t.Fatalf("expected %s to be configured", name)
		}
	}
	if deps.MaxUploadBytes != 1<<20 {
		t.Fatalf("unexpected upload limit %d", deps.MaxUploadBytes)
	}
}

func TestBuildDependenciesRejectsBadProxies(t *testing.T) {
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer pool.Close()

	cfg := testConfig()
	cfg.TrustedProxies = []string{"10.0.0.0/8", "proxy.internal"}
	if _, _, err := buildDependencies(context.Background(), pool, cfg, nil); err == nil {
		t.Fatal("expected invalid trusted proxy to be rejected")
	}
}

func TestObjectStoreSelection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig().ObjectStore
	store, err := objectStore(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := store.(*storage.BreakerStorage); !ok {
		t.Fatalf("expected breaker-wrapped store got %T", store)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	cfg.Bucket = "media"
	cfg.Region = "us-east-1"
	cfg.Endpoint = "http://localhost:9000"
	if _, err := objectStore(context.Background(), cfg, logger); err != nil {
		t.Fatalf("s3 store: %v", err)
	}
}
