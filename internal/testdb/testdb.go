// Package testdb boots a throwaway CockroachDB node with the VidStream schema
// applied, for repository and view integration tests.
package testdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/migrations"
)

// Server owns the test node and the migrated pool connected to it.
type Server struct {
	Pool *pgxpool.Pool
	node testserver.TestServer
}

// Start launches the node and applies every migration.
func Start(ctx context.Context) (*Server, error) {
	node, err := testserver.NewTestServer()
	if err != nil {
		return nil, fmt.Errorf("start cockroach test server: %w", err)
	}

	pool, err := pgxpool.New(ctx, node.PGURL().String())
	if err != nil {
		node.Stop()
		return nil, fmt.Errorf("connect to cockroach test server: %w", err)
	}

	migrator, err := db.NewMigrator(pool, migrations.FS)
	if err != nil {
		pool.Close()
		node.Stop()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Up(ctx); err != nil {
		pool.Close()
		node.Stop()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Server{Pool: pool, node: node}, nil
}

// Stop closes the pool and shuts the node down.
func (s *Server) Stop() {
	s.Pool.Close()
	s.node.Stop()
}

// Reset truncates every table so each test starts from an empty store.
func Reset(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const stmt = `TRUNCATE TABLE likes, subscriptions, watch_history, playlist_videos, playlists, comments, tweets, videos, sessions, users CASCADE`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

// CreateUser inserts a user named username and returns it.
func CreateUser(t testing.TB, pool *pgxpool.Pool, username string) models.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  username,
		AvatarURL: "https://media.example.com/avatars/" + username + ".png",
		Password:  "hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := pool.Exec(context.Background(), `
        INSERT INTO users (id, username, email, full_name, avatar_url, cover_url, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverURL, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreateVideo inserts a published video owned by ownerID with the given view count.
func CreateVideo(t testing.TB, pool *pgxpool.Pool, ownerID, title string, views int64) models.Video {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     "https://media.example.com/videos/" + title + ".mp4",
		ThumbnailURL: "https://media.example.com/thumbnails/" + title + ".png",
		Title:        title,
		Description:  title + " description",
		Duration:     60,
		Views:        views,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := pool.Exec(context.Background(), `
        INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoURL, video.ThumbnailURL, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		t.Fatalf("create video %s: %v", title, err)
	}
	return video
}

// Exec runs a fixture statement and fails the test on error.
func Exec(t testing.TB, pool *pgxpool.Pool, stmt string, args ...any) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), stmt, args...); err != nil {
		t.Fatalf("exec fixture: %v", err)
	}
}
