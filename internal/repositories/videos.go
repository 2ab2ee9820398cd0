package repositories

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

const videoColumns = `id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	q db.Querier
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(q db.Querier) *PostgresVideoRepository {
	return &PostgresVideoRepository{q: q}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoURL, video.ThumbnailURL, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	return mapError("insert video", err)
}

// FindByID loads a video without side effects.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	var video models.Video
	err := pgxscan.Get(ctx, r.q, &video, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return video, mapError("select video", err)
}

// IncrementViews atomically bumps the view counter and returns the updated video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) (models.Video, error) {
	var video models.Video
	err := pgxscan.Get(ctx, r.q, &video, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1
        RETURNING `+videoColumns, id)
	return video, mapError("increment video views", err)
}

// UpdateDetails replaces title, description and thumbnail.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, video models.Video) (models.Video, error) {
	var updated models.Video
	err := pgxscan.Get(ctx, r.q, &updated, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, updated_at = $5
        WHERE id = $1
        RETURNING `+videoColumns, video.ID, video.Title, video.Description, video.ThumbnailURL, video.UpdatedAt)
	return updated, mapError("update video", err)
}

// SetPublished flips the published flag.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool, at time.Time) (models.Video, error) {
	var updated models.Video
	err := pgxscan.Get(ctx, r.q, &updated, `
        UPDATE videos
        SET is_published = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+videoColumns, id, published, at)
	return updated, mapError("set video published", err)
}

// Delete removes a video. Comments, likes, history and playlist entries cascade.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.q, "videos", id)
}

// Exists reports whether a video with id exists.
func (r *PostgresVideoRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&exists)
	return exists, mapError("check video exists", err)
}

// RecordView moves video to the front of the user's watch history.
func (r *PostgresVideoRepository) RecordView(ctx context.Context, userID, videoID string, at time.Time) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, at)
	return mapError("record watch history", err)
}
