package repositories

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

const playlistColumns = `id, name, description, owner_id, created_at, updated_at`

// PostgresPlaylistRepository persists playlists and their ordered membership.
type PostgresPlaylistRepository struct {
	q db.Querier
}

func NewPostgresPlaylistRepository(q db.Querier) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{q: q}
}

// Create inserts a playlist. A taken name yields ErrConflict.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO playlists (id, name, description, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.Name, playlist.Description, playlist.OwnerID, playlist.CreatedAt, playlist.UpdatedAt)
	return mapError("insert playlist", err)
}

// FindByID loads the playlist together with its video ids in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	var playlist models.Playlist
	if err := pgxscan.Get(ctx, r.q, &playlist, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id); err != nil {
		return models.Playlist{}, mapError("select playlist", err)
	}
	videos, err := r.videoIDs(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.Videos = videos
	return playlist, nil
}

// ListByOwner returns the owner's playlists, newest first, each with its video ids.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	err := pgxscan.Select(ctx, r.q, &playlists, `
        SELECT `+playlistColumns+`
        FROM playlists
        WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
    `, ownerID)
	if err != nil {
		return nil, mapError("select playlists", err)
	}
	for i := range playlists {
		videos, err := r.videoIDs(ctx, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Videos = videos
	}
	return playlists, nil
}

// UpdateDetails renames the playlist and replaces its description.
func (r *PostgresPlaylistRepository) UpdateDetails(ctx context.Context, id, name, description string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4
        WHERE id = $1
    `, id, name, description, at)
	if err != nil {
		return mapError("update playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.q, "playlists", id)
}

// AddVideo appends videoID. It reports false when the video was already present.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (playlist_id, video_id) DO NOTHING
    `, playlistID, videoID, at)
	if err != nil {
		return false, mapError("add playlist video", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveVideo drops videoID. It reports false when the video was not a member.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
	if err != nil {
		return false, mapError("remove playlist video", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresPlaylistRepository) videoIDs(ctx context.Context, playlistID string) ([]string, error) {
	ids := []string{}
	err := pgxscan.Select(ctx, r.q, &ids, `
        SELECT video_id
        FROM playlist_videos
        WHERE playlist_id = $1
        ORDER BY added_at, video_id
    `, playlistID)
	if err != nil {
		return nil, mapError("select playlist videos", err)
	}
	return ids, nil
}
