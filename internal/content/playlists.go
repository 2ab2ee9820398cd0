package content

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/ownership"
	"github.com/vidstream/backend/internal/repositories"
)

// PlaylistStore persists playlists and their membership. AddVideo and
// RemoveVideo report whether membership actually changed.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	UpdateDetails(ctx context.Context, id, name, description string, at time.Time) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) (bool, error)
	RemoveVideo(ctx context.Context, playlistID, videoID string) (bool, error)
}

// Playlists manages ordered, duplicate-free video collections. Names are
// unique across all users.
type Playlists struct {
	store  PlaylistStore
	videos VideoChecker
	users  UserChecker
	now    clock
}

func NewPlaylists(store PlaylistStore, videos VideoChecker, users UserChecker) *Playlists {
	return &Playlists{store: store, videos: videos, users: users, now: utcNow}
}

func (p *Playlists) Create(ctx context.Context, actorID, name, description string) (models.Playlist, error) {
	if err := requireActor(actorID); err != nil {
		return models.Playlist{}, err
	}
	name, err := requiredText("name", name)
	if err != nil {
		return models.Playlist{}, err
	}
	description, err = requiredText("description", description)
	if err != nil {
		return models.Playlist{}, err
	}

	now := p.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		OwnerID:     actorID,
		Videos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.store.Create(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("playlist %q already exists", name)
		}
		return models.Playlist{}, storeError(err, "user")
	}
	logging.FromContext(ctx).Info("playlist created", "playlist_id", playlist.ID)
	return playlist, nil
}

func (p *Playlists) Get(ctx context.Context, playlistID string) (models.Playlist, error) {
	id, err := models.ParseID("playlistId", playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist, err := p.store.FindByID(ctx, id)
	if err != nil {
		return models.Playlist{}, storeError(err, "playlist")
	}
	return playlist, nil
}

func (p *Playlists) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	id, err := models.ParseID("userId", ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := p.users.FindByID(ctx, id); err != nil {
		return nil, storeError(err, "user")
	}
	playlists, err := p.store.ListByOwner(ctx, id)
	if err != nil {
		return nil, storeError(err, "playlist")
	}
	return playlists, nil
}

// Update renames the playlist and replaces its description. Taking a name
// already in use yields Conflict.
func (p *Playlists) Update(ctx context.Context, actorID, playlistID, name, description string) (models.Playlist, error) {
	id, err := models.ParseID("playlistId", playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	name, err = requiredText("name", name)
	if err != nil {
		return models.Playlist{}, err
	}
	description, err = requiredText("description", description)
	if err != nil {
		return models.Playlist{}, err
	}
	if _, err := ownership.Load(ctx, actorID, id, "playlist", p.store.FindByID); err != nil {
		return models.Playlist{}, err
	}

	if err := p.store.UpdateDetails(ctx, id, name, description, p.now()); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("playlist %q already exists", name)
		}
		return models.Playlist{}, storeError(err, "playlist")
	}
	return p.Get(ctx, id)
}

func (p *Playlists) Delete(ctx context.Context, actorID, playlistID string) error {
	id, err := models.ParseID("playlistId", playlistID)
	if err != nil {
		return err
	}
	if _, err := ownership.Load(ctx, actorID, id, "playlist", p.store.FindByID); err != nil {
		return err
	}
	if err := p.store.Delete(ctx, id); err != nil {
		return storeError(err, "playlist")
	}
	return nil
}

// AddVideo appends videoID to the playlist. Adding a video already present
// leaves the playlist unchanged.
func (p *Playlists) AddVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	pid, vid, err := p.membership(ctx, actorID, playlistID, videoID)
	if err != nil {
		return models.Playlist{}, err
	}
	if err := requireVideo(ctx, p.videos, vid); err != nil {
		return models.Playlist{}, err
	}
	added, err := p.store.AddVideo(ctx, pid, vid, p.now())
	if err != nil {
		return models.Playlist{}, storeError(err, "video")
	}
	if !added {
		logging.FromContext(ctx).Debug("video already in playlist", "playlist_id", pid, "video_id", vid)
	}
	return p.Get(ctx, pid)
}

// RemoveVideo drops videoID from the playlist. Removing an absent video is a no-op.
func (p *Playlists) RemoveVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	pid, vid, err := p.membership(ctx, actorID, playlistID, videoID)
	if err != nil {
		return models.Playlist{}, err
	}
	if _, err := p.store.RemoveVideo(ctx, pid, vid); err != nil {
		return models.Playlist{}, storeError(err, "playlist")
	}
	return p.Get(ctx, pid)
}

func (p *Playlists) membership(ctx context.Context, actorID, playlistID, videoID string) (string, string, error) {
	pid, err := models.ParseID("playlistId", playlistID)
	if err != nil {
		return "", "", err
	}
	vid, err := models.ParseID("videoId", videoID)
	if err != nil {
		return "", "", err
	}
	if _, err := ownership.Load(ctx, actorID, pid, "playlist", p.store.FindByID); err != nil {
		return "", "", err
	}
	return pid, vid, nil
}
