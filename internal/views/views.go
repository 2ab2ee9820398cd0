// Package views composes denormalized, read-optimized responses by joining
// records across tables through pipeline plans.
package views

import (
	"context"
	"fmt"
	"time"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

// Service runs the composed reads.
type Service struct {
	pool db.Pool
}

// New constructs a view service over pool.
func New(pool db.Pool) *Service {
	return &Service{pool: pool}
}

// VideoView is a video with its owner embedded.
type VideoView struct {
	ID           string            `json:"id"`
	VideoURL     string            `json:"videoFile"`
	ThumbnailURL string            `json:"thumbnail"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Duration     float64           `json:"duration"`
	Views        int64             `json:"views"`
	IsPublished  bool              `json:"isPublished"`
	CreatedAt    time.Time         `json:"createdAt"`
	Owner        models.PublicUser `json:"owner"`
}

// ownerColumns receives the owner projection shared by every view.
type ownerColumns struct {
	OwnerID       string `db:"owner_id"`
	OwnerUsername string `db:"owner_username"`
	OwnerFullName string `db:"owner_full_name"`
	OwnerAvatar   string `db:"owner_avatar"`
}

func (o ownerColumns) public() models.PublicUser {
	return models.PublicUser{ID: o.OwnerID, Username: o.OwnerUsername, FullName: o.OwnerFullName, AvatarURL: o.OwnerAvatar}
}

// ownerProjection selects the owner fields from a users alias.
func ownerProjection(alias string) []string {
	return []string{
		alias + ".id AS owner_id",
		alias + ".username AS owner_username",
		alias + ".full_name AS owner_full_name",
		alias + ".avatar_url AS owner_avatar",
	}
}

type videoRow struct {
	ID           string    `db:"id"`
	VideoURL     string    `db:"video_url"`
	ThumbnailURL string    `db:"thumbnail_url"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Duration     float64   `db:"duration"`
	Views        int64     `db:"views"`
	IsPublished  bool      `db:"is_published"`
	CreatedAt    time.Time `db:"created_at"`
	ownerColumns
}

func (r videoRow) view() VideoView {
	return VideoView{
		ID:           r.ID,
		VideoURL:     r.VideoURL,
		ThumbnailURL: r.ThumbnailURL,
		Title:        r.Title,
		Description:  r.Description,
		Duration:     r.Duration,
		Views:        r.Views,
		IsPublished:  r.IsPublished,
		CreatedAt:    r.CreatedAt.UTC(),
		Owner:        r.public(),
	}
}

func videoProjection(video, owner string) []string {
	fields := []string{
		video + ".id",
		video + ".video_url",
		video + ".thumbnail_url",
		video + ".title",
		video + ".description",
		video + ".duration",
		video + ".views",
		video + ".is_published",
		video + ".created_at",
	}
	return append(fields, ownerProjection(owner)...)
}

// viewerArg turns an anonymous viewer into SQL NULL so that per-viewer flags
// evaluate to false.
func viewerArg(viewerID string) any {
	if viewerID == "" {
		return nil
	}
	return viewerID
}

func exists(ctx context.Context, q db.Querier, table, id string) (bool, error) {
	var found bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&found); err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return found, nil
}

func internal(err error, what string) error {
	return apperr.Internal(fmt.Errorf("%s: %w", what, err), "")
}
