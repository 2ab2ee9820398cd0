package views

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/pipeline"
)

func watchHistoryPlan(viewerID string) *pipeline.Plan {
	return pipeline.From("watch_history h", "h.video_id").
		Match(sq.Eq{"h.user_id": viewerID}).
		JoinOne("videos v", "v.id = h.video_id").
		JoinOne("users u", "u.id = v.owner_id").
		Project(videoProjection("v", "u")...).
		Sort("h.watched_at DESC")
}

// WatchHistory lists the videos the viewer watched, most recent first. A
// re-watched video appears once, at its latest position.
func (s *Service) WatchHistory(ctx context.Context, viewerID string) ([]VideoView, error) {
	if viewerID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}

	rows, err := pipeline.All[videoRow](ctx, s.pool, watchHistoryPlan(viewerID))
	if err != nil {
		return nil, internal(err, "watch history")
	}
	views := make([]VideoView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}

// LikedVideo is a video the viewer liked, with the time of the like.
type LikedVideo struct {
	LikedAt time.Time `json:"likedAt"`
	Video   VideoView `json:"video"`
}

type likedVideoRow struct {
	LikedAt time.Time `db:"liked_at"`
	videoRow
}

func likedVideosPlan(viewerID string) *pipeline.Plan {
	return pipeline.From("likes l", "l.id").
		Match(sq.Eq{"l.liked_by": viewerID}).
		Match(sq.NotEq{"l.video_id": nil}).
		JoinOne("videos v", "v.id = l.video_id").
		JoinOne("users u", "u.id = v.owner_id").
		Project(videoProjection("v", "u")...).
		Project("l.created_at AS liked_at").
		Sort("l.created_at DESC")
}

// LikedVideos lists the videos the viewer liked, most recent like first.
func (s *Service) LikedVideos(ctx context.Context, viewerID string) ([]LikedVideo, error) {
	if viewerID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}

	rows, err := pipeline.All[likedVideoRow](ctx, s.pool, likedVideosPlan(viewerID))
	if err != nil {
		return nil, internal(err, "liked videos")
	}
	liked := make([]LikedVideo, 0, len(rows))
	for _, row := range rows {
		liked = append(liked, LikedVideo{LikedAt: row.LikedAt.UTC(), Video: row.view()})
	}
	return liked, nil
}
