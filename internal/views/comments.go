package views

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pipeline"
)

// CommentView is a comment with its owner, like count and the viewer's like flag.
type CommentView struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	CreatedAt  time.Time         `json:"createdAt"`
	LikesCount int64             `json:"likesCount"`
	Owner      models.PublicUser `json:"owner"`
	IsLiked    bool              `json:"isLiked"`
}

type commentRow struct {
	ID         string    `db:"id"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
	LikesCount int64     `db:"likes_count"`
	IsLiked    bool      `db:"is_liked"`
	ownerColumns
}

func videoCommentsPlan(videoID, viewerID string) *pipeline.Plan {
	return pipeline.From("comments c", "c.id").
		Match(sq.Eq{"c.video_id": videoID}).
		JoinOne("users u", "u.id = c.owner_id").
		JoinMany("lk", "likes l", "l.comment_id = c.id",
			pipeline.Count("likes_count"),
			pipeline.AnyMatch("is_liked", "l.liked_by = ?", viewerArg(viewerID)),
		).
		Project("c.id", "c.content", "c.created_at", "lk.likes_count", "lk.is_liked").
		Project(ownerProjection("u")...).
		Sort("c.created_at ASC")
}

// VideoComments pages through a video's comments, oldest first.
func (s *Service) VideoComments(ctx context.Context, videoID, viewerID string, page pipeline.Page) (pipeline.Result[CommentView], error) {
	id, err := models.ParseID("videoId", videoID)
	if err != nil {
		return pipeline.Result[CommentView]{}, err
	}

	ctx, span := logging.StartSpan(ctx, "views.video_comments")
	defer span.End()

	var rows pipeline.Result[commentRow]
	err = db.ReadOnly(ctx, s.pool, func(q db.Querier) error {
		found, err := exists(ctx, q, "videos", id)
		if err != nil {
			return internal(err, "video comments")
		}
		if !found {
			return apperr.NotFound("video not found")
		}
		rows, err = pipeline.Paginate[commentRow](ctx, q, videoCommentsPlan(id, viewerID), page)
		if err != nil {
			return internal(err, "video comments")
		}
		return nil
	})
	if err != nil {
		span.Fail(err)
		return pipeline.Result[CommentView]{}, err
	}

	return pipeline.Map(rows, commentRow.view), nil
}

func (r commentRow) view() CommentView {
	return CommentView{
		ID:         r.ID,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt.UTC(),
		LikesCount: r.LikesCount,
		Owner:      r.public(),
		IsLiked:    r.IsLiked,
	}
}
