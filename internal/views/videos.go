package views

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pipeline"
)

// videoSortColumns whitelists the sortable fields.
var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

// VideoFilter narrows the public video listing.
type VideoFilter struct {
	Query    string
	SortBy   string
	SortType string
	UserID   string
	ViewerID string
}

func (f VideoFilter) plan() (*pipeline.Plan, error) {
	column := "v.created_at"
	if f.SortBy != "" {
		var ok bool
		if column, ok = videoSortColumns[f.SortBy]; !ok {
			return nil, apperr.InvalidArgument("unsupported sortBy %q", f.SortBy)
		}
	}
	direction := "DESC"
	switch strings.ToLower(f.SortType) {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return nil, apperr.InvalidArgument("sortType must be asc or desc")
	}

	plan := pipeline.From("videos v", "v.id").JoinOne("users u", "u.id = v.owner_id")

	if f.UserID != "" {
		owner, err := models.ParseID("userId", f.UserID)
		if err != nil {
			return nil, err
		}
		plan.Match(sq.Eq{"v.owner_id": owner})
		if owner != f.ViewerID {
			plan.Match(sq.Eq{"v.is_published": true})
		}
	} else {
		plan.Match(sq.Eq{"v.is_published": true})
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		plan.Match(sq.Or{sq.ILike{"v.title": pattern}, sq.ILike{"v.description": pattern}})
	}

	return plan.Project(videoProjection("v", "u")...).Sort(column + " " + direction), nil
}

// Videos pages through the video catalogue. Unpublished videos are only listed
// to their owner.
func (s *Service) Videos(ctx context.Context, filter VideoFilter, page pipeline.Page) (pipeline.Result[VideoView], error) {
	plan, err := filter.plan()
	if err != nil {
		return pipeline.Result[VideoView]{}, err
	}

	var rows pipeline.Result[videoRow]
	err = db.ReadOnly(ctx, s.pool, func(q db.Querier) error {
		var err error
		rows, err = pipeline.Paginate[videoRow](ctx, q, plan, page)
		return err
	})
	if err != nil {
		return pipeline.Result[VideoView]{}, internal(err, "list videos")
	}
	return pipeline.Map(rows, videoRow.view), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
