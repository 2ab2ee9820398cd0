package repositories

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

const commentColumns = `id, content, video_id, owner_id, created_at, updated_at`

// PostgresCommentRepository persists comments.
type PostgresCommentRepository struct {
	q db.Querier
}

func NewPostgresCommentRepository(q db.Querier) *PostgresCommentRepository {
	return &PostgresCommentRepository{q: q}
}

// Create inserts a comment. A missing video surfaces as ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO comments (id, content, video_id, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.Content, comment.VideoID, comment.OwnerID, comment.CreatedAt, comment.UpdatedAt)
	return mapError("insert comment", err)
}

func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	var comment models.Comment
	err := pgxscan.Get(ctx, r.q, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	return comment, mapError("select comment", err)
}

// UpdateContent replaces the comment body and returns the stored row.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string, at time.Time) (models.Comment, error) {
	var comment models.Comment
	err := pgxscan.Get(ctx, r.q, &comment, `
        UPDATE comments SET content = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+commentColumns, id, content, at)
	return comment, mapError("update comment", err)
}

func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.q, "comments", id)
}
