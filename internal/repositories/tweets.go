package repositories

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

const tweetColumns = `id, content, owner_id, created_at, updated_at`

// PostgresTweetRepository persists tweets.
type PostgresTweetRepository struct {
	q db.Querier
}

func NewPostgresTweetRepository(q db.Querier) *PostgresTweetRepository {
	return &PostgresTweetRepository{q: q}
}

func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO tweets (id, content, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.Content, tweet.OwnerID, tweet.CreatedAt, tweet.UpdatedAt)
	return mapError("insert tweet", err)
}

func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	var tweet models.Tweet
	err := pgxscan.Get(ctx, r.q, &tweet, `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id)
	return tweet, mapError("select tweet", err)
}

// ListByOwner returns the owner's tweets, newest first.
func (r *PostgresTweetRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error) {
	tweets := []models.Tweet{}
	err := pgxscan.Select(ctx, r.q, &tweets, `
        SELECT `+tweetColumns+`
        FROM tweets
        WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
    `, ownerID)
	if err != nil {
		return nil, mapError("select tweets", err)
	}
	return tweets, nil
}

func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, content string, at time.Time) (models.Tweet, error) {
	var tweet models.Tweet
	err := pgxscan.Get(ctx, r.q, &tweet, `
        UPDATE tweets SET content = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+tweetColumns, id, content, at)
	return tweet, mapError("update tweet", err)
}

func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.q, "tweets", id)
}
