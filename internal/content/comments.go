package content

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/ownership"
)

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, at time.Time) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// Comments adds, edits and removes video comments.
type Comments struct {
	store  CommentStore
	videos VideoChecker
	now    clock
}

func NewComments(store CommentStore, videos VideoChecker) *Comments {
	return &Comments{store: store, videos: videos, now: utcNow}
}

// Create attaches a comment by actorID to an existing video.
func (c *Comments) Create(ctx context.Context, actorID, videoID, text string) (models.Comment, error) {
	if err := requireActor(actorID); err != nil {
		return models.Comment{}, err
	}
	id, err := models.ParseID("videoId", videoID)
	if err != nil {
		return models.Comment{}, err
	}
	text, err = requiredText("content", text)
	if err != nil {
		return models.Comment{}, err
	}
	if err := requireVideo(ctx, c.videos, id); err != nil {
		return models.Comment{}, err
	}

	now := c.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		Content:   text,
		VideoID:   id,
		OwnerID:   actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.store.Create(ctx, comment); err != nil {
		return models.Comment{}, storeError(err, "video")
	}
	return comment, nil
}

func (c *Comments) Update(ctx context.Context, actorID, commentID, text string) (models.Comment, error) {
	id, err := models.ParseID("commentId", commentID)
	if err != nil {
		return models.Comment{}, err
	}
	text, err = requiredText("content", text)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := ownership.Load(ctx, actorID, id, "comment", c.store.FindByID); err != nil {
		return models.Comment{}, err
	}
	updated, err := c.store.UpdateContent(ctx, id, text, c.now())
	if err != nil {
		return models.Comment{}, storeError(err, "comment")
	}
	return updated, nil
}

func (c *Comments) Delete(ctx context.Context, actorID, commentID string) error {
	id, err := models.ParseID("commentId", commentID)
	if err != nil {
		return err
	}
	if _, err := ownership.Load(ctx, actorID, id, "comment", c.store.FindByID); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return storeError(err, "comment")
	}
	return nil
}
