package content

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/ownership"
)

// TweetStore persists tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string, at time.Time) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// UserChecker reports whether a user exists.
type UserChecker interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Tweets manages short channel posts.
type Tweets struct {
	store TweetStore
	users UserChecker
	now   clock
}

func NewTweets(store TweetStore, users UserChecker) *Tweets {
	return &Tweets{store: store, users: users, now: utcNow}
}

func (t *Tweets) Create(ctx context.Context, actorID, text string) (models.Tweet, error) {
	if err := requireActor(actorID); err != nil {
		return models.Tweet{}, err
	}
	text, err := requiredText("content", text)
	if err != nil {
		return models.Tweet{}, err
	}

	now := t.now()
	tweet := models.Tweet{ID: uuid.NewString(), Content: text, OwnerID: actorID, CreatedAt: now, UpdatedAt: now}
	if err := t.store.Create(ctx, tweet); err != nil {
		return models.Tweet{}, storeError(err, "user")
	}
	return tweet, nil
}

// ListByOwner returns a user's tweets, newest first.
func (t *Tweets) ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error) {
	id, err := models.ParseID("userId", ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := t.users.FindByID(ctx, id); err != nil {
		return nil, storeError(err, "user")
	}
	tweets, err := t.store.ListByOwner(ctx, id)
	if err != nil {
		return nil, storeError(err, "tweet")
	}
	return tweets, nil
}

func (t *Tweets) Update(ctx context.Context, actorID, tweetID, text string) (models.Tweet, error) {
	id, err := models.ParseID("tweetId", tweetID)
	if err != nil {
		return models.Tweet{}, err
	}
	text, err = requiredText("content", text)
	if err != nil {
		return models.Tweet{}, err
	}
	if _, err := ownership.Load(ctx, actorID, id, "tweet", t.store.FindByID); err != nil {
		return models.Tweet{}, err
	}
	updated, err := t.store.UpdateContent(ctx, id, text, t.now())
	if err != nil {
		return models.Tweet{}, storeError(err, "tweet")
	}
	return updated, nil
}

func (t *Tweets) Delete(ctx context.Context, actorID, tweetID string) error {
	id, err := models.ParseID("tweetId", tweetID)
	if err != nil {
		return err
	}
	if _, err := ownership.Load(ctx, actorID, id, "tweet", t.store.FindByID); err != nil {
		return err
	}
	if err := t.store.Delete(ctx, id); err != nil {
		return storeError(err, "tweet")
	}
	return nil
}
