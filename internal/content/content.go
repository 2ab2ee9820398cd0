// Package content manages the owned text records of a channel: comments,
// tweets and playlists. Every mutation is gated on ownership.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/repositories"
)

// VideoChecker reports whether a video exists.
type VideoChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func requiredText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.InvalidArgument("%s is required", field)
	}
	return value, nil
}

func requireActor(actorID string) error {
	if actorID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

func requireVideo(ctx context.Context, videos VideoChecker, id string) error {
	ok, err := videos.Exists(ctx, id)
	if err != nil {
		return apperr.Internal(err, "")
	}
	if !ok {
		return apperr.NotFound("video not found")
	}
	return nil
}

func storeError(err error, entity string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound("%s not found", entity)
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Conflict("%s already exists", entity)
	default:
		return apperr.Internal(err, "")
	}
}
