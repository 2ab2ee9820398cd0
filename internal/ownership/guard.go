// Package ownership gates mutation of owned records on the requester being
// the record's owner.
package ownership

import (
	"context"
	"errors"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/repositories"
)

// Owned is any record carrying an owner reference.
type Owned interface {
	Owner() string
}

// Authorize passes iff record is owned by requesterID.
func Authorize(requesterID string, record Owned) error {
	if requesterID == "" {
		return apperr.Unauthenticated("authentication required")
	}
	if record.Owner() != requesterID {
		return apperr.Forbidden("you are not the owner of this resource")
	}
	return nil
}

// Load fetches the record with id and authorizes requesterID against it. A
// missing record reports NotFound before ownership is considered.
func Load[T Owned](ctx context.Context, requesterID, id, entity string, find func(context.Context, string) (T, error)) (T, error) {
	var zero T
	if requesterID == "" {
		return zero, apperr.Unauthenticated("authentication required")
	}

	record, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return zero, apperr.NotFound("%s not found", entity)
		}
		return zero, apperr.Internal(err, "")
	}

	if err := Authorize(requesterID, record); err != nil {
		return zero, err
	}
	return record, nil
}
