// Package ledger implements like and subscription toggles. The existence of a
// record is the relationship; toggling removes an existing record or creates
// a new one. Uniqueness of (actor, target, kind) is enforced by the store,
// which is what keeps concurrent duplicate toggles from producing two records.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
)

// Kind identifies what a relationship points at.
type Kind string

const (
	KindVideo   Kind = "video"
	KindComment Kind = "comment"
	KindTweet   Kind = "tweet"
	KindChannel Kind = "channel"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindVideo, KindComment, KindTweet, KindChannel:
		return k, nil
	default:
		return "", apperr.InvalidArgument("unknown target kind %q", s)
	}
}

// Key identifies one relationship slot.
type Key struct {
	Actor  string
	Target string
	Kind   Kind
}

// Record is a stored relationship.
type Record struct {
	ID        string
	Actor     string
	Target    string
	Kind      Kind
	CreatedAt time.Time
}

// Like converts a non-channel record into its like representation.
func (r Record) Like() models.Like {
	like := models.Like{ID: r.ID, LikedBy: r.Actor, CreatedAt: r.CreatedAt}
	switch r.Kind {
	case KindVideo:
		like.VideoID = r.Target
	case KindComment:
		like.CommentID = r.Target
	case KindTweet:
		like.TweetID = r.Target
	}
	return like
}

// Subscription converts a channel record into its subscription representation.
func (r Record) Subscription() models.Subscription {
	return models.Subscription{ID: r.ID, SubscriberID: r.Actor, ChannelID: r.Target, CreatedAt: r.CreatedAt}
}

// Outcome reports what a toggle did.
type Outcome struct {
	Removed bool
	Record  Record
}

var (
	// ErrNotFound is returned by Store.Remove when no record occupies the key.
	ErrNotFound = errors.New("relationship not found")
	// ErrDuplicate is returned by Store.Insert when the key is already occupied.
	ErrDuplicate = errors.New("relationship already exists")
)

// Store persists relationship records. Remove and Insert must each be atomic;
// Insert must reject a second record for the same key with ErrDuplicate.
type Store interface {
	Remove(ctx context.Context, key Key) (Record, error)
	Insert(ctx context.Context, record Record) error
	TargetExists(ctx context.Context, kind Kind, id string) (bool, error)
}

// Recorder observes toggle outcomes. It may be nil.
type Recorder interface {
	ObserveToggle(kind string, removed bool)
}

// maxToggleAttempts bounds the remove/insert loop when racing writers keep
// flipping the slot under us.
const maxToggleAttempts = 4

// Ledger toggles relationships.
type Ledger struct {
	store    Store
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// New constructs a Ledger over store.
func New(store Store, recorder Recorder) *Ledger {
	return &Ledger{
		store:    store,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Toggle removes the actor's relationship to target if one exists, otherwise
// creates it.
func (l *Ledger) Toggle(ctx context.Context, actorID string, kind Kind, targetID string) (Outcome, error) {
	if actorID == "" {
		return Outcome{}, apperr.Unauthenticated("authentication required")
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return Outcome{}, err
	}
	target, err := models.ParseID(string(kind)+"Id", targetID)
	if err != nil {
		return Outcome{}, err
	}

	ctx, span := logging.StartSpan(ctx, "ledger.toggle")
	defer span.End()
	logger := logging.FromContext(ctx)

	exists, err := l.store.TargetExists(ctx, kind, target)
	if err != nil {
		return Outcome{}, apperr.Internal(fmt.Errorf("check %s %s: %w", kind, target, err), "")
	}
	if !exists {
		return Outcome{}, apperr.NotFound("%s not found", kind)
	}

	key := Key{Actor: actorID, Target: target, Kind: kind}
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		removed, err := l.store.Remove(ctx, key)
		switch {
		case err == nil:
			l.observe(kind, true)
			return Outcome{Removed: true, Record: removed}, nil
		case !errors.Is(err, ErrNotFound):
			return Outcome{}, apperr.Internal(fmt.Errorf("remove %s relationship: %w", kind, err), "")
		}

		record := Record{ID: l.newID(), Actor: actorID, Target: target, Kind: kind, CreatedAt: l.now()}
		err = l.store.Insert(ctx, record)
		switch {
		case err == nil:
			l.observe(kind, false)
			return Outcome{Removed: false, Record: record}, nil
		case errors.Is(err, ErrDuplicate):
			// A concurrent toggle created the record first; ours becomes the removal.
			logger.Debug("toggle lost insert race", "kind", kind, "target", target, "attempt", attempt+1)
			continue
		case errors.Is(err, ErrNotFound):
			return Outcome{}, apperr.NotFound("%s not found", kind)
		default:
			return Outcome{}, apperr.Internal(fmt.Errorf("insert %s relationship: %w", kind, err), "")
		}
	}

	logger.Warn("toggle attempts exhausted", "kind", kind, "target", target)
	return Outcome{}, apperr.Conflict("%s is being modified concurrently, retry", kind)
}

func (l *Ledger) observe(kind Kind, removed bool) {
	if l.recorder != nil {
		l.recorder.ObserveToggle(string(kind), removed)
	}
}
