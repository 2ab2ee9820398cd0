package views

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pipeline"
)

// Subscriber is a user following a channel.
type Subscriber struct {
	SubscribedAt time.Time         `json:"subscribedAt"`
	User         models.PublicUser `json:"subscriber"`
}

// SubscribedChannel is a channel a user follows, with its audience size.
type SubscribedChannel struct {
	SubscribedAt     time.Time         `json:"subscribedAt"`
	Channel          models.PublicUser `json:"channel"`
	SubscribersCount int64             `json:"subscribersCount"`
}

type subscriptionRow struct {
	SubscribedAt     time.Time `db:"subscribed_at"`
	SubscribersCount int64     `db:"subscribers_count"`
	ownerColumns
}

// Subscribers lists the users following channelID, newest first.
func (s *Service) Subscribers(ctx context.Context, channelID string) ([]Subscriber, error) {
	id, err := models.ParseID("channelId", channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, id); err != nil {
		return nil, err
	}

	plan := pipeline.From("subscriptions s", "s.id").
		Match(sq.Eq{"s.channel_id": id}).
		JoinOne("users u", "u.id = s.subscriber_id").
		Project("s.created_at AS subscribed_at", "0::INT8 AS subscribers_count").
		Project(ownerProjection("u")...).
		Sort("s.created_at DESC")

	rows, err := pipeline.All[subscriptionRow](ctx, s.pool, plan)
	if err != nil {
		return nil, internal(err, "list subscribers")
	}
	out := make([]Subscriber, 0, len(rows))
	for _, row := range rows {
		out = append(out, Subscriber{SubscribedAt: row.SubscribedAt.UTC(), User: row.public()})
	}
	return out, nil
}

// SubscribedChannels lists the channels subscriberID follows, newest first.
func (s *Service) SubscribedChannels(ctx context.Context, subscriberID string) ([]SubscribedChannel, error) {
	id, err := models.ParseID("subscriberId", subscriberID)
	if err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, id); err != nil {
		return nil, err
	}

	plan := pipeline.From("subscriptions s", "s.id").
		Match(sq.Eq{"s.subscriber_id": id}).
		JoinOne("users u", "u.id = s.channel_id").
		JoinMany("audience", "subscriptions a", "a.channel_id = s.channel_id", pipeline.Count("subscribers_count")).
		Project("s.created_at AS subscribed_at", "audience.subscribers_count").
		Project(ownerProjection("u")...).
		Sort("s.created_at DESC")

	rows, err := pipeline.All[subscriptionRow](ctx, s.pool, plan)
	if err != nil {
		return nil, internal(err, "list subscribed channels")
	}
	out := make([]SubscribedChannel, 0, len(rows))
	for _, row := range rows {
		out = append(out, SubscribedChannel{
			SubscribedAt:     row.SubscribedAt.UTC(),
			Channel:          row.public(),
			SubscribersCount: row.SubscribersCount,
		})
	}
	return out, nil
}

func (s *Service) requireUser(ctx context.Context, id string) error {
	found, err := exists(ctx, s.pool, "users", id)
	if err != nil {
		return internal(err, "lookup user")
	}
	if !found {
		return apperr.NotFound("user not found")
	}
	return nil
}
