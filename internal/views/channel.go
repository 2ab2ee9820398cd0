package views

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pipeline"
)

// ChannelStats summarizes a channel for its dashboard.
type ChannelStats struct {
	UserID           string `json:"userId" db:"user_id"`
	Username         string `json:"username" db:"username"`
	TotalViews       int64  `json:"totalViews" db:"total_views"`
	TotalSubscribers int64  `json:"totalSubscribers" db:"total_subscribers"`
	TotalVideos      int64  `json:"totalVideos" db:"total_videos"`
	TotalLikes       int64  `json:"totalLikes" db:"total_likes"`
}

// likesReceived joins every like to the owner of whatever it points at.
const likesReceived = `likes l
    LEFT JOIN videos lv ON lv.id = l.video_id
    LEFT JOIN comments lc ON lc.id = l.comment_id
    LEFT JOIN tweets lt ON lt.id = l.tweet_id`

func channelStatsPlan(userID string) *pipeline.Plan {
	return pipeline.From("users u", "u.id").
		Match(sq.Eq{"u.id": userID}).
		JoinMany("vs", "videos v", "v.owner_id = u.id",
			pipeline.Count("total_videos"),
			pipeline.Sum("total_views", "v.views"),
		).
		JoinMany("ss", "subscriptions s", "s.channel_id = u.id", pipeline.Count("total_subscribers")).
		JoinMany("ls", likesReceived, "(lv.owner_id = u.id OR lc.owner_id = u.id OR lt.owner_id = u.id)",
			pipeline.Count("total_likes"),
		).
		Project("u.id AS user_id", "u.username", "vs.total_views", "ss.total_subscribers", "vs.total_videos", "ls.total_likes")
}

// ChannelStats totals views, videos, subscribers and likes received by a
// channel in one statement. Likes on the channel's videos, comments and tweets
// all count.
func (s *Service) ChannelStats(ctx context.Context, userID string) (ChannelStats, error) {
	id, err := models.ParseID("userId", userID)
	if err != nil {
		return ChannelStats{}, err
	}

	ctx, span := logging.StartSpan(ctx, "views.channel_stats")
	defer span.End()

	stats, err := pipeline.One[ChannelStats](ctx, s.pool, channelStatsPlan(id))
	if err != nil {
		if pipeline.NotFound(err) {
			return ChannelStats{}, apperr.NotFound("channel not found")
		}
		span.Fail(err)
		return ChannelStats{}, internal(err, "channel stats")
	}
	return stats, nil
}

// ChannelProfile is a public channel page with subscription counts.
type ChannelProfile struct {
	ID                        string `json:"id" db:"id"`
	Username                  string `json:"username" db:"username"`
	FullName                  string `json:"fullName" db:"full_name"`
	Email                     string `json:"email" db:"email"`
	AvatarURL                 string `json:"avatar" db:"avatar_url"`
	CoverURL                  string `json:"coverImage" db:"cover_url"`
	SubscribersCount          int64  `json:"subscribersCount" db:"subscribers_count"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount" db:"channels_subscribed_to_count"`
	IsSubscribed              bool   `json:"isSubscribed" db:"is_subscribed"`
}

func channelProfilePlan(username, viewerID string) *pipeline.Plan {
	return pipeline.From("users u", "u.id").
		Match(sq.Eq{"u.username": username}).
		JoinMany("subs", "subscriptions s1", "s1.channel_id = u.id",
			pipeline.Count("subscribers_count"),
			pipeline.AnyMatch("is_subscribed", "s1.subscriber_id = ?", viewerArg(viewerID)),
		).
		JoinMany("subd", "subscriptions s2", "s2.subscriber_id = u.id", pipeline.Count("channels_subscribed_to_count")).
		Project("u.id", "u.username", "u.full_name", "u.email", "u.avatar_url", "u.cover_url",
			"subs.subscribers_count", "subd.channels_subscribed_to_count", "subs.is_subscribed")
}

// ChannelProfile looks a channel up by username, case-insensitively.
func (s *Service) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return ChannelProfile{}, apperr.InvalidArgument("username is required")
	}

	ctx, span := logging.StartSpan(ctx, "views.channel_profile")
	defer span.End()

	profile, err := pipeline.One[ChannelProfile](ctx, s.pool, channelProfilePlan(models.NormalizeUsername(username), viewerID))
	if err != nil {
		if pipeline.NotFound(err) {
			return ChannelProfile{}, apperr.NotFound("channel does not exist")
		}
		span.Fail(err)
		return ChannelProfile{}, internal(err, "channel profile")
	}
	return profile, nil
}

// ChannelVideo is a dashboard row: one of the channel's videos, published or
// not, with its like count.
type ChannelVideo struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	ThumbnailURL string    `json:"thumbnail" db:"thumbnail_url"`
	Views        int64     `json:"views" db:"views"`
	IsPublished  bool      `json:"isPublished" db:"is_published"`
	LikesCount   int64     `json:"likesCount" db:"likes_count"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func channelVideosPlan(ownerID string) *pipeline.Plan {
	return pipeline.From("videos v", "v.id").
		Match(sq.Eq{"v.owner_id": ownerID}).
		JoinMany("lk", "likes l", "l.video_id = v.id", pipeline.Count("likes_count")).
		Project("v.id", "v.title", "v.thumbnail_url", "v.views", "v.is_published", "lk.likes_count", "v.created_at").
		Sort("v.created_at DESC")
}

// ChannelVideos pages through every video the channel owns, newest first.
func (s *Service) ChannelVideos(ctx context.Context, ownerID string, page pipeline.Page) (pipeline.Result[ChannelVideo], error) {
	if ownerID == "" {
		return pipeline.Result[ChannelVideo]{}, apperr.Unauthenticated("authentication required")
	}

	var result pipeline.Result[ChannelVideo]
	err := db.ReadOnly(ctx, s.pool, func(q db.Querier) error {
		var err error
		result, err = pipeline.Paginate[ChannelVideo](ctx, q, channelVideosPlan(ownerID), page)
		return err
	})
	if err != nil {
		return pipeline.Result[ChannelVideo]{}, internal(err, "channel videos")
	}
	return result, nil
}
