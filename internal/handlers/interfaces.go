package handlers

import (
	"context"

	"github.com/vidstream/backend/internal/accounts"
	"github.com/vidstream/backend/internal/ledger"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pipeline"
	"github.com/vidstream/backend/internal/videos"
	"github.com/vidstream/backend/internal/views"
)

// AccountService captures the account operations behind the user endpoints.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (models.User, error)
	Login(ctx context.Context, username, email, password string) (accounts.Session, error)
	Logout(ctx context.Context, refreshToken string)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Current(ctx context.Context, userID string) (models.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID string, image *accounts.Image) (models.User, error)
	UpdateCover(ctx context.Context, userID string, image *accounts.Image) (models.User, error)
}

// VideoService captures video publishing and retrieval.
type VideoService interface {
	Publish(ctx context.Context, ownerID string, in videos.PublishInput) (models.Video, error)
	Get(ctx context.Context, viewerID, videoID string) (models.Video, error)
	List(ctx context.Context, filter views.VideoFilter, page pipeline.Page) (pipeline.Result[views.VideoView], error)
	Update(ctx context.Context, requesterID, videoID string, in videos.UpdateInput) (models.Video, error)
	Delete(ctx context.Context, requesterID, videoID string) error
	TogglePublish(ctx context.Context, requesterID, videoID string) (models.Video, error)
}

type CommentService interface {
	Create(ctx context.Context, actorID, videoID, text string) (models.Comment, error)
	Update(ctx context.Context, actorID, commentID, text string) (models.Comment, error)
	Delete(ctx context.Context, actorID, commentID string) error
}

type TweetService interface {
	Create(ctx context.Context, actorID, text string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	Update(ctx context.Context, actorID, tweetID, text string) (models.Tweet, error)
	Delete(ctx context.Context, actorID, tweetID string) error
}

type PlaylistService interface {
	Create(ctx context.Context, actorID, name, description string) (models.Playlist, error)
	Get(ctx context.Context, playlistID string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, actorID, playlistID, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, actorID, playlistID string) error
	AddVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error)
}

// ViewService serves the composed read models.
type ViewService interface {
	VideoComments(ctx context.Context, videoID, viewerID string, page pipeline.Page) (pipeline.Result[views.CommentView], error)
	ChannelStats(ctx context.Context, userID string) (views.ChannelStats, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelProfile, error)
	ChannelVideos(ctx context.Context, ownerID string, page pipeline.Page) (pipeline.Result[views.ChannelVideo], error)
	WatchHistory(ctx context.Context, viewerID string) ([]views.VideoView, error)
	LikedVideos(ctx context.Context, viewerID string) ([]views.LikedVideo, error)
	Subscribers(ctx context.Context, channelID string) ([]views.Subscriber, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]views.SubscribedChannel, error)
}

// Toggler flips like and subscription relationships.
type Toggler interface {
	Toggle(ctx context.Context, actorID string, kind ledger.Kind, targetID string) (ledger.Outcome, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
