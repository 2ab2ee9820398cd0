// Package videos publishes, serves and manages uploaded videos.
package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/ownership"
	"github.com/vidstream/backend/internal/pipeline"
	"github.com/vidstream/backend/internal/repositories"
	"github.com/vidstream/backend/internal/storage"
	"github.com/vidstream/backend/internal/views"
)

// Store persists video records.
type Store interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) (models.Video, error)
	UpdateDetails(ctx context.Context, video models.Video) (models.Video, error)
	SetPublished(ctx context.Context, id string, published bool, at time.Time) (models.Video, error)
	Delete(ctx context.Context, id string) error
	RecordView(ctx context.Context, userID, videoID string, at time.Time) error
}

// Catalogue serves composed video listings.
type Catalogue interface {
	Videos(ctx context.Context, filter views.VideoFilter, page pipeline.Page) (pipeline.Result[views.VideoView], error)
}

// Prober determines media durations.
type Prober interface {
	Duration(ctx context.Context, r io.Reader) (float64, error)
}

// Cleaner deletes orphaned media in the background.
type Cleaner interface {
	Enqueue(ctx context.Context, locations ...string) error
}

// Media is an uploaded file.
type Media struct {
	Filename    string
	ContentType string
	Body        io.ReadSeeker
}

// PublishInput describes a new video.
type PublishInput struct {
	Title       string
	Description string
	Video       *Media
	Thumbnail   *Media
}

// UpdateInput replaces a video's details. A nil Thumbnail keeps the current one.
type UpdateInput struct {
	Title       string
	Description string
	Thumbnail   *Media
}

// Service implements the video operations.
type Service struct {
	store     Store
	catalogue Catalogue
	storage   storage.Storage
	prober    Prober
	cleaner   Cleaner

	NowFunc func() time.Time
}

// NewService wires the video service.
func NewService(store Store, catalogue Catalogue, objects storage.Storage, prober Prober, cleaner Cleaner) *Service {
	return &Service{
		store:     store,
		catalogue: catalogue,
		storage:   objects,
		prober:    prober,
		cleaner:   cleaner,
		NowFunc:   func() time.Time { return time.Now().UTC() },
	}
}

// Publish uploads the media and thumbnail, then records the video. No record
// is created unless both uploads succeed.
func (s *Service) Publish(ctx context.Context, ownerID string, in PublishInput) (models.Video, error) {
	if ownerID == "" {
		return models.Video{}, apperr.Unauthenticated("authentication required")
	}
	title, description := strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return models.Video{}, apperr.InvalidArgument("title and description are required")
	}
	if in.Video == nil || in.Video.Body == nil {
		return models.Video{}, apperr.InvalidArgument("video file is required")
	}
	if in.Thumbnail == nil || in.Thumbnail.Body == nil {
		return models.Video{}, apperr.InvalidArgument("thumbnail is required")
	}

	ctx, span := logging.StartSpan(ctx, "videos.publish", slog.String("owner_id", ownerID))
	defer span.End()
	logger := logging.FromContext(ctx)

	duration := s.probe(ctx, in.Video)

	var videoURL, thumbnailURL string
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		videoURL, err = s.upload(groupCtx, "videos", in.Video)
		return err
	})
	group.Go(func() error {
		var err error
		thumbnailURL, err = s.upload(groupCtx, "thumbnails", in.Thumbnail)
		return err
	})
	if err := group.Wait(); err != nil {
		span.Fail(err)
		s.discard(ctx, videoURL, thumbnailURL)
		return models.Video{}, apperr.Internal(err, "failed to upload media")
	}

	now := s.NowFunc()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, video); err != nil {
		span.Fail(err)
		s.discard(ctx, videoURL, thumbnailURL)
		return models.Video{}, apperr.Internal(fmt.Errorf("create video: %w", err), "")
	}

	logger.Info("video published", "video_id", video.ID)
	return video, nil
}

// Get returns the video and counts the view. Authenticated viewers also get the
// video moved to the front of their watch history. Unpublished videos are only
// visible to their owner.
func (s *Service) Get(ctx context.Context, viewerID, videoID string) (models.Video, error) {
	id, err := models.ParseID("videoId", videoID)
	if err != nil {
		return models.Video{}, err
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Video{}, storeError(err, "video")
	}
	if !current.IsPublished && current.OwnerID != viewerID {
		return models.Video{}, apperr.NotFound("video not found")
	}

	video, err := s.store.IncrementViews(ctx, id)
	if err != nil {
		return models.Video{}, storeError(err, "video")
	}

	if viewerID != "" {
		if err := s.store.RecordView(ctx, viewerID, id, s.NowFunc()); err != nil {
			logging.FromContext(ctx).Warn("record watch history", "video_id", id, "error", err)
		}
	}
	return video, nil
}

// List pages through the public catalogue.
func (s *Service) List(ctx context.Context, filter views.VideoFilter, page pipeline.Page) (pipeline.Result[views.VideoView], error) {
	return s.catalogue.Videos(ctx, filter, page)
}

// ListByOwner pages through one channel's videos. The owner also sees unpublished ones.
func (s *Service) ListByOwner(ctx context.Context, viewerID, ownerID string, page pipeline.Page) (pipeline.Result[views.VideoView], error) {
	if strings.TrimSpace(ownerID) == "" {
		return pipeline.Result[views.VideoView]{}, apperr.InvalidArgument("userId is required")
	}
	return s.catalogue.Videos(ctx, views.VideoFilter{UserID: ownerID, ViewerID: viewerID}, page)
}

// Update changes title, description and optionally the thumbnail.
func (s *Service) Update(ctx context.Context, requesterID, videoID string, in UpdateInput) (models.Video, error) {
	id, err := models.ParseID("videoId", videoID)
	if err != nil {
		return models.Video{}, err
	}
	title, description := strings.TrimSpace(in.Title), strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return models.Video{}, apperr.InvalidArgument("title and description are required")
	}

	video, err := ownership.Load(ctx, requesterID, id, "video", s.store.FindByID)
	if err != nil {
		return models.Video{}, err
	}

	previousThumbnail := video.ThumbnailURL
	if in.Thumbnail != nil && in.Thumbnail.Body != nil {
		location, err := s.upload(ctx, "thumbnails", in.Thumbnail)
		if err != nil {
			return models.Video{}, apperr.Internal(err, "failed to upload thumbnail")
		}
		video.ThumbnailURL = location
	}
	video.Title = title
	video.Description = description
	video.UpdatedAt = s.NowFunc()

	updated, err := s.store.UpdateDetails(ctx, video)
	if err != nil {
		if video.ThumbnailURL != previousThumbnail {
			s.discard(ctx, video.ThumbnailURL)
		}
		return models.Video{}, storeError(err, "video")
	}
	if updated.ThumbnailURL != previousThumbnail {
		s.discard(ctx, previousThumbnail)
	}
	return updated, nil
}

// Delete removes the video record, then its media.
func (s *Service) Delete(ctx context.Context, requesterID, videoID string) error {
	id, err := models.ParseID("videoId", videoID)
	if err != nil {
		return err
	}
	video, err := ownership.Load(ctx, requesterID, id, "video", s.store.FindByID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, "video")
	}
	s.discard(ctx, video.VideoURL, video.ThumbnailURL)
	return nil
}

// TogglePublish flips whether the video is listed publicly.
func (s *Service) TogglePublish(ctx context.Context, requesterID, videoID string) (models.Video, error) {
	id, err := models.ParseID("videoId", videoID)
	if err != nil {
		return models.Video{}, err
	}
	video, err := ownership.Load(ctx, requesterID, id, "video", s.store.FindByID)
	if err != nil {
		return models.Video{}, err
	}
	updated, err := s.store.SetPublished(ctx, id, !video.IsPublished, s.NowFunc())
	if err != nil {
		return models.Video{}, storeError(err, "video")
	}
	return updated, nil
}

func (s *Service) probe(ctx context.Context, media *Media) float64 {
	if s.prober == nil {
		return 0
	}
	seconds, err := s.prober.Duration(ctx, media.Body)
	if _, seekErr := media.Body.Seek(0, io.SeekStart); seekErr != nil && err == nil {
		err = seekErr
	}
	if err != nil {
		logging.FromContext(ctx).Warn("probe video duration", "filename", media.Filename, "error", err)
		return 0
	}
	return seconds
}

func (s *Service) upload(ctx context.Context, prefix string, media *Media) (string, error) {
	location, err := s.storage.Save(ctx, storage.ObjectKey(prefix, media.Filename), media.Body, media.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", prefix, err)
	}
	return location, nil
}

func (s *Service) discard(ctx context.Context, locations ...string) {
	if s.cleaner == nil {
		return
	}
	if err := s.cleaner.Enqueue(context.WithoutCancel(ctx), locations...); err != nil {
		logging.FromContext(ctx).Warn("schedule media cleanup", "locations", locations, "error", err)
	}
}

func storeError(err error, entity string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("%s not found", entity)
	}
	return apperr.Internal(err, "")
}
