// Package accounts implements registration, login and profile management.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/repositories"
	"github.com/vidstream/backend/internal/storage"
)

const minPasswordLength = 8

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string, at time.Time) (models.User, error)
	// ReplacePassword stores hash and revokes every session of the user
	// atomically.
	ReplacePassword(ctx context.Context, id, hash string, at time.Time) error
	UpdateImage(ctx context.Context, id string, cover bool, url string, at time.Time) (models.User, error)
}

// SessionManager issues and revokes token pairs.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// Cleaner deletes replaced or orphaned images in the background.
type Cleaner interface {
	Enqueue(ctx context.Context, locations ...string) error
}

// Image is an uploaded picture.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// RegisterInput describes a new account. Avatar is required, Cover is optional.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Avatar   *Image
	Cover    *Image
}

// Session is a logged-in user with their tokens.
type Session struct {
	User   models.User          `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

// Service implements the account operations.
type Service struct {
	users    UserStore
	sessions SessionManager
	storage  storage.Storage
	cleaner  Cleaner

	NowFunc func() time.Time
}

func NewService(users UserStore, sessions SessionManager, objects storage.Storage, cleaner Cleaner) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		storage:  objects,
		cleaner:  cleaner,
		NowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account after uploading its images. Usernames are
// stored lower-cased; a taken username or email yields Conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := models.NormalizeUsername(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return models.User{}, apperr.InvalidArgument("username, email, fullName and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperr.InvalidArgument("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, apperr.InvalidArgument("password must be at least %d characters", minPasswordLength)
	}
	if in.Avatar == nil || in.Avatar.Body == nil {
		return models.User{}, apperr.InvalidArgument("avatar is required")
	}

	ctx, span := logging.StartSpan(ctx, "accounts.register", slog.String("username", username))
	defer span.End()

	if _, err := s.users.FindByLogin(ctx, username, email); err == nil {
		return models.User{}, apperr.Conflict("user with that username or email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		span.Fail(err)
		return models.User{}, apperr.Internal(err, "")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		span.Fail(err)
		return models.User{}, apperr.Internal(err, "failed to secure password")
	}

	var avatarURL, coverURL string
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		avatarURL, err = s.upload(groupCtx, "avatars", in.Avatar)
		return err
	})
	if in.Cover != nil && in.Cover.Body != nil {
		group.Go(func() error {
			var err error
			coverURL, err = s.upload(groupCtx, "covers", in.Cover)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		span.Fail(err)
		s.discard(ctx, avatarURL, coverURL)
		return models.User{}, apperr.Internal(err, "failed to upload images")
	}

	now := s.NowFunc()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		FullName:  fullName,
		AvatarURL: avatarURL,
		CoverURL:  coverURL,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.discard(ctx, avatarURL, coverURL)
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("user with that username or email already exists")
		}
		span.Fail(err)
		return models.User{}, apperr.Internal(err, "")
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates by username or email. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, email, password string) (Session, error) {
	username = models.NormalizeUsername(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return Session{}, apperr.InvalidArgument("username or email is required")
	}
	if password == "" {
		return Session{}, apperr.InvalidArgument("password is required")
	}

	user, err := s.users.FindByLogin(ctx, username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Session{}, apperr.Unauthenticated("invalid credentials")
		}
		return Session{}, apperr.Internal(err, "")
	}
	if err := auth.CheckPassword(user.Password, password); err != nil {
		logging.FromContext(ctx).Warn("login password mismatch", "user_id", user.ID)
		return Session{}, apperr.Unauthenticated("invalid credentials")
	}

	tokens, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return Session{}, apperr.Internal(err, "failed to create session")
	}
	return Session{User: user, Tokens: tokens}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	s.sessions.Revoke(ctx, refreshToken)
}

// Refresh rotates a refresh token into a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return models.SessionTokens{}, apperr.InvalidArgument("refreshToken is required")
	}
	tokens, err := s.sessions.Refresh(ctx, refreshToken)
	switch {
	case err == nil:
		return tokens, nil
	case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrRefreshTokenExpired):
		return models.SessionTokens{}, apperr.Unauthenticated("refresh token is invalid or expired")
	default:
		return models.SessionTokens{}, apperr.Internal(err, "")
	}
}

// ChangePassword verifies the old password, stores the new one and signs out
// every session of the user.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.InvalidArgument("password must be at least %d characters", minPasswordLength)
	}
	user, err := s.Current(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(user.Password, oldPassword); err != nil {
		return apperr.InvalidArgument("invalid old password")
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err, "failed to secure password")
	}
	if err := s.users.ReplacePassword(ctx, user.ID, hashed, s.NowFunc()); err != nil {
		return storeError(err)
	}
	return nil
}

// Current returns the authenticated user's account.
func (s *Service) Current(ctx context.Context, userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, apperr.Unauthenticated("authentication required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, storeError(err)
	}
	return user, nil
}

func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error) {
	if userID == "" {
		return models.User{}, apperr.Unauthenticated("authentication required")
	}
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return models.User{}, apperr.InvalidArgument("fullName and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperr.InvalidArgument("invalid email address")
	}

	user, err := s.users.UpdateAccount(ctx, userID, fullName, email, s.NowFunc())
	if err != nil {
		return models.User{}, storeError(err)
	}
	return user, nil
}

func (s *Service) UpdateAvatar(ctx context.Context, userID string, image *Image) (models.User, error) {
	return s.replaceImage(ctx, userID, false, image)
}

func (s *Service) UpdateCover(ctx context.Context, userID string, image *Image) (models.User, error) {
	return s.replaceImage(ctx, userID, true, image)
}

// replaceImage uploads the new image, points the account at it and schedules
// the previous object for deletion.
func (s *Service) replaceImage(ctx context.Context, userID string, cover bool, image *Image) (models.User, error) {
	field, prefix := "avatar", "avatars"
	if cover {
		field, prefix = "coverImage", "covers"
	}
	if image == nil || image.Body == nil {
		return models.User{}, apperr.InvalidArgument("%s file is required", field)
	}
	current, err := s.Current(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	location, err := s.upload(ctx, prefix, image)
	if err != nil {
		return models.User{}, apperr.Internal(err, fmt.Sprintf("failed to upload %s", field))
	}
	updated, err := s.users.UpdateImage(ctx, current.ID, cover, location, s.NowFunc())
	if err != nil {
		s.discard(ctx, location)
		return models.User{}, storeError(err)
	}

	previous := current.AvatarURL
	if cover {
		previous = current.CoverURL
	}
	s.discard(ctx, previous)
	return updated, nil
}

func (s *Service) upload(ctx context.Context, prefix string, image *Image) (string, error) {
	location, err := s.storage.Save(ctx, storage.ObjectKey(prefix, image.Filename), image.Body, image.ContentType)
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
		logging.FromContext(ctx).Warn("schedule image cleanup", "locations", locations, "error", err)
	}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Conflict("email already in use")
	default:
		return apperr.Internal(err, "")
	}
}
