package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/apperr"
)

// User represents an account within the VidStream platform.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"fullName" db:"full_name"`
	AvatarURL string    `json:"avatar" db:"avatar_url"`
	CoverURL  string    `json:"coverImage" db:"cover_url"`
	Password  string    `json:"-" db:"password_hash"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the minimal owner projection embedded in composed views.
type PublicUser struct {
	ID        string `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	FullName  string `json:"fullName" db:"full_name"`
	AvatarURL string `json:"avatar" db:"avatar_url"`
}

// Video is an uploaded media item owned by a channel.
type Video struct {
	ID           string    `json:"id" db:"id"`
	OwnerID      string    `json:"owner" db:"owner_id"`
	VideoURL     string    `json:"videoFile" db:"video_url"`
	ThumbnailURL string    `json:"thumbnail" db:"thumbnail_url"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Duration     float64   `json:"duration" db:"duration"`
	Views        int64     `json:"views" db:"views"`
	IsPublished  bool      `json:"isPublished" db:"is_published"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Comment is a text reply attached to a video.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	VideoID   string    `json:"video" db:"video_id"`
	OwnerID   string    `json:"owner" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Tweet is a short channel post.
type Tweet struct {
	ID        string    `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	OwnerID   string    `json:"owner" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Playlist is an ordered, duplicate-free collection of videos.
type Playlist struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     string    `json:"owner" db:"owner_id"`
	Videos      []string  `json:"videos" db:"-"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Like records that LikedBy likes exactly one of a video, comment or tweet.
type Like struct {
	ID        string    `json:"id"`
	LikedBy   string    `json:"likedBy"`
	VideoID   string    `json:"video,omitempty"`
	CommentID string    `json:"comment,omitempty"`
	TweetID   string    `json:"tweet,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription records that Subscriber follows Channel.
type Subscription struct {
	ID           string    `json:"id" db:"id"`
	SubscriberID string    `json:"subscriber" db:"subscriber_id"`
	ChannelID    string    `json:"channel" db:"channel_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func (v Video) Owner() string    { return v.OwnerID }
func (c Comment) Owner() string  { return c.OwnerID }
func (t Tweet) Owner() string    { return t.OwnerID }
func (p Playlist) Owner() string { return p.OwnerID }

// Public projects a user down to the fields safe to embed in other records.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, FullName: u.FullName, AvatarURL: u.AvatarURL}
}

// ParseID validates that id is a well-formed record identifier.
func ParseID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperr.InvalidArgument("%s is required", field)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.InvalidArgument("invalid %s", field)
	}
	return parsed.String(), nil
}

// NormalizeUsername lower-cases and trims a username for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
