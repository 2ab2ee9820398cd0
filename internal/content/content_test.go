package content

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/repositories"
)

type idSet map[string]bool

func (s idSet) Exists(_ context.Context, id string) (bool, error) { return s[id], nil }

func (s idSet) FindByID(_ context.Context, id string) (models.User, error) {
	if !s[id] {
		return models.User{}, repositories.ErrNotFound
	}
	return models.User{ID: id}, nil
}

type memComments struct {
	mu   sync.Mutex
	rows map[string]models.Comment
}

func (m *memComments) Create(_ context.Context, c models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[c.ID] = c
	return nil
}

func (m *memComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return c, nil
}

func (m *memComments) UpdateContent(_ context.Context, id, content string, at time.Time) (models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.rows[id]
	c.Content, c.UpdatedAt = content, at
	m.rows[id] = c
	return c, nil
}

func (m *memComments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type memTweets struct {
	rows map[string]models.Tweet
}

func (m *memTweets) Create(_ context.Context, t models.Tweet) error {
	m.rows[t.ID] = t
	return nil
}

func (m *memTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	t, ok := m.rows[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return t, nil
}

func (m *memTweets) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	out := []models.Tweet{}
	for _, t := range m.rows {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memTweets) UpdateContent(_ context.Context, id, content string, at time.Time) (models.Tweet, error) {
	t := m.rows[id]
	t.Content, t.UpdatedAt = content, at
	m.rows[id] = t
	return t, nil
}

func (m *memTweets) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

// memPlaylists enforces globally unique names like the playlists_name_key index.
type memPlaylists struct {
	rows map[string]models.Playlist
}

func (m *memPlaylists) nameTaken(name, except string) bool {
	for id, p := range m.rows {
		if p.Name == name && id != except {
			return true
		}
	}
	return false
}

func (m *memPlaylists) Create(_ context.Context, p models.Playlist) error {
	if m.nameTaken(p.Name, "") {
		return repositories.ErrConflict
	}
	p.Videos = []string{}
	m.rows[p.ID] = p
	return nil
}

func (m *memPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	p, ok := m.rows[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	p.Videos = append([]string{}, p.Videos...)
	return p, nil
}

func (m *memPlaylists) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	out := []models.Playlist{}
	for _, p := range m.rows {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPlaylists) UpdateDetails(_ context.Context, id, name, description string, at time.Time) error {
	if m.nameTaken(name, id) {
		return repositories.ErrConflict
	}
	p := m.rows[id]
	p.Name, p.Description, p.UpdatedAt = name, description, at
	m.rows[id] = p
	return nil
}

func (m *memPlaylists) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

func (m *memPlaylists) AddVideo(_ context.Context, playlistID, videoID string, _ time.Time) (bool, error) {
	p := m.rows[playlistID]
	for _, v := range p.Videos {
		if v == videoID {
			return false, nil
		}
	}
	p.Videos = append(p.Videos, videoID)
	m.rows[playlistID] = p
	return true, nil
}

func (m *memPlaylists) RemoveVideo(_ context.Context, playlistID, videoID string) (bool, error) {
	p := m.rows[playlistID]
	for i, v := range p.Videos {
		if v == videoID {
			p.Videos = append(p.Videos[:i:i], p.Videos[i+1:]...)
			m.rows[playlistID] = p
			return true, nil
		}
	}
	return false, nil
}

func TestCommentLifecycle(t *testing.T) {
	video, owner := uuid.NewString(), uuid.NewString()
	store := &memComments{rows: map[string]models.Comment{}}
	svc := NewComments(store, idSet{video: true})
	ctx := context.Background()

	comment, err := svc.Create(ctx, owner, video, "  nice video ")
	require.NoError(t, err)
	assert.Equal(t, "nice video", comment.Content)
	assert.Equal(t, video, comment.VideoID)

	updated, err := svc.Update(ctx, owner, comment.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, svc.Delete(ctx, owner, comment.ID))
	assert.Empty(t, store.rows)
}

func TestCommentCreateErrors(t *testing.T) {
	video := uuid.NewString()
	svc := NewComments(&memComments{rows: map[string]models.Comment{}}, idSet{video: true})
	ctx := context.Background()

	_, err := svc.Create(ctx, "", video, "hi")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Create(ctx, "actor", video, "   ")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.Create(ctx, "actor", "bad-id", "hi")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.Create(ctx, "actor", uuid.NewString(), "hi")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMutationsByNonOwnerAreForbiddenAndLeaveRecordUnchanged(t *testing.T) {
	owner, intruder, video := uuid.NewString(), uuid.NewString(), uuid.NewString()
	ctx := context.Background()

	comments := &memComments{rows: map[string]models.Comment{}}
	commentSvc := NewComments(comments, idSet{video: true})
	comment, err := commentSvc.Create(ctx, owner, video, "original")
	require.NoError(t, err)

	tweets := &memTweets{rows: map[string]models.Tweet{}}
	tweetSvc := NewTweets(tweets, idSet{owner: true})
	tweet, err := tweetSvc.Create(ctx, owner, "original")
	require.NoError(t, err)

	playlists := &memPlaylists{rows: map[string]models.Playlist{}}
	playlistSvc := NewPlaylists(playlists, idSet{video: true}, idSet{owner: true})
	playlist, err := playlistSvc.Create(ctx, owner, "Mine", "desc")
	require.NoError(t, err)

	mutations := map[string]func() error{
		"updateComment": func() error { _, err := commentSvc.Update(ctx, intruder, comment.ID, "x"); return err },
		"deleteComment": func() error { return commentSvc.Delete(ctx, intruder, comment.ID) },
		"updateTweet":   func() error { _, err := tweetSvc.Update(ctx, intruder, tweet.ID, "x"); return err },
		"deleteTweet":   func() error { return tweetSvc.Delete(ctx, intruder, tweet.ID) },
		"updatePlaylist": func() error {
			_, err := playlistSvc.Update(ctx, intruder, playlist.ID, "x", "y")
			return err
		},
		"deletePlaylist": func() error { return playlistSvc.Delete(ctx, intruder, playlist.ID) },
		"addVideo": func() error {
			_, err := playlistSvc.AddVideo(ctx, intruder, playlist.ID, video)
			return err
		},
		"removeVideo": func() error {
			_, err := playlistSvc.RemoveVideo(ctx, intruder, playlist.ID, video)
			return err
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, mutate(), apperr.ErrForbidden)
		})
	}

	assert.Equal(t, comment, comments.rows[comment.ID])
	assert.Equal(t, tweet, tweets.rows[tweet.ID])
	stored, err := playlistSvc.Get(ctx, playlist.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(playlist, stored); diff != "" {
		t.Fatalf("playlist changed (-want +got):\n%s", diff)
	}
}

func TestMissingRecordIsNotFoundBeforeOwnership(t *testing.T) {
	ctx := context.Background()
	commentSvc := NewComments(&memComments{rows: map[string]models.Comment{}}, idSet{})
	tweetSvc := NewTweets(&memTweets{rows: map[string]models.Tweet{}}, idSet{})

	assert.ErrorIs(t, commentSvc.Delete(ctx, "someone", uuid.NewString()), apperr.ErrNotFound)
	_, err := tweetSvc.Update(ctx, "someone", uuid.NewString(), "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTweetsListByOwner(t *testing.T) {
	owner := uuid.NewString()
	store := &memTweets{rows: map[string]models.Tweet{}}
	svc := NewTweets(store, idSet{owner: true})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.Create(context.Background(), owner, text)
		require.NoError(t, err)
	}

	tweets, err := svc.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, tweets, 3)
	assert.Equal(t, "third", tweets[0].Content)

	_, err = svc.ListByOwner(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPlaylistNameIsGloballyUnique(t *testing.T) {
	alice, bob := uuid.NewString(), uuid.NewString()
	svc := NewPlaylists(&memPlaylists{rows: map[string]models.Playlist{}}, idSet{}, idSet{alice: true, bob: true})
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, "Favorites", "mine")
	require.NoError(t, err)

	_, err = svc.Create(ctx, alice, "Favorites", "again")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, bob, "Favorites", "bob's")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	other, err := svc.Create(ctx, bob, "Watch later", "bob's")
	require.NoError(t, err)
	_, err = svc.Update(ctx, bob, other.ID, "Favorites", "rename")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestPlaylistMembershipNoOps(t *testing.T) {
	owner := uuid.NewString()
	v1, v2 := uuid.NewString(), uuid.NewString()
	svc := NewPlaylists(&memPlaylists{rows: map[string]models.Playlist{}}, idSet{v1: true, v2: true}, idSet{owner: true})
	ctx := context.Background()

	playlist, err := svc.Create(ctx, owner, "Mix", "songs")
	require.NoError(t, err)

	_, err = svc.AddVideo(ctx, owner, playlist.ID, v1)
	require.NoError(t, err)
	_, err = svc.AddVideo(ctx, owner, playlist.ID, v2)
	require.NoError(t, err)
	again, err := svc.AddVideo(ctx, owner, playlist.ID, v1)
	require.NoError(t, err)
	assert.Equal(t, []string{v1, v2}, again.Videos)

	removed, err := svc.RemoveVideo(ctx, owner, playlist.ID, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, []string{v1, v2}, removed.Videos)

	removed, err = svc.RemoveVideo(ctx, owner, playlist.ID, v1)
	require.NoError(t, err)
	assert.Equal(t, []string{v2}, removed.Videos)

	_, err = svc.AddVideo(ctx, owner, playlist.ID, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPlaylistListByOwner(t *testing.T) {
	owner := uuid.NewString()
	svc := NewPlaylists(&memPlaylists{rows: map[string]models.Playlist{}}, idSet{}, idSet{owner: true})
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, "One", "d")
	require.NoError(t, err)

	lists, err := svc.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, lists, 1)

	_, err = svc.ListByOwner(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
