package accounts

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstream/backend/internal/apperr"
	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/repositories"
	"github.com/vidstream/backend/internal/storage"
)

type memUsers struct {
	mu   sync.Mutex
	rows map[string]models.User

	sessions   *auth.InMemorySessionStore
	replaceErr error
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]models.User{}} }

func (m *memUsers) Create(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	m.rows[user.ID] = user
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (m *memUsers) UpdateAccount(_ context.Context, id, fullName, email string, at time.Time) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	u.FullName, u.Email, u.UpdatedAt = fullName, email, at
	m.rows[id] = u
	return u, nil
}

func (m *memUsers) ReplacePassword(ctx context.Context, id, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	u, ok := m.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Password, u.UpdatedAt = hash, at
	m.rows[id] = u
	if m.sessions != nil {
		return m.sessions.DeleteForUser(ctx, id)
	}
	return nil
}

func (m *memUsers) UpdateImage(_ context.Context, id string, cover bool, url string, at time.Time) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if cover {
		u.CoverURL = url
	} else {
		u.AvatarURL = url
	}
	u.UpdatedAt = at
	m.rows[id] = u
	return u, nil
}

type syncCleaner struct {
	storage storage.Storage
}

func (c syncCleaner) Enqueue(ctx context.Context, locations ...string) error {
	for _, loc := range locations {
		if loc != "" {
			_ = c.storage.Delete(ctx, loc)
		}
	}
	return nil
}

type failingStorage struct{}

func (failingStorage) Save(context.Context, string, io.Reader, string) (string, error) {
	return "", errors.New("bucket down")
}

func (failingStorage) Delete(context.Context, string) error { return nil }

type fixture struct {
	svc      *Service
	users    *memUsers
	sessions *auth.InMemorySessionStore
	objects  *storage.MemoryStorage
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := newMemUsers()
	sessions := auth.NewInMemorySessionStore()
	users.sessions = sessions
	manager := auth.NewManager(auth.NewTokenIssuer("secret", "vidstream-test", time.Minute), time.Hour, sessions)
	objects := storage.NewMemoryStorage("https://cdn.test")
	svc := NewService(users, manager, objects, syncCleaner{storage: objects})
	return fixture{svc: svc, users: users, sessions: sessions, objects: objects}
}

func image(name string) *Image {
	return &Image{Filename: name, ContentType: "image/png", Body: strings.NewReader("img-" + name)}
}

func registerInput() RegisterInput {
	return RegisterInput{
		Username: "  Alice ",
		Email:    "Alice@Example.com",
		FullName: "Alice Liddell",
		Password: "supersecret",
		Avatar:   image("avatar.png"),
	}
}

func TestRegisterNormalizesAndUploads(t *testing.T) {
	f := newFixture(t)
	in := registerInput()
	in.Cover = image("cover.jpg")

	user, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "supersecret", user.Password)
	assert.True(t, f.objects.Has(user.AvatarURL))
	assert.True(t, f.objects.Has(user.CoverURL))
	assert.NoError(t, auth.CheckPassword(user.Password, "supersecret"))
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	sameName := registerInput()
	sameName.Username = "ALICE"
	sameName.Email = "other@example.com"
	sameName.Avatar = image("a2.png")
	_, err = f.svc.Register(context.Background(), sameName)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	sameEmail := registerInput()
	sameEmail.Username = "alice2"
	sameEmail.Avatar = image("a3.png")
	_, err = f.svc.Register(context.Background(), sameEmail)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, 1, f.objects.Len())
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		edit func(*RegisterInput)
	}{
		{"missingUsername", func(in *RegisterInput) { in.Username = " " }},
		{"badEmail", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"shortPassword", func(in *RegisterInput) { in.Password = "short" }},
		{"missingAvatar", func(in *RegisterInput) { in.Avatar = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := registerInput()
			tc.edit(&in)
			_, err := f.svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}
	assert.Empty(t, f.users.rows)
}

func TestRegisterUploadFailureCreatesNoUser(t *testing.T) {
	users := newMemUsers()
	manager := auth.NewManager(auth.NewTokenIssuer("secret", "", time.Minute), time.Hour, auth.NewInMemorySessionStore())
	svc := NewService(users, manager, failingStorage{}, nil)

	_, err := svc.Register(context.Background(), registerInput())
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.Empty(t, users.rows)
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	byName, err := f.svc.Login(context.Background(), "ALICE", "", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.User.ID)
	assert.NotEmpty(t, byName.Tokens.AccessToken)

	byEmail, err := f.svc.Login(context.Background(), "", "alice@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.User.ID)

	_, err = f.svc.Login(context.Background(), "alice", "", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.svc.Login(context.Background(), "nobody", "", "supersecret")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.svc.Login(context.Background(), "", "", "supersecret")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	session, err := f.svc.Login(context.Background(), "alice", "", "supersecret")
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.Tokens.RefreshToken, rotated.RefreshToken)

	_, err = f.svc.Refresh(context.Background(), session.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated, "refresh tokens are single use")

	f.svc.Logout(context.Background(), rotated.RefreshToken)
	_, err = f.svc.Refresh(context.Background(), rotated.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	_, err = f.svc.Login(context.Background(), "alice", "", "supersecret")
	require.NoError(t, err)
	require.Equal(t, 1, f.sessions.Len())

	err = f.svc.ChangePassword(context.Background(), user.ID, "wrong", "newpassword")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	require.NoError(t, f.svc.ChangePassword(context.Background(), user.ID, "supersecret", "newpassword"))
	assert.Zero(t, f.sessions.Len())

	_, err = f.svc.Login(context.Background(), "alice", "", "supersecret")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.svc.Login(context.Background(), "alice", "", "newpassword")
	assert.NoError(t, err)
}

func TestChangePasswordFailureKeepsCredentials(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	_, err = f.svc.Login(context.Background(), "alice", "", "supersecret")
	require.NoError(t, err)

	f.users.replaceErr = errors.New("connection reset")
	err = f.svc.ChangePassword(context.Background(), user.ID, "supersecret", "newpassword")
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.Equal(t, 1, f.sessions.Len())

	f.users.replaceErr = nil
	_, err = f.svc.Login(context.Background(), "alice", "", "supersecret")
	assert.NoError(t, err)
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	updated, err := f.svc.UpdateAccount(context.Background(), user.ID, "Alice L.", "NEW@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", updated.FullName)
	assert.Equal(t, "new@example.com", updated.Email)

	_, err = f.svc.UpdateAccount(context.Background(), "", "x", "x@example.com")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.svc.Current(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateAvatarDeletesPrevious(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	updated, err := f.svc.UpdateAvatar(context.Background(), user.ID, image("new.png"))
	require.NoError(t, err)
	assert.NotEqual(t, user.AvatarURL, updated.AvatarURL)
	assert.True(t, f.objects.Has(updated.AvatarURL))
	assert.False(t, f.objects.Has(user.AvatarURL))

	withCover, err := f.svc.UpdateCover(context.Background(), user.ID, image("cover.png"))
	require.NoError(t, err)
	assert.True(t, f.objects.Has(withCover.CoverURL))
	assert.Equal(t, 2, f.objects.Len())

	_, err = f.svc.UpdateCover(context.Background(), user.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
