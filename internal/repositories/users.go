package repositories

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

const userColumns = `id, username, email, full_name, avatar_url, cover_url, password_hash, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar_url, cover_url, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverURL, user.Password, user.CreatedAt, user.UpdatedAt)
	return mapError("insert user", err)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := pgxscan.Get(ctx, r.pool, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return user, mapError("select user by id", err)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := pgxscan.Get(ctx, r.pool, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return user, mapError("select user by email", err)
}

// FindByLogin fetches a user whose username or email equals login.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	var user models.User
	err := pgxscan.Get(ctx, r.pool, &user, `
        SELECT `+userColumns+`
        FROM users
        WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
        LIMIT 1
    `, username, email)
	return user, mapError("select user by login", err)
}

// UpdateAccount modifies the mutable profile fields of a user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string, at time.Time) (models.User, error) {
	var user models.User
	err := pgxscan.Get(ctx, r.pool, &user, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email, at)
	return user, mapError("update user account", err)
}

// ReplacePassword stores a new password hash and deletes every session of the
// user in one transaction.
func (r *PostgresUserRepository) ReplacePassword(ctx context.Context, id, hash string, at time.Time) error {
	return db.InTx(ctx, r.pool, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, at)
		if err != nil {
			return mapError("update user password", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return NewPostgresSessionStore(q).DeleteForUser(ctx, id)
	})
}

// UpdateImage replaces the avatar or cover image URL, returning the updated user.
func (r *PostgresUserRepository) UpdateImage(ctx context.Context, id string, cover bool, url string, at time.Time) (models.User, error) {
	column := "avatar_url"
	if cover {
		column = "cover_url"
	}
	var user models.User
	err := pgxscan.Get(ctx, r.pool, &user, `
        UPDATE users
        SET `+column+` = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns, id, url, at)
	return user, mapError("update user image", err)
}
