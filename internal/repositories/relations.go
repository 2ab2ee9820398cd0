package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/ledger"
)

// likeTargetColumns maps like kinds to their nullable target column. Only
// values from this table are ever interpolated into SQL.
var likeTargetColumns = map[ledger.Kind]string{
	ledger.KindVideo:   "video_id",
	ledger.KindComment: "comment_id",
	ledger.KindTweet:   "tweet_id",
}

var targetTables = map[ledger.Kind]string{
	ledger.KindVideo:   "videos",
	ledger.KindComment: "comments",
	ledger.KindTweet:   "tweets",
	ledger.KindChannel: "users",
}

// PostgresRelationStore implements ledger.Store over the likes and
// subscriptions tables. The partial unique indexes on those tables are what
// make concurrent toggles converge.
type PostgresRelationStore struct {
	q db.Querier
}

// NewPostgresRelationStore constructs the relationship store.
func NewPostgresRelationStore(q db.Querier) *PostgresRelationStore {
	return &PostgresRelationStore{q: q}
}

var _ ledger.Store = (*PostgresRelationStore)(nil)

// Remove deletes the record at key and returns it, or ledger.ErrNotFound.
func (s *PostgresRelationStore) Remove(ctx context.Context, key ledger.Key) (ledger.Record, error) {
	var stmt string
	if key.Kind == ledger.KindChannel {
		stmt = `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2 RETURNING id, created_at`
	} else {
		column, err := likeColumn(key.Kind)
		if err != nil {
			return ledger.Record{}, err
		}
		stmt = `DELETE FROM likes WHERE liked_by = $1 AND ` + column + ` = $2 RETURNING id, created_at`
	}

	record := ledger.Record{Actor: key.Actor, Target: key.Target, Kind: key.Kind}
	var createdAt time.Time
	err := s.q.QueryRow(ctx, stmt, key.Actor, key.Target).Scan(&record.ID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Record{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("delete %s relationship: %w", key.Kind, err)
	}
	record.CreatedAt = createdAt.UTC()
	return record, nil
}

// Insert stores record. An occupied key yields ledger.ErrDuplicate and a
// vanished target yields ledger.ErrNotFound.
func (s *PostgresRelationStore) Insert(ctx context.Context, record ledger.Record) error {
	var err error
	if record.Kind == ledger.KindChannel {
		_, err = s.q.Exec(ctx, `
            INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
            VALUES ($1, $2, $3, $4)
        `, record.ID, record.Actor, record.Target, record.CreatedAt)
	} else {
		column, colErr := likeColumn(record.Kind)
		if colErr != nil {
			return colErr
		}
		_, err = s.q.Exec(ctx, `
            INSERT INTO likes (id, liked_by, `+column+`, created_at)
            VALUES ($1, $2, $3, $4)
        `, record.ID, record.Actor, record.Target, record.CreatedAt)
	}

	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ledger.ErrDuplicate
	case isForeignKeyViolation(err):
		return ledger.ErrNotFound
	default:
		return fmt.Errorf("insert %s relationship: %w", record.Kind, err)
	}
}

// TargetExists reports whether the record a relationship would point at exists.
func (s *PostgresRelationStore) TargetExists(ctx context.Context, kind ledger.Kind, id string) (bool, error) {
	table, ok := targetTables[kind]
	if !ok {
		return false, fmt.Errorf("unknown relationship kind %q", kind)
	}
	var exists bool
	if err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s exists: %w", kind, err)
	}
	return exists, nil
}

func likeColumn(kind ledger.Kind) (string, error) {
	column, ok := likeTargetColumns[kind]
	if !ok {
		return "", fmt.Errorf("unknown like kind %q", kind)
	}
	return column, nil
}
