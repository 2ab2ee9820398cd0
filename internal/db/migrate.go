package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vidstream/backend/internal/logging"
)

const (
	migrationMaxRetries  = 5
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 2 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// Migrator applies the embedded goose migrations through a pgx pool.
type Migrator struct {
	sqlDB    *sql.DB
	provider *goose.Provider
}

// NewMigrator wires a goose provider over the pool using the migrations in fsys.
func NewMigrator(pool *pgxpool.Pool, fsys fs.FS) (*Migrator, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return &Migrator{sqlDB: sqlDB, provider: provider}, nil
}

// Up applies every pending migration, retrying transient transaction failures.
func (m *Migrator) Up(ctx context.Context) error {
	return retryMigration(ctx, "up", func() error {
		results, err := m.provider.Up(ctx)
		for _, res := range results {
			logResult(ctx, res)
		}
		return err
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return retryMigration(ctx, "down", func() error {
		res, err := m.provider.Down(ctx)
		logResult(ctx, res)
		return err
	})
}

// Status reports every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	return statuses, nil
}

// Close releases the database/sql handle. The underlying pool stays open.
func (m *Migrator) Close() error {
	return m.sqlDB.Close()
}

func logResult(ctx context.Context, res *goose.MigrationResult) {
	if res == nil || res.Source == nil {
		return
	}
	logging.FromContext(ctx).Info("migration applied",
		slog.String("path", res.Source.Path),
		slog.String("direction", res.Direction),
		slog.Duration("duration", res.Duration),
	)
}

func retryMigration(ctx context.Context, op string, apply func() error) error {
	var err error
	for attempt := 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
			if backoff > migrationMaxBackoff {
				backoff = migrationMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err = apply(); err == nil {
			return nil
		}
		if !shouldRetryMigration(err) {
			return fmt.Errorf("migrate %s: %w", op, err)
		}
		logging.FromContext(ctx).Warn("transient migration error",
			slog.String("direction", op),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}
	return fmt.Errorf("migrate %s: exceeded max retries (%d): %w", op, migrationMaxRetries, err)
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryablePgErrorCodes[pgErr.Code]
		return ok
	}
	return false
}
