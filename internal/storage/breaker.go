package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes when the breaker opens and how long it stays open.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
	Logger           *slog.Logger
}

// BreakerStorage fails fast with ErrUnavailable while the wrapped store keeps
// erroring, instead of letting every upload wait out its own timeout.
type BreakerStorage struct {
	next    Storage
	breaker *gobreaker.CircuitBreaker[string]
}

// NewBreakerStorage wraps next in a circuit breaker.
func NewBreakerStorage(next Storage, cfg BreakerConfig) *BreakerStorage {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Name == "" {
		cfg.Name = "object-storage"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrObjectNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerStorage{next: next, breaker: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *BreakerStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	location, err := b.breaker.Execute(func() (string, error) {
		return b.next.Save(ctx, key, r, contentType)
	})
	return location, translateBreakerError(err)
}

func (b *BreakerStorage) Delete(ctx context.Context, location string) error {
	_, err := b.breaker.Execute(func() (string, error) {
		return "", b.next.Delete(ctx, location)
	})
	return translateBreakerError(err)
}

// State reports the breaker state for health checks.
func (b *BreakerStorage) State() string {
	return b.breaker.State().String()
}

func translateBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
