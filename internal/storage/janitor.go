package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
}

// Janitor deletes orphaned objects in the background: media replaced by an
// update, left behind by a failed publish, or owned by a deleted record.
type Janitor struct {
	storage Storage
	logger  *slog.Logger
	timeout time.Duration
	onDone  func(err error)

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
	once   sync.Once
}

// ErrJanitorClosed is returned by Enqueue after Shutdown.
var ErrJanitorClosed = errors.New("storage janitor closed")

// NewJanitor starts the worker pool.
func NewJanitor(storage Storage, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		storage: storage,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}
	return j
}

// OnDelete registers a callback invoked after every deletion attempt. It must
// be set before the first Enqueue.
func (j *Janitor) OnDelete(fn func(err error)) {
	j.onDone = fn
}

// Enqueue schedules deletion of every non-empty location.
func (j *Janitor) Enqueue(ctx context.Context, locations ...string) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrJanitorClosed
	}

	for _, location := range locations {
		if location == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j.jobs <- location:
		}
	}
	return nil
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()
	for location := range j.jobs {
		j.delete(location)
	}
}

func (j *Janitor) delete(location string) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.storage.Delete(ctx, location)
	if errors.Is(err, ErrObjectNotFound) {
		err = nil
	}
	if err != nil {
		j.logger.Error("delete orphaned object", "location", location, "error", err)
	}
	if j.onDone != nil {
		j.onDone(err)
	}
}
