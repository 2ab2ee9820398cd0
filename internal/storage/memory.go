package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStorage keeps objects in process memory. It backs local development
// when no bucket is configured, and tests.
type MemoryStorage struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStorage returns an empty store whose locations start with baseURL.
func NewMemoryStorage(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "memory://"
	}
	return &MemoryStorage{baseURL: strings.TrimSuffix(baseURL, "/"), objects: make(map[string][]byte)}
}

func (m *MemoryStorage) Save(ctx context.Context, name string, r io.Reader, _ string) (string, error) {
	key := strings.TrimLeft(name, "/")
	if key == "" {
		return "", fmt.Errorf("memory storage: empty key")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("memory storage read %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()
	return m.baseURL + "/" + key, nil
}

func (m *MemoryStorage) Delete(_ context.Context, location string) error {
	key := keyFromLocation(m.baseURL, location)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

// Has reports whether an object exists at location.
func (m *MemoryStorage) Has(location string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[keyFromLocation(m.baseURL, location)]
	return ok
}

// Len reports the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
