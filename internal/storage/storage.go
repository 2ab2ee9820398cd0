// Package storage keeps uploaded media (avatars, covers, videos and
// thumbnails) in an object store.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnavailable indicates the object store is refusing requests.
	ErrUnavailable = errors.New("object storage unavailable")
	// ErrObjectNotFound indicates the referenced object does not exist.
	ErrObjectNotFound = errors.New("object not found")
)

// Storage saves and deletes media objects. Save returns the public location
// that Delete later accepts.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, location string) error
}

// ObjectKey builds a collision-free key under prefix that keeps the file
// extension of filename.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, uuid.NewString()+ext)
}

func keyFromLocation(baseURL, location string) string {
	if baseURL != "" {
		location = strings.TrimPrefix(location, baseURL)
	}
	return strings.TrimLeft(location, "/")
}
