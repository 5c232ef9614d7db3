// Package storage keeps profile photos and their thumbnails in object storage.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyKey is returned when an operation is called without an object key
	ErrEmptyKey = errors.New("storage key is required")
	// ErrObjectNotFound is returned when the requested object does not exist
	ErrObjectNotFound = errors.New("storage object not found")
)

// ObjectStore is the subset of object storage the photo pipeline needs
type ObjectStore interface {
	// Upload stores data under key
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Download reads the object stored under key
	Download(ctx context.Context, key string) ([]byte, error)

	// URL returns a time-limited URL that serves the object
	URL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Delete removes the object; deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)
}
