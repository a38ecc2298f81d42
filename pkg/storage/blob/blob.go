// Package blob stores raw event payloads and batch archives as objects.
package blob

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get for a missing object.
	ErrNotFound = errors.New("blob not found")
	// ErrAccessDenied is returned when the credentials cannot write the container.
	// Retrying does not help.
	ErrAccessDenied = errors.New("blob access denied")
)

// Store is a flat key/value object store. Put overwrites.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}
