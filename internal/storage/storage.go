// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider (MinIO, AWS S3).
package storage

import (
	"context"
	"errors"
)

// ErrUploadFailed marks failures reading or storing an incoming photo,
// distinguishable from other storage backend errors.
var ErrUploadFailed = errors.New("photo upload failed")

// Storage is the interface for managing photo blobs in an object store.
type Storage interface {
	// EnsureBucket creates the configured bucket if it does not exist. Idempotent.
	EnsureBucket(ctx context.Context) error
	// Exists reports whether a blob with the given key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Upload stores data under a freshly generated key that preserves the
	// original file name, and returns the key once the store confirms the
	// object is retrievable.
	Upload(ctx context.Context, data []byte, originalName string) (string, error)
	// Delete removes the blob at key, returning once the store confirms it is gone.
	Delete(ctx context.Context, key string) error
	// SignedURL returns a time-limited read URL for the blob at key.
	SignedURL(ctx context.Context, key string) (string, error)
}
