// Package photo orchestrates the lifecycle of a customer's photo blob:
// replacing, deleting, and resolving read URLs against object storage.
package photo

import (
	"context"
	"fmt"

	"github.com/clientbook/service/internal/storage"
)

// Service manages photo blobs for customer records. It owns no state of its
// own — every operation delegates to the object storage backend.
type Service struct {
	store storage.Storage
}

// NewService creates a new photo Service.
func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// Upload replaces a customer's photo: the previous blob (if any) is deleted
// first, then the new one is stored and its key returned. The two steps are
// not atomic — if the upload fails after the delete, the old blob is already
// gone and no rollback is attempted.
func (s *Service) Upload(ctx context.Context, existingKey *string, data []byte, originalName string) (string, error) {
	if err := s.Delete(ctx, existingKey); err != nil {
		return "", fmt.Errorf("delete previous photo: %w", err)
	}

	key, err := s.store.Upload(ctx, data, originalName)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return key, nil
}

// Delete removes the blob at key if it exists. A nil key is a no-op, and a
// key whose blob is already absent is tolerated (e.g. after a prior partial
// failure).
func (s *Service) Delete(ctx context.Context, key *string) error {
	if key == nil {
		return nil
	}

	exists, err := s.store.Exists(ctx, *key)
	if err != nil {
		return fmt.Errorf("check photo existence: %w", err)
	}
	if !exists {
		return nil
	}

	if err := s.store.Delete(ctx, *key); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// ResolveURL turns a stored photo key into a fresh time-limited signed URL.
// Nil in, nil out.
func (s *Service) ResolveURL(ctx context.Context, key *string) (*string, error) {
	if key == nil {
		return nil, nil
	}

	url, err := s.store.SignedURL(ctx, *key)
	if err != nil {
		return nil, fmt.Errorf("sign photo url: %w", err)
	}
	return &url, nil
}
