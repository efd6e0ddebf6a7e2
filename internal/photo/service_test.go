package photo

import (
	"context"
	"errors"
	"testing"
)

// storageStub records calls against the Storage interface.
type storageStub struct {
	objects map[string]bool

	existsCalls []string
	deleteCalls []string
	uploadCalls int
	signCalls   []string

	uploadKey string
	uploadErr error
	deleteErr error
}

func newStorageStub() *storageStub {
	return &storageStub{objects: map[string]bool{}, uploadKey: "new-key/photo.jpg"}
}

func (s *storageStub) EnsureBucket(ctx context.Context) error { return nil }

func (s *storageStub) Exists(ctx context.Context, key string) (bool, error) {
	s.existsCalls = append(s.existsCalls, key)
	return s.objects[key], nil
}

func (s *storageStub) Upload(ctx context.Context, data []byte, originalName string) (string, error) {
	s.uploadCalls++
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.objects[s.uploadKey] = true
	return s.uploadKey, nil
}

func (s *storageStub) Delete(ctx context.Context, key string) error {
	s.deleteCalls = append(s.deleteCalls, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *storageStub) SignedURL(ctx context.Context, key string) (string, error) {
	s.signCalls = append(s.signCalls, key)
	return "https://storage.example.com/" + key + "?signed", nil
}

func strPtr(s string) *string { return &s }

func TestUploadWithoutExistingKey(t *testing.T) {
	store := newStorageStub()
	svc := NewService(store)

	key, err := svc.Upload(context.Background(), nil, []byte("data"), "photo.jpg")
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}
	if key != "new-key/photo.jpg" {
		t.Fatalf("unexpected key %q", key)
	}
	if len(store.deleteCalls) != 0 {
		t.Fatalf("expected no delete calls, got %v", store.deleteCalls)
	}
}

func TestUploadReplacesExistingPhoto(t *testing.T) {
	store := newStorageStub()
	store.objects["old-key/old.png"] = true
	svc := NewService(store)

	_, err := svc.Upload(context.Background(), strPtr("old-key/old.png"), []byte("data"), "photo.jpg")
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}
	if len(store.deleteCalls) != 1 || store.deleteCalls[0] != "old-key/old.png" {
		t.Fatalf("expected delete of old key, got %v", store.deleteCalls)
	}
	if store.uploadCalls != 1 {
		t.Fatalf("expected one upload, got %d", store.uploadCalls)
	}
}

func TestUploadToleratesAbsentOldBlob(t *testing.T) {
	store := newStorageStub()
	svc := NewService(store)

	// Key set on the record, but the blob is gone (prior partial failure).
	_, err := svc.Upload(context.Background(), strPtr("gone-key/x.jpg"), []byte("data"), "photo.jpg")
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}
	if len(store.deleteCalls) != 0 {
		t.Fatalf("expected no delete for absent blob, got %v", store.deleteCalls)
	}
}

func TestUploadFailureAfterDeleteIsNotRolledBack(t *testing.T) {
	store := newStorageStub()
	store.objects["old-key/old.png"] = true
	store.uploadErr = errors.New("backend down")
	svc := NewService(store)

	_, err := svc.Upload(context.Background(), strPtr("old-key/old.png"), []byte("data"), "photo.jpg")
	if err == nil {
		t.Fatal("expected upload error")
	}
	// The old blob stays deleted.
	if store.objects["old-key/old.png"] {
		t.Fatal("expected old blob to remain deleted")
	}
}

func TestDeleteNilKeyIsNoop(t *testing.T) {
	store := newStorageStub()
	svc := NewService(store)

	if err := svc.Delete(context.Background(), nil); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if len(store.existsCalls) != 0 || len(store.deleteCalls) != 0 {
		t.Fatal("expected no storage calls for nil key")
	}
}

func TestDeleteOnlyWhenBlobPresent(t *testing.T) {
	store := newStorageStub()
	store.objects["key/a.jpg"] = true
	svc := NewService(store)

	if err := svc.Delete(context.Background(), strPtr("key/a.jpg")); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if len(store.deleteCalls) != 1 || store.deleteCalls[0] != "key/a.jpg" {
		t.Fatalf("expected delete of key/a.jpg, got %v", store.deleteCalls)
	}

	if err := svc.Delete(context.Background(), strPtr("missing.jpg")); err != nil {
		t.Fatalf("delete of absent blob returned error: %v", err)
	}
	if len(store.deleteCalls) != 1 {
		t.Fatalf("expected no delete for absent blob, got %v", store.deleteCalls)
	}
}

func TestResolveURL(t *testing.T) {
	store := newStorageStub()
	svc := NewService(store)

	url, err := svc.ResolveURL(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if url != nil {
		t.Fatalf("expected nil url for nil key, got %q", *url)
	}

	url, err = svc.ResolveURL(context.Background(), strPtr("key/a.jpg"))
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if url == nil || *url != "https://storage.example.com/key/a.jpg?signed" {
		t.Fatalf("unexpected url %v", url)
	}
	if len(store.signCalls) != 1 {
		t.Fatalf("expected exactly one sign call, got %d", len(store.signCalls))
	}
}
