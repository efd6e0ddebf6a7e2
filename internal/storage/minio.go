package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements Storage using a MinIO (or any S3-compatible) backend.
type MinioStorage struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
}

// NewMinioStorage creates a MinIO client and returns a ready-to-use MinioStorage.
// Call EnsureBucket before the first blob operation.
func NewMinioStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool, presignExpiry time.Duration) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStorage{
		client:        client,
		bucket:        bucket,
		presignExpiry: presignExpiry,
	}, nil
}

// EnsureBucket creates the bucket if absent. No-op when it already exists.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	log.Printf("storage: created bucket %q", s.bucket)
	return nil
}

// Exists reports whether the blob at key is present in the bucket.
func (s *MinioStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}

// Upload stores data under "<uuid>/<originalName>" — the random prefix keeps keys
// unique while the suffix preserves the original file name and extension for
// downstream consumers. Returns the key after a stat confirms the object landed.
func (s *MinioStorage) Upload(ctx context.Context, data []byte, originalName string) (string, error) {
	key := fmt.Sprintf("%s/%s", uuid.NewString(), originalName)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return "", fmt.Errorf("confirm object %q: %w", key, err)
	}
	return key, nil
}

// Delete removes the blob at key and confirms it is no longer present.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}

	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("object %q still present after delete", key)
	}
	if !isNoSuchKey(err) {
		return fmt.Errorf("confirm delete of %q: %w", key, err)
	}
	return nil
}

// SignedURL returns a presigned GET URL valid for the configured expiry.
func (s *MinioStorage) SignedURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return u.String(), nil
}

// isNoSuchKey checks whether an error is the S3 "object not found" response.
func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
