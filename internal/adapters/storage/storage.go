// Package storage persists inbound WhatsApp media in MinIO so conversations
// keep their attachments after the provider-hosted URLs expire.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration time for presigned download URLs.
const PresignedURLTTL = 15 * time.Minute

// Config provides the MinIO connection settings the media store needs.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketMedia() string
}

// MediaStore stores conversation media objects in a single MinIO bucket.
type MediaStore struct {
	client *minio.Client
	bucket string
}

// NewMediaStore creates a media store from the given configuration. It fails
// when no MinIO endpoint is configured; callers should check
// IsMediaArchivalEnabled before constructing one.
func NewMediaStore(cfg Config) (*MediaStore, error) {
	if cfg.GetMinIOEndpoint() == "" {
		return nil, fmt.Errorf("media storage is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MediaStore{
		client: client,
		bucket: cfg.GetMinioBucketMedia(),
	}, nil
}

// EnsureBucket creates the media bucket if it doesn't exist yet.
func (s *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// Put writes an object under the given key, overwriting any previous version.
func (s *MediaStore) Put(ctx context.Context, key, contentType string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return nil
}

// PresignedDownloadURL returns a short-lived URL for fetching a stored object.
func (s *MediaStore) PresignedDownloadURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, PresignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return u.String(), nil
}
