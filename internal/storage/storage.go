// Package storage wraps the S3-compatible object store that holds uploaded
// media. Objects are keyed by random UUIDs; the database keeps the mapping
// from media records to object keys.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dhruvc/stylefeed/internal/config"
)

// SignedURLTTL is how long a presigned download link stays valid.
const SignedURLTTL = time.Hour

// Store is a thin client over one bucket of an S3-compatible store.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the object store and makes sure the bucket exists.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store connect: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("object store bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("object store bucket create: %w", err)
		}
	}
	return &Store{client: client, bucket: cfg.S3Bucket}, nil
}

// Put streams an object into the bucket under a fresh UUID key and returns
// that key. size may be -1 when the caller does not know the length.
func (s *Store) Put(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	key := uuid.NewString()
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("object store put: %w", err)
	}
	return key, nil
}

// SignedURL returns a presigned GET link for the object. Links are minted
// per request and expire after SignedURLTTL.
func (s *Store) SignedURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, SignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("object store presign: %w", err)
	}
	return u.String(), nil
}

// Remove deletes an object from the bucket.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("object store remove: %w", err)
	}
	return nil
}
