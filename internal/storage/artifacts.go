// Package storage keeps binary run artifacts such as failure screenshots.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/spec-kit/provisioning-service/internal/config"
)

// ArtifactStore writes an artifact and returns a locator for it.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Close() error
}

// NewArtifactStore picks GCS when a bucket is configured, else a local
// directory, else nil (screenshots disabled).
func NewArtifactStore(ctx context.Context, cfg config.ArtifactsConfig, logger *zap.Logger) (ArtifactStore, error) {
	switch {
	case cfg.GCSBucket != "":
		store, err := NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsPath)
		if err != nil {
			return nil, err
		}
		logger.Info("failure screenshots stored in gcs", zap.String("bucket", cfg.GCSBucket))
		return store, nil
	case cfg.LocalDir != "":
		logger.Info("failure screenshots stored locally", zap.String("dir", cfg.LocalDir))
		return NewLocalStore(cfg.LocalDir), nil
	default:
		logger.Warn("no artifact store configured; failure screenshots disabled")
		return nil, nil
	}
}

// GCSStore writes artifacts to a Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore uses Application Default Credentials unless credentialsPath is set.
func NewGCSStore(ctx context.Context, bucket, credentialsPath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// LocalStore writes artifacts under a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore returns a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	// Rooting the key before cleaning drops any leading "..".
	path := filepath.Join(s.dir, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *LocalStore) Close() error { return nil }
