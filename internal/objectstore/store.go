// Package objectstore uploads artifacts to object storage.
//
// The heavy lifting is delegated to the livepeer driver abstraction, which
// speaks S3-compatible APIs among others. Public links are derived locally
// from the configured bucket and host so manifest rows stay stable regardless
// of what URL shape a driver reports.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/livepeer/go-tools/drivers"

	"toonvault/internal/config"
)

// Store saves artifact bytes under a key and returns the public URL.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader) (string, error)
}

// DriverStore is a Store backed by a drivers.OSSession.
type DriverStore struct {
	session    drivers.OSSession
	bucket     string
	publicHost string
	timeout    time.Duration
}

// New connects to the object store described by cfg.Storage.
func New(cfg *config.Config) (*DriverStore, error) {
	osDriver, err := drivers.ParseOSURL(cfg.Storage.URL, true)
	if err != nil {
		return nil, fmt.Errorf("parse object store url: %w", err)
	}
	return &DriverStore{
		session:    osDriver.NewSession(""),
		bucket:     cfg.Storage.Bucket,
		publicHost: cfg.Storage.PublicHost,
		timeout:    time.Duration(cfg.Storage.UploadTimeoutSeconds) * time.Second,
	}, nil
}

// Put uploads body under key and returns the public URL for the artifact.
func (s *DriverStore) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	if _, err := s.session.SaveData(ctx, key, body, nil, s.timeout); err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return PublicURL(s.bucket, s.publicHost, key), nil
}

// PublicURL builds the public link for a stored artifact:
// https://{bucket}.{host}/{key}.
func PublicURL(bucket, host, key string) string {
	return fmt.Sprintf("https://%s.%s/%s", bucket, host, strings.TrimPrefix(key, "/"))
}

var _ Store = (*DriverStore)(nil)
