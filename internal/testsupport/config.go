package testsupport

import (
	"path/filepath"
	"testing"

	"toonvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Storage.URL = "s3://key:secret@s3.test.local/region/anime-media"
	cfg.Storage.Bucket = "anime-media"
	cfg.Storage.PublicHost = "s3.test.local"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSegmentSeconds overrides the target segment duration on the test config.
func WithSegmentSeconds(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Segmenter.SegmentSeconds = seconds
	}
}

// WithBucket overrides the storage bucket on the test config.
func WithBucket(bucket string) ConfigOption {
	return func(c *config.Config) {
		c.Storage.Bucket = bucket
	}
}
