package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"toonvault/internal/config"
)

func validConfigTOML() string {
	return `
[storage]
url = "s3://key:secret@s3.amazonaws.com/us-east-1/anime-media"
bucket = "anime-media"
public_host = "s3.amazonaws.com"
`
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, resolved, exists, err := config.Load(writeConfig(t, validConfigTOML()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatalf("expected config at %s to exist", resolved)
	}
	if cfg.Segmenter.SegmentSeconds != 10 {
		t.Errorf("expected default segment_seconds 10, got %d", cfg.Segmenter.SegmentSeconds)
	}
	if cfg.Segmenter.FFmpegBinary != "ffmpeg" {
		t.Errorf("expected default ffmpeg binary, got %q", cfg.Segmenter.FFmpegBinary)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.StagingDir) {
		t.Errorf("expected staging dir to be absolute, got %q", cfg.Paths.StagingDir)
	}
}

func TestLoadRejectsMissingStorage(t *testing.T) {
	_, _, _, err := config.Load(writeConfig(t, "[storage]\nurl = \"\"\n"))
	if err == nil || !strings.Contains(err.Error(), "storage.url") {
		t.Fatalf("expected storage.url error, got %v", err)
	}
}

func TestSnapshotSkipsValidation(t *testing.T) {
	cfg, _, exists, err := config.Snapshot(writeConfig(t, "[storage]\nbucket = \"anime-media\"\n"))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Storage.URL != "" {
		t.Errorf("expected empty storage url, got %q", cfg.Storage.URL)
	}
	if cfg.Storage.Bucket != "anime-media" {
		t.Errorf("expected bucket from file, got %q", cfg.Storage.Bucket)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	contents := validConfigTOML() + "\n[logging]\nformat = \"xml\"\n"
	if _, _, _, err := config.Load(writeConfig(t, contents)); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestLoadOverridesSegmentDuration(t *testing.T) {
	contents := validConfigTOML() + "\n[segmenter]\nsegment_seconds = 30\n"
	cfg, _, _, err := config.Load(writeConfig(t, contents))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Segmenter.SegmentSeconds != 30 {
		t.Errorf("expected segment_seconds 30, got %d", cfg.Segmenter.SegmentSeconds)
	}
}

func TestEnsureDirectoriesCreatesRuntimeDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "# existing\n")
	if _, err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
