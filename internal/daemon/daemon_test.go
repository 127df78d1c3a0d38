package daemon_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toonvault/internal/api"
	"toonvault/internal/config"
	"toonvault/internal/daemon"
	"toonvault/internal/manifest"
	"toonvault/internal/pipeline"
	"toonvault/internal/segmenter"
	"toonvault/internal/testsupport"
	"toonvault/internal/uploader"
)

type nullStore struct{}

func (nullStore) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	return "https://anime-media.s3.test.local/" + key, nil
}

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *manifest.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	coordinator := uploader.New(nullStore{}, store, nil)
	orchestrator := pipeline.New(cfg, store, segmenter.NewCLI(), coordinator, nil, nil)
	d, err := daemon.New(cfg, store, orchestrator, nil)
	require.NoError(t, err)
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.Start(context.Background()))
	status := d.Status()
	assert.True(t, status.Running)
	assert.NotEmpty(t, status.APIAddress)
	assert.Equal(t, os.Getpid(), status.PID)
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "manifest.db"), status.ManifestDBPath)

	// The API server must answer while the daemon runs.
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", status.APIAddress))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(fmt.Sprintf("http://%s/api/status", status.APIAddress))
	require.NoError(t, err)
	var view api.DaemonStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	assert.True(t, view.Running)
	assert.Equal(t, status.APIAddress, view.APIAddress)

	d.Stop()
	assert.False(t, d.Status().Running)
}

func TestDaemonRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)
	t.Cleanup(func() { first.Close() })
	require.NoError(t, first.Start(context.Background()))

	second, _ := newDaemon(t, cfg)
	t.Cleanup(func() { second.Close() })
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestDaemonStartSweepsStaleScratch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.StaleScratchHours = 1
	require.NoError(t, cfg.EnsureDirectories())

	stale := filepath.Join(cfg.Paths.StagingDir, "leftover")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(cfg.Paths.StagingDir, "current")
	require.NoError(t, os.MkdirAll(fresh, 0o755))

	d, _ := newDaemon(t, cfg)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Start(context.Background()))

	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
}

func TestDaemonStartReclaimsStaleManifestRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.StaleScratchHours = 1

	d, store := newDaemon(t, cfg)
	t.Cleanup(func() { d.Close() })

	abandoned := testsupport.NewEpisode(t, store, manifest.Metadata{
		AnimeName:     "Trigun",
		SeasonNumber:  1,
		EpisodeNumber: 3,
	})
	testsupport.BackdateEpisode(t, store, abandoned.ID, 2*time.Hour)

	require.NoError(t, d.Start(context.Background()))

	got, err := store.GetByID(context.Background(), abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, manifest.StatusFailed, got.Status)

	// The abandoned key accepts a new run after the sweep.
	_, err = store.Create(context.Background(), manifest.Metadata{
		AnimeName:     "Trigun",
		SeasonNumber:  1,
		EpisodeNumber: 3,
	})
	require.NoError(t, err)
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg)
	t.Cleanup(func() { d.Close() })

	sent, detail, err := d.TestNotification(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, "ntfy topic not configured", detail)
}
