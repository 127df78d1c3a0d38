package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"toonvault/internal/api"
	"toonvault/internal/config"
	"toonvault/internal/logging"
	"toonvault/internal/manifest"
	"toonvault/internal/notifications"
	"toonvault/internal/pipeline"
	"toonvault/internal/staging"
)

// Daemon coordinates the ingestion service and enforces single-instance
// execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *manifest.Store
	orchestrator *pipeline.Orchestrator

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	APIAddress     string
	ManifestDBPath string
	LockFilePath   string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *manifest.Store, orchestrator *pipeline.Orchestrator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || orchestrator == nil {
		return nil, errors.New("daemon requires config, manifest store, and orchestrator")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "toonvaultd.lock")
	d := &Daemon{
		cfg:          cfg,
		logger:       logging.WithComponent(logger, "daemon"),
		store:        store,
		orchestrator: orchestrator,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, orchestrator, store, d.statusView, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, sweeps stale scratch directories, and
// brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another toonvault daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.sweepStale(d.ctx)

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("toonvault daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.Addr()),
	)
	return nil
}

// Stop stops the API server and releases the daemon lock. In-flight
// ingestions get the configured grace period to finish.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop(d.shutdownGrace())
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("toonvault daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, empty before Start.
func (d *Daemon) APIAddr() string {
	return d.api.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		APIAddress:     d.api.Addr(),
		ManifestDBPath: filepath.Join(d.cfg.Paths.DataDir, "manifest.db"),
		LockFilePath:   d.lockPath,
	}
}

func (d *Daemon) statusView() api.DaemonStatus {
	status := d.Status()
	return api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		APIAddress:     status.APIAddress,
		ManifestDBPath: status.ManifestDBPath,
		LockFilePath:   status.LockFilePath,
	}
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// sweepStale reclaims what crashed runs leave behind: scratch directories
// older than the configured age, and the pending or partial manifest rows
// whose keys would otherwise reject re-ingestion forever.
func (d *Daemon) sweepStale(ctx context.Context) {
	maxAge := time.Duration(d.cfg.Workflow.StaleScratchHours) * time.Hour
	if maxAge <= 0 {
		return
	}
	result := staging.CleanStale(d.cfg.Paths.StagingDir, maxAge, d.logger)
	if len(result.Removed) > 0 || len(result.Errors) > 0 {
		d.logger.Info("stale scratch sweep finished",
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Errors)),
		)
	}

	reclaimed, err := d.store.FailStale(ctx, maxAge)
	if err != nil {
		d.logger.Warn("stale manifest sweep failed", logging.Error(err))
	}
	for _, id := range reclaimed {
		d.logger.Info("marked stale manifest row failed", logging.Int64("episode_id", id))
	}
}

func (d *Daemon) shutdownGrace() time.Duration {
	grace := time.Duration(d.cfg.Workflow.ShutdownGraceSeconds) * time.Second
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return grace
}
