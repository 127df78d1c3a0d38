// Package daemonrun boots the ingestion daemon process: logger, manifest
// store, object storage, segmenter, and HTTP API, then blocks until the
// process receives SIGINT or SIGTERM.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"toonvault/internal/config"
	"toonvault/internal/daemon"
	"toonvault/internal/logging"
	"toonvault/internal/manifest"
	"toonvault/internal/objectstore"
	"toonvault/internal/pipeline"
	"toonvault/internal/segmenter"
	"toonvault/internal/uploader"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Run starts the toonvault daemon runtime loop and blocks until shutdown.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("toonvault-%s.log", runID))
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "toonvaultd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("toonvault daemon shutting down")
	return nil
}

// Build wires the daemon dependency graph from configuration.
func Build(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := manifest.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open manifest store: %w", err)
	}

	objects, err := objectstore.New(cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	seg := segmenter.NewCLI(segmenter.WithBinary(cfg.Segmenter.FFmpegBinary))
	coordinator := uploader.New(objects, store, logger)
	orchestrator := pipeline.New(cfg, store, seg, coordinator, nil, logger)

	d, err := daemon.New(cfg, store, orchestrator, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	ffmpeg := cfg.Segmenter.FFmpegBinary
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", binaryAvailable(ffmpeg)),
		logging.String("ffmpeg_binary", ffmpeg),
		logging.Bool("ffprobe_available", binaryAvailable("ffprobe")),
		logging.String("storage_bucket", cfg.Storage.Bucket),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
