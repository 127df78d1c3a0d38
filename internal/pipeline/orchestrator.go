package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"toonvault/internal/config"
	"toonvault/internal/logging"
	"toonvault/internal/manifest"
	"toonvault/internal/notifications"
	"toonvault/internal/segmenter"
	"toonvault/internal/staging"
	"toonvault/internal/uploader"
)

// Uploader is the slice of the upload coordinator the orchestrator drives.
type Uploader interface {
	UploadAll(ctx context.Context, req uploader.Request) (uploader.Outcome, error)
}

// Result reports a completed ingestion.
type Result struct {
	EpisodeID     int64
	SegmentCount  int
	ArtifactCount int
	InputDuration time.Duration
}

// Orchestrator wires the ingestion stages together. All dependencies are
// injected at construction so tests can substitute fakes.
type Orchestrator struct {
	cfg       *config.Config
	store     *manifest.Store
	segmenter segmenter.Client
	uploader  Uploader
	notifier  notifications.Service
	logger    *slog.Logger
}

// New constructs an Orchestrator.
func New(cfg *config.Config, store *manifest.Store, seg segmenter.Client, up Uploader, notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		segmenter: seg,
		uploader:  up,
		notifier:  notifier,
		logger:    logging.WithComponent(logger, "pipeline"),
	}
}

// Ingest runs one episode through the pipeline. On failure the returned error
// is a *Error carrying the failed stage and the count of artifacts that had
// already committed.
func (o *Orchestrator) Ingest(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, &Error{Kind: KindValidation, Stage: StageValidating, Cause: err}
	}

	episode, err := o.store.Create(ctx, manifest.Metadata{
		AnimeName:     req.AnimeName,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
		EpisodeName:   req.EpisodeName,
		Description:   req.Description,
	})
	if err != nil {
		kind := KindPersistence
		if errors.Is(err, manifest.ErrEpisodeActive) {
			kind = KindConflict
		}
		return nil, &Error{Kind: kind, Stage: StageCreated, Cause: err}
	}

	logger := o.logger.With(logging.Int64(logging.FieldEpisodeID, episode.ID))
	logger.Info("ingestion started",
		logging.String("anime", req.AnimeName),
		logging.Int("season", req.SeasonNumber),
		logging.Int("episode", req.EpisodeNumber),
	)

	area, err := staging.NewArea(o.cfg.Paths.StagingDir)
	if err != nil {
		return nil, o.fail(ctx, req, episode.ID, StageSegmenting, KindInternal, 0, err)
	}
	defer func() {
		if removeErr := area.Remove(); removeErr != nil {
			logger.Warn("scratch cleanup failed", logging.Error(removeErr))
		}
	}()

	videoPath, err := o.stagePayload(area, req.Video, "input")
	if err != nil {
		return nil, o.fail(ctx, req, episode.ID, StageSegmenting, KindInternal, 0, err)
	}
	thumbnailPath, err := o.stagePayload(area, req.Thumbnail, "thumbnail")
	if err != nil {
		return nil, o.fail(ctx, req, episode.ID, StageSegmenting, KindInternal, 0, err)
	}
	posterPath := ""
	if req.Poster != nil {
		if posterPath, err = o.stagePayload(area, req.Poster, "poster"); err != nil {
			return nil, o.fail(ctx, req, episode.ID, StageSegmenting, KindInternal, 0, err)
		}
	}

	// Duration is advisory: it feeds logging and the expected-count check
	// but a probe failure does not stop the run.
	inputDuration, probeErr := segmenter.Duration(ctx, videoPath)
	if probeErr != nil {
		logger.Warn("input probe failed", logging.Error(probeErr))
	}

	splitCtx := ctx
	if o.cfg.Segmenter.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		splitCtx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Segmenter.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	segments, err := o.segmenter.Split(splitCtx, videoPath, area.SegmentsDir(), o.cfg.Segmenter.SegmentSeconds)
	if err != nil {
		return nil, o.fail(ctx, req, episode.ID, StageSegmenting, KindSegmentation, 0, err)
	}
	if expected := segmenter.SegmentCount(inputDuration, o.cfg.Segmenter.SegmentSeconds); expected > 0 && expected != len(segments) {
		logger.Warn("segment count differs from probe estimate",
			logging.Int("expected", expected),
			logging.Int("produced", len(segments)),
		)
	}
	logger.Info("segmentation complete",
		logging.Int("segments", len(segments)),
		logging.Duration("input_duration", inputDuration),
	)

	outcome, err := o.uploader.UploadAll(ctx, uploader.Request{
		EpisodeID:     episode.ID,
		AnimeName:     req.AnimeName,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
		Segments:      segments,
		ThumbnailPath: thumbnailPath,
		PosterPath:    posterPath,
	})
	if err != nil {
		return nil, o.fail(ctx, req, episode.ID, StageUploading, KindUpload, outcome.Committed, err)
	}

	if err := o.store.Finalize(ctx, episode.ID, manifest.StatusComplete); err != nil {
		return nil, o.fail(ctx, req, episode.ID, StageFinalizing, KindPersistence, outcome.Committed, err)
	}
	logger.Info("ingestion complete", logging.Int("artifacts", outcome.Committed))

	if notifyErr := o.notifier.NotifyIngestCompleted(ctx, req.AnimeName, req.SeasonNumber, req.EpisodeNumber, len(segments)); notifyErr != nil {
		logger.Warn("completion notification failed", logging.Error(notifyErr))
	}

	return &Result{
		EpisodeID:     episode.ID,
		SegmentCount:  len(segments),
		ArtifactCount: outcome.Committed,
		InputDuration: inputDuration,
	}, nil
}

// stagePayload copies the payload into scratch under a role-based name.
// Client basenames are untrusted: a file named "segments" or a thumbnail
// sharing the video's name would collide inside the scratch area. Only the
// extension survives, since the public artifact keys carry it.
func (o *Orchestrator) stagePayload(area *staging.Area, payload *Payload, role string) (string, error) {
	src, err := payload.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", payload.Name, err)
	}
	defer src.Close()
	return area.Stage(role+filepath.Ext(payload.Name), src)
}

// fail finalizes the manifest and reports the failure. Finalization and
// notification run on a context detached from the request so a cancelled run
// still leaves the manifest in a terminal state.
func (o *Orchestrator) fail(ctx context.Context, req Request, episodeID int64, stage Stage, kind Kind, committed int, cause error) error {
	cleanupCtx := context.WithoutCancel(ctx)
	if finalizeErr := o.store.Finalize(cleanupCtx, episodeID, manifest.StatusFailed); finalizeErr != nil {
		o.logger.Error("finalize after failure failed",
			logging.Int64(logging.FieldEpisodeID, episodeID),
			logging.Error(finalizeErr),
		)
	}
	o.logger.Error("ingestion failed",
		logging.Int64(logging.FieldEpisodeID, episodeID),
		logging.String(logging.FieldStage, string(stage)),
		logging.Int("committed", committed),
		logging.Error(cause),
	)
	if notifyErr := o.notifier.NotifyIngestFailed(cleanupCtx, req.AnimeName, req.SeasonNumber, req.EpisodeNumber, cause); notifyErr != nil {
		o.logger.Warn("failure notification failed", logging.Error(notifyErr))
	}
	return &Error{Kind: kind, Stage: stage, EpisodeID: episodeID, Committed: committed, Cause: cause}
}
