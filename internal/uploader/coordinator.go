// Package uploader pushes episode artifacts to object storage in a fixed
// order and records each landed artifact in the manifest.
//
// Segments commit strictly ascending by index. The thumbnail goes up only
// after every segment has committed; the poster, when present, rides
// alongside the thumbnail. Each successful upload is immediately followed by
// a manifest link append, so a crash after segment k leaves exactly k links
// behind. A failed upload aborts everything that has not committed yet;
// nothing already recorded is rolled back.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"toonvault/internal/logging"
	"toonvault/internal/manifest"
	"toonvault/internal/objectstore"
	"toonvault/internal/segmenter"
)

// LinkRecorder is the slice of the manifest store the coordinator drives.
type LinkRecorder interface {
	AppendLink(ctx context.Context, id int64, kind manifest.ArtifactKind, url string) error
}

// Request describes one episode's artifacts ready for upload.
type Request struct {
	EpisodeID     int64
	AnimeName     string
	SeasonNumber  int
	EpisodeNumber int
	Segments      []segmenter.Segment
	ThumbnailPath string
	// PosterPath is empty when no poster was submitted.
	PosterPath string
}

// Outcome reports how far an upload run got. Committed counts artifacts that
// were both uploaded and recorded in the manifest. FailedKey names the
// artifact that stopped the run, empty on full success.
type Outcome struct {
	Committed int
	FailedKey string
}

// UploadError reports a single-artifact upload failure together with how many
// artifacts had already committed. Links recorded before the failure are
// preserved.
type UploadError struct {
	Key       string
	Committed int
	Cause     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed after %d committed artifacts: %v", e.Key, e.Committed, e.Cause)
}

func (e *UploadError) Unwrap() error { return e.Cause }

// Coordinator uploads artifacts and drives manifest link appends.
type Coordinator struct {
	store    objectstore.Store
	manifest LinkRecorder
	logger   *slog.Logger
}

// New constructs a Coordinator. A nil logger is replaced with a no-op logger.
func New(store objectstore.Store, recorder LinkRecorder, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		manifest: recorder,
		logger:   logging.WithComponent(logger, "uploader"),
	}
}

// UploadAll pushes every artifact for req in the required order. On failure
// the returned error is an *UploadError and the Outcome reflects the
// partially committed state.
func (c *Coordinator) UploadAll(ctx context.Context, req Request) (Outcome, error) {
	var committed atomic.Int64

	for _, segment := range req.Segments {
		key := SegmentKey(req.AnimeName, req.SeasonNumber, req.EpisodeNumber, segment.Index)
		if err := c.putArtifact(ctx, req.EpisodeID, manifest.ArtifactSegment, key, segment.Path); err != nil {
			return c.failed(req, key, int(committed.Load()), err)
		}
		committed.Add(1)
		c.logger.Info("segment uploaded",
			logging.Int64(logging.FieldEpisodeID, req.EpisodeID),
			logging.Int("index", segment.Index),
			logging.String("key", key),
		)
	}

	// Thumbnail and poster are independent of each other; their link
	// appends serialize inside the manifest store.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		key := ThumbnailKey(req.AnimeName, req.ThumbnailPath)
		if err := c.putArtifact(groupCtx, req.EpisodeID, manifest.ArtifactThumbnail, key, req.ThumbnailPath); err != nil {
			return &UploadError{Key: key, Cause: err}
		}
		committed.Add(1)
		return nil
	})
	if req.PosterPath != "" {
		group.Go(func() error {
			key := PosterKey(req.AnimeName, req.PosterPath)
			if err := c.putArtifact(groupCtx, req.EpisodeID, manifest.ArtifactPoster, key, req.PosterPath); err != nil {
				return &UploadError{Key: key, Cause: err}
			}
			committed.Add(1)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		uploadErr, ok := err.(*UploadError)
		if !ok {
			uploadErr = &UploadError{Key: "image artifacts", Cause: err}
		}
		return c.failed(req, uploadErr.Key, int(committed.Load()), uploadErr.Cause)
	}

	c.logger.Info("all artifacts uploaded",
		logging.Int64(logging.FieldEpisodeID, req.EpisodeID),
		logging.Int("artifacts", int(committed.Load())),
	)
	return Outcome{Committed: int(committed.Load())}, nil
}

func (c *Coordinator) putArtifact(ctx context.Context, episodeID int64, kind manifest.ArtifactKind, key, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	url, err := c.store.Put(ctx, key, file)
	if err != nil {
		return err
	}
	if err := c.manifest.AppendLink(ctx, episodeID, kind, url); err != nil {
		return fmt.Errorf("record link: %w", err)
	}
	return nil
}

func (c *Coordinator) failed(req Request, key string, committed int, cause error) (Outcome, error) {
	c.logger.Error("upload aborted",
		logging.Int64(logging.FieldEpisodeID, req.EpisodeID),
		logging.String("key", key),
		logging.Int("committed", committed),
		logging.Error(cause),
	)
	return Outcome{Committed: committed, FailedKey: key},
		&UploadError{Key: key, Committed: committed, Cause: cause}
}
