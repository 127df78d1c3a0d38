package uploader_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toonvault/internal/manifest"
	"toonvault/internal/objectstore"
	"toonvault/internal/segmenter"
	"toonvault/internal/testsupport"
	"toonvault/internal/uploader"
)

// fakeStore records Put calls in order and can fail on chosen keys.
type fakeStore struct {
	mu      sync.Mutex
	keys    []string
	failOn  string
	failErr error
}

func (f *fakeStore) Put(ctx context.Context, key string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.Contains(key, f.failOn) {
		return "", f.failErr
	}
	f.keys = append(f.keys, key)
	return objectstore.PublicURL("anime-media", "s3.test.local", key), nil
}

func stagedSegments(t *testing.T, count int) []segmenter.Segment {
	t.Helper()
	dir := t.TempDir()
	segments := make([]segmenter.Segment, 0, count)
	for i := 1; i <= count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("segment_%04d.mp4", i))
		testsupport.WriteFile(t, path, 64)
		segments = append(segments, segmenter.Segment{Path: path, Index: i})
	}
	return segments
}

func stagedImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteFile(t, path, 32)
	return path
}

func uploadRequest(t *testing.T, store *manifest.Store, segmentCount int, withPoster bool) uploader.Request {
	t.Helper()
	episode := testsupport.NewEpisode(t, store, manifest.Metadata{
		AnimeName:     "Cowboy Bebop",
		SeasonNumber:  1,
		EpisodeNumber: 5,
	})
	req := uploader.Request{
		EpisodeID:     episode.ID,
		AnimeName:     "Cowboy Bebop",
		SeasonNumber:  1,
		EpisodeNumber: 5,
		Segments:      stagedSegments(t, segmentCount),
		ThumbnailPath: stagedImage(t, "thumb.jpg"),
	}
	if withPoster {
		req.PosterPath = stagedImage(t, "poster.png")
	}
	return req
}

func TestUploadAllCommitsInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fake := &fakeStore{}
	coordinator := uploader.New(fake, store, nil)

	req := uploadRequest(t, store, 4, true)
	outcome, err := coordinator.UploadAll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 6, outcome.Committed)
	assert.Empty(t, outcome.FailedKey)

	// Segments must have been stored strictly ascending, before both images.
	require.GreaterOrEqual(t, len(fake.keys), 6)
	for i := 0; i < 4; i++ {
		assert.Contains(t, fake.keys[i], fmt.Sprintf("_segment_%04d.mp4", i+1))
	}

	episode, err := store.GetByID(context.Background(), req.EpisodeID)
	require.NoError(t, err)
	assert.Equal(t, manifest.StatusPartial, episode.Status)
	require.Len(t, episode.VideoLinks, 4)
	assert.True(t, strings.HasSuffix(episode.VideoLinks[3], "_segment_0004.mp4"))
	assert.Equal(t, "https://anime-media.s3.test.local/cowboy_bebop/cowboy_bebop_thumbnail.jpg", episode.ThumbnailLink)
	assert.Equal(t, "https://anime-media.s3.test.local/cowboy_bebop/cowboy_bebop_poster.png", episode.PosterLink)
}

func TestUploadAllSkipsAbsentPoster(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fake := &fakeStore{}
	coordinator := uploader.New(fake, store, nil)

	req := uploadRequest(t, store, 2, false)
	outcome, err := coordinator.UploadAll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Committed)

	episode, err := store.GetByID(context.Background(), req.EpisodeID)
	require.NoError(t, err)
	assert.Empty(t, episode.PosterLink)
}

func TestUploadAllAbortsOnSegmentFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fake := &fakeStore{failOn: "_segment_0003", failErr: errors.New("connection reset")}
	coordinator := uploader.New(fake, store, nil)

	req := uploadRequest(t, store, 4, true)
	outcome, err := coordinator.UploadAll(context.Background(), req)

	var uploadErr *uploader.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 2, uploadErr.Committed)
	assert.Contains(t, uploadErr.Key, "_segment_0003")
	assert.Equal(t, 2, outcome.Committed)

	// Exactly two links recorded, never more; images were never attempted.
	episode, err := store.GetByID(context.Background(), req.EpisodeID)
	require.NoError(t, err)
	assert.Len(t, episode.VideoLinks, 2)
	assert.Empty(t, episode.ThumbnailLink)
	assert.Empty(t, episode.PosterLink)
	for _, key := range fake.keys {
		assert.NotContains(t, key, "thumbnail")
		assert.NotContains(t, key, "poster")
	}
}

func TestUploadAllReportsThumbnailFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fake := &fakeStore{failOn: "thumbnail", failErr: errors.New("access denied")}
	coordinator := uploader.New(fake, store, nil)

	req := uploadRequest(t, store, 2, false)
	_, err := coordinator.UploadAll(context.Background(), req)

	var uploadErr *uploader.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Contains(t, uploadErr.Key, "thumbnail")

	// Segment links committed before the failure stay recorded.
	episode, err := store.GetByID(context.Background(), req.EpisodeID)
	require.NoError(t, err)
	assert.Len(t, episode.VideoLinks, 2)
}

func TestUploadAllFailsOnMissingArtifactFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	fake := &fakeStore{}
	coordinator := uploader.New(fake, store, nil)

	req := uploadRequest(t, store, 1, false)
	req.Segments[0].Path = filepath.Join(t.TempDir(), "missing.mp4")

	_, err := coordinator.UploadAll(context.Background(), req)
	var uploadErr *uploader.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 0, uploadErr.Committed)
}
