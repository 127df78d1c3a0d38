package segmenter

import (
	"context"
	"errors"
	"testing"
	"time"

	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

func TestDurationUsesFormatData(t *testing.T) {
	original := probeURL
	probeURL = func(ctx context.Context, fileURL string, extra ...string) (*ffprobe.ProbeData, error) {
		return &ffprobe.ProbeData{Format: &ffprobe.Format{DurationSeconds: 35}}, nil
	}
	t.Cleanup(func() { probeURL = original })

	got, err := Duration(context.Background(), "/media/ep.mp4")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if got != 35*time.Second {
		t.Fatalf("expected 35s, got %v", got)
	}
}

func TestDurationWrapsProbeFailure(t *testing.T) {
	original := probeURL
	probeErr := errors.New("ffprobe: executable not found")
	probeURL = func(ctx context.Context, fileURL string, extra ...string) (*ffprobe.ProbeData, error) {
		return nil, probeErr
	}
	t.Cleanup(func() { probeURL = original })

	if _, err := Duration(context.Background(), "/media/ep.mp4"); !errors.Is(err, probeErr) {
		t.Fatalf("expected wrapped probe error, got %v", err)
	}
}
