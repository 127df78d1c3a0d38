package segmenter

import (
	"context"
	"fmt"
	"math"
	"time"

	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

var probeURL = ffprobe.ProbeURL

// Duration returns the container duration of the media file at path.
func Duration(ctx context.Context, path string) (time.Duration, error) {
	data, err := probeURL(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	if data.Format == nil {
		return 0, fmt.Errorf("probe %s: no format data", path)
	}
	return data.Format.Duration(), nil
}

// SegmentCount returns how many chunks a total duration yields at the target
// segment duration: ceil(total / segmentSeconds).
func SegmentCount(total time.Duration, segmentSeconds int) int {
	if total <= 0 || segmentSeconds <= 0 {
		return 0
	}
	return int(math.Ceil(total.Seconds() / float64(segmentSeconds)))
}

// LastSegmentDuration returns the duration of the final chunk, which may be
// shorter than the target.
func LastSegmentDuration(total time.Duration, segmentSeconds int) time.Duration {
	count := SegmentCount(total, segmentSeconds)
	if count == 0 {
		return 0
	}
	full := time.Duration(segmentSeconds) * time.Second * time.Duration(count-1)
	return total - full
}
