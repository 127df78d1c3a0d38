package segmenter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// segmentPattern is the output filename template handed to ffmpeg. Four
// digits keep keys lexically sortable for any realistic episode length;
// collection itself parses the index numerically, so ordering stays correct
// even past 9999 chunks.
const (
	segmentPrefix  = "segment_"
	segmentExt     = ".mp4"
	segmentPattern = segmentPrefix + "%04d" + segmentExt
)

// stderrTailLimit bounds how much ffmpeg stderr is retained for diagnostics.
const stderrTailLimit = 4096

// Segment is one bounded-duration chunk produced from an input video.
// Index is 1-based and matches the numeric suffix in the filename.
type Segment struct {
	Path  string
	Index int
}

// Client defines video segmentation behaviour.
type Client interface {
	Split(ctx context.Context, inputPath, outputDir string, segmentSeconds int) ([]Segment, error)
}

// SplitError reports a failed segmentation run, including the tail of the
// external process output for diagnostics. No segment files are valid when a
// SplitError is returned.
type SplitError struct {
	Cause  error
	Stderr string
}

func (e *SplitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("segmentation failed: %v", e.Cause)
	}
	return fmt.Sprintf("segmentation failed: %v: %s", e.Cause, e.Stderr)
}

func (e *SplitError) Unwrap() error { return e.Cause }

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line segment muxer.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Split cuts inputPath into chunks of at most segmentSeconds each, written to
// outputDir. The final chunk may be shorter. The returned slice is ordered by
// ascending segment index.
func (c *CLI) Split(ctx context.Context, inputPath, outputDir string, segmentSeconds int) ([]Segment, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, errors.New("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.New("output directory required")
	}
	if segmentSeconds <= 0 {
		return nil, errors.New("segment duration must be positive")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create segment directory: %w", err)
	}

	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-i", inputPath,
		"-c", "copy",
		"-map", "0",
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSeconds),
		"-segment_start_number", "1",
		"-reset_timestamps", "1",
		filepath.Join(outputDir, segmentPattern),
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr tailBuffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &SplitError{Cause: err, Stderr: stderr.String()}
	}

	segments, err := collectSegments(outputDir)
	if err != nil {
		return nil, &SplitError{Cause: err, Stderr: stderr.String()}
	}
	return segments, nil
}

// collectSegments gathers produced chunks from dir and orders them by the
// numeric index parsed from each filename.
func collectSegments(dir string) ([]Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read segment directory: %w", err)
	}

	segments := make([]Segment, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, segmentPrefix) || !strings.HasSuffix(name, segmentExt) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, segmentPrefix), segmentExt)
		index, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		segments = append(segments, Segment{Path: filepath.Join(dir, name), Index: index})
	}
	if len(segments) == 0 {
		return nil, errors.New("no segments produced")
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Index < segments[j].Index })
	return segments, nil
}

// tailBuffer keeps only the last stderrTailLimit bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= stderrTailLimit {
		t.buf.Reset()
		p = p[n-stderrTailLimit:]
	} else if overflow := t.buf.Len() + n - stderrTailLimit; overflow > 0 {
		trimmed := t.buf.Bytes()[overflow:]
		remainder := make([]byte, len(trimmed))
		copy(remainder, trimmed)
		t.buf.Reset()
		t.buf.Write(remainder)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(t.buf.String())
}

var _ Client = (*CLI)(nil)
