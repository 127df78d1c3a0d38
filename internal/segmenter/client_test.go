package segmenter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestSplitRequiresInput(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Split(context.Background(), "", t.TempDir(), 10); err == nil {
		t.Fatal("expected error when input path is empty")
	}
}

func TestSplitRequiresPositiveDuration(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Split(context.Background(), "/media/ep.mp4", t.TempDir(), 0); err == nil {
		t.Fatal("expected error when segment duration is zero")
	}
}

func interceptCommand(t *testing.T, mode string, extraEnv ...string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			append([]string{"GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE=" + mode}, extraEnv...)...)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestSplitBuildsStreamCopyArgs(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "segments")
	captured := interceptCommand(t, "success",
		"FFMPEG_HELPER_OUT_DIR="+outDir,
		"FFMPEG_HELPER_SEGMENTS=3",
	)

	cli := NewCLI()
	segments, err := cli.Split(context.Background(), "/media/ep.mp4", outDir, 10)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}

	joined := strings.Join(*captured, " ")
	for _, want := range []string{"-c copy", "-f segment", "-segment_time 10", "-segment_start_number 1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected args to contain %q, got %q", want, joined)
		}
	}
	if !strings.HasSuffix((*captured)[len(*captured)-1], "segment_%04d.mp4") {
		t.Errorf("expected output pattern argument, got %q", (*captured)[len(*captured)-1])
	}
}

func TestSplitFailsOnNonZeroExit(t *testing.T) {
	outDir := t.TempDir()
	interceptCommand(t, "fail")

	cli := NewCLI()
	_, err := cli.Split(context.Background(), "/media/ep.mp4", outDir, 10)
	var splitErr *SplitError
	if !errors.As(err, &splitErr) {
		t.Fatalf("expected SplitError, got %v", err)
	}
	if !strings.Contains(splitErr.Stderr, "moov atom not found") {
		t.Fatalf("expected stderr diagnostics, got %q", splitErr.Stderr)
	}
}

func TestSplitFailsWhenNoSegmentsProduced(t *testing.T) {
	outDir := t.TempDir()
	interceptCommand(t, "success", "FFMPEG_HELPER_OUT_DIR="+outDir, "FFMPEG_HELPER_SEGMENTS=0")

	cli := NewCLI()
	var splitErr *SplitError
	if _, err := cli.Split(context.Background(), "/media/ep.mp4", outDir, 10); !errors.As(err, &splitErr) {
		t.Fatalf("expected SplitError when nothing was produced, got %v", err)
	}
}

func TestSplitHonorsCancellation(t *testing.T) {
	interceptCommand(t, "hang")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cli := NewCLI()
	_, err := cli.Split(ctx, "/media/ep.mp4", t.TempDir(), 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}

func TestCollectSegmentsSortsNumerically(t *testing.T) {
	dir := t.TempDir()
	// Indices straddling the four-digit pattern width: lexical order would
	// place 10000 before 2.
	for _, index := range []int{3, 1, 10000, 2, 999, 1000} {
		name := fmt.Sprintf("segment_%04d.mp4", index)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	// Noise that must be ignored.
	for _, name := range []string{"input.mp4", "segment_abc.mp4", "segment_0001.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	segments, err := collectSegments(dir)
	if err != nil {
		t.Fatalf("collectSegments failed: %v", err)
	}
	want := []int{1, 2, 3, 999, 1000, 10000}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(segments))
	}
	for i, segment := range segments {
		if segment.Index != want[i] {
			t.Errorf("position %d: expected index %d, got %d", i, want[i], segment.Index)
		}
	}
}

func TestSegmentCountMath(t *testing.T) {
	cases := []struct {
		total   time.Duration
		seconds int
		count   int
		last    time.Duration
	}{
		{35 * time.Second, 10, 4, 5 * time.Second},
		{30 * time.Second, 10, 3, 10 * time.Second},
		{1 * time.Second, 10, 1, 1 * time.Second},
		{0, 10, 0, 0},
	}
	for _, tc := range cases {
		if got := SegmentCount(tc.total, tc.seconds); got != tc.count {
			t.Errorf("SegmentCount(%v, %d) = %d, want %d", tc.total, tc.seconds, got, tc.count)
		}
		if got := LastSegmentDuration(tc.total, tc.seconds); got != tc.last {
			t.Errorf("LastSegmentDuration(%v, %d) = %v, want %v", tc.total, tc.seconds, got, tc.last)
		}
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		dir := os.Getenv("FFMPEG_HELPER_OUT_DIR")
		count, _ := strconv.Atoi(os.Getenv("FFMPEG_HELPER_SEGMENTS"))
		for i := 1; i <= count; i++ {
			name := filepath.Join(dir, fmt.Sprintf("segment_%04d.mp4", i))
			if err := os.WriteFile(name, []byte("chunk"), 0o644); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
	case "fail":
		fmt.Fprintln(os.Stderr, "[mov,mp4,m4a] moov atom not found")
		os.Exit(1)
	case "hang":
		time.Sleep(10 * time.Second)
	}
}
