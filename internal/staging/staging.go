// Package staging manages run-scoped scratch directories.
//
// Each ingestion run owns one directory under the configured staging root,
// named by a fresh UUID so concurrent runs never share scratch space. The
// directory holds the staged input video and the generated segments and is
// removed when the run ends, whatever the outcome. CleanStale reclaims
// directories orphaned by crashed runs.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Area is one run's private scratch directory.
type Area struct {
	root string
}

// NewArea creates a fresh scratch directory under stagingDir.
func NewArea(stagingDir string) (*Area, error) {
	root := filepath.Join(stagingDir, uuid.NewString())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return &Area{root: root}, nil
}

// Root returns the scratch directory path.
func (a *Area) Root() string {
	return a.root
}

// SegmentsDir returns the directory segment files are written to.
func (a *Area) SegmentsDir() string {
	return filepath.Join(a.root, "segments")
}

// Stage copies src into the scratch area under name and returns the staged
// path.
func (a *Area) Stage(name string, src io.Reader) (string, error) {
	target := filepath.Join(a.root, filepath.Base(name))
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(file, src); err != nil {
		file.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return target, nil
}

// Remove deletes the scratch directory and everything in it.
func (a *Area) Remove() error {
	if a == nil || a.root == "" {
		return nil
	}
	return os.RemoveAll(a.root)
}
