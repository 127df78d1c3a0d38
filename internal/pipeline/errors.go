package pipeline

import "fmt"

// Kind classifies an ingestion failure for callers that map outcomes to
// transport responses.
type Kind string

const (
	// KindValidation marks a rejected request; nothing was created.
	KindValidation Kind = "validation"
	// KindConflict marks a request for an episode key another run owns.
	KindConflict Kind = "conflict"
	// KindSegmentation marks an external segmentation failure.
	KindSegmentation Kind = "segmentation"
	// KindUpload marks a single-artifact upload failure.
	KindUpload Kind = "upload"
	// KindPersistence marks a manifest read or write failure.
	KindPersistence Kind = "persistence"
	// KindInternal marks everything else (staging, probing).
	KindInternal Kind = "internal"
)

// Error is the failure result of an ingestion run. Stage names where the run
// stopped; Committed counts artifacts uploaded and recorded before the
// failure, which stay in the manifest.
type Error struct {
	Kind      Kind
	Stage     Stage
	EpisodeID int64
	Committed int
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Stage identifies a step of the ingestion state machine.
type Stage string

const (
	StageValidating Stage = "validating"
	StageCreated    Stage = "created"
	StageSegmenting Stage = "segmenting"
	StageUploading  Stage = "uploading"
	StageFinalizing Stage = "finalizing"
)
