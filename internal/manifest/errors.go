package manifest

import "errors"

var (
	// ErrNotFound indicates no episode record exists for the given id.
	ErrNotFound = errors.New("episode not found")

	// ErrEpisodeActive indicates another ingestion run currently owns the
	// same (anime, season, episode) key. Concurrent runs for one key are
	// rejected rather than queued.
	ErrEpisodeActive = errors.New("episode ingestion already in progress")

	// ErrFinalized indicates a write was attempted against a record whose
	// status is already terminal.
	ErrFinalized = errors.New("episode record already finalized")
)
