package manifest

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an episode record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPartial  Status = "partial"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Terminal reports whether no further writes are allowed for the status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// ArtifactKind identifies which link field an upload commits to.
type ArtifactKind string

const (
	ArtifactSegment   ArtifactKind = "segment"
	ArtifactThumbnail ArtifactKind = "thumbnail"
	ArtifactPoster    ArtifactKind = "poster"
)

// Metadata carries the textual fields of an ingestion request.
type Metadata struct {
	AnimeName     string
	SeasonNumber  int
	EpisodeNumber int
	EpisodeName   string
	Description   string
}

// Episode represents one manifest record persisted in SQLite.
type Episode struct {
	ID            int64
	AnimeName     string
	SeasonNumber  int
	EpisodeNumber int
	EpisodeName   string
	Description   string
	VideoLinks    []string
	ThumbnailLink string
	PosterLink    string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// linkDelimiter separates entries in the video_links column.
const linkDelimiter = ","

func splitLinks(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, linkDelimiter)
}
