package api

import (
	"toonvault/internal/manifest"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// EpisodeView describes a manifest row in a transport-friendly format.
type EpisodeView struct {
	ID            int64    `json:"id"`
	AnimeName     string   `json:"animeName"`
	SeasonNumber  int      `json:"seasonNumber"`
	EpisodeNumber int      `json:"episodeNumber"`
	EpisodeName   string   `json:"episodeName,omitempty"`
	Description   string   `json:"description,omitempty"`
	VideoLinks    []string `json:"videoLinks"`
	ThumbnailLink string   `json:"thumbnailLink,omitempty"`
	PosterLink    string   `json:"posterLink,omitempty"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
}

// EpisodeListResponse wraps the episode collection endpoint payload.
type EpisodeListResponse struct {
	Episodes []EpisodeView `json:"episodes"`
}

// EpisodeResponse wraps a single episode lookup payload.
type EpisodeResponse struct {
	Episode EpisodeView `json:"episode"`
}

// IngestResponse reports a completed ingestion run.
type IngestResponse struct {
	EpisodeID     int64  `json:"episodeId"`
	SegmentCount  int    `json:"segmentCount"`
	ArtifactCount int    `json:"artifactCount"`
	Status        string `json:"status"`
}

// ErrorResponse is the uniform failure payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	EpisodeID int64  `json:"episodeId,omitempty"`
}

// DaemonStatus reports daemon runtime information.
type DaemonStatus struct {
	Running        bool   `json:"running"`
	PID            int    `json:"pid"`
	APIAddress     string `json:"apiAddress"`
	ManifestDBPath string `json:"manifestDbPath"`
	LockFilePath   string `json:"lockFilePath"`
}

// FromEpisode converts a manifest row into its transport representation.
func FromEpisode(episode *manifest.Episode) EpisodeView {
	if episode == nil {
		return EpisodeView{}
	}
	view := EpisodeView{
		ID:            episode.ID,
		AnimeName:     episode.AnimeName,
		SeasonNumber:  episode.SeasonNumber,
		EpisodeNumber: episode.EpisodeNumber,
		EpisodeName:   episode.EpisodeName,
		Description:   episode.Description,
		VideoLinks:    episode.VideoLinks,
		ThumbnailLink: episode.ThumbnailLink,
		PosterLink:    episode.PosterLink,
		Status:        string(episode.Status),
	}
	if view.VideoLinks == nil {
		view.VideoLinks = []string{}
	}
	if !episode.CreatedAt.IsZero() {
		view.CreatedAt = episode.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !episode.UpdatedAt.IsZero() {
		view.UpdatedAt = episode.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return view
}

// FromEpisodes converts a slice of manifest rows, preserving order.
func FromEpisodes(episodes []*manifest.Episode) []EpisodeView {
	if len(episodes) == 0 {
		return nil
	}
	out := make([]EpisodeView, 0, len(episodes))
	for _, episode := range episodes {
		out = append(out, FromEpisode(episode))
	}
	return out
}
