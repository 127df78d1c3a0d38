package pipeline

import (
	"errors"
	"io"
	"strings"
)

// Payload is one submitted file. Open is invoked at most once, when the file
// is staged to scratch storage.
type Payload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Request carries everything one ingestion needs.
type Request struct {
	AnimeName     string
	SeasonNumber  int
	EpisodeNumber int
	EpisodeName   string
	Description   string
	Video         *Payload
	Thumbnail     *Payload
	// Poster is optional; nil means none was submitted.
	Poster *Payload
}

func (r *Request) validate() error {
	var problems []string
	if strings.TrimSpace(r.AnimeName) == "" {
		problems = append(problems, "anime name is required")
	}
	if r.SeasonNumber <= 0 {
		problems = append(problems, "season number must be positive")
	}
	if r.EpisodeNumber <= 0 {
		problems = append(problems, "episode number must be positive")
	}
	if r.Video == nil {
		problems = append(problems, "video file is required")
	}
	if r.Thumbnail == nil {
		problems = append(problems, "thumbnail file is required")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
