package api

import (
	"context"

	"toonvault/internal/manifest"
)

// EpisodeReader abstracts manifest reads needed for API queries.
type EpisodeReader interface {
	List(ctx context.Context, limit int) ([]*manifest.Episode, error)
	GetByID(ctx context.Context, id int64) (*manifest.Episode, error)
}

// EpisodeService exposes read-only episode operations returning API DTOs.
type EpisodeService struct {
	store EpisodeReader
}

// NewEpisodeService constructs an EpisodeService around the provided reader.
func NewEpisodeService(store EpisodeReader) *EpisodeService {
	if store == nil {
		return nil
	}
	return &EpisodeService{store: store}
}

// List returns episodes, newest first, capped at limit when positive.
func (s *EpisodeService) List(ctx context.Context, limit int) ([]EpisodeView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	episodes, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromEpisodes(episodes), nil
}

// Describe fetches a single episode by manifest id.
func (s *EpisodeService) Describe(ctx context.Context, id int64) (*EpisodeView, error) {
	if s == nil || s.store == nil {
		return nil, manifest.ErrNotFound
	}
	episode, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := FromEpisode(episode)
	return &view, nil
}
