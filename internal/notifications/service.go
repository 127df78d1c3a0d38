// Package notifications delivers ingestion events via ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// and degrades to a no-op when no topic is set, so pipeline code never has to
// check whether notifications are enabled.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"toonvault/internal/config"
)

const userAgent = "toonvault/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyIngestCompleted(ctx context.Context, anime string, season, episode, segments int) error
	NotifyIngestFailed(ctx context.Context, anime string, season, episode int, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		ingestEvents: cfg.Notifications.Ingest,
		errorEvents:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	ingestEvents bool
	errorEvents  bool
}

func (n *ntfyService) NotifyIngestCompleted(ctx context.Context, anime string, season, episode, segments int) error {
	if !n.ingestEvents {
		return nil
	}
	data := payload{
		title:    "Toonvault - Episode Ready",
		message:  fmt.Sprintf("%s S%02dE%02d ingested (%d segments)", strings.TrimSpace(anime), season, episode, segments),
		tags:     []string{"toonvault", "ingest", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIngestFailed(ctx context.Context, anime string, season, episode int, cause error) error {
	if !n.errorEvents {
		return nil
	}
	data := payload{
		title:   "Toonvault - Ingest Failed",
		message: fmt.Sprintf("%s S%02dE%02d failed: %v", strings.TrimSpace(anime), season, episode, cause),
		tags:    []string{"toonvault", "ingest", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "Toonvault - Test",
		message: "Notifications are working",
		tags:    []string{"toonvault", "test"},
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyIngestCompleted(context.Context, string, int, int, int) error { return nil }
func (noopService) NotifyIngestFailed(context.Context, string, int, int, error) error  { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
