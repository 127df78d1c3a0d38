package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"toonvault/internal/api"
	"toonvault/internal/config"
	"toonvault/internal/logging"
	"toonvault/internal/manifest"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
	group    *errgroup.Group
}

func newAPIServer(cfg *config.Config, ingestor api.Ingestor, store *manifest.Store, status func() api.DaemonStatus, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}

	handler := api.NewHandler(api.HandlerOptions{
		MaxUploadBytes: cfg.Ingest.MaxUploadBytes,
		Status:         status,
	}, ingestor, api.NewEpisodeService(store), logger)

	srv := &apiServer{
		bind:   bind,
		logger: logging.WithComponent(logger, "api-server"),
	}
	srv.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	group, groupCtx := errgroup.WithContext(ctx)
	s.group = group
	s.mu.Unlock()

	group.Go(func() error {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop(grace time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)

	s.mu.Lock()
	group := s.group
	listener := s.listener
	s.group = nil
	s.listener = nil
	s.mu.Unlock()

	if group != nil {
		_ = group.Wait()
	}
	if listener != nil {
		_ = listener.Close()
	}
}

// Addr returns the bound listen address, empty before start.
func (s *apiServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
