package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"toonvault/internal/logging"
	"toonvault/internal/manifest"
	"toonvault/internal/pipeline"
)

// multipartMemoryLimit bounds how much of a form is buffered in memory
// before spilling to disk. Video parts always exceed it.
const multipartMemoryLimit = 32 << 20

// Ingestor runs one episode through the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// HandlerOptions configures the HTTP handler.
type HandlerOptions struct {
	// MaxUploadBytes caps the total request body size. Zero disables the cap.
	MaxUploadBytes int64
	// Status reports daemon runtime state; nil disables the status route.
	Status func() DaemonStatus
}

type handler struct {
	*httprouter.Router
	opts     HandlerOptions
	ingestor Ingestor
	episodes *EpisodeService
	logger   *slog.Logger
}

// NewHandler builds the HTTP routing surface for the ingestion daemon.
func NewHandler(opts HandlerOptions, ingestor Ingestor, episodes *EpisodeService, logger *slog.Logger) http.Handler {
	h := &handler{
		Router:   httprouter.New(),
		opts:     opts,
		ingestor: ingestor,
		episodes: episodes,
		logger:   logging.WithComponent(logger, "api"),
	}

	h.HandlerFunc(http.MethodGet, "/healthz", h.healthcheck)
	if opts.Status != nil {
		h.HandlerFunc(http.MethodGet, "/api/status", h.handleStatus)
	}
	h.HandlerFunc(http.MethodPost, "/api/ingest", h.handleIngest)
	h.HandlerFunc(http.MethodGet, "/api/episodes", h.handleListEpisodes)
	h.Handler(http.MethodGet, "/api/episodes/:id", http.HandlerFunc(h.handleGetEpisode))

	h.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		w.WriteHeader(http.StatusNoContent)
	})

	return requestLogger(h.logger, corsMiddleware(h.Router))
}

// corsMiddleware mirrors the permissive policy browser upload forms need.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		next.ServeHTTP(w, r)
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request handled",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) healthcheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Status())
}

func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion unavailable", 0)
		return
	}
	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", 0)
			return
		}
		writeError(w, http.StatusBadRequest, "malformed multipart form", 0)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := pipeline.Request{
		AnimeName:     strings.TrimSpace(r.FormValue("animeName")),
		EpisodeName:   strings.TrimSpace(r.FormValue("episodeName")),
		Description:   strings.TrimSpace(r.FormValue("description")),
		SeasonNumber:  parseFormInt(r, "seasonNumber"),
		EpisodeNumber: parseFormInt(r, "episodeNumber"),
		Video:         formPayload(r, "video"),
		Thumbnail:     formPayload(r, "thumbnail"),
		Poster:        formPayload(r, "poster"),
	}

	result, err := h.ingestor.Ingest(r.Context(), req)
	if err != nil {
		status, episodeID := http.StatusInternalServerError, int64(0)
		var pipeErr *pipeline.Error
		if errors.As(err, &pipeErr) {
			episodeID = pipeErr.EpisodeID
			switch pipeErr.Kind {
			case pipeline.KindValidation:
				status = http.StatusBadRequest
			case pipeline.KindConflict:
				status = http.StatusConflict
			}
		}
		writeError(w, status, err.Error(), episodeID)
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		EpisodeID:     result.EpisodeID,
		SegmentCount:  result.SegmentCount,
		ArtifactCount: result.ArtifactCount,
		Status:        string(manifest.StatusComplete),
	})
}

func (h *handler) handleListEpisodes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if value := strings.TrimSpace(r.URL.Query().Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", 0)
			return
		}
		limit = parsed
	}
	episodes, err := h.episodes.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), 0)
		return
	}
	if episodes == nil {
		episodes = []EpisodeView{}
	}
	writeJSON(w, http.StatusOK, EpisodeListResponse{Episodes: episodes})
}

func (h *handler) handleGetEpisode(w http.ResponseWriter, r *http.Request) {
	idStr := httprouter.ParamsFromContext(r.Context()).ByName("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid episode id", 0)
		return
	}
	episode, err := h.episodes.Describe(r.Context(), id)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			writeError(w, http.StatusNotFound, "episode not found", 0)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error(), 0)
		return
	}
	writeJSON(w, http.StatusOK, EpisodeResponse{Episode: *episode})
}

func parseFormInt(r *http.Request, field string) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.FormValue(field)))
	if err != nil {
		return 0
	}
	return value
}

// formPayload adapts a multipart file part to a pipeline payload without
// reading it; the pipeline streams the part when it stages the file.
func formPayload(r *http.Request, field string) *pipeline.Payload {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil
	}
	header := headers[0]
	return &pipeline.Payload{
		Name: header.Filename,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
