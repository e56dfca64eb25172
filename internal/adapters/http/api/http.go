// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/okian/snnvision/internal/adapters/http/session"
	"github.com/okian/snnvision/internal/adapters/mq/queue"
	"github.com/okian/snnvision/internal/adapters/render"
	"github.com/okian/snnvision/internal/adapters/repository"
	service "github.com/okian/snnvision/internal/app"
	"github.com/okian/snnvision/internal/domain/dataset"
	"github.com/okian/snnvision/internal/domain/model"
	"github.com/okian/snnvision/internal/domain/panels"
	"github.com/okian/snnvision/internal/domain/pipeline"
	"github.com/okian/snnvision/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Snapshot(ctx context.Context, id string) (pipeline.Snapshot, error)
	Select(ctx context.Context, id string, ds dataset.ID) (pipeline.Snapshot, error)

	// Process triggers a run. Busy sessions and full queues are errors.
	Process(ctx context.Context, id string) (model.Job, error)

	// Subscribe streams snapshots of a session until the returned func runs.
	Subscribe(ctx context.Context, id string, fn pipeline.Listener) (func(), error)
}

const defaultPingInterval = 30 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithSessionCookie sets the session cookie name.
func WithSessionCookie(name string) Option {
	return func(s *Server) {
		s.cookies = session.New(name)
	}
}

// WithPingInterval sets how often WebSocket clients are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pingInterval = d
		}
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	deps         Dependencies
	cookies      *session.Cookies
	pingInterval time.Duration
	logger       logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	datasetHandler *DatasetHandler
	processHandler *ProcessHandler
	stateHandler   *StateHandler
	vizHandler     *VisualizationHandler
	streamHandler  *StreamHandler

	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		cookies:      session.New(""),
		pingInterval: defaultPingInterval,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.datasetHandler = NewDatasetHandler(deps, s.cookies)
	s.processHandler = NewProcessHandler(deps, s.cookies)
	s.stateHandler = NewStateHandler(deps, s.cookies)
	s.vizHandler = NewVisualizationHandler(deps, s.cookies)
	s.streamHandler = newStreamHandler(deps, s.cookies, s.pingInterval, s.stop, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/datasets", MetricsMiddleware(s.datasetHandler.HandleList, "datasets"))
	mux.HandleFunc("/api/dataset", MetricsMiddleware(s.datasetHandler.HandleSelect, "dataset"))
	mux.HandleFunc("/api/process", MetricsMiddleware(s.processHandler.HandleProcess, "process"))
	mux.HandleFunc("/api/state", MetricsMiddleware(s.stateHandler.HandleState, "state"))
	mux.HandleFunc("/api/events", MetricsMiddleware(s.stateHandler.HandleEvents, "events"))
	mux.HandleFunc("/api/visualization.svg", MetricsMiddleware(s.vizHandler.Handler(render.FormatSVG), "visualization_svg"))
	mux.HandleFunc("/api/visualization.png", MetricsMiddleware(s.vizHandler.Handler(render.FormatPNG), "visualization_png"))
	mux.HandleFunc("/ws", MetricsMiddleware(s.streamHandler.HandleStream, "ws"))
}

// Close disconnects every WebSocket client. It is safe to call twice.
func (s *Server) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// stateResponse is the body of GET /api/state and every stream message.
type stateResponse struct {
	State pipeline.Snapshot `json:"state"`
	View  panels.View       `json:"view"`
}

func newStateResponse(snap pipeline.Snapshot) stateResponse {
	return stateResponse{State: snap, View: panels.Build(snap)}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a status and code and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// classify translates domain errors to HTTP status codes.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, dataset.ErrUnknownDataset),
		errors.Is(err, repository.ErrInvalidSession):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, render.ErrNoEvents),
		errors.Is(err, repository.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrConflict), errors.Is(err, pipeline.ErrAlreadyProcessing):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrBackpressure),
		errors.Is(err, queue.ErrQueueFull),
		errors.Is(err, service.ErrTooManyRuns):
		return http.StatusServiceUnavailable, "backpressure"
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, service.ErrStopped),
		errors.Is(err, queue.ErrQueueClosed),
		errors.Is(err, repository.ErrStoreClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
