package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/kzstats/internal/config"
	"github.com/kzstats/internal/domain"
	"github.com/kzstats/internal/query"
)

// StatsService is the read API the routes are served from
type StatsService interface {
	Player(ctx context.Context, ident string) (domain.PlayerProfile, error)
	Map(ctx context.Context, ident string) (domain.MapDetails, error)
	Server(ctx context.Context, ident string) (domain.Server, error)
	Maps(ctx context.Context, filter query.MapFilter, limit int) ([]domain.Map, error)
	Servers(ctx context.Context, filter query.ServerFilter, limit int) ([]domain.Server, error)
	Modes(ctx context.Context) ([]domain.Mode, error)
	Mode(ctx context.Context, ident string) (domain.Mode, error)
	Records(ctx context.Context, spec query.Spec, limit int) ([]domain.Record, error)
	Record(ctx context.Context, id uint32) (domain.Record, error)
	MapTop(ctx context.Context, mapIdent string, spec query.Spec, limit int) ([]domain.LeaderboardEntry, error)
	PlayerTop(ctx context.Context, playerIdent string, spec query.Spec, limit int) ([]domain.Record, error)
	Place(ctx context.Context, recordID uint32) (uint32, error)
	Ready(ctx context.Context) error
}

// Recorder receives per-request metrics
type Recorder interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
	IncRateLimited()
}

// Handler provides HTTP handlers for the stats API
type Handler struct {
	service  StatsService
	cfg      *config.Config
	recorder Recorder
	metrics  http.Handler
	counter  httprate.LimitCounter
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures optional Handler collaborators
type Option func(*Handler)

// WithMetrics records request metrics and serves /metrics from handler.
func WithMetrics(recorder Recorder, handler http.Handler) Option {
	return func(h *Handler) {
		h.recorder = recorder
		h.metrics = handler
	}
}

// WithLimitCounter shares rate limit state across instances.
func WithLimitCounter(counter httprate.LimitCounter) Option {
	return func(h *Handler) {
		h.counter = counter
	}
}

// NewHandler creates a new HTTP handler
func NewHandler(service StatsService, cfg *config.Config, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:  service,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// APIResponse is the envelope of every JSON response. Took is the handler
// time in nanoseconds and is left out of failures.
type APIResponse struct {
	Result any   `json:"result"`
	Took   int64 `json:"took,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(h.corsMiddleware())
	if h.recorder != nil {
		r.Use(h.metricsMiddleware)
	}

	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		if h.cfg.RateLimit.Enabled {
			r.Use(h.rateLimitMiddleware())
		}
		r.Use(h.authMiddleware)

		r.Get("/players/{identifier}", h.GetPlayer)
		r.Get("/maps", h.ListMaps)
		r.Get("/maps/{identifier}", h.GetMap)
		r.Get("/servers", h.ListServers)
		r.Get("/servers/{identifier}", h.GetServer)
		r.Get("/modes", h.ListModes)
		r.Get("/modes/{identifier}", h.GetMode)

		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Get("/{record_id}", h.GetRecord)
			r.Get("/top/map/{identifier}", h.GetMapTop)
			r.Get("/top/player/{identifier}", h.GetPlayerTop)
			r.Get("/place/{record_id}", h.GetPlace)
		})
	})

	return r
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, time.Now(), map[string]string{"status": "healthy"})
}

// ReadyCheck reports whether the database answers
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{Result: "Database unavailable."})
		return
	}
	h.writeSuccess(w, start, map[string]string{"status": "ready"})
}

// GetPlayer returns a player with completion counts
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	profile, err := h.service.Player(r.Context(), chi.URLParam(r, "identifier"))
	h.respond(w, r, start, profile, err)
}

// GetMap returns a map and its courses
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	details, err := h.service.Map(r.Context(), chi.URLParam(r, "identifier"))
	h.respond(w, r, start, details, err)
}

// ListMaps returns maps matching the query filters
func (h *Handler) ListMaps(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := h.mapParams(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	maps, err := h.service.Maps(r.Context(), params.filter(), params.Limit)
	h.respond(w, r, start, maps, err)
}

// ListServers returns servers matching the query filters
func (h *Handler) ListServers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := h.serverParams(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	servers, err := h.service.Servers(r.Context(), params.filter(), params.Limit)
	h.respond(w, r, start, servers, err)
}

// GetServer returns a server
func (h *Handler) GetServer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	server, err := h.service.Server(r.Context(), chi.URLParam(r, "identifier"))
	h.respond(w, r, start, server, err)
}

// ListModes returns every mode
func (h *Handler) ListModes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	modes, err := h.service.Modes(r.Context())
	h.respond(w, r, start, modes, err)
}

// GetMode returns a mode by id or name
func (h *Handler) GetMode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	mode, err := h.service.Mode(r.Context(), chi.URLParam(r, "identifier"))
	h.respond(w, r, start, mode, err)
}

// ListRecords returns the newest records matching the query filters
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := h.recordParams(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	records, err := h.service.Records(r.Context(), params.spec(), params.Limit)
	h.respond(w, r, start, records, err)
}

// GetRecord returns a single record
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := recordID(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	record, err := h.service.Record(r.Context(), id)
	h.respond(w, r, start, record, err)
}

// GetMapTop returns the personal-best leaderboard of a map
func (h *Handler) GetMapTop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := h.recordParams(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	spec := params.spec()
	spec.Server = ""
	entries, err := h.service.MapTop(r.Context(), chi.URLParam(r, "identifier"), spec, params.Limit)
	h.respond(w, r, start, entries, err)
}

// GetPlayerTop returns a player's personal bests
func (h *Handler) GetPlayerTop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := h.recordParams(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	spec := query.Spec{
		Map:          params.Map,
		Mode:         params.Mode,
		Stage:        params.Stage,
		HasTeleports: params.HasTeleports,
	}
	records, err := h.service.PlayerTop(r.Context(), chi.URLParam(r, "identifier"), spec, params.Limit)
	h.respond(w, r, start, records, err)
}

// GetPlace returns the rank of a record on its leaderboard
func (h *Handler) GetPlace(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := recordID(r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	place, err := h.service.Place(r.Context(), id)
	h.respond(w, r, start, place, err)
}

func recordID(r *http.Request) (uint32, error) {
	raw := chi.URLParam(r, "record_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, invalidParam("record_id", raw)
	}
	return uint32(id), nil
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, start time.Time, payload any, err error) {
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeSuccess(w, start, payload)
}

// writeFailure maps domain errors to status codes. Store failures are
// logged here and never shown to the client.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.logger.Debug("no entries", "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusNoContent)
	case domain.IsClientError(err):
		h.writeJSON(w, http.StatusBadRequest, APIResponse{Result: err.Error()})
	default:
		h.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.writeJSON(w, http.StatusInternalServerError, APIResponse{Result: "Database error."})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, start time.Time, payload any) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Result: payload,
		Took:   max(time.Since(start).Nanoseconds(), 1),
	})
}
