package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lazypower/sable/internal/engine"
	"github.com/lazypower/sable/internal/store"
)

// Server is the sable HTTP API server.
type Server struct {
	db      *store.DB
	mgr     *engine.Manager
	metrics *Metrics
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server over mgr. A nil metrics gets a fresh registry; pass the
// same Metrics given to engine.WithObserver to expose engine counters.
func New(db *store.DB, mgr *engine.Manager, version string, metrics *Metrics) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{
		db:      db,
		mgr:     mgr,
		metrics: metrics,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.instrument)

	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Post("/emotions", s.handleAddEmotion)
		r.Post("/body", s.handleBody)
		r.Post("/events", s.handleAddEvent)

		r.Get("/memories", s.handleQueryMemories)
		r.Get("/memories/context", s.handleContextualMemories)
		r.Get("/memories/{id}", s.handleRecallMemory)
		r.Put("/memories/{id}/logbook", s.handleAttachLogbook)
		r.Post("/decay", s.handleDecay)

		r.Get("/markers", s.handleListMarkers)
		r.Post("/markers/scan", s.handleScanMarkers)
		r.Get("/markers/lookup", s.handleLookupMarker)
		r.Post("/markers/reinforce", s.handleReinforceMarker)

		r.Get("/traits", s.handleTraits)
		r.Put("/traits/{name}", s.handleSetTrait)

		r.Post("/analyze", s.handleAnalyze)
		r.Get("/context", s.handleGetContext)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine errors onto HTTP status codes. Anything
// unrecognized is logged and returned as 500.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrNoLogbook):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
