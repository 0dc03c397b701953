package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/strata-agent/strata/internal/config"
	"github.com/strata-agent/strata/internal/engine"
	"github.com/strata-agent/strata/internal/store"
)

// Server is the strata HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	cfg     config.Config
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given database, engine, and version
// string. cfg is a snapshot: handlers read thresholds from it for the
// lifetime of the server.
func New(db *store.DB, eng *engine.Engine, cfg config.Config, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		cfg:     cfg,
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
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/turns", s.handleAddTurn)
		r.Get("/context", s.handleGetContext)
		r.Post("/gc", s.handleRunGC)

		r.Get("/memories", s.handleListMemories)
		r.Post("/memories", s.handleRemember)
		r.Patch("/memories/{memoryID}", s.handleUpdateMemory)
		r.Get("/memories/{memoryID}/why", s.handleExplain)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"version":          s.version,
		"uptime":           time.Since(s.started).Seconds(),
		"db":               dbOK,
		"db_path":          s.db.Path,
		"fts":              s.db.FTSEnabled(),
		"augment_failures": s.engine.AugmentFailures(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
