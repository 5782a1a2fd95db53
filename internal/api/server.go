package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/atlasgen/internal/config"
	"github.com/dgallion1/atlasgen/internal/pipeline"
)

// Builds is the part of the build pipeline the API reads from and triggers.
type Builds interface {
	Current() *pipeline.Output
	Submit(reason string) (*pipeline.Run, error)
	GetRun(id string) *pipeline.Run
	Stats() pipeline.StatsSnapshot
	QueueDepth() int
}

// Server is the HTTP API serving the latest built tree.
type Server struct {
	router   chi.Router
	builds   Builds
	gatherer prometheus.Gatherer
	nodes    *lru.Cache[string, []byte]
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. gatherer may be nil, in
// which case /metrics is not mounted.
func NewServer(builds Builds, gatherer prometheus.Gatherer, log *slog.Logger, cfg config.Config) (*Server, error) {
	cache, err := lru.New[string, []byte](cfg.NodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("node cache: %w", err)
	}
	s := &Server{
		builds:   builds,
		gatherer: gatherer,
		nodes:    cache,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/nodes/{slugKey}", s.handleNode)
		r.Get("/lookup/{id}", s.handleLookup)
		r.Get("/report/simplified", s.handleSimplified)
		r.Get("/report/counts", s.handleCounts)
		r.Get("/stats/builds", s.handleBuildStats)

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.cfg.AtlasAPIKey, s.log))

			r.Post("/rebuild", s.handleRebuild)
			r.Get("/rebuild/{runID}", s.handleRebuildStatus)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "build_id": ""}
	if out := s.builds.Current(); out != nil {
		resp["build_id"] = out.BuildID
		resp["nodes"] = out.Counts.Total
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
