package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "api"
	}
	run, err := s.builds.Submit(reason)
	if err != nil {
		s.log.Warn("rebuild rejected", "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, run.Snapshot())
}

func (s *Server) handleRebuildStatus(w http.ResponseWriter, r *http.Request) {
	run := s.builds.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

func (s *Server) handleBuildStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"stats":       s.builds.Stats(),
		"queue_depth": s.builds.QueueDepth(),
	}
	if out := s.builds.Current(); out != nil {
		resp["current"] = map[string]any{
			"build_id":    out.BuildID,
			"started_at":  out.StartedAt,
			"duration_ms": out.Duration.Milliseconds(),
			"records":     out.Records,
			"nodes":       out.Counts.Total,
			"input_files": len(out.InputFiles),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
