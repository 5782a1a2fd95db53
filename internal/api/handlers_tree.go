package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/atlasgen/internal/pipeline"
	"github.com/dgallion1/atlasgen/internal/render"
)

// current returns the latest output or writes 503 when nothing is built yet.
func (s *Server) current(w http.ResponseWriter) *pipeline.Output {
	out := s.builds.Current()
	if out == nil {
		jsonError(w, "no build available yet", http.StatusServiceUnavailable)
	}
	return out
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	out := s.current(w)
	if out == nil {
		return
	}
	w.Header().Set("X-Build-ID", out.BuildID)
	writeJSON(w, http.StatusOK, out.Roots)
}

// handleNode serves one node of the flat map. The slug key's "|" may be
// percent-encoded. Encoded nodes are cached per build.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	out := s.current(w)
	if out == nil {
		return
	}
	key, err := url.PathUnescape(chi.URLParam(r, "slugKey"))
	if err != nil {
		jsonError(w, "invalid slug key", http.StatusBadRequest)
		return
	}

	cacheKey := out.BuildID + "/" + key
	body, ok := s.nodes.Get(cacheKey)
	if !ok {
		n := out.Node(key)
		if n == nil {
			jsonError(w, "node not found", http.StatusNotFound)
			return
		}
		body, err = json.Marshal(pipeline.MapEntry{Node: n, MarkdownContent: render.Markdown(n.Content)})
		if err != nil {
			jsonError(w, "encode node: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.nodes.Add(cacheKey, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Build-ID", out.BuildID)
	_, _ = w.Write(body)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	out := s.current(w)
	if out == nil {
		return
	}
	id := chi.URLParam(r, "id")
	key := out.Lookup.Key(id)
	n := out.Node(key)
	if n == nil {
		jsonError(w, "record not in tree", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       id,
		"slug_key": key,
		"url":      n.URL(),
	})
}

func (s *Server) handleSimplified(w http.ResponseWriter, r *http.Request) {
	out := s.current(w)
	if out == nil {
		return
	}
	writeText(w, strings.Join(out.Simplified, "\n"))
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	out := s.current(w)
	if out == nil {
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, out.Counts)
		return
	}
	writeText(w, out.Counts.Text())
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
