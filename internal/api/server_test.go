package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/atlasgen/internal/config"
	"github.com/dgallion1/atlasgen/internal/pipeline"
	"github.com/dgallion1/atlasgen/internal/source"
)

const records = `[
  {"id":"R1","type":"scope","docNo":"A.1","name":"Alpha","children":["S1"]},
  {"id":"S1","type":"section","docNo":"A.1.1 - Intro","children":[],
   "content":[{"heading":"Notes","text":"plain"}]}
]`

type fakeBuilds struct {
	out       *pipeline.Output
	runs      map[string]*pipeline.Run
	submitErr error
	reasons   []string
}

func (f *fakeBuilds) Current() *pipeline.Output { return f.out }

func (f *fakeBuilds) Submit(reason string) (*pipeline.Run, error) {
	f.reasons = append(f.reasons, reason)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	run := pipeline.NewRun(reason)
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeBuilds) GetRun(id string) *pipeline.Run { return f.runs[id] }

func (f *fakeBuilds) Stats() pipeline.StatsSnapshot { return pipeline.StatsSnapshot{Count: 2} }

func (f *fakeBuilds) QueueDepth() int { return 0 }

func builtOutput(t *testing.T) *pipeline.Output {
	t.Helper()
	recs, err := source.Decode([]byte(records))
	require.NoError(t, err)
	out, err := pipeline.Build(&source.Snapshot{Records: recs, Files: []string{"a.json"}}, "B1")
	require.NoError(t, err)
	return out
}

func newTestServer(t *testing.T, fb *fakeBuilds, gatherer prometheus.Gatherer) *Server {
	t.Helper()
	if fb.runs == nil {
		fb.runs = map[string]*pipeline.Run{}
	}
	cfg := config.Default()
	cfg.AtlasAPIKey = "secret"
	s, err := NewServer(fb, gatherer, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeBuilds{out: builtOutput(t)}, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "B1", body["build_id"])
	assert.Equal(t, 2.0, body["nodes"])
}

func TestNoBuildYet(t *testing.T) {
	s := newTestServer(t, &fakeBuilds{}, nil)
	for _, path := range []string{"/api/tree", "/api/nodes/R1", "/api/lookup/R1", "/api/report/simplified", "/api/report/counts"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)
}

func TestTree(t *testing.T) {
	s := newTestServer(t, &fakeBuilds{out: builtOutput(t)}, nil)
	rec := do(t, s, http.MethodGet, "/api/tree", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B1", rec.Header().Get("X-Build-ID"))

	var roots []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roots))
	require.Len(t, roots, 1)
	assert.Equal(t, "R1", roots[0]["id"])
}

func TestNode(t *testing.T) {
	s := newTestServer(t, &fakeBuilds{out: builtOutput(t)}, nil)

	for _, path := range []string{"/api/nodes/S1%7CR1", "/api/nodes/S1|R1"} {
		rec := do(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		var node map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
		assert.Equal(t, "S1", node["id"])
		assert.Equal(t, "### Notes\n\nplain", node["markdownContent"])
	}
	assert.Equal(t, 1, s.nodes.Len(), "both spellings share one cache entry")

	rec := do(t, s, http.MethodGet, "/api/nodes/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookup(t *testing.T) {
	s := newTestServer(t, &fakeBuilds{out: builtOutput(t)}, nil)

	rec := do(t, s, http.MethodGet, "/api/lookup/S1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "S1|R1", body["slug_key"])
	assert.Equal(t, "/A_0_1_Intro/S1|R1", body["url"])

	rec = do(t, s, http.MethodGet, "/api/lookup/R1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/lookup/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReports(t *testing.T) {
	out := builtOutput(t)
	s := newTestServer(t, &fakeBuilds{out: out}, nil)

	rec := do(t, s, http.MethodGet, "/api/report/simplified", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id: R1\n"))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = do(t, s, http.MethodGet, "/api/report/counts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sections")

	rec = do(t, s, http.MethodGet, "/api/report/counts?format=json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var counts map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 2.0, counts["total"])
}

func TestRebuild_Auth(t *testing.T) {
	fb := &fakeBuilds{}
	s := newTestServer(t, fb, nil)

	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodPost, "/api/rebuild", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodPost, "/api/rebuild", "wrong").Code)
	assert.Empty(t, fb.reasons)

	rec := do(t, s, http.MethodPost, "/api/rebuild?reason=manual", "secret")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"manual"}, fb.reasons)

	var snap pipeline.RunSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, pipeline.StatusQueued, snap.Status)

	rec = do(t, s, http.MethodGet, "/api/rebuild/"+snap.ID, "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/rebuild/unknown", "secret").Code)
}

func TestRebuild_QueueFull(t *testing.T) {
	s := newTestServer(t, &fakeBuilds{submitErr: errors.New("build queue is full (4)")}, nil)
	rec := do(t, s, http.MethodPost, "/api/rebuild", "secret")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "queue is full")
}

func TestAuthMiddleware_NoKeyConfigured(t *testing.T) {
	h := AuthMiddleware("", slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler must not run")
	}))
	rec := do(t, h, http.MethodPost, "/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = do(t, h, http.MethodPost, "/", " ")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildStats(t *testing.T) {
	s := newTestServer(t, &fakeBuilds{out: builtOutput(t)}, nil)
	rec := do(t, s, http.MethodGet, "/api/stats/builds", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stats   pipeline.StatsSnapshot `json:"stats"`
		Current map[string]any         `json:"current"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Stats.Count)
	assert.Equal(t, "B1", body.Current["build_id"])
	assert.Equal(t, 2.0, body.Current["records"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	pipeline.NewMetrics(reg)
	s := newTestServer(t, &fakeBuilds{}, reg)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "atlasgen_build_duration_seconds")

	noMetrics := newTestServer(t, &fakeBuilds{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, noMetrics, http.MethodGet, "/metrics", "").Code)
}
