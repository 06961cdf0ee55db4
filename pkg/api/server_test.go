package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillet/pkg/memory"
	"github.com/jingkaihe/skillet/pkg/metrics"
	"github.com/jingkaihe/skillet/pkg/orchestrator"
	"github.com/jingkaihe/skillet/pkg/skills"
)

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	root := t.TempDir()
	writeTestSkill(t, root, "finance_research", `
id: finance_research
name: Finance Research
description: Deep research on stocks and earnings
tags: [finance]
match_terms: [stock, nvda, earnings]
`)
	writeTestSkill(t, root, "travel_planner", `
id: travel_planner
description: Plan trips
tags: [travel]
match_terms: [flight, hotel]
`)

	orch, err := orchestrator.New(root)
	require.NoError(t, err)

	server, err := NewServer(orch, &Config{Host: "127.0.0.1", Port: 8686}, opts...)
	require.NoError(t, err)
	return server
}

func writeTestSkill(t *testing.T, root, id, manifest string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, skills.ManifestFileName), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, skills.DefaultInstructionsFile), []byte("instructions\n"), 0o644))
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, (&Config{Port: 0}).Validate())
	assert.Error(t, (&Config{Port: 70000}).Validate())
	assert.NoError(t, (&Config{Port: 8686}).Validate())
	assert.Equal(t, "0.0.0.0:9000", (&Config{Host: "0.0.0.0", Port: 9000}).Addr())
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestListSkills(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), "GET", "/api/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	listed := body["skills"].([]any)
	require.Len(t, listed, 2)
	first := listed[0].(map[string]any)
	assert.Equal(t, "finance_research", first["id"])
	assert.Equal(t, "Finance Research", first["name"])
}

func TestGetSkill(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server.Handler(), "GET", "/api/skills/travel_planner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "travel_planner", decodeBody(t, rec)["id"])

	rec = doJSON(t, server.Handler(), "GET", "/api/skills/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouteSkillsEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server.Handler(), "POST", "/api/skills/route", map[string]any{
		"message": "NVDA stock earnings outlook",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	routed := decodeBody(t, rec)["skills"].([]any)
	require.NotEmpty(t, routed)
	assert.Equal(t, "finance_research", routed[0].(map[string]any)["id"])

	rec = doJSON(t, server.Handler(), "POST", "/api/skills/route", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndReloadSkills(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server.Handler(), "POST", "/api/skills", map[string]any{
		"id":          "market_watch",
		"description": "Track markets",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "market_watch", decodeBody(t, rec)["id"])

	rec = doJSON(t, server.Handler(), "GET", "/api/skills/market_watch", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Duplicate scaffold without force is rejected.
	rec = doJSON(t, server.Handler(), "POST", "/api/skills", map[string]any{"id": "market_watch"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server.Handler(), "POST", "/api/skills/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reloaded", decodeBody(t, rec)["status"])
}

func TestMetricsEndpointsDisabledWithoutCollector(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), "GET", "/api/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoints(t *testing.T) {
	collector := metrics.NewCollector()
	server := newTestServer(t, WithCollector(collector))

	execution := collector.CreateExecution("run-1", nil)
	execution.Validation.Status = metrics.StatusValid
	execution.Performance.AgentName = "researcher"
	execution.Performance.End()

	rec := doJSON(t, server.Handler(), "GET", "/api/metrics?status=valid&agent=researcher", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)["metrics"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, "run-1", listed[0].(map[string]any)["executionId"])

	rec = doJSON(t, server.Handler(), "GET", "/api/metrics?status=invalid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["metrics"])

	rec = doJSON(t, server.Handler(), "GET", "/api/metrics/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["totalExecutions"])

	rec = doJSON(t, server.Handler(), "GET", "/api/metrics/agents/researcher", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["totalExecutions"])

	rec = doJSON(t, server.Handler(), "DELETE", "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, collector.TotalExecutions())
}

func TestMemoryEndpoints(t *testing.T) {
	store, err := memory.NewStore(context.TODO(), filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	server := newTestServer(t, WithMemoryStore(store))

	rec := doJSON(t, server.Handler(), "POST", "/api/memory/s1/messages", map[string]any{
		"role":    "user",
		"content": "hello",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["id"])

	rec = doJSON(t, server.Handler(), "POST", "/api/memory/s1/messages", map[string]any{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server.Handler(), "GET", "/api/memory/s1/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeBody(t, rec)["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].(map[string]any)["content"])

	rec = doJSON(t, server.Handler(), "PUT", "/api/memory/s1/facts", map[string]any{"facts": "likes brevity"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server.Handler(), "GET", "/api/memory/s1/facts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "likes brevity", decodeBody(t, rec)["facts"])

	rec = doJSON(t, server.Handler(), "DELETE", "/api/memory/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server.Handler(), "GET", "/api/memory/s1/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["messages"])
}

func TestMemoryEndpointsDisabledWithoutStore(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), "GET", "/api/memory/s1/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
