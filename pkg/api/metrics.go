package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jingkaihe/skillet/pkg/metrics"
)

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var filter *metrics.Filter
	status := r.URL.Query().Get("status")
	agent := r.URL.Query().Get("agent")
	if status != "" || agent != "" {
		filter = &metrics.Filter{
			Status:    metrics.ValidationStatus(status),
			AgentName: agent,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"metrics": s.collector.Metrics(limit, filter),
	})
}

func (s *Server) handleMetricsStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.AggregatedStats())
}

func (s *Server) handleAgentStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.AgentStats(mux.Vars(r)["name"]))
}

func (s *Server) handleClearMetrics(w http.ResponseWriter, _ *http.Request) {
	s.collector.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
