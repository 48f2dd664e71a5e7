package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReady reports whether templates are loaded and every backend
// check passes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	if len(s.pages) != len(pageNames) {
		resp.Checks["templates"] = "not loaded"
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["templates"] = "ok"
	}

	if s.ready != nil {
		for name, err := range s.ready(r.Context()) {
			if err != nil {
				resp.Checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	if status != http.StatusOK {
		resp.Status = "unavailable"
	}
	writeJSON(w, status, resp)
}

// handleMetrics writes the middleware counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.Metrics()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, v)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", m.Requests.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", m.Requests.ServerErrors)
	metric("rate_limit_hits_total", "counter", "Login attempts rejected by the rate limiter", m.RateLimit.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", m.RateLimit.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests matching a probe pattern", m.Security.SuspiciousRequests)
	metric("inflight_views", "gauge", "Page builds currently in progress", m.InflightViews)
	metric("uptime_seconds", "gauge", "Process uptime in seconds", int64(time.Since(s.started).Seconds()))
}
