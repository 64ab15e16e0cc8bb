package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/nerrad567/lampdirector/internal/audit"
	"github.com/nerrad567/lampdirector/internal/director"
)

// healthCheckTimeout bounds each component health check.
const healthCheckTimeout = 2 * time.Second

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	director.Snapshot
}

// CommandsResponse is returned by GET /api/v1/commands.
type CommandsResponse struct {
	Commands []audit.Entry `json:"commands"`
	Limit    int           `json:"limit"`
}

// handleHealth runs every registered check. Any failure turns the response
// into a 503 so load balancers and supervisors notice.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: s.version}

	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))

		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := s.checks[name].HealthCheck(ctx)
			cancel()

			if err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Snapshot:      s.controller.Snapshot(),
	})
}

// handleCommands lists the most recent published commands. With the
// actuation log disabled the list is always empty.
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	limit := audit.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, audit.MaxLimit)
	}

	resp := CommandsResponse{Commands: []audit.Entry{}, Limit: limit}
	if s.commands != nil {
		entries, err := s.commands.List(r.Context(), audit.Filter{Limit: limit})
		if err != nil {
			s.logger.Error("listing commands", "error", err)
			writeInternalError(w, "failed to list commands")
			return
		}
		resp.Commands = entries
	}

	writeJSON(w, http.StatusOK, resp)
}
