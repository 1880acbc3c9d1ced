package server

import (
	"net/http"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/config"
)

// handleEndpoints lists the egress endpoint catalog, optionally filtered by
// category and required flag.
func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	cat, err := config.LoadEndpoints(s.Cfg.EndpointsPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	q := r.URL.Query()
	var categories []string
	if c := q.Get("category"); c != "" {
		categories = []string{c}
	}
	eps := cat.Filter(categories, q.Get("required") == "true")

	writeJSON(w, http.StatusOK, map[string]any{
		"endpoints": eps,
		"count":     len(eps),
	})
}

func connectivityArgs(r *http.Request) map[string]any {
	q := r.URL.Query()
	args := map[string]any{}
	if mode := q.Get("mode"); mode != "" {
		args["mode"] = mode
	}
	if q.Get("dryRun") == "true" {
		args["dryRun"] = true
	}
	return args
}

// handleConnectivityCheck runs the connectivity tool synchronously.
func (s *Server) handleConnectivityCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, err := s.Registry.Execute(r.Context(), "arc.connectivity.check", connectivityArgs(r))
	s.metrics.observeTool("arc.connectivity.check", start)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleConnectivityStream runs the connectivity tool and streams each check
// as its own SSE event, then the summary.
func (s *Server) handleConnectivityStream(w http.ResponseWriter, r *http.Request) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sse.send(map[string]any{"type": "started", "message": "Running connectivity checks..."})

	start := time.Now()
	result, execErr := s.Registry.Execute(r.Context(), "arc.connectivity.check", connectivityArgs(r))
	s.metrics.observeTool("arc.connectivity.check", start)
	if execErr != nil {
		sse.send(map[string]any{"type": "error", "error": execErr.Error()})
		return
	}

	if checks, ok := result["checks"].([]any); ok {
		for _, c := range checks {
			sse.send(map[string]any{"type": "check", "check": c})
		}
	}
	sse.send(map[string]any{
		"type":    "complete",
		"summary": result["summary"],
		"runId":   result["runId"],
	})
}
