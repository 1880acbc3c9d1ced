// Package server exposes the diagnostic tools, chat loop, Azure helpers and
// model management over REST with SSE streaming and Prometheus metrics.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/smitzlroy/arcops-mcp/internal/azure"
	"github.com/smitzlroy/arcops-mcp/internal/chat"
	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/models"
	"github.com/smitzlroy/arcops-mcp/internal/runner"
	"github.com/smitzlroy/arcops-mcp/internal/tools"
)

// Server wires the HTTP surface over the shared components.
type Server struct {
	Cfg      config.Config
	Registry *tools.Registry
	Chat     *chat.Service
	Session  *chat.Session
	Azure    *azure.Context
	Models   *models.Manager
	Run      *runner.Runner

	metrics *metrics
}

// New assembles a server. All collaborators are required except Models,
// which may be nil when Foundry Local management is disabled.
func New(cfg config.Config, reg *tools.Registry, chatSvc *chat.Service, az *azure.Context, mgr *models.Manager, run *runner.Runner) *Server {
	return &Server{
		Cfg:      cfg,
		Registry: reg,
		Chat:     chatSvc,
		Session:  chat.NewSession(chatSvc),
		Azure:    az,
		Models:   mgr,
		Run:      run,
		metrics:  newMetrics(),
	}
}

// Routes builds the HTTP handler with all API routes registered.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /api/chat/status", s.handleChatStatus)

	mux.HandleFunc("GET /api/tools", s.handleToolsList)
	mux.HandleFunc("GET /api/tools/status", s.handleToolsStatus)
	mux.HandleFunc("POST /api/tools/{name}", s.handleToolExecute)

	mux.HandleFunc("GET /api/status", s.handleAzureStatus)
	mux.HandleFunc("GET /api/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("GET /api/clusters", s.handleClusters)
	mux.HandleFunc("GET /api/cluster/{name}/validate", s.handleClusterValidate)

	mux.HandleFunc("GET /api/models", s.handleModelsList)
	mux.HandleFunc("POST /api/models/start", s.handleModelStart)
	mux.HandleFunc("POST /api/models/stop", s.handleModelStop)
	mux.HandleFunc("POST /api/models/switch", s.handleModelSwitch)

	mux.HandleFunc("GET /api/connectivity/endpoints", s.handleEndpoints)
	mux.HandleFunc("GET /api/connectivity/check", s.handleConnectivityCheck)
	mux.HandleFunc("GET /api/connectivity/check/stream", s.handleConnectivityStream)

	mux.HandleFunc("POST /api/diagnose", s.handleDiagnose)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	return s.metrics.instrument(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": "arcops"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeHintError(w http.ResponseWriter, status int, msg, hint string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg, "hint": hint})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
