package server

import (
	"net/http"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// handleToolsList returns name, description and input schema for every tool.
func (s *Server) handleToolsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.Registry.Describe()})
}

// handleToolExecute invokes one tool with JSON args from the request body.
func (s *Server) handleToolExecute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.Registry.Get(name); !ok {
		writeError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}

	args := map[string]any{}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &args); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON arguments")
			return
		}
	}

	start := time.Now()
	result, err := s.Registry.Execute(r.Context(), name, args)
	s.metrics.observeTool(name, start)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// wrapped PowerShell modules probed by the readiness endpoint
var probedModules = []string{
	"AzStackHci.EnvironmentChecker",
	"Support.AksArc",
	"AzLocalTSGTool",
}

// handleToolsStatus reports readiness of every external dependency the
// tools shell out to.
func (s *Server) handleToolsStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	azPath := s.Azure.FindCLI()
	psPath := runner.PowerShellBinary()
	_, foundry := runner.Lookup("foundry")
	_, kubectl := runner.Lookup("kubectl")

	modules := map[string]any{}
	if psPath != "" {
		for _, name := range probedModules {
			installed, version := s.Run.ModuleInstalled(ctx, name)
			modules[name] = map[string]any{"installed": installed, "version": version}
		}
	} else {
		for _, name := range probedModules {
			modules[name] = map[string]any{"installed": false, "version": ""}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"azureCli":        azPath != "",
		"aksarcExtension": azPath != "" && s.Azure.CLIExtensionInstalled(ctx, "aksarc"),
		"powershell":      psPath != "",
		"kubectl":         kubectl,
		"foundry":         foundry,
		"modules":         modules,
	})
}
