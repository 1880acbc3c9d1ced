package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/azure"
)

// handleAzureStatus reports Azure CLI auth state.
func (s *Server) handleAzureStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Azure.CheckAuth(r.Context()).ToAPIResponse())
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.Azure.Subscriptions(r.Context())
	if err != nil {
		writeAzureError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "subscriptions": subs})
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.Azure.ConnectedClusters(r.Context(), r.URL.Query().Get("subscription"))
	if err != nil {
		writeAzureError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"clusters": clusters,
		"count":    len(clusters),
	})
}

// handleClusterValidate runs the cluster validation tool. Cluster details
// from Azure are attached when a resource group is given.
func (s *Server) handleClusterValidate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	q := r.URL.Query()

	args := map[string]any{}
	if kubeconfig := q.Get("kubeconfig"); kubeconfig != "" {
		args["kubeconfig"] = kubeconfig
	}
	if q.Get("dryRun") == "true" {
		args["dryRun"] = true
	}

	start := time.Now()
	result, err := s.Registry.Execute(r.Context(), "aks.arc.validate", args)
	s.metrics.observeTool("aks.arc.validate", start)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result["cluster"] = name
	if rg := q.Get("resourceGroup"); rg != "" {
		if details, err := s.Azure.ClusterShow(r.Context(), name, rg); err == nil {
			result["clusterDetails"] = details
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// writeAzureError maps azure errors to a response, preserving hints.
func writeAzureError(w http.ResponseWriter, err error) {
	var hintErr *azure.HintError
	if errors.As(err, &hintErr) {
		writeHintError(w, http.StatusServiceUnavailable, hintErr.Msg, hintErr.Hint)
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
