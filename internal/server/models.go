package server

import "net/http"

func (s *Server) handleModelsList(w http.ResponseWriter, r *http.Request) {
	if s.Models == nil {
		writeError(w, http.StatusServiceUnavailable, "model management disabled")
		return
	}
	list := s.Models.List(r.Context())
	out := make([]map[string]any, 0, len(list))
	for _, m := range list {
		out = append(out, m.ToAPI())
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out})
}

type modelRequest struct {
	Model string `json:"model"`
}

func (s *Server) handleModelStart(w http.ResponseWriter, r *http.Request) {
	if s.Models == nil {
		writeError(w, http.StatusServiceUnavailable, "model management disabled")
		return
	}
	var req modelRequest
	if err := decodeBody(r, &req); err != nil || req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}
	result, err := s.Models.Start(r.Context(), req.Model)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleModelStop(w http.ResponseWriter, r *http.Request) {
	if s.Models == nil {
		writeError(w, http.StatusServiceUnavailable, "model management disabled")
		return
	}
	result, err := s.Models.Stop(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleModelSwitch stops the running model and starts the requested one.
func (s *Server) handleModelSwitch(w http.ResponseWriter, r *http.Request) {
	if s.Models == nil {
		writeError(w, http.StatusServiceUnavailable, "model management disabled")
		return
	}
	var req modelRequest
	if err := decodeBody(r, &req); err != nil || req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	if _, err := s.Models.Stop(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result, err := s.Models.Start(r.Context(), req.Model)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
