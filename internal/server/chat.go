package server

import (
	"net/http"

	"github.com/smitzlroy/arcops-mcp/internal/chat"
	"github.com/smitzlroy/arcops-mcp/internal/provider"
)

type chatRequest struct {
	Message  string             `json:"message"`
	Messages []provider.Message `json:"messages"`
	DryRun   bool               `json:"dryRun"`
	Reset    bool               `json:"reset"`
}

// handleChat processes one chat turn synchronously.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reset {
		s.Session.Reset()
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	res := s.Session.Chat(r.Context(), req.Message, req.DryRun)
	s.metrics.chatTurns.Inc()

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

// handleChatStream relays chat progress events over SSE.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	messages := req.Messages
	if len(messages) == 0 && req.Message != "" {
		messages = []provider.Message{{Role: "user", Content: req.Message}}
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.Chat.Stream(r.Context(), messages, func(e chat.Event) {
		sse.send(e)
	})
	s.metrics.chatTurns.Inc()
}

// handleChatStatus reports whether the AI backend is reachable.
func (s *Server) handleChatStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"available": false,
		"model":     "",
		"hint":      provider.UnavailableHint,
	}
	if s.Models != nil {
		status := s.Models.Status(r.Context())
		if running, _ := status["model_running"].(bool); running {
			resp["available"] = true
			resp["model"] = status["current_model"]
			resp["endpoint"] = status["endpoint"]
			delete(resp, "hint")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
