// Package chat runs the conversational diagnostic loop: it sends user
// messages to the LLM with the tool catalog, executes requested tools, and
// streams progress events suitable for SSE delivery.
package chat

import (
	"github.com/smitzlroy/arcops-mcp/internal/tools"
)

// Event types streamed while processing a chat request, in the order a
// client sees them: phase(analyzing) -> scanning -> phase(thinking) ->
// selected -> executing -> tool_complete -> complete or error.
const (
	EventPhase        = "phase"
	EventScanning     = "scanning"
	EventSelected     = "selected"
	EventExecuting    = "executing"
	EventToolComplete = "tool_complete"
	EventComplete     = "complete"
	EventError        = "error"
)

// Event is one progress update streamed to the client.
type Event struct {
	Type      string         `json:"type"`
	Phase     string         `json:"phase,omitempty"`
	Message   string         `json:"message,omitempty"`
	Tool      *tools.Meta    `json:"tool,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Success   *bool          `json:"success,omitempty"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []ToolResult   `json:"tool_calls,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ToolResult pairs an executed tool with its raw result.
type ToolResult struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"arguments,omitempty"`
	Result map[string]any `json:"result"`
}

// Emitter receives progress events. Implementations must be safe to call
// from the chat goroutine.
type Emitter func(Event)

func boolPtr(b bool) *bool { return &b }

// toolMeta finds the chat catalog entry for a tool id, falling back to a
// bare entry for tools without UI metadata.
func toolMeta(id string) *tools.Meta {
	for i := range tools.ChatCatalog {
		if tools.ChatCatalog[i].ID == id {
			return &tools.ChatCatalog[i]
		}
	}
	return &tools.Meta{ID: id, Name: id}
}
