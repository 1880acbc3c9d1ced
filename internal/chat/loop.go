package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/smitzlroy/arcops-mcp/internal/provider"
	"github.com/smitzlroy/arcops-mcp/internal/tools"
)

// Keyword hints for models too small to pick tools reliably on their own.
// Larger models (1.5B and up) get tool_choice=auto with no assistance.
var (
	errorKeywords        = []string{"error", "0x", "failed", "fail", "issue", "problem", "not working", "fix", "help"}
	connectivityKeywords = []string{"connectivity", "reach azure", "firewall", "dns", "endpoint", "egress"}
	clusterKeywords      = []string{"validate cluster", "cluster health", "aks health", "kubernetes", "node status"}
)

// Service drives the chat loop: it forwards messages to the LLM, executes
// requested tools through the registry, and summarizes results.
type Service struct {
	Provider provider.Provider
	Registry *tools.Registry

	// ModelID returns the alias of the active model so the loop can decide
	// whether keyword assistance is needed. Optional.
	ModelID func() string

	// DryRun forces every tool execution to return fixture data.
	DryRun bool
}

// NewService wires a chat service over the given provider and tool registry.
func NewService(p provider.Provider, reg *tools.Registry) *Service {
	return &Service{Provider: p, Registry: reg}
}

func (s *Service) modelID() string {
	if s.ModelID == nil {
		return ""
	}
	return s.ModelID()
}

// isSmallModel reports whether the active model needs keyword assistance.
func (s *Service) isSmallModel() bool {
	id := strings.ToLower(s.modelID())
	return strings.Contains(id, "0.5b") || strings.Contains(id, "0.5-b")
}

// forcedToolFor maps an obvious user intent to a tool, bypassing the LLM.
// Only used for small models. Returns an empty name when nothing matches.
func forcedToolFor(lastUserMsg, fullUserMsg string) (string, map[string]any) {
	lower := strings.ToLower(lastUserMsg)
	containsAny := func(keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}
	switch {
	case containsAny(errorKeywords):
		return "azlocal.tsg.search", map[string]any{"query": fullUserMsg}
	case containsAny(connectivityKeywords):
		return "arc.connectivity.check", map[string]any{"mode": "quick"}
	case containsAny(clusterKeywords):
		return "aks.arc.validate", map[string]any{}
	}
	return "", nil
}

const noToolFallback = "I can help diagnose Azure Local and AKS Arc issues. " +
	"Try asking about connectivity, cluster health, or describe an error."

const supportContact = "\n\n---\n**Need more help?** Contact Microsoft Support: https://support.microsoft.com/azure"

// Stream processes a chat request and emits progress events in order:
// phase(analyzing), scanning per tool, phase(thinking), then selected /
// executing / tool_complete per executed tool, ending with complete or error.
func (s *Service) Stream(ctx context.Context, messages []provider.Message, emit Emitter) {
	if len(messages) == 0 {
		emit(Event{Type: EventError, Error: "No messages provided"})
		return
	}

	lastUserMsg := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			lastUserMsg = messages[i].Content
			break
		}
	}

	emit(Event{Type: EventPhase, Phase: "analyzing", Message: "Analyzing your request..."})
	for i := range tools.ChatCatalog {
		emit(Event{Type: EventScanning, Tool: &tools.ChatCatalog[i]})
	}
	emit(Event{Type: EventPhase, Phase: "thinking", Message: "AI selecting best diagnostic..."})

	if s.isSmallModel() {
		if name, args := forcedToolFor(lastUserMsg, lastUserMsg); name != "" {
			slog.Info("keyword match, bypassing model for tool selection",
				slog.String("tool", name), slog.String("model", s.modelID()))
			results := s.executeCalls(ctx, []toolInvocation{{name: name, args: args}}, emit)
			s.emitSummary(results, emit)
			return
		}
	}

	chatMessages := withSystemPrompt(messages)
	resp, err := s.Provider.Chat(chatMessages, s.Registry.ToLLMTools())
	if err != nil {
		msg := err.Error()
		if provider.IsUnavailable(err) {
			msg = provider.UnavailableHint
		}
		emit(Event{Type: EventError, Error: msg})
		return
	}

	invocations := collectInvocations(resp)
	if len(invocations) == 0 {
		content := cleanToolCallContent(resp.Content)
		if content == "" {
			content = noToolFallback
		}
		emit(Event{Type: EventComplete, Success: boolPtr(true), Content: content})
		return
	}

	results := s.executeCalls(ctx, invocations, emit)
	s.emitSummary(results, emit)
}

// toolInvocation is one tool the model asked for, args already decoded.
type toolInvocation struct {
	name string
	args map[string]any
}

// collectInvocations extracts tool requests from a model response, falling
// back to <tool_call> blocks embedded in the content.
func collectInvocations(resp *provider.Response) []toolInvocation {
	calls := resp.ToolCalls
	if len(calls) == 0 {
		calls = parseToolCallsFromContent(resp.Content)
	}

	var out []toolInvocation
	for _, tc := range calls {
		name := tc.Name
		args := tc.Args
		if name == "" && tc.Function != nil {
			name = tc.Function.Name
		}
		if args == nil && tc.Function != nil && tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		if name == "" {
			continue
		}
		if args == nil {
			args = map[string]any{}
		}
		out = append(out, toolInvocation{name: name, args: args})
	}
	return out
}

// executeCalls runs each invocation through the registry, emitting the
// selected / executing / tool_complete events around it.
func (s *Service) executeCalls(ctx context.Context, invocations []toolInvocation, emit Emitter) []ToolResult {
	var results []ToolResult
	for _, inv := range invocations {
		if s.DryRun {
			inv.args["dryRun"] = true
		}
		meta := toolMeta(inv.name)

		emit(Event{Type: EventSelected, Tool: meta})
		emit(Event{Type: EventExecuting, Tool: meta, Args: inv.args})

		slog.Info("executing chat tool", slog.String("tool", inv.name))
		result, err := s.Registry.Execute(ctx, inv.name, inv.args)
		if err != nil {
			result = map[string]any{"error": err.Error(), "tool": inv.name}
		}
		results = append(results, ToolResult{Tool: inv.name, Args: inv.args, Result: result})

		_, hasErr := result["error"]
		emit(Event{Type: EventToolComplete, Tool: meta, Success: boolPtr(!hasErr)})
	}
	return results
}

func (s *Service) emitSummary(results []ToolResult, emit Emitter) {
	summary := summarizeToolResults(results)
	if strings.Contains(strings.ToLower(summary), "no results") {
		summary += supportContact
	}
	emit(Event{
		Type:      EventComplete,
		Success:   boolPtr(true),
		Content:   summary,
		ToolCalls: results,
	})
}

func withSystemPrompt(messages []provider.Message) []provider.Message {
	if len(messages) > 0 && messages[0].Role == "system" {
		return messages
	}
	out := make([]provider.Message, 0, len(messages)+1)
	out = append(out, provider.Message{Role: "system", Content: systemPrompt})
	return append(out, messages...)
}

// Session holds a multi-turn conversation and resolves each user message
// with a two-call flow: one LLM call to pick tools, tool execution, then a
// second call so the model can narrate the results.
type Session struct {
	Service *Service

	mu      sync.Mutex
	history []provider.Message
}

// NewSession starts an empty conversation over the service.
func NewSession(svc *Service) *Session {
	return &Session{Service: svc}
}

// Reset clears the conversation history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// ExecutedTool records one tool run during a chat turn.
type ExecutedTool struct {
	Name          string         `json:"name"`
	Arguments     map[string]any `json:"arguments"`
	ResultSummary string         `json:"result_summary"`
}

// Result is the response to one chat turn.
type Result struct {
	Success       bool           `json:"success"`
	Response      string         `json:"response"`
	Error         string         `json:"error,omitempty"`
	ToolsExecuted []ExecutedTool `json:"tools_executed"`
	Model         string         `json:"model,omitempty"`
}

// Chat processes one user message and returns the assistant's reply.
func (s *Session) Chat(ctx context.Context, userMessage string, dryRun bool) Result {
	svc := s.Service

	s.mu.Lock()
	messages := []provider.Message{{Role: "system", Content: systemPrompt}}
	messages = append(messages, s.history...)
	messages = append(messages, provider.Message{Role: "user", Content: userMessage})
	s.mu.Unlock()

	executed := []ExecutedTool{}

	resp, err := svc.Provider.Chat(messages, svc.Registry.ToLLMTools())
	if err != nil {
		return chatError(err, executed)
	}

	finalContent := resp.Content
	if invocations := collectInvocations(resp); len(invocations) > 0 {
		assistantMsg := provider.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		messages = append(messages, assistantMsg)

		for i, inv := range invocations {
			if dryRun || svc.DryRun {
				inv.args["dryRun"] = true
			}
			result, execErr := svc.Registry.Execute(ctx, inv.name, inv.args)
			if execErr != nil {
				result = map[string]any{"error": execErr.Error(), "tool": inv.name}
			}
			executed = append(executed, ExecutedTool{
				Name:          inv.name,
				Arguments:     inv.args,
				ResultSummary: summarizeResult(result),
			})

			callID := ""
			if i < len(resp.ToolCalls) {
				callID = resp.ToolCalls[i].ID
			}
			payload, _ := json.Marshal(result)
			messages = append(messages, provider.Message{
				Role:       "tool",
				ToolCallID: callID,
				Content:    string(payload),
			})
		}

		final, err := svc.Provider.Chat(messages, nil)
		if err != nil {
			return chatError(err, executed)
		}
		finalContent = final.Content
	}

	s.mu.Lock()
	s.history = append(s.history,
		provider.Message{Role: "user", Content: userMessage},
		provider.Message{Role: "assistant", Content: finalContent},
	)
	s.mu.Unlock()

	return Result{
		Success:       true,
		Response:      finalContent,
		ToolsExecuted: executed,
		Model:         svc.modelID(),
	}
}

func chatError(err error, executed []ExecutedTool) Result {
	msg := err.Error()
	if provider.IsUnavailable(err) {
		msg = provider.UnavailableHint
	}
	return Result{
		Success:       false,
		Error:         msg,
		Response:      fmt.Sprintf("I encountered an error: %s", msg),
		ToolsExecuted: executed,
	}
}

// summarizeResult gives a one-line digest of a tool result for the
// tools_executed list.
func summarizeResult(result map[string]any) string {
	if errMsg, ok := result["error"]; ok {
		return fmt.Sprintf("Error: %v", errMsg)
	}
	if summary, ok := result["summary"].(map[string]any); ok {
		return fmt.Sprintf("Pass: %d, Fail: %d, Warn: %d",
			intField(summary, "pass"), intField(summary, "fail"), intField(summary, "warn"))
	}
	if n, ok := result["resultCount"]; ok {
		return fmt.Sprintf("Found %v results", n)
	}
	if success, ok := result["success"].(bool); ok {
		if success {
			return "Success"
		}
		return "Failed"
	}
	return "Completed"
}
