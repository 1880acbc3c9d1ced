package chat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/smitzlroy/arcops-mcp/internal/provider"
)

// Some small models emit <tool_call>{...}</tool_call> in message content
// instead of using the structured tool_calls field.
var toolCallRe = regexp.MustCompile(`(?s)<tool_call>\s*(\{.*?\})\s*</tool_call>`)

// parseToolCallsFromContent extracts tool calls embedded in message text.
// Each block holds JSON like {"name": "...", "arguments": {...}}.
func parseToolCallsFromContent(content string) []provider.ToolCall {
	var calls []provider.ToolCall
	for _, m := range toolCallRe.FindAllStringSubmatch(content, -1) {
		var parsed struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		if err := json.Unmarshal([]byte(m[1]), &parsed); err != nil {
			continue
		}
		if parsed.Name == "" {
			continue
		}
		calls = append(calls, provider.ToolCall{
			Name: parsed.Name,
			Args: parsed.Arguments,
		})
	}
	return calls
}

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// cleanToolCallContent strips <tool_call> blocks so the remaining text can
// be shown to the user.
func cleanToolCallContent(content string) string {
	cleaned := toolCallRe.ReplaceAllString(content, "")
	cleaned = blankLinesRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
