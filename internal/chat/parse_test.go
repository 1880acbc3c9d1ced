package chat

import "testing"

func TestParseToolCallsFromContent(t *testing.T) {
	content := `Let me check that.
<tool_call>{"name": "azlocal.tsg.search", "arguments": {"query": "0x800f0954"}}</tool_call>`

	calls := parseToolCallsFromContent(content)
	if len(calls) != 1 {
		t.Fatalf("got %d calls", len(calls))
	}
	if calls[0].Name != "azlocal.tsg.search" {
		t.Errorf("name = %q", calls[0].Name)
	}
	if calls[0].Args["query"] != "0x800f0954" {
		t.Errorf("args = %v", calls[0].Args)
	}
}

func TestParseToolCallsFromContent_Multiple(t *testing.T) {
	content := `<tool_call>{"name": "a", "arguments": {}}</tool_call>
<tool_call>{"name": "b", "arguments": {"x": 1}}</tool_call>`
	calls := parseToolCallsFromContent(content)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Name != "a" || calls[1].Name != "b" {
		t.Errorf("names = %q, %q", calls[0].Name, calls[1].Name)
	}
}

func TestParseToolCallsFromContent_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no_blocks", "just plain text"},
		{"bad_json", "<tool_call>{not json}</tool_call>"},
		{"missing_name", `<tool_call>{"arguments": {}}</tool_call>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if calls := parseToolCallsFromContent(tt.content); len(calls) != 0 {
				t.Errorf("got %v, want none", calls)
			}
		})
	}
}

func TestCleanToolCallContent(t *testing.T) {
	content := `Checking now.

<tool_call>{"name": "x", "arguments": {}}</tool_call>

Done.`
	got := cleanToolCallContent(content)
	want := "Checking now.\n\nDone."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanToolCallContent_OnlyToolCall(t *testing.T) {
	got := cleanToolCallContent(`<tool_call>{"name": "x"}</tool_call>`)
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
