package mcptools

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	msg := res.Messages[0]
	if msg.Role != "user" {
		t.Errorf("role = %q, want user", msg.Role)
	}
	tc, ok := msg.Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want *mcp.TextContent", msg.Content)
	}
	return tc.Text
}

func TestTroubleshootConnectivityPrompt(t *testing.T) {
	res, err := troubleshootConnectivityPrompt(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	text := promptText(t, res)
	for _, want := range []string{
		"arc_connectivity_check",
		`mode="full"`,
		"azlocal_tsg_search",
		"*.azure.com",
		"NTP port 123",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCreateSupportCasePrompt(t *testing.T) {
	res, err := createSupportCasePrompt(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	text := promptText(t, res)
	for _, want := range []string{
		"arc_connectivity_check",
		"aks_arc_validate",
		"aksarc_support_diagnose",
		"aksarc_logs_collect",
		"arcops_diagnostics_bundle",
		"SHA256 checksums",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
