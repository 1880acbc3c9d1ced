package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const troubleshootConnectivityGuide = `To troubleshoot Azure connectivity issues, follow these steps:

1. First, run a connectivity check to identify blocked endpoints:
   Use the arc_connectivity_check tool with mode="full"

2. Review any failed or warning checks:
   - Failed (high severity) = required endpoints that are blocked
   - Warning (medium severity) = optional endpoints that may affect features

3. For each failed endpoint:
   - Check if there is a firewall rule blocking it
   - Verify DNS can resolve the FQDN
   - Test the TLS connection on the required port

4. If you see specific errors, search the troubleshooting guides:
   Use azlocal_tsg_search with the error message

5. After fixing issues, re-run the connectivity check to verify

Common fixes:
- Add proxy exceptions for *.azure.com, *.microsoft.com
- Open ports 443 (HTTPS) and 80 (HTTP for CRL)
- Ensure NTP port 123 is open for time sync`

const createSupportCaseGuide = `To create a complete diagnostic package for Microsoft support:

1. Run a connectivity check (full mode):
   arc_connectivity_check with mode="full", dryRun=false

2. Run cluster validation:
   aks_arc_validate with dryRun=false (omit checks to run them all)

3. Run the AKS Arc known issues check:
   aksarc_support_diagnose with dryRun=false

4. Collect relevant logs:
   aksarc_logs_collect with outDir set to a staging directory

5. Create the diagnostic bundle:
   arcops_diagnostics_bundle with logsDir pointing at the collected logs

The bundle will contain:
- All findings in JSON format
- Collected logs
- SHA256 checksums for tamper evidence

Upload this bundle to your Microsoft support case.`

func troubleshootConnectivityPrompt(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Diagnose Azure connectivity issues step by step",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: troubleshootConnectivityGuide}},
		},
	}, nil
}

func createSupportCasePrompt(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Collect all diagnostics for a Microsoft support case",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: createSupportCaseGuide}},
		},
	}, nil
}

// registerPrompts adds the guided diagnostic workflows MCP clients can
// request as prompts.
func registerPrompts(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "troubleshoot_connectivity",
		Description: "Diagnose Azure connectivity issues step by step",
	}, troubleshootConnectivityPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "create_support_case",
		Description: "Collect all diagnostics for a Microsoft support case",
	}, createSupportCasePrompt)
}
