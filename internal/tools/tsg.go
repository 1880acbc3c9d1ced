package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// tsgModule is the PowerShell module wrapped by TSGSearchTool. It handles
// GitHub indexing and local caching internally.
const tsgModule = "AzLocalTSGTool"

// TSGSearchTool searches Azure Local troubleshooting guides via
// Search-AzLocalTSG.
type TSGSearchTool struct {
	Run *runner.Runner
}

func (t *TSGSearchTool) Name() string { return "azlocal.tsg.search" }

func (t *TSGSearchTool) Description() string {
	return "Search Azure Local troubleshooting guides using AzLocalTSGTool. " +
		"The module handles GitHub indexing and local caching."
}

func (t *TSGSearchTool) InputSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Error message, symptom, or keyword to search",
			},
			"dryRun": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Return fixture data without running actual search",
			},
		},
	}
}

func (t *TSGSearchTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	query := getString(args, "query", "")
	dryRun := getBool(args, "dryRun", false)

	if query == "" {
		return map[string]any{
			"success": false,
			"error":   "Query parameter is required",
			"results": []any{},
		}, nil
	}

	if dryRun {
		results := sampleTSGResults()
		return map[string]any{
			"success":     true,
			"query":       query,
			"resultCount": len(results),
			"results":     results,
			"dryRun":      true,
		}, nil
	}

	start := time.Now()
	installed, version := t.Run.ModuleInstalled(ctx, tsgModule)
	if !installed {
		return map[string]any{
			"success": false,
			"query":   query,
			"results": []any{},
			"error":   "AzLocalTSGTool module not installed",
			"hint":    "Install-Module -Name AzLocalTSGTool -Force",
		}, nil
	}

	// Single quotes in the query must be doubled for PowerShell.
	escaped := strings.ReplaceAll(query, "'", "''")
	script := fmt.Sprintf(
		"Import-Module %s -Force\n$results = Search-AzLocalTSG -Query '%s'\n$results | ConvertTo-Json -Depth 10",
		tsgModule, escaped)

	res := t.Run.PowerShell(ctx, script)
	durationMS := time.Since(start).Milliseconds()

	if !res.Success {
		errMsg := strings.TrimSpace(res.Stderr)
		if errMsg == "" {
			errMsg = "Search failed"
		}
		return map[string]any{
			"success":    false,
			"query":      query,
			"results":    []any{},
			"error":      truncate(errMsg, 1000),
			"durationMs": durationMS,
		}, nil
	}

	results, ok := parseTSGResults(res.Stdout)
	if !ok {
		return map[string]any{
			"success":     true,
			"query":       query,
			"resultCount": 0,
			"results":     []any{},
			"rawOutput":   truncate(res.Stdout, 2000),
			"note":        "Search completed but no structured results returned",
			"durationMs":  durationMS,
		}, nil
	}

	return map[string]any{
		"success":     true,
		"query":       query,
		"resultCount": len(results),
		"results":     results,
		"durationMs":  durationMS,
		"module":      map[string]any{"installed": true, "name": tsgModule, "version": version},
	}, nil
}

// parseTSGResults handles the three shapes ConvertTo-Json emits: an array,
// a single object, or nothing.
func parseTSGResults(stdout string) ([]any, bool) {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return []any{}, true
	}
	var asList []any
	if err := json.Unmarshal([]byte(trimmed), &asList); err == nil {
		return asList, true
	}
	var asObj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &asObj); err == nil {
		return []any{asObj}, true
	}
	return nil, false
}

func sampleTSGResults() []map[string]any {
	return []map[string]any{
		{
			"title":     "Troubleshoot Azure Local Connectivity Issues",
			"category":  "Networking",
			"url":       "https://github.com/Azure/AzureLocal-Supportability/blob/main/TSG/Networking/Outbound-Connectivity.md",
			"relevance": 0.85,
			"summary":   "Common connectivity issues and resolution steps for Azure Local deployments.",
		},
		{
			"title":     "AKS Arc Certificate Rotation",
			"category":  "AKS",
			"url":       "https://github.com/Azure/AzureLocal-Supportability/blob/main/TSG/AKS/cert-rotation.md",
			"relevance": 0.72,
			"summary":   "Steps to troubleshoot and resolve certificate expiration issues in AKS Arc.",
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
