// Package tools holds the diagnostic tool adapters and their registry. Each
// adapter wraps an external collaborator (PowerShell module, az CLI, native
// network checks) and normalizes its output into the findings schema.
package tools

import "context"

// Tool is the interface every diagnostic adapter implements.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any // JSON Schema object
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Meta describes a tool for chat UI progress events.
type Meta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// ChatCatalog is the tool metadata streamed during the scanning phase.
var ChatCatalog = []Meta{
	{
		ID:          "arc.connectivity.check",
		Name:        "Azure Connectivity Check",
		Icon:        "🌐",
		Description: "Test network connectivity to Azure endpoints",
	},
	{
		ID:          "azlocal.envcheck.wrap",
		Name:        "Environment Validation",
		Icon:        "🔍",
		Description: "Validate Azure Local prerequisites",
	},
	{
		ID:          "aks.arc.validate",
		Name:        "AKS Arc Cluster Validation",
		Icon:        "☸️",
		Description: "Check cluster health and configuration",
	},
	{
		ID:          "azlocal.tsg.search",
		Name:        "TSG Search",
		Icon:        "📚",
		Description: "Search troubleshooting guides",
	},
}

// helpers for parsing map[string]any args into typed values

func getString(args map[string]any, key, def string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func getInt(args map[string]any, key string, def int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

func getBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func getStringSlice(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case []string:
		return s
	}
	return nil
}
