// Package mcptools exposes the diagnostic tool registry as an MCP server
// with typed inputs, over stdio or streamable HTTP.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smitzlroy/arcops-mcp/internal/tools"
)

// JSONOutput wraps a tool result for MCP structured content.
type JSONOutput struct {
	Result map[string]any `json:"result"`
}

// BuildServer creates an MCP server with every diagnostic tool and the
// guided workflow prompts registered.
func BuildServer(reg *tools.Registry, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "arcops",
		Version: version,
	}, nil)
	RegisterAll(server, reg)
	registerPrompts(server)
	return server
}

// HTTPHandler returns a stateless streamable HTTP handler for the server.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{Stateless: true})
}

// execute runs a registry tool and wraps its result for MCP.
func execute(ctx context.Context, reg *tools.Registry, name string, args map[string]any) (*mcp.CallToolResult, JSONOutput, error) {
	result, err := reg.Execute(ctx, name, args)
	if err != nil {
		return nil, JSONOutput{}, err
	}
	// Text content mirrors the structured result for clients that only
	// read text.
	data, err := json.Marshal(result)
	if err != nil {
		return nil, JSONOutput{}, fmt.Errorf("marshal result: %w", err)
	}
	res := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
	return res, JSONOutput{Result: result}, nil
}

// ConnectivityInput selects the connectivity check scope.
type ConnectivityInput struct {
	Mode       string   `json:"mode,omitempty" jsonschema:"quick checks key endpoints, full checks everything, endpoints-only skips host checks"`
	Categories []string `json:"categories,omitempty"`
	TimeoutSec int      `json:"timeoutSec,omitempty"`
	DryRun     bool     `json:"dryRun,omitempty"`
}

// EgressInput filters the egress endpoint set.
type EgressInput struct {
	Categories   []string `json:"categories,omitempty"`
	RequiredOnly bool     `json:"requiredOnly,omitempty"`
	TimeoutSec   int      `json:"timeoutSec,omitempty"`
	DryRun       bool     `json:"dryRun,omitempty"`
}

// EnvCheckInput selects the Environment Checker mode.
type EnvCheckInput struct {
	Mode      string `json:"mode,omitempty"`
	RawOutput bool   `json:"rawOutput,omitempty"`
	DryRun    bool   `json:"dryRun,omitempty"`
}

// TSGInput is a troubleshooting guide search query.
type TSGInput struct {
	Query  string `json:"query" jsonschema:"error message, symptom, or keyword to search"`
	DryRun bool   `json:"dryRun,omitempty"`
}

// ValidateInput scopes cluster validation.
type ValidateInput struct {
	Kubeconfig string   `json:"kubeconfig,omitempty"`
	Context    string   `json:"context,omitempty"`
	Checks     []string `json:"checks,omitempty" jsonschema:"subset of extensions, cni, versions, flux; empty means all"`
	DryRun     bool     `json:"dryRun,omitempty"`
}

// SupportInput toggles fixture mode for known-issue detection.
type SupportInput struct {
	DryRun bool `json:"dryRun,omitempty"`
}

// LogsInput targets log collection at a node or cluster.
type LogsInput struct {
	IP             string `json:"ip,omitempty"`
	Kubeconfig     string `json:"kubeconfig,omitempty"`
	CredentialsDir string `json:"credentialsDir,omitempty"`
	OutDir         string `json:"outDir,omitempty"`
	DryRun         bool   `json:"dryRun,omitempty"`
}

// BundleInput selects the artifacts to package.
type BundleInput struct {
	FindingsDir string `json:"findingsDir,omitempty"`
	LogsDir     string `json:"logsDir,omitempty"`
	OutputDir   string `json:"outputDir,omitempty"`
	Sign        *bool  `json:"sign,omitempty"`
	PolicyPath  string `json:"policyPath,omitempty"`
}

// ExplainInput names an educational topic, or "list".
type ExplainInput struct {
	Topic string `json:"topic"`
}

// DiagnoseFullInput scopes the composite diagnosis.
type DiagnoseFullInput struct {
	Kubeconfig string `json:"kubeconfig,omitempty"`
	DryRun     bool   `json:"dryRun,omitempty"`
}

// RegisterAll registers every diagnostic tool plus the composite
// arcops.diagnose.full on the MCP server.
func RegisterAll(server *mcp.Server, reg *tools.Registry) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "arc_connectivity_check",
		Description: `Check network connectivity to Azure Arc endpoints (DNS, TCP, TLS).
Modes: quick (key endpoints), full (entire catalog), endpoints-only.`,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ConnectivityInput) (*mcp.CallToolResult, JSONOutput, error) {
		args := map[string]any{"dryRun": input.DryRun}
		if input.Mode != "" {
			args["mode"] = input.Mode
		}
		if len(input.Categories) > 0 {
			args["categories"] = toAnySlice(input.Categories)
		}
		if input.TimeoutSec > 0 {
			args["timeoutSec"] = input.TimeoutSec
		}
		return execute(ctx, reg, "arc.connectivity.check", args)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "arc_gateway_egress_check",
		Description: `Check TLS, proxy and FQDN reachability for Arc gateway egress endpoints.
Filter by category or restrict to required endpoints.`,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input EgressInput) (*mcp.CallToolResult, JSONOutput, error) {
		args := map[string]any{
			"requiredOnly": input.RequiredOnly,
			"dryRun":       input.DryRun,
		}
		if len(input.Categories) > 0 {
			args["categories"] = toAnySlice(input.Categories)
		}
		if input.TimeoutSec > 0 {
			args["timeoutSec"] = input.TimeoutSec
		}
		return execute(ctx, reg, "arc.gateway.egress.check", args)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "azlocal_envcheck_wrap",
		Description: "Run the Azure Local Environment Checker PowerShell module and normalize its results.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input EnvCheckInput) (*mcp.CallToolResult, JSONOutput, error) {
		args := map[string]any{"rawOutput": input.RawOutput, "dryRun": input.DryRun}
		if input.Mode != "" {
			args["mode"] = input.Mode
		}
		return execute(ctx, reg, "azlocal.envcheck.wrap", args)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "azlocal_tsg_search",
		Description: "Search Azure Local troubleshooting guides for an error message or symptom.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TSGInput) (*mcp.CallToolResult, JSONOutput, error) {
		return execute(ctx, reg, "azlocal.tsg.search", map[string]any{
			"query":  input.Query,
			"dryRun": input.DryRun,
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "aks_arc_validate",
		Description: "Validate AKS Arc cluster configuration: extensions, CNI, versions, Flux.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, JSONOutput, error) {
		args := map[string]any{"dryRun": input.DryRun}
		if input.Kubeconfig != "" {
			args["kubeconfig"] = input.Kubeconfig
		}
		if input.Context != "" {
			args["context"] = input.Context
		}
		if len(input.Checks) > 0 {
			args["checks"] = toAnySlice(input.Checks)
		}
		return execute(ctx, reg, "aks.arc.validate", args)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "aksarc_support_diagnose",
		Description: "Detect known AKS Arc host issues (MOC agents, certificates, VMMS) via Support.AksArc.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SupportInput) (*mcp.CallToolResult, JSONOutput, error) {
		return execute(ctx, reg, "aksarc.support.diagnose", map[string]any{"dryRun": input.DryRun})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "aksarc_logs_collect",
		Description: "Collect diagnostic logs from AKS Arc cluster nodes via az aksarc get-logs.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input LogsInput) (*mcp.CallToolResult, JSONOutput, error) {
		args := map[string]any{"dryRun": input.DryRun}
		if input.IP != "" {
			args["ip"] = input.IP
		}
		if input.Kubeconfig != "" {
			args["kubeconfig"] = input.Kubeconfig
		}
		if input.CredentialsDir != "" {
			args["credentialsDir"] = input.CredentialsDir
		}
		if input.OutDir != "" {
			args["outDir"] = input.OutDir
		}
		return execute(ctx, reg, "aksarc.logs.collect", args)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "arcops_diagnostics_bundle",
		Description: "Package findings and logs into a signed support bundle with a sha256 manifest.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input BundleInput) (*mcp.CallToolResult, JSONOutput, error) {
		args := map[string]any{}
		if input.FindingsDir != "" {
			args["findingsDir"] = input.FindingsDir
		}
		if input.LogsDir != "" {
			args["logsDir"] = input.LogsDir
		}
		if input.OutputDir != "" {
			args["outputDir"] = input.OutputDir
		}
		if input.Sign != nil {
			args["sign"] = *input.Sign
		}
		if input.PolicyPath != "" {
			args["policyPath"] = input.PolicyPath
		}
		return execute(ctx, reg, "arcops.diagnostics.bundle", args)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "arcops_explain",
		Description: "Educational content about Azure Local and AKS Arc topics. Use topic 'list' to enumerate.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExplainInput) (*mcp.CallToolResult, JSONOutput, error) {
		return execute(ctx, reg, "arcops.explain", map[string]any{"topic": input.Topic})
	})

	registerDiagnoseFull(server, reg)
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
