package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smitzlroy/arcops-mcp/internal/tools"
)

// diagnoseStages are the tools the composite diagnosis runs, in order.
var diagnoseStages = []struct {
	name string
	tool string
}{
	{"Connectivity Check", "arc.connectivity.check"},
	{"Cluster Validation", "aks.arc.validate"},
	{"Known Issue Scan", "aksarc.support.diagnose"},
}

func registerDiagnoseFull(server *mcp.Server, reg *tools.Registry) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "arcops_diagnose_full",
		Description: `Run the full diagnostic sweep: connectivity, cluster validation and
known-issue detection, aggregated into one health verdict.`,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input DiagnoseFullInput) (*mcp.CallToolResult, JSONOutput, error) {
		return execute2(ctx, func() (map[string]any, error) {
			return diagnoseFull(ctx, reg, input)
		})
	})
}

// execute2 adapts a plain result function to the MCP return shape.
func execute2(_ context.Context, fn func() (map[string]any, error)) (*mcp.CallToolResult, JSONOutput, error) {
	result, err := fn()
	if err != nil {
		return nil, JSONOutput{}, err
	}
	return nil, JSONOutput{Result: result}, nil
}

func diagnoseFull(ctx context.Context, reg *tools.Registry, input DiagnoseFullInput) (map[string]any, error) {
	var stages []map[string]any
	passCount, failCount, warnCount := 0, 0, 0

	for _, st := range diagnoseStages {
		args := map[string]any{"dryRun": input.DryRun}
		if st.tool == "aks.arc.validate" && input.Kubeconfig != "" {
			args["kubeconfig"] = input.Kubeconfig
		}
		if st.tool == "arc.connectivity.check" {
			args["mode"] = "quick"
		}

		result, err := reg.Execute(ctx, st.tool, args)
		if err != nil {
			stages = append(stages, map[string]any{
				"name": st.name, "tool": st.tool, "status": "fail", "error": err.Error(),
			})
			failCount++
			continue
		}

		summary, _ := result["summary"].(map[string]any)
		passCount += intOf(summary["pass"])
		failCount += intOf(summary["fail"])
		warnCount += intOf(summary["warn"])

		status := "pass"
		switch {
		case intOf(summary["fail"]) > 0:
			status = "fail"
		case intOf(summary["warn"]) > 0:
			status = "warn"
		}
		stages = append(stages, map[string]any{
			"name": st.name, "tool": st.tool, "status": status,
			"summary": summary, "runId": result["runId"],
		})
	}

	health := "healthy"
	switch {
	case failCount > 0:
		health = "critical"
	case warnCount > 0:
		health = "degraded"
	}

	return map[string]any{
		"success":       true,
		"overallHealth": health,
		"stages":        stages,
		"totals": map[string]any{
			"pass": passCount, "fail": failCount, "warn": warnCount,
		},
	}, nil
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
