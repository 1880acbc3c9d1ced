package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/chat"
)

type diagnoseRequest struct {
	DryRun     bool   `json:"dryRun"`
	Kubeconfig string `json:"kubeconfig"`
}

// stage is one step of the multi-stage diagnosis.
type stage struct {
	Name    string           `json:"name"`
	Tool    string           `json:"tool"`
	Status  string           `json:"status"`
	Summary map[string]any   `json:"summary"`
	Issues  []map[string]any `json:"issues"`
}

// handleDiagnose runs connectivity and cluster validation back to back and
// aggregates the results into an overall health verdict with TSG
// suggestions and an executive summary.
func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	connArgs := map[string]any{"mode": "quick"}
	validateArgs := map[string]any{}
	if req.DryRun {
		connArgs["dryRun"] = true
		validateArgs["dryRun"] = true
	}
	if req.Kubeconfig != "" {
		validateArgs["kubeconfig"] = req.Kubeconfig
	}

	var stages []stage
	var allIssues []map[string]any

	connStage := s.runStage(r.Context(), "Connectivity Check", "arc.connectivity.check", connArgs)
	stages = append(stages, connStage)
	allIssues = append(allIssues, tagIssues(connStage.Issues, "connectivity")...)

	valStage := s.runStage(r.Context(), "Cluster Validation", "aks.arc.validate", validateArgs)
	stages = append(stages, valStage)
	allIssues = append(allIssues, tagIssues(valStage.Issues, "cluster")...)

	passCount, warnCount, failCount := 0, 0, 0
	for _, st := range stages {
		passCount += intField(st.Summary, "pass")
		warnCount += intField(st.Summary, "warn")
		failCount += intField(st.Summary, "fail")
	}

	health := "healthy"
	switch {
	case failCount > 0:
		health = "critical"
	case warnCount > 0:
		health = "degraded"
	}

	diagnosis := map[string]any{
		"stages":        stages,
		"allIssues":     allIssues,
		"overallHealth": health,
		"totals": map[string]any{
			"pass":        passCount,
			"warn":        warnCount,
			"fail":        failCount,
			"totalIssues": len(allIssues),
		},
	}
	if len(allIssues) > 0 {
		diagnosis["tsgSuggestions"] = chat.SuggestTSGQueries(allIssues)
	}
	diagnosis["executiveSummary"] = executiveSummary(diagnosis)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "diagnosis": diagnosis})
}

// runStage executes one tool and condenses its findings into a stage record.
func (s *Server) runStage(ctx context.Context, name, tool string, args map[string]any) stage {
	start := time.Now()
	result, err := s.Registry.Execute(ctx, tool, args)
	s.metrics.observeTool(tool, start)
	if err != nil {
		return stage{
			Name:    name,
			Tool:    tool,
			Status:  "fail",
			Summary: map[string]any{"fail": 1},
			Issues: []map[string]any{{
				"id": tool + ".execution", "title": name + " failed",
				"status": "fail", "hint": err.Error(),
			}},
		}
	}

	summary, _ := result["summary"].(map[string]any)
	checks, _ := result["checks"].([]any)

	var issues []map[string]any
	for _, c := range checks {
		check, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if status, _ := check["status"].(string); status == "fail" || status == "warn" {
			issues = append(issues, check)
		}
	}

	status := "pass"
	switch {
	case intField(summary, "fail") > 0:
		status = "fail"
	case intField(summary, "warn") > 0:
		status = "warn"
	}

	return stage{Name: name, Tool: tool, Status: status, Summary: summary, Issues: issues}
}

// tagIssues trims issues to the fields the diagnosis needs and labels their
// source stage.
func tagIssues(issues []map[string]any, source string) []map[string]any {
	out := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		out = append(out, map[string]any{
			"source": source,
			"id":     issue["id"],
			"title":  issue["title"],
			"status": issue["status"],
			"hint":   issue["hint"],
		})
	}
	return out
}

func executiveSummary(diagnosis map[string]any) string {
	var lines []string

	health, _ := diagnosis["overallHealth"].(string)
	totals, _ := diagnosis["totals"].(map[string]any)

	lines = append(lines,
		fmt.Sprintf("**Overall System Health: %s**", strings.ToUpper(health)),
		"",
		"**Diagnostics Summary:**",
		fmt.Sprintf("- Passed: %d checks", intField(totals, "pass")),
		fmt.Sprintf("- Warnings: %d checks", intField(totals, "warn")),
		fmt.Sprintf("- Failed: %d checks", intField(totals, "fail")),
	)

	allIssues, _ := diagnosis["allIssues"].([]map[string]any)
	var critical []map[string]any
	for _, issue := range allIssues {
		if status, _ := issue["status"].(string); status == "fail" {
			critical = append(critical, issue)
		}
	}
	if len(critical) > 0 {
		lines = append(lines, "", "**Critical Issues Requiring Attention:**")
		for i, issue := range critical {
			if i >= 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("- **%v**", issue["title"]))
			if hint, _ := issue["hint"].(string); hint != "" {
				lines = append(lines, fmt.Sprintf("  %s", hint))
			}
		}
	}

	if suggestions, ok := diagnosis["tsgSuggestions"].([]string); ok && len(suggestions) > 0 {
		lines = append(lines, "", "**Recommended Troubleshooting Guides:**")
		for i, tsg := range suggestions {
			if i >= 3 {
				break
			}
			lines = append(lines, fmt.Sprintf("- Search: *\"%s\"*", tsg))
		}
	}

	return strings.Join(lines, "\n")
}

func intField(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
