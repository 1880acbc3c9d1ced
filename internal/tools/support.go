package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/findings"
	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// supportModule is the Microsoft support module for AKS Arc hosts.
const supportModule = "Support.AksArc"

// SupportTool wraps Test-SupportAksArcKnownIssues and normalizes its results
// into the findings schema.
type SupportTool struct {
	Run *runner.Runner
}

func (t *SupportTool) Name() string { return "aksarc.support.diagnose" }

func (t *SupportTool) Description() string {
	return "Run AKS Arc known-issue diagnostics via the Support.AksArc PowerShell module " +
		"and normalize results into findings."
}

func (t *SupportTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timeoutSec": map[string]any{"type": "integer", "default": 300},
			"dryRun": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Return fixture data without running the module",
			},
		},
	}
}

// supportCheck is one entry emitted by Test-SupportAksArcKnownIssues.
type supportCheck struct {
	Name    string `json:"Name"`
	Status  string `json:"Status"`
	Message string `json:"Message"`
}

func (t *SupportTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	dryRun := getBool(args, "dryRun", false)

	f := findings.New("host", t.Name(), "")
	start := time.Now()

	if dryRun {
		f.SetExtra("dryRun", true)
		for _, c := range sampleSupportChecks() {
			f.Add(supportCheckFinding(c))
		}
		f.SetExtra("totalDurationMs", time.Since(start).Milliseconds())
		return f.ToMap(), nil
	}

	installed, version := t.Run.ModuleInstalled(ctx, supportModule)
	f.SetExtra("module", map[string]any{
		"installed": installed,
		"name":      supportModule,
		"version":   version,
	})
	if !installed {
		f.Add(findings.Check{
			ID:       "aksarc.support.module.required",
			Title:    "Support.AksArc Module",
			Severity: findings.SeverityHigh,
			Status:   findings.StatusFail,
			Evidence: map[string]any{"module": supportModule, "installed": false},
			Hint:     "Install-Module -Name Support.AksArc -Force",
			Sources:  []findings.SourceRef{supportSource()},
		})
		return f.ToMap(), nil
	}

	script := fmt.Sprintf(
		"Import-Module %s -Force\n$results = Test-SupportAksArcKnownIssues\n$results | ConvertTo-Json -Depth 10",
		supportModule)
	res := t.Run.PowerShell(ctx, script)
	if !res.Success {
		errMsg := strings.TrimSpace(res.Stderr)
		if errMsg == "" {
			errMsg = fmt.Sprintf("diagnostics exited with code %d", res.ReturnCode)
		}
		f.Add(findings.Check{
			ID:       "aksarc.support.execution",
			Title:    "Known Issues Diagnostics",
			Severity: findings.SeverityHigh,
			Status:   findings.StatusFail,
			Evidence: map[string]any{"error": truncate(errMsg, 1000)},
			Hint:     "Run Test-SupportAksArcKnownIssues manually to inspect the failure",
			Sources:  []findings.SourceRef{supportSource()},
		})
		return f.ToMap(), nil
	}

	checks, err := parseSupportChecks(res.Stdout)
	if err != nil {
		f.Add(findings.Check{
			ID:       "aksarc.support.execution",
			Title:    "Known Issues Diagnostics",
			Severity: findings.SeverityHigh,
			Status:   findings.StatusFail,
			Evidence: map[string]any{"error": fmt.Sprintf("unparseable module output: %v", err)},
			Hint:     "Run Test-SupportAksArcKnownIssues manually to inspect the failure",
			Sources:  []findings.SourceRef{supportSource()},
		})
		return f.ToMap(), nil
	}

	for _, c := range checks {
		f.Add(supportCheckFinding(c))
	}

	f.SetExtra("totalDurationMs", time.Since(start).Milliseconds())
	return f.ToMap(), nil
}

// parseSupportChecks accepts the array or single-object shapes ConvertTo-Json
// emits.
func parseSupportChecks(stdout string) ([]supportCheck, error) {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return nil, nil
	}
	var list []supportCheck
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return list, nil
	}
	var one supportCheck
	if err := json.Unmarshal([]byte(trimmed), &one); err != nil {
		return nil, err
	}
	return []supportCheck{one}, nil
}

func supportCheckFinding(c supportCheck) findings.Check {
	status := mapCheckerStatus(c.Status)
	return findings.Check{
		ID:       supportCheckID(c.Name),
		Title:    "AKS Arc - " + c.Name,
		Severity: supportSeverity(c.Name, status),
		Status:   status,
		Evidence: map[string]any{"message": c.Message, "rawStatus": c.Status},
		Hint:     supportHint(c.Name, status),
		Sources:  []findings.SourceRef{supportSource()},
	}
}

func supportCheckID(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	return "aksarc.support." + slug
}

// supportSeverity raises severity for checks touching certificates, agents,
// or cluster services.
func supportSeverity(checkName string, status findings.Status) string {
	if status == findings.StatusPass || status == findings.StatusSkipped {
		return findings.SeverityLow
	}
	name := strings.ToLower(checkName)
	for _, key := range []string{"certificate", "agent", "cluster"} {
		if strings.Contains(name, key) {
			return findings.SeverityHigh
		}
	}
	return findings.SeverityMedium
}

func supportHint(checkName string, status findings.Status) string {
	if status == findings.StatusPass || status == findings.StatusSkipped {
		return ""
	}
	name := strings.ToLower(checkName)
	switch {
	case strings.Contains(name, "certificate"):
		return "Certificates may be expired or near expiry. See docs/SOURCES.md#aks-arc-certificates"
	case strings.Contains(name, "agent"):
		return "An agent service is unhealthy. Restart the service and check its logs."
	case strings.Contains(name, "cluster"):
		return "The failover cluster service reported an issue. Check cluster health in Windows Admin Center."
	}
	return "Review the check message and consult docs/SOURCES.md#aks-arc-known-issues"
}

func supportSource() findings.SourceRef {
	return findings.SourceRef{
		Type:  "doc",
		Label: "AKS Arc Known Issues",
		URL:   "docs/SOURCES.md#aks-arc-known-issues",
	}
}

// sampleSupportChecks is the dry-run payload, mirroring a healthy host.
func sampleSupportChecks() []supportCheck {
	names := []string{
		"failover-cluster-service",
		"moc-cloud-agent",
		"moc-node-agent",
		"moc-version",
		"certificates",
		"vmms-responsive",
	}
	checks := make([]supportCheck, 0, len(names))
	for _, n := range names {
		checks = append(checks, supportCheck{
			Name:    n,
			Status:  "OK",
			Message: "No issues detected",
		})
	}
	return checks
}
