package chat

import (
	"strings"
	"testing"
)

func TestSummarizeToolResults_AllPass(t *testing.T) {
	results := []ToolResult{{
		Tool: "arc.connectivity.check",
		Result: map[string]any{
			"checks":  []any{},
			"summary": map[string]any{"total": 5.0, "pass": 5.0, "fail": 0.0, "warn": 0.0},
		},
	}}
	got := summarizeToolResults(results)
	if !strings.Contains(got, "All 5 checks passed") {
		t.Errorf("missing pass line: %q", got)
	}
	if !strings.Contains(got, "Azure connection is healthy") {
		t.Errorf("missing healthy confirmation: %q", got)
	}
	if strings.Contains(got, "Suggested Troubleshooting") {
		t.Error("no issues but TSG suggestions present")
	}
}

func TestSummarizeToolResults_IssuesAndSuggestions(t *testing.T) {
	results := []ToolResult{{
		Tool: "arc.connectivity.check",
		Result: map[string]any{
			"checks": []any{
				map[string]any{
					"id":     "arc.connectivity.dns",
					"title":  "DNS Resolution",
					"status": "fail",
					"hint":   "Check DNS server configuration",
					"evidence": map[string]any{
						"error": "lookup management.azure.com: no such host",
					},
				},
				map[string]any{
					"id": "arc.connectivity.mcr", "title": "MCR Endpoint", "status": "pass",
				},
			},
			"summary": map[string]any{"total": 2.0, "pass": 1.0, "fail": 1.0, "warn": 0.0},
		},
	}}
	got := summarizeToolResults(results)

	for _, want := range []string{
		"1 failed",
		"**DNS Resolution**",
		"`arc.connectivity.dns`",
		"Check DNS server configuration",
		"error: `lookup management.azure.com: no such host`",
		"Suggested Troubleshooting Guide Searches",
		"Azure Arc connectivity troubleshooting",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSummarizeToolResults_TSGSearch(t *testing.T) {
	results := []ToolResult{{
		Tool: "azlocal.tsg.search",
		Result: map[string]any{
			"query": "certificate expired",
			"results": []any{map[string]any{
				"title":   "AKS Arc Certificate Rotation",
				"url":     "https://example.test/cert",
				"summary": "Steps to rotate expired certificates.",
			}},
		},
	}}
	got := summarizeToolResults(results)
	for _, want := range []string{"certificate expired", "AKS Arc Certificate Rotation", "https://example.test/cert"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q:\n%s", want, got)
		}
	}
}

func TestSummarizeToolResults_TSGNoResults(t *testing.T) {
	results := []ToolResult{{
		Tool:   "azlocal.tsg.search",
		Result: map[string]any{"query": "xyz", "results": []any{}},
	}}
	got := summarizeToolResults(results)
	if !strings.Contains(got, "No results for 'xyz'") {
		t.Errorf("got %q", got)
	}
}

func TestSummarizeToolResults_ToolError(t *testing.T) {
	results := []ToolResult{{
		Tool:   "aks.arc.validate",
		Result: map[string]any{"error": "kubectl not found"},
	}}
	got := summarizeToolResults(results)
	if !strings.Contains(got, "Error - kubectl not found") {
		t.Errorf("got %q", got)
	}
}

func TestSummarizeToolResults_Unparseable(t *testing.T) {
	got := summarizeToolResults([]ToolResult{{Tool: "x", Result: map[string]any{}}})
	if !strings.Contains(got, "couldn't parse the results") {
		t.Errorf("got %q", got)
	}
}

func TestSummarizeToolResults_IssueCap(t *testing.T) {
	var checks []any
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		checks = append(checks, map[string]any{
			"id": "x." + name, "title": "Check " + name, "status": "fail",
		})
	}
	results := []ToolResult{{
		Tool: "arc.connectivity.check",
		Result: map[string]any{
			"checks":  checks,
			"summary": map[string]any{"total": 7.0, "fail": 7.0},
		},
	}}
	got := summarizeToolResults(results)
	if strings.Contains(got, "Check f") || strings.Contains(got, "Check g") {
		t.Errorf("more than 5 issues listed:\n%s", got)
	}
}

func TestExtractKeyEvidence(t *testing.T) {
	tests := []struct {
		name     string
		evidence map[string]any
		want     string
	}{
		{
			"priority_key",
			map[string]any{"latencyMs": 12.0, "error": "timeout"},
			"error: `timeout`",
		},
		{
			"priority_order",
			map[string]any{"message": "warned", "endpoint": "mcr.microsoft.com"},
			"message: `warned`",
		},
		{
			"fallback_string",
			map[string]any{"custom": "some detail"},
			"custom: `some detail`",
		},
		{"empty", map[string]any{}, ""},
		{"no_strings", map[string]any{"count": 3.0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractKeyEvidence(tt.evidence); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractKeyEvidence_Truncation(t *testing.T) {
	long := strings.Repeat("x", 150)
	got := extractKeyEvidence(map[string]any{"error": long})
	if !strings.HasSuffix(got, "...`") {
		t.Errorf("not truncated: %q", got)
	}
	if len(got) > 120 {
		t.Errorf("too long after truncation: %d", len(got))
	}
}

func TestTSGSuggestions(t *testing.T) {
	issues := []issueRef{
		{id: "arc.connectivity.dns", title: "DNS Resolution", status: "fail"},
		{id: "aks.arc.flux", title: "Flux GitOps", status: "warn"},
		{id: "custom.check", title: "Unusual Endpoint Behavior", status: "fail"},
	}
	got := tsgSuggestions(issues)

	hasQuery := func(q string) bool {
		for _, s := range got {
			if s == q {
				return true
			}
		}
		return false
	}
	if !hasQuery("Azure Arc DNS resolution") {
		t.Errorf("dns keyword not mapped: %v", got)
	}
	if !hasQuery("AKS Arc Flux GitOps issues") {
		t.Errorf("flux keyword not mapped: %v", got)
	}
}

func TestTSGSuggestions_FallbackTitle(t *testing.T) {
	got := tsgSuggestions([]issueRef{
		{id: "zz.unmatched", title: "Unusual Widget Behavior", status: "fail"},
	})
	if len(got) != 1 || got[0] != "Azure Arc Unusual Widget Behavior" {
		t.Errorf("got %v", got)
	}
}

func TestTSGSuggestions_Dedup(t *testing.T) {
	got := tsgSuggestions([]issueRef{
		{id: "arc.connectivity.dns", status: "fail"},
		{id: "arc.connectivity.tls", status: "fail"},
		{id: "arc.connectivity.http", status: "fail"},
	})
	if len(got) != 1 {
		t.Errorf("got %v, want single deduped suggestion", got)
	}
}

func TestToolDisplayName(t *testing.T) {
	if got := toolDisplayName("arc.connectivity.check"); got != "Azure Connectivity Check" {
		t.Errorf("got %q", got)
	}
	if got := toolDisplayName("some.unknown.tool"); got != "some.unknown.tool" {
		t.Errorf("got %q", got)
	}
}
