package chat

import (
	"fmt"
	"strings"
)

// summarizeToolResults renders executed tool results as markdown the chat UI
// can show directly, including TSG search suggestions for any issues found.
func summarizeToolResults(results []ToolResult) string {
	var lines []string
	var allIssues []issueRef

	for _, tr := range results {
		result := tr.Result
		if result == nil {
			continue
		}

		if tr.Tool == "azlocal.tsg.search" {
			lines = append(lines, summarizeTSGResult(result))
			continue
		}

		checks, _ := result["checks"].([]any)
		summary, _ := result["summary"].(map[string]any)

		if len(checks) == 0 && summary == nil {
			if errMsg, ok := result["error"].(string); ok && errMsg != "" {
				lines = append(lines, fmt.Sprintf("**%s**: Error - %s", toolDisplayName(tr.Tool), errMsg))
			}
			continue
		}

		passCount := intField(summary, "pass")
		warnCount := intField(summary, "warn")
		failCount := intField(summary, "fail")
		total := intField(summary, "total")
		if total == 0 {
			total = len(checks)
		}

		var status string
		switch {
		case failCount > 0:
			status = fmt.Sprintf("%d failed", failCount)
		case warnCount > 0:
			status = fmt.Sprintf("%d warnings", warnCount)
		default:
			status = fmt.Sprintf("All %d checks passed", passCount)
		}
		lines = append(lines, fmt.Sprintf("**%s**: %s (out of %d checks)", toolDisplayName(tr.Tool), status, total))

		issues := failingChecks(checks)
		if len(issues) > 0 {
			lines = append(lines, "\n**Issues found:**")
			for i, issue := range issues {
				if i >= 5 {
					break
				}
				lines = append(lines, fmt.Sprintf("- **%s** (%s)", issue.title, issue.status))
				if issue.id != "" {
					lines = append(lines, fmt.Sprintf("  Check ID: `%s`", issue.id))
				}
				if issue.hint != "" {
					lines = append(lines, fmt.Sprintf("  Hint: %s", issue.hint))
				}
				if ev := extractKeyEvidence(issue.evidence); ev != "" {
					lines = append(lines, fmt.Sprintf("  Evidence: %s", ev))
				}
				allIssues = append(allIssues, issue)
			}
		}

		if passCount > 0 && failCount == 0 && warnCount == 0 {
			lines = append(lines, "\nAll connectivity and validation checks passed. Your Azure connection is healthy.")
		}
	}

	if suggestions := tsgSuggestions(allIssues); len(suggestions) > 0 {
		lines = append(lines, "\n---", "**Suggested Troubleshooting Guide Searches:**")
		for i, s := range suggestions {
			if i >= 3 {
				break
			}
			lines = append(lines, fmt.Sprintf("- Search TSG for: *\"%s\"*", s))
		}
		lines = append(lines, "\n*Ask me to search any of these to find solutions.*")
	}

	if len(lines) == 0 {
		return "I ran the diagnostic tools but couldn't parse the results. Please check the detailed output below."
	}
	return strings.Join(lines, "\n")
}

// summarizeTSGResult renders a TSG search result list.
func summarizeTSGResult(result map[string]any) string {
	query, _ := result["query"].(string)
	items, _ := result["results"].([]any)
	if len(items) == 0 {
		return fmt.Sprintf("\n**TSG Search**: No results for '%s'", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n**TSG Search Results** (query: '%s'):", query)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := entry["title"].(string)
		url, _ := entry["url"].(string)
		summary, _ := entry["summary"].(string)
		fmt.Fprintf(&b, "\n- **%s**", title)
		if summary != "" {
			fmt.Fprintf(&b, "\n  %s", summary)
		}
		if url != "" {
			fmt.Fprintf(&b, "\n  %s", url)
		}
	}
	return b.String()
}

// issueRef is a fail or warn check captured for TSG auto-suggestions.
type issueRef struct {
	id       string
	title    string
	status   string
	hint     string
	evidence map[string]any
}

func failingChecks(checks []any) []issueRef {
	var out []issueRef
	for _, c := range checks {
		check, ok := c.(map[string]any)
		if !ok {
			continue
		}
		status, _ := check["status"].(string)
		if status != "fail" && status != "warn" {
			continue
		}
		ref := issueRef{status: status}
		ref.id, _ = check["id"].(string)
		ref.title, _ = check["title"].(string)
		ref.hint, _ = check["hint"].(string)
		ref.evidence, _ = check["evidence"].(map[string]any)
		if ref.title == "" {
			ref.title = "Unknown check"
		}
		out = append(out, ref)
	}
	return out
}

// evidencePriorityKeys are shown first when summarizing check evidence.
var evidencePriorityKeys = []string{"error", "message", "endpoint", "errorDetails", "actual", "expected"}

// extractKeyEvidence picks the most relevant evidence field for display.
func extractKeyEvidence(evidence map[string]any) string {
	for _, key := range evidencePriorityKeys {
		if v, ok := evidence[key]; ok && v != nil && v != "" {
			s := fmt.Sprintf("%v", v)
			if len(s) > 100 {
				s = s[:100] + "..."
			}
			return fmt.Sprintf("%s: `%s`", key, s)
		}
	}
	for key, v := range evidence {
		if s, ok := v.(string); ok && s != "" {
			if len(s) > 80 {
				s = s[:80] + "..."
			}
			return fmt.Sprintf("%s: `%s`", key, s)
		}
	}
	return ""
}

// tsgQueryByKeyword maps check id/title/hint substrings to TSG search queries.
var tsgQueryByKeyword = []struct {
	keyword string
	query   string
}{
	{"arc.connectivity", "Azure Arc connectivity troubleshooting"},
	{"arc.gateway", "Azure Arc gateway connectivity"},
	{"aks.arc.connectivity", "AKS Arc cluster connection issues"},
	{"firewall", "Azure Arc firewall requirements"},
	{"dns", "Azure Arc DNS resolution"},
	{"proxy", "Azure Arc proxy configuration"},
	{"tls", "Azure Arc TLS certificate issues"},
	{"ssl", "Azure Arc SSL certificate"},
	{"egress", "Azure Arc egress requirements"},
	{"monitoring", "Azure Arc monitoring endpoints"},
	{"telemetry", "Azure Arc telemetry configuration"},
	{"visualstudio", "Azure monitoring Visual Studio endpoint"},
	{"cluster.offline", "AKS Arc cluster offline troubleshooting"},
	{"extension", "AKS Arc extension installation"},
	{"agent", "Azure Arc agent troubleshooting"},
	{"provisioning", "AKS Arc provisioning failed"},
	{"cni", "AKS Arc CNI troubleshooting"},
	{"flux", "AKS Arc Flux GitOps issues"},
	{"hardware", "Azure Local hardware requirements"},
	{"memory", "Azure Local memory requirements"},
	{"disk", "Azure Local disk requirements"},
	{"network", "Azure Local network configuration"},
	{"hyperv", "Hyper-V requirements Azure Local"},
	{"cpu", "Azure Local CPU requirements"},
	{"storage", "Azure Local storage requirements"},
}

// tsgSuggestions turns found issues into TSG search queries, falling back to
// the check title when no keyword matches.
func tsgSuggestions(issues []issueRef) []string {
	var suggestions []string
	seen := map[string]bool{}

	add := func(q string) {
		if !seen[q] {
			seen[q] = true
			suggestions = append(suggestions, q)
		}
	}

	for _, issue := range issues {
		id := strings.ToLower(issue.id)
		title := strings.ToLower(issue.title)
		hint := strings.ToLower(issue.hint)

		matched := false
		for _, m := range tsgQueryByKeyword {
			if strings.Contains(id, m.keyword) || strings.Contains(title, m.keyword) || strings.Contains(hint, m.keyword) {
				add(m.query)
				matched = true
				break
			}
		}
		if !matched && issue.title != "" {
			clean := strings.TrimSpace(strings.NewReplacer("Check", "", "Egress", "").Replace(issue.title))
			if len(clean) > 5 {
				add("Azure Arc " + clean)
			}
		}
	}
	return suggestions
}

// SuggestTSGQueries maps failing check maps (id/title/status/hint) to TSG
// search queries, deduplicated, most specific keyword first.
func SuggestTSGQueries(issues []map[string]any) []string {
	refs := make([]issueRef, 0, len(issues))
	for _, issue := range issues {
		ref := issueRef{}
		ref.id, _ = issue["id"].(string)
		ref.title, _ = issue["title"].(string)
		ref.status, _ = issue["status"].(string)
		ref.hint, _ = issue["hint"].(string)
		refs = append(refs, ref)
	}
	return tsgSuggestions(refs)
}

// toolDisplayName returns the chat UI name for a tool id.
func toolDisplayName(id string) string {
	return toolMeta(id).Name
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
