package tools

import (
	"context"
	"sort"
)

// topic is one educational entry served by ExplainTool.
type topic struct {
	Title       string
	Description string
	Content     string
	Links       []string
	Related     []string
}

var explainTopics = map[string]topic{
	"connectivity": {
		Title:       "Azure Arc Connectivity",
		Description: "How Arc-enabled infrastructure talks to Azure",
		Content: "Azure Arc agents require outbound HTTPS (443) to a set of Azure endpoints: " +
			"management.azure.com for ARM operations, login.microsoftonline.com for authentication, " +
			"mcr.microsoft.com for container images, and gbl.his.arc.azure.com for the hybrid identity service. " +
			"Corporate proxies and firewalls are the most common blockers. Run arc.connectivity.check to verify " +
			"each endpoint, or arc.gateway.egress.check when traffic flows through the Arc gateway.",
		Links: []string{
			"https://learn.microsoft.com/azure/azure-arc/servers/network-requirements",
			"docs/SOURCES.md#arc-required-endpoints",
		},
		Related: []string{"cluster_validation", "known_issues", "learning_path"},
	},
	"cluster_validation": {
		Title:       "AKS Arc Cluster Validation",
		Description: "What a healthy AKS Arc cluster looks like",
		Content: "A healthy AKS Arc cluster has its Arc extensions provisioned (Azure Monitor, Flux, Policy), " +
			"a supported CNI plugin (azure, calico, or flannel), a Kubernetes version inside the support window, " +
			"and reconciled GitOps sources when Flux is in use. aks.arc.validate checks each of these and " +
			"reports warnings for drift rather than hard failures.",
		Links: []string{
			"https://learn.microsoft.com/azure/aks/hybrid/",
			"docs/SOURCES.md#aks-arc-validation",
		},
		Related: []string{"known_issues", "connectivity", "logs_collection"},
	},
	"known_issues": {
		Title:       "AKS Arc Known Issues",
		Description: "Host-level issues the Support.AksArc module detects",
		Content: "The Support.AksArc PowerShell module checks the failover cluster service, MOC cloud and node " +
			"agents, MOC version drift, certificate expiry, and VMMS responsiveness. Certificate and agent " +
			"problems are the highest-impact failures and usually surface as clusters stuck in provisioning. " +
			"Run aksarc.support.diagnose to execute the full known-issue sweep.",
		Links: []string{
			"https://github.com/Azure/AzureLocal-Supportability",
			"docs/SOURCES.md#aks-arc-known-issues",
		},
		Related: []string{"tsg_search", "logs_collection", "cluster_validation"},
	},
	"tsg_search": {
		Title:       "Troubleshooting Guide Search",
		Description: "Finding the right TSG for an error message",
		Content: "The AzLocalTSGTool module indexes the AzureLocal-Supportability GitHub repository and ranks " +
			"guides by relevance. Search with the exact error message first; fall back to symptom keywords " +
			"(connectivity, certificate, provisioning) if nothing matches. azlocal.tsg.search wraps the module " +
			"and returns ranked results with links.",
		Links: []string{
			"https://github.com/Azure/AzureLocal-Supportability",
		},
		Related: []string{"known_issues", "learning_path", "connectivity"},
	},
	"logs_collection": {
		Title:       "AKS Arc Log Collection",
		Description: "Collecting on-premises logs for support cases",
		Content: "'az aksarc get-logs' gathers node and control plane logs over SSH. It needs either the " +
			"control plane IP or a kubeconfig, plus a credentials directory holding the SSH keys created at " +
			"deployment. Collection can take several minutes and produces tar.gz archives. " +
			"aksarc.logs.collect wraps the command; arcops.diagnostics.bundle packages the archives with " +
			"findings for a support case.",
		Links: []string{
			"https://learn.microsoft.com/azure/aks/hybrid/get-on-demand-logs",
		},
		Related: []string{"known_issues", "cluster_validation", "tsg_search"},
	},
	"learning_path": {
		Title:       "Diagnostics Learning Path",
		Description: "Suggested order for learning the diagnostic workflow",
		Content: "Start with connectivity: most Arc problems are network problems. Then validate the cluster " +
			"(extensions, versions, CNI), sweep for known host issues, and learn to search TSGs for anything " +
			"unfamiliar. Finish with log collection and bundling so you can hand a complete package to support. " +
			"Every tool supports dryRun, so the whole path can be practiced without live infrastructure.",
		Links: []string{
			"docs/SOURCES.md",
		},
		Related: []string{"connectivity", "cluster_validation", "known_issues"},
	},
}

// ExplainTool serves educational content about the diagnostic domain. It is
// fully local and needs no external tooling.
type ExplainTool struct{}

func (t *ExplainTool) Name() string { return "arcops.explain" }

func (t *ExplainTool) Description() string {
	return "Explain Azure Arc diagnostic concepts and workflows. " +
		"Use topic 'list' to enumerate available topics."
}

func (t *ExplainTool) InputSchema() map[string]any {
	names := topicNames()
	return map[string]any{
		"type":     "object",
		"required": []string{"topic"},
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"description": "Topic name, or 'list' to enumerate topics",
				"enum":        append([]string{"list"}, names...),
			},
		},
	}
}

func (t *ExplainTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	name := getString(args, "topic", "list")

	if name == "list" {
		var topics []map[string]any
		for _, n := range topicNames() {
			tp := explainTopics[n]
			topics = append(topics, map[string]any{
				"topic":       n,
				"title":       tp.Title,
				"description": tp.Description,
			})
		}
		return map[string]any{"success": true, "topics": topics}, nil
	}

	tp, ok := explainTopics[name]
	if !ok {
		return map[string]any{
			"success": false,
			"error":   "Unknown topic: " + name,
			"hint":    "Use topic 'list' to see available topics",
		}, nil
	}

	related := tp.Related
	if len(related) > 3 {
		related = related[:3]
	}
	return map[string]any{
		"success":        true,
		"topic":          name,
		"title":          tp.Title,
		"description":    tp.Description,
		"content":        tp.Content,
		"links":          tp.Links,
		"related_topics": related,
	}, nil
}

func topicNames() []string {
	names := make([]string, 0, len(explainTopics))
	for n := range explainTopics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
