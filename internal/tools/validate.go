package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smitzlroy/arcops-mcp/internal/azure"
	"github.com/smitzlroy/arcops-mcp/internal/findings"
	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// expectedExtensions are the Arc extensions a healthy AKS Arc cluster
// usually carries.
var expectedExtensions = []string{
	"microsoft.azuremonitor.containers",
	"microsoft.arc.containerstorage",
	"microsoft.flux",
	"microsoft.azure.policy",
}

// ValidateTool validates AKS Arc cluster invariants: extension presence and
// health, CNI mode, version pins, Flux GitOps. Without a kubeconfig the
// validation is skipped, never failed.
type ValidateTool struct {
	Run   *runner.Runner
	Azure *azure.Context
}

func (t *ValidateTool) Name() string { return "aks.arc.validate" }

func (t *ValidateTool) Description() string {
	return "Validate AKS Arc cluster invariants: extension presence/health, CNI mode, version pins. " +
		"Returns 'skipped' if kubeconfig is unavailable."
}

func (t *ValidateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kubeconfig": map[string]any{"type": "string"},
			"context":    map[string]any{"type": "string"},
			"checks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
					"enum": []string{"extensions", "cni", "versions", "flux", "all"},
				},
				"default": []string{"all"},
			},
			"dryRun": map[string]any{"type": "boolean", "default": false},
		},
	}
}

type extensionInfo struct {
	Name    string
	Status  string
	Healthy bool
	Version string
}

type clusterData struct {
	Extensions []extensionInfo
	CNIPlugin  string
	CNIMode    string
	PodCIDR    string
	Versions   map[string]string
	Flux       fluxInfo
}

type fluxInfo struct {
	Installed       bool
	Version         string
	GitRepositories int
	Kustomizations  int
	Reconciled      bool
}

func (t *ValidateTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	kubeconfig := getString(args, "kubeconfig", "")
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig == "" {
		home, _ := os.UserHomeDir()
		kubeconfig = filepath.Join(home, ".kube", "config")
	}
	kubeContext := getString(args, "context", "")
	checks := getStringSlice(args, "checks")
	if len(checks) == 0 {
		checks = []string{"all"}
	}
	dryRun := getBool(args, "dryRun", false)

	f := findings.New("cluster", t.Name(), "")

	if !dryRun && !fileExists(kubeconfig) {
		f.Add(findings.Check{
			ID:       "aks.arc.kubeconfig",
			Title:    "Kubernetes Configuration",
			Severity: findings.SeverityHigh,
			Status:   findings.StatusSkipped,
			Evidence: map[string]any{"kubeconfigPath": kubeconfig, "exists": false},
			Hint: fmt.Sprintf("Kubeconfig not found at %s. Set KUBECONFIG environment variable or provide --kubeconfig path. "+
				"This check will be skipped until kubeconfig is available.", kubeconfig),
			Sources: []findings.SourceRef{validateSource("aks-arc-validation", "AKS Arc Validation")},
		})
		return f.ToMap(), nil
	}

	f.SetExtra("kubeconfig", kubeconfig)
	if kubeContext != "" {
		f.SetExtra("context", kubeContext)
	}
	f.SetExtra("dryRun", dryRun)

	for _, c := range checks {
		if c == "all" {
			checks = []string{"extensions", "cni", "versions", "flux"}
			break
		}
	}

	var data clusterData
	if dryRun {
		data = fixtureClusterData()
	} else {
		data = t.collectClusterData(ctx, kubeconfig, kubeContext)
	}

	for _, c := range checks {
		switch c {
		case "extensions":
			checkExtensions(f, data)
		case "cni":
			checkCNI(f, data)
		case "versions":
			checkVersions(f, data)
		case "flux":
			checkFlux(f, data)
		}
	}

	return f.ToMap(), nil
}

// fixtureClusterData is the dry-run cluster snapshot, one unhealthy
// extension included so the warn path stays exercised.
func fixtureClusterData() clusterData {
	return clusterData{
		Extensions: []extensionInfo{
			{Name: "microsoft.azuremonitor.containers", Status: "Installed", Healthy: true},
			{Name: "microsoft.flux", Status: "Installed", Healthy: true},
			{Name: "microsoft.azure.policy", Status: "Installed", Healthy: false},
		},
		CNIPlugin: "azure",
		CNIMode:   "overlay",
		PodCIDR:   "10.244.0.0/16",
		Versions: map[string]string{
			"kubernetes": "1.28.5",
			"arcAgent":   "1.15.0",
		},
		Flux: fluxInfo{
			Installed:       true,
			Version:         "2.2.0",
			GitRepositories: 2,
			Kustomizations:  3,
			Reconciled:      true,
		},
	}
}

// collectClusterData gathers live cluster state: kubectl for in-cluster
// facts, az for Arc extension inventory. Individual collection failures
// leave fields unknown instead of aborting.
func (t *ValidateTool) collectClusterData(ctx context.Context, kubeconfig, kubeContext string) clusterData {
	data := clusterData{Versions: map[string]string{}}

	base := []string{"--kubeconfig=" + kubeconfig}
	if kubeContext != "" {
		base = append(base, "--context", kubeContext)
	}
	kubectl := func(args ...string) runner.Result {
		return t.Run.Run(ctx, "kubectl", append(append([]string{}, base...), args...)...)
	}

	if res := kubectl("version", "-o", "json"); res.Success {
		var v struct {
			ServerVersion struct {
				GitVersion string `json:"gitVersion"`
			} `json:"serverVersion"`
		}
		if err := json.Unmarshal([]byte(res.Stdout), &v); err == nil {
			data.Versions["kubernetes"] = strings.TrimPrefix(v.ServerVersion.GitVersion, "v")
		}
	} else {
		slog.Warn("kubectl version failed", slog.String("stderr", res.Stderr))
		data.Versions["kubernetes"] = "unknown"
	}

	data.CNIPlugin = t.detectCNI(kubectl)

	if version := t.arcAgentVersion(kubectl); version != "" {
		data.Versions["arcAgent"] = version
	}

	data.Extensions = t.arcExtensions(ctx, kubectl)
	data.Flux = t.fluxStatus(kubectl)
	return data
}

type podList struct {
	Items []struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Spec struct {
			Containers []struct {
				Name  string `json:"name"`
				Image string `json:"image"`
			} `json:"containers"`
		} `json:"spec"`
		Status struct {
			Phase string `json:"phase"`
		} `json:"status"`
	} `json:"items"`
}

func (t *ValidateTool) detectCNI(kubectl func(...string) runner.Result) string {
	res := kubectl("get", "pods", "-n", "kube-system", "-o", "json")
	if !res.Success {
		return "unknown"
	}
	var pods podList
	if err := json.Unmarshal([]byte(res.Stdout), &pods); err != nil {
		return "unknown"
	}
	for _, pod := range pods.Items {
		name := pod.Metadata.Name
		switch {
		case strings.Contains(name, "azure-cni") || strings.Contains(name, "azure-ip"):
			return "azure"
		case strings.Contains(name, "calico"):
			return "calico"
		case strings.Contains(name, "flannel"):
			return "flannel"
		case strings.Contains(name, "cilium"):
			return "cilium"
		}
	}
	return "unknown"
}

func (t *ValidateTool) arcAgentVersion(kubectl func(...string) runner.Result) string {
	res := kubectl("get", "pods", "-n", "azure-arc", "-o", "json")
	if !res.Success {
		return ""
	}
	var pods podList
	if err := json.Unmarshal([]byte(res.Stdout), &pods); err != nil {
		return ""
	}
	for _, pod := range pods.Items {
		for _, c := range pod.Spec.Containers {
			if strings.Contains(strings.ToLower(c.Name), "arc") {
				if idx := strings.LastIndex(c.Image, ":"); idx >= 0 {
					return c.Image[idx+1:]
				}
			}
		}
	}
	return ""
}

// arcExtensions resolves the connected cluster identity from the azure-arc
// configmap, then queries extensions through az.
func (t *ValidateTool) arcExtensions(ctx context.Context, kubectl func(...string) runner.Result) []extensionInfo {
	res := kubectl("get", "configmap", "azure-clusterconfig", "-n", "azure-arc", "-o", "json")
	if !res.Success {
		return nil
	}
	var cm struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &cm); err != nil {
		return nil
	}
	name := cm.Data["AZURE_RESOURCE_NAME"]
	rg := cm.Data["AZURE_RESOURCE_GROUP"]
	if name == "" || rg == "" {
		return nil
	}

	exts, err := t.Azure.ClusterExtensions(ctx, name, rg)
	if err != nil {
		slog.Warn("extension lookup failed", slog.String("cluster", name), slog.Any("error", err))
		return nil
	}
	out := make([]extensionInfo, 0, len(exts))
	for _, e := range exts {
		extName := e.ExtensionType
		if extName == "" {
			extName = e.Name
		}
		out = append(out, extensionInfo{
			Name:    extName,
			Status:  e.ProvisioningState,
			Healthy: e.ProvisioningState == "Succeeded",
			Version: e.Version,
		})
	}
	return out
}

func (t *ValidateTool) fluxStatus(kubectl func(...string) runner.Result) fluxInfo {
	res := kubectl("get", "pods", "-n", "flux-system", "-o", "json")
	if !res.Success {
		return fluxInfo{}
	}
	var pods podList
	if err := json.Unmarshal([]byte(res.Stdout), &pods); err != nil {
		return fluxInfo{}
	}

	info := fluxInfo{Installed: len(pods.Items) > 0}
	allRunning := true
	for _, pod := range pods.Items {
		if pod.Status.Phase != "Running" {
			allRunning = false
		}
		if strings.Contains(pod.Metadata.Name, "source-controller") {
			for _, c := range pod.Spec.Containers {
				if idx := strings.LastIndex(c.Image, ":"); idx >= 0 {
					info.Version = c.Image[idx+1:]
				}
			}
		}
	}
	info.Reconciled = info.Installed && allRunning

	if res := kubectl("get", "gitrepositories", "-A", "--no-headers"); res.Success {
		info.GitRepositories = countLines(res.Stdout)
	}
	if res := kubectl("get", "kustomizations", "-A", "--no-headers"); res.Success {
		info.Kustomizations = countLines(res.Stdout)
	}
	return info
}

func countLines(s string) int {
	n := 0
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func checkExtensions(f *findings.Findings, data clusterData) {
	byName := map[string]extensionInfo{}
	for _, ext := range data.Extensions {
		byName[ext.Name] = ext
	}

	for _, expected := range expectedExtensions {
		checkID := "aks.arc.extension." + strings.ReplaceAll(expected, ".", "_")
		ext, installed := byName[expected]

		if !installed {
			f.Add(findings.Check{
				ID:       checkID,
				Title:    "Arc Extension: " + expected,
				Severity: findings.SeverityMedium,
				Status:   findings.StatusWarn,
				Evidence: map[string]any{"extension": expected, "installed": false},
				Hint:     fmt.Sprintf("Extension %s is not installed. Install via Azure Portal or CLI.", expected),
				Sources:  []findings.SourceRef{validateSource("arc-extensions", "Arc Extensions")},
			})
			continue
		}

		status := findings.StatusPass
		severity := findings.SeverityLow
		hint := ""
		if !ext.Healthy {
			status = findings.StatusWarn
			severity = findings.SeverityMedium
			hint = fmt.Sprintf("Extension %s is unhealthy. Check extension logs.", expected)
		}
		f.Add(findings.Check{
			ID:       checkID,
			Title:    "Arc Extension: " + expected,
			Severity: severity,
			Status:   status,
			Evidence: map[string]any{
				"extension": expected,
				"installed": true,
				"status":    ext.Status,
				"healthy":   ext.Healthy,
			},
			Hint:    hint,
			Sources: []findings.SourceRef{validateSource("arc-extensions", "Arc Extensions")},
		})
	}
}

func checkCNI(f *findings.Findings, data clusterData) {
	status := findings.StatusPass
	hint := ""
	switch data.CNIPlugin {
	case "azure", "calico", "flannel":
	default:
		status = findings.StatusWarn
		hint = fmt.Sprintf("CNI plugin '%s' may not be fully supported. Recommended: azure, calico, flannel.", data.CNIPlugin)
	}

	f.Add(findings.Check{
		ID:       "aks.arc.cni.config",
		Title:    "CNI Configuration",
		Severity: findings.SeverityMedium,
		Status:   status,
		Evidence: map[string]any{
			"plugin":  data.CNIPlugin,
			"mode":    data.CNIMode,
			"podCidr": data.PodCIDR,
		},
		Hint:    hint,
		Sources: []findings.SourceRef{validateSource("aks-arc-networking", "AKS Arc Networking")},
	})
}

func checkVersions(f *findings.Findings, data clusterData) {
	k8s := data.Versions["kubernetes"]
	status := findings.StatusPass
	hint := ""

	if minor, ok := kubernetesMinor(k8s); ok && minor < 26 {
		status = findings.StatusWarn
		hint = fmt.Sprintf("Kubernetes %s is outdated. Consider upgrading to 1.28+.", k8s)
	}

	evidence := map[string]any{}
	for k, v := range data.Versions {
		evidence[k] = v
	}
	f.Add(findings.Check{
		ID:       "aks.arc.versions",
		Title:    "Version Compatibility",
		Severity: findings.SeverityMedium,
		Status:   status,
		Evidence: evidence,
		Hint:     hint,
		Sources:  []findings.SourceRef{validateSource("aks-arc-versions", "AKS Arc Supported Versions")},
	})
}

func kubernetesMinor(version string) (int, bool) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 || parts[0] != "1" {
		return 0, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return minor, true
}

func checkFlux(f *findings.Findings, data clusterData) {
	flux := data.Flux
	if !flux.Installed {
		f.Add(findings.Check{
			ID:       "aks.arc.flux",
			Title:    "Flux GitOps",
			Severity: findings.SeverityLow,
			Status:   findings.StatusSkipped,
			Evidence: map[string]any{"installed": false},
			Hint:     "Flux is not installed. Install if GitOps is required.",
			Sources:  []findings.SourceRef{validateSource("arc-gitops", "Arc GitOps with Flux")},
		})
		return
	}

	status := findings.StatusPass
	hint := ""
	if !flux.Reconciled {
		status = findings.StatusWarn
		hint = "Flux sources are not reconciled. Check Flux logs."
	}
	f.Add(findings.Check{
		ID:       "aks.arc.flux",
		Title:    "Flux GitOps",
		Severity: findings.SeverityMedium,
		Status:   status,
		Evidence: map[string]any{
			"installed":       flux.Installed,
			"version":         flux.Version,
			"gitRepositories": flux.GitRepositories,
			"kustomizations":  flux.Kustomizations,
			"reconciled":      flux.Reconciled,
		},
		Hint:    hint,
		Sources: []findings.SourceRef{validateSource("arc-gitops", "Arc GitOps with Flux")},
	})
}

func validateSource(anchor, label string) findings.SourceRef {
	return findings.SourceRef{Type: "doc", Label: label, URL: "docs/SOURCES.md#" + anchor}
}
