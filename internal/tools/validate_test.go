package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smitzlroy/arcops-mcp/internal/findings"
)

func TestValidate_MissingKubeconfig(t *testing.T) {
	tool := &ValidateTool{}
	missing := filepath.Join(t.TempDir(), "no-such-kubeconfig")
	result, err := tool.Execute(context.Background(), map[string]any{"kubeconfig": missing})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	f := asFindings(t, result)
	if len(f.Checks) != 1 {
		t.Fatalf("got %d checks, want 1", len(f.Checks))
	}
	c := f.Checks[0]
	if c.ID != "aks.arc.kubeconfig" {
		t.Errorf("id = %q", c.ID)
	}
	if c.Status != findings.StatusSkipped {
		t.Errorf("status = %s, want skipped", c.Status)
	}
	if c.Hint == "" {
		t.Error("skipped kubeconfig check should explain how to fix it")
	}
}

func TestValidate_DryRun(t *testing.T) {
	tool := &ValidateTool{}
	result, err := tool.Execute(context.Background(), map[string]any{"dryRun": true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	f := asFindings(t, result)
	// 4 extension checks + cni + versions + flux.
	if len(f.Checks) != 7 {
		t.Fatalf("got %d checks, want 7", len(f.Checks))
	}
	// Fixture has one missing and one unhealthy extension.
	if f.Summary.Warn != 2 {
		t.Errorf("summary = %+v, want 2 warns", f.Summary)
	}
	if f.Summary.Fail != 0 {
		t.Errorf("dry run should not fail: %+v", f.Summary)
	}

	byID := map[string]findings.Check{}
	for _, c := range f.Checks {
		byID[c.ID] = c
	}
	if c := byID["aks.arc.extension.microsoft_arc_containerstorage"]; c.Status != findings.StatusWarn {
		t.Errorf("missing extension status = %s, want warn", c.Status)
	}
	if c := byID["aks.arc.extension.microsoft_azure_policy"]; c.Status != findings.StatusWarn {
		t.Errorf("unhealthy extension status = %s, want warn", c.Status)
	}
	if c := byID["aks.arc.cni.config"]; c.Status != findings.StatusPass {
		t.Errorf("cni status = %s, want pass for azure plugin", c.Status)
	}
	if c := byID["aks.arc.flux"]; c.Status != findings.StatusPass {
		t.Errorf("flux status = %s, want pass", c.Status)
	}
}

func TestValidate_SelectedChecks(t *testing.T) {
	tool := &ValidateTool{}
	result, err := tool.Execute(context.Background(), map[string]any{
		"dryRun": true,
		"checks": []any{"cni"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	f := asFindings(t, result)
	if len(f.Checks) != 1 || f.Checks[0].ID != "aks.arc.cni.config" {
		t.Fatalf("checks = %+v, want only cni", f.Checks)
	}
}

func TestCheckVersions_Outdated(t *testing.T) {
	f := findings.New("cluster", "aks.arc.validate", "")
	checkVersions(f, clusterData{Versions: map[string]string{"kubernetes": "1.25.3"}})

	if len(f.Checks) != 1 {
		t.Fatalf("got %d checks", len(f.Checks))
	}
	c := f.Checks[0]
	if c.Status != findings.StatusWarn {
		t.Errorf("status = %s, want warn for 1.25", c.Status)
	}
	if c.Hint == "" {
		t.Error("outdated version should carry an upgrade hint")
	}
}

func TestCheckCNI_UnknownPlugin(t *testing.T) {
	f := findings.New("cluster", "aks.arc.validate", "")
	checkCNI(f, clusterData{CNIPlugin: "unknown"})

	if f.Checks[0].Status != findings.StatusWarn {
		t.Errorf("status = %s, want warn for unknown plugin", f.Checks[0].Status)
	}
}

func TestCheckFlux_NotInstalled(t *testing.T) {
	f := findings.New("cluster", "aks.arc.validate", "")
	checkFlux(f, clusterData{})

	if f.Checks[0].Status != findings.StatusSkipped {
		t.Errorf("status = %s, want skipped when flux absent", f.Checks[0].Status)
	}
}

func TestKubernetesMinor(t *testing.T) {
	tests := []struct {
		version string
		want    int
		ok      bool
	}{
		{"1.28.5", 28, true},
		{"1.25", 25, true},
		{"2.0.0", 0, false},
		{"unknown", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := kubernetesMinor(tt.version)
		if got != tt.want || ok != tt.ok {
			t.Errorf("kubernetesMinor(%q) = %d, %v; want %d, %v", tt.version, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCountLines(t *testing.T) {
	if got := countLines("a\nb\n\nc\n"); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	if got := countLines(""); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
