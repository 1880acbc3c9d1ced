package mcptools

import (
	"context"
	"testing"

	"github.com/smitzlroy/arcops-mcp/internal/tools"
)

type stubTool struct {
	name   string
	result map[string]any
	args   map[string]any
}

func (t *stubTool) Name() string                { return t.name }
func (t *stubTool) Description() string         { return "stub" }
func (t *stubTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }
func (t *stubTool) Execute(_ context.Context, args map[string]any) (map[string]any, error) {
	t.args = args
	return t.result, nil
}

func stageResult(pass, fail, warn int) map[string]any {
	return map[string]any{
		"runId": "20260823-120000-abcd1234",
		"summary": map[string]any{
			"total": pass + fail + warn, "pass": pass, "fail": fail, "warn": warn,
		},
	}
}

func TestDiagnoseFull_Healthy(t *testing.T) {
	reg := tools.NewRegistry()
	conn := &stubTool{name: "arc.connectivity.check", result: stageResult(3, 0, 0)}
	reg.Register(conn)
	reg.Register(&stubTool{name: "aks.arc.validate", result: stageResult(4, 0, 0)})
	reg.Register(&stubTool{name: "aksarc.support.diagnose", result: stageResult(6, 0, 0)})

	out, err := diagnoseFull(context.Background(), reg, DiagnoseFullInput{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if out["overallHealth"] != "healthy" {
		t.Errorf("health = %v", out["overallHealth"])
	}
	stages := out["stages"].([]map[string]any)
	if len(stages) != 3 {
		t.Fatalf("stages = %d", len(stages))
	}
	totals := out["totals"].(map[string]any)
	if totals["pass"] != 13 {
		t.Errorf("pass total = %v", totals["pass"])
	}
	if conn.args["mode"] != "quick" {
		t.Error("connectivity stage not run in quick mode")
	}
	if conn.args["dryRun"] != true {
		t.Error("dryRun not propagated")
	}
}

func TestDiagnoseFull_FailEscalates(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(&stubTool{name: "arc.connectivity.check", result: stageResult(2, 1, 0)})
	reg.Register(&stubTool{name: "aks.arc.validate", result: stageResult(4, 0, 1)})
	reg.Register(&stubTool{name: "aksarc.support.diagnose", result: stageResult(6, 0, 0)})

	out, err := diagnoseFull(context.Background(), reg, DiagnoseFullInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out["overallHealth"] != "critical" {
		t.Errorf("health = %v", out["overallHealth"])
	}
	stages := out["stages"].([]map[string]any)
	if stages[0]["status"] != "fail" || stages[1]["status"] != "warn" || stages[2]["status"] != "pass" {
		t.Errorf("stage statuses = %v %v %v", stages[0]["status"], stages[1]["status"], stages[2]["status"])
	}
}

func TestDiagnoseFull_MissingToolBecomesFailedStage(t *testing.T) {
	reg := tools.NewRegistry()
	reg.Register(&stubTool{name: "arc.connectivity.check", result: stageResult(3, 0, 0)})

	out, err := diagnoseFull(context.Background(), reg, DiagnoseFullInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out["overallHealth"] != "critical" {
		t.Errorf("health = %v", out["overallHealth"])
	}
	stages := out["stages"].([]map[string]any)
	if stages[1]["error"] == nil {
		t.Error("missing tool stage has no error")
	}
}

func TestDiagnoseFull_KubeconfigOnlyForValidate(t *testing.T) {
	reg := tools.NewRegistry()
	conn := &stubTool{name: "arc.connectivity.check", result: stageResult(1, 0, 0)}
	val := &stubTool{name: "aks.arc.validate", result: stageResult(1, 0, 0)}
	sup := &stubTool{name: "aksarc.support.diagnose", result: stageResult(1, 0, 0)}
	reg.Register(conn)
	reg.Register(val)
	reg.Register(sup)

	_, err := diagnoseFull(context.Background(), reg, DiagnoseFullInput{Kubeconfig: "/tmp/kc"})
	if err != nil {
		t.Fatal(err)
	}
	if val.args["kubeconfig"] != "/tmp/kc" {
		t.Error("kubeconfig not passed to validate stage")
	}
	if _, ok := conn.args["kubeconfig"]; ok {
		t.Error("kubeconfig leaked into connectivity stage")
	}
	if _, ok := sup.args["kubeconfig"]; ok {
		t.Error("kubeconfig leaked into support stage")
	}
}

func TestBuildServer(t *testing.T) {
	reg := tools.NewRegistry()
	server := BuildServer(reg, "1.0.0")
	if server == nil {
		t.Fatal("nil server")
	}
}
