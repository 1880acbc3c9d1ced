package tools

import (
	"context"
	"testing"

	"github.com/smitzlroy/arcops-mcp/internal/findings"
)

func TestEnvCheck_DryRun(t *testing.T) {
	tool := &EnvCheckTool{}
	result, err := tool.Execute(context.Background(), map[string]any{"dryRun": true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	f := asFindings(t, result)
	if f.Target != "host" {
		t.Errorf("target = %q", f.Target)
	}
	if len(f.Checks) != 4 {
		t.Fatalf("got %d checks, want 4", len(f.Checks))
	}
	if f.Summary.Pass != 3 || f.Summary.Warn != 1 {
		t.Errorf("summary = %+v, want 3 pass 1 warn", f.Summary)
	}
	if sim, _ := f.Metadata.Extra["simulated"].(bool); !sim {
		t.Error("simulated metadata not set")
	}
}

func TestNormalizeCheckerOutput_Unparseable(t *testing.T) {
	f := findings.New("host", "azlocal.envcheck.wrap", "quick")
	normalizeCheckerOutput(f, []byte("not json at all"))

	if len(f.Checks) != 1 {
		t.Fatalf("got %d checks, want 1", len(f.Checks))
	}
	c := f.Checks[0]
	if c.ID != "azlocal.envcheck.execution" || c.Status != findings.StatusFail {
		t.Errorf("got %s/%s, want execution failure check", c.ID, c.Status)
	}
}

func TestNormalizeCheckerOutput_CheckIDs(t *testing.T) {
	f := findings.New("host", "azlocal.envcheck.wrap", "quick")
	normalizeCheckerOutput(f, []byte(`{"checks":[{"name":"Time Sync","status":"Warning","details":"drift"}]}`))

	if len(f.Checks) != 1 {
		t.Fatalf("got %d checks, want 1", len(f.Checks))
	}
	c := f.Checks[0]
	if c.ID != "azlocal.time_sync" {
		t.Errorf("id = %q", c.ID)
	}
	if c.Title != "Azure Local - Time Sync" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Status != findings.StatusWarn {
		t.Errorf("status = %s", c.Status)
	}
}

func TestMapCheckerStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want findings.Status
	}{
		{"Passed", findings.StatusPass},
		{"OK", findings.StatusPass},
		{"Success", findings.StatusPass},
		{"Failed", findings.StatusFail},
		{"Error", findings.StatusFail},
		{"Warning", findings.StatusWarn},
		{"Skipped", findings.StatusSkipped},
		{"SomethingNew", findings.StatusWarn},
	}
	for _, tt := range tests {
		if got := mapCheckerStatus(tt.raw); got != tt.want {
			t.Errorf("mapCheckerStatus(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestEnvcheckSeverity(t *testing.T) {
	tests := []struct {
		name   string
		status findings.Status
		want   string
	}{
		{"Connectivity", findings.StatusFail, findings.SeverityHigh},
		{"DNS Resolution", findings.StatusFail, findings.SeverityHigh},
		{"Disk Space", findings.StatusFail, findings.SeverityMedium},
		{"TLS", findings.StatusWarn, findings.SeverityMedium},
		{"NTP", findings.StatusWarn, findings.SeverityLow},
		{"Anything", findings.StatusPass, findings.SeverityLow},
	}
	for _, tt := range tests {
		if got := envcheckSeverity(tt.name, tt.status); got != tt.want {
			t.Errorf("envcheckSeverity(%q, %s) = %s, want %s", tt.name, tt.status, got, tt.want)
		}
	}
}

func TestEnvcheckHint(t *testing.T) {
	if hint := envcheckHint("Connectivity", findings.StatusPass); hint != "" {
		t.Errorf("passing check should have no hint, got %q", hint)
	}
	if hint := envcheckHint("NTP Sync", findings.StatusWarn); hint == "" {
		t.Error("ntp warn should carry a hint")
	}
}
