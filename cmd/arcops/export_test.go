package main

import (
	"strings"
	"testing"

	"github.com/smitzlroy/arcops-mcp/internal/findings"
)

func sampleFindings() *findings.Findings {
	f := findings.New("cluster", "aks.arc.validate", "quick")
	f.Add(findings.Check{
		ID:       "aks.arc.cni.config",
		Title:    "CNI Configuration",
		Severity: findings.SeverityMedium,
		Status:   findings.StatusPass,
	})
	f.Add(findings.Check{
		ID:       "aks.arc.versions",
		Title:    "Component Versions",
		Severity: findings.SeverityMedium,
		Status:   findings.StatusWarn,
		Hint:     "Kubernetes 1.25.3 is outdated. Consider upgrading to 1.28+.",
	})
	return f
}

func TestExportCSV(t *testing.T) {
	var b strings.Builder
	if err := exportFindings(&b, sampleFindings(), "csv"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[0] != "id,title,severity,status,hint" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "aks.arc.cni.config,CNI Configuration,medium,pass,") {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "warn") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestExportHTML(t *testing.T) {
	var b strings.Builder
	if err := exportFindings(&b, sampleFindings(), "html"); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		"<title>ArcOps Report",
		"CNI Configuration",
		`class="warn"`,
		"1 pass, 0 fail, 1 warn, 0 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestExportJSON(t *testing.T) {
	var b strings.Builder
	if err := exportFindings(&b, sampleFindings(), "json"); err != nil {
		t.Fatal(err)
	}
	reparsed, err := findings.Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("exported JSON is not valid findings: %v", err)
	}
	if reparsed.Summary.Total != 2 {
		t.Errorf("total = %d", reparsed.Summary.Total)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	var b strings.Builder
	if err := exportFindings(&b, sampleFindings(), "yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	path, err := writeArtifact(dir, "validate", map[string]any{"success": true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "validate.json") {
		t.Errorf("path = %q", path)
	}
}
