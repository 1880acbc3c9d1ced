package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEndpoints_Builtin(t *testing.T) {
	cat, err := LoadEndpoints("")
	if err != nil {
		t.Fatalf("LoadEndpoints: %v", err)
	}
	if len(cat.Endpoints) == 0 {
		t.Fatal("built-in catalog is empty")
	}

	byFQDN := map[string]Endpoint{}
	for _, ep := range cat.Endpoints {
		byFQDN[ep.FQDN] = ep
	}
	for _, fqdn := range KeyEndpoints {
		ep, ok := byFQDN[fqdn]
		if !ok {
			t.Errorf("key endpoint %s missing from built-in catalog", fqdn)
			continue
		}
		if !ep.Required || ep.Port != 443 {
			t.Errorf("key endpoint %s: got %+v", fqdn, ep)
		}
	}
}

func TestLoadEndpoints_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	yaml := "endpoints:\n  - fqdn: example.com\n    port: 8443\n    tls: true\n    required: false\n    category: custom\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadEndpoints(path)
	if err != nil {
		t.Fatalf("LoadEndpoints: %v", err)
	}
	if len(cat.Endpoints) != 1 || cat.Endpoints[0].FQDN != "example.com" {
		t.Errorf("got %+v", cat.Endpoints)
	}
}

func TestLoadEndpoints_MissingPathFallsBack(t *testing.T) {
	cat, err := LoadEndpoints(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadEndpoints: %v", err)
	}
	if len(cat.Endpoints) == 0 {
		t.Error("expected fallback to built-in catalog")
	}
}

func TestFilter(t *testing.T) {
	cat := &Catalog{Endpoints: []Endpoint{
		{FQDN: "a", Category: "azure-arc", Required: true},
		{FQDN: "b", Category: "telemetry", Required: false},
		{FQDN: "c", Category: "registry", Required: true},
	}}

	if got := cat.Filter(nil, false); len(got) != 3 {
		t.Errorf("no filter: got %d endpoints", len(got))
	}
	if got := cat.Filter([]string{"telemetry"}, false); len(got) != 1 || got[0].FQDN != "b" {
		t.Errorf("category filter: got %+v", got)
	}
	if got := cat.Filter(nil, true); len(got) != 2 {
		t.Errorf("requiredOnly: got %d endpoints", len(got))
	}
}

func TestForMode_Quick(t *testing.T) {
	cat := &Catalog{Endpoints: []Endpoint{
		{FQDN: "management.azure.com", Category: "azure-arc", Required: true},
		{FQDN: "dl.k8s.io", Category: "aks-arc", Required: false},
		{FQDN: "custom.contoso.com", Category: "custom", Required: true},
	}}

	got := cat.ForMode("quick", nil)
	if len(got) != 2 {
		t.Fatalf("quick mode: got %d endpoints, want 2", len(got))
	}
	for _, ep := range got {
		if ep.FQDN == "dl.k8s.io" {
			t.Error("quick mode included optional non-key endpoint")
		}
	}

	if got := cat.ForMode("full", nil); len(got) != 3 {
		t.Errorf("full mode: got %d endpoints", len(got))
	}
}

func TestWildcard(t *testing.T) {
	if (Endpoint{FQDN: "mcr.microsoft.com"}).Wildcard() {
		t.Error("plain FQDN reported as wildcard")
	}
	if !(Endpoint{FQDN: "*.his.arc.azure.com"}).Wildcard() {
		t.Error("wildcard FQDN not detected")
	}
}
