package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/findings"
)

func localEndpoint(t *testing.T, srv *httptest.Server) config.Endpoint {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return config.Endpoint{FQDN: u.Hostname(), Port: port, TLS: false, Required: true, Category: "azure-arc"}
}

func TestEgressCheckEndpoint_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tool := &EgressTool{Client: srv.Client()}
	c := tool.checkEndpoint(context.Background(), srv.Client(), localEndpoint(t, srv), 5*time.Second)

	if c.Status != findings.StatusPass {
		t.Fatalf("status = %s, want pass (evidence: %v)", c.Status, c.Evidence)
	}
	if reachable, _ := c.Evidence["reachable"].(bool); !reachable {
		t.Error("reachable evidence missing")
	}
}

func TestEgressCheckEndpoint_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := &EgressTool{Client: srv.Client()}
	c := tool.checkEndpoint(context.Background(), srv.Client(), localEndpoint(t, srv), 5*time.Second)

	// A 5xx proves reachability, so it warns instead of failing.
	if c.Status != findings.StatusWarn {
		t.Fatalf("status = %s, want warn", c.Status)
	}
}

func TestEgressCheckEndpoint_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ep := localEndpoint(t, srv)
	srv.Close() // connection refused from here on

	tool := &EgressTool{}
	c := tool.checkEndpoint(context.Background(), tool.client(2*time.Second), ep, 2*time.Second)

	if c.Status != findings.StatusFail {
		t.Fatalf("status = %s, want fail", c.Status)
	}
	if c.Hint == "" {
		t.Error("failed check should carry a hint")
	}
}

func TestEgressCheckEndpoint_Wildcard(t *testing.T) {
	tool := &EgressTool{}
	ep := config.Endpoint{FQDN: "*.his.arc.azure.com", Port: 443, TLS: true, Category: "azure-arc"}
	c := tool.checkEndpoint(context.Background(), tool.client(time.Second), ep, time.Second)

	if c.Status != findings.StatusSkipped {
		t.Fatalf("status = %s, want skipped", c.Status)
	}
}

func TestEgress_DryRun(t *testing.T) {
	tool := &EgressTool{}
	result, err := tool.Execute(context.Background(), map[string]any{"dryRun": true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	f := asFindings(t, result)
	if len(f.Checks) == 0 {
		t.Fatal("no checks produced")
	}
	if f.Summary.Fail != 0 {
		t.Errorf("dry run produced failures: %+v", f.Summary)
	}
}

func TestProxyConfigured(t *testing.T) {
	for _, key := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy"} {
		t.Setenv(key, "")
	}
	if proxyConfigured() {
		t.Error("proxyConfigured true with no proxy env")
	}
	t.Setenv("HTTPS_PROXY", "http://proxy.corp:8080")
	if !proxyConfigured() {
		t.Error("proxyConfigured false with HTTPS_PROXY set")
	}
}
