package tools

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/findings"
)

// EgressTool checks HTTP(S) reachability of Arc gateway endpoints, honoring
// HTTP(S)_PROXY and corporate CA trust from the system store.
type EgressTool struct {
	CatalogPath string
	Client      *http.Client
}

func (t *EgressTool) Name() string { return "arc.gateway.egress.check" }

func (t *EgressTool) Description() string {
	return "Check TLS/Proxy/FQDN reachability for Azure Arc gateway endpoints. " +
		"Supports corporate CA trust and HTTP(S)_PROXY."
}

func (t *EgressTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"configPath":   map[string]any{"type": "string", "description": "Endpoints catalog YAML path"},
			"categories":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"requiredOnly": map[string]any{"type": "boolean", "default": false},
			"timeoutSec":   map[string]any{"type": "integer", "default": 10},
			"dryRun":       map[string]any{"type": "boolean", "default": false},
		},
	}
}

func (t *EgressTool) client(timeout time.Duration) *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}
}

func (t *EgressTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	configPath := getString(args, "configPath", t.CatalogPath)
	categories := getStringSlice(args, "categories")
	requiredOnly := getBool(args, "requiredOnly", false)
	timeoutSec := getInt(args, "timeoutSec", 10)
	dryRun := getBool(args, "dryRun", false)

	f := findings.New("gateway", t.Name(), "")

	cat, err := config.LoadEndpoints(configPath)
	if err != nil {
		return nil, fmt.Errorf("load endpoints: %w", err)
	}
	endpoints := cat.Filter(categories, requiredOnly)

	if len(endpoints) == 0 {
		f.Add(findings.Check{
			ID:       "arc.gateway.config",
			Title:    "Endpoint Configuration",
			Severity: findings.SeverityHigh,
			Status:   findings.StatusFail,
			Evidence: map[string]any{"configPath": configPath},
			Hint:     fmt.Sprintf("No endpoints found in %s. Verify configuration file exists.", configPath),
		})
		return f.ToMap(), nil
	}

	f.SetExtra("endpointCount", len(endpoints))
	f.SetExtra("dryRun", dryRun)
	if proxyConfigured() {
		f.SetExtra("proxyConfigured", true)
	}

	timeout := time.Duration(timeoutSec) * time.Second
	client := t.client(timeout)
	for _, ep := range endpoints {
		if dryRun {
			f.Add(simulatedEndpointCheck("arc.gateway", "Egress Check", ep))
			continue
		}
		f.Add(t.checkEndpoint(ctx, client, ep, timeout))
	}

	return f.ToMap(), nil
}

func (t *EgressTool) checkEndpoint(ctx context.Context, client *http.Client, ep config.Endpoint, timeout time.Duration) findings.Check {
	checkID := endpointCheckID("arc.gateway", ep)
	title := fmt.Sprintf("Egress Check: %s:%d", ep.FQDN, ep.Port)

	if ep.Wildcard() {
		return findings.Check{
			ID:       checkID,
			Title:    title,
			Severity: findings.SeverityLow,
			Status:   findings.StatusSkipped,
			Evidence: map[string]any{
				"fqdn":   ep.FQDN,
				"port":   ep.Port,
				"reason": "Wildcard endpoint - cannot test directly",
			},
			Hint: "Wildcard endpoints require testing with specific subdomains",
		}
	}

	severity := findings.SeverityMedium
	if ep.Required {
		severity = findings.SeverityHigh
	}
	evidence := map[string]any{
		"fqdn":     ep.FQDN,
		"port":     ep.Port,
		"tls":      ep.TLS,
		"required": ep.Required,
		"category": ep.Category,
	}

	scheme := "http"
	if ep.TLS {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s:%d/", scheme, ep.FQDN, ep.Port)

	start := time.Now()
	status := findings.StatusPass
	var hint string

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err == nil {
		var resp *http.Response
		resp, err = client.Do(req)
		if err == nil {
			resp.Body.Close()
			evidence["status_code"] = resp.StatusCode
			evidence["reachable"] = true
			if ep.TLS {
				evidence["tls_verified"] = true
			}
			// Any response proves reachability; server errors only warn.
			if resp.StatusCode >= 500 {
				status = findings.StatusWarn
				hint = fmt.Sprintf("Endpoint returned server error: %d", resp.StatusCode)
			}
		}
	}
	if err != nil {
		status = findings.StatusFail
		evidence["reachable"] = false
		evidence["error"] = err.Error()
		hint = egressHint(ep.FQDN, ep.Category)
		if strings.Contains(err.Error(), "certificate") || strings.Contains(err.Error(), "x509") {
			evidence["tls_verified"] = false
			hint = "TLS certificate validation failed. Check CA trust chain and corporate proxy configuration."
		}
	}

	latency := time.Since(start).Milliseconds()
	evidence["latency_ms"] = latency

	return findings.Check{
		ID:         checkID,
		Title:      title,
		Severity:   severity,
		Status:     status,
		Evidence:   evidence,
		Hint:       hint,
		Sources:    []findings.SourceRef{endpointSource(ep.Category)},
		DurationMS: latency,
	}
}

func proxyConfigured() bool {
	for _, key := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}
