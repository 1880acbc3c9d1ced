package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/azure"
	"github.com/smitzlroy/arcops-mcp/internal/chat"
	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/provider"
	"github.com/smitzlroy/arcops-mcp/internal/runner"
	"github.com/smitzlroy/arcops-mcp/internal/tools"
)

type stubProvider struct {
	responses []*provider.Response
}

func (p *stubProvider) Chat(_ []provider.Message, _ []provider.ToolDefinition) (*provider.Response, error) {
	if len(p.responses) == 0 {
		return &provider.Response{Content: "ok"}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

type stubTool struct {
	name   string
	result map[string]any
}

func (t *stubTool) Name() string                { return t.name }
func (t *stubTool) Description() string         { return "stub" }
func (t *stubTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }
func (t *stubTool) Execute(_ context.Context, _ map[string]any) (map[string]any, error) {
	return t.result, nil
}

func findingsResult(checks []any, pass, fail, warn int) map[string]any {
	return map[string]any{
		"runId":  "20260823-120000-abcd1234",
		"checks": checks,
		"summary": map[string]any{
			"total": pass + fail + warn, "pass": pass, "fail": fail, "warn": warn, "skipped": 0,
		},
	}
}

func newTestServer(t *testing.T, p provider.Provider, toolset ...tools.Tool) *Server {
	t.Helper()
	reg := tools.NewRegistry()
	for _, tl := range toolset {
		reg.Register(tl)
	}
	run := runner.New(5 * time.Second)
	if p == nil {
		p = &stubProvider{}
	}
	return New(config.Init(), reg, chat.NewService(p, reg), azure.New(run), nil, run)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestServer(t, nil), "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["status"]; got != "ok" {
		t.Errorf("status field = %v", got)
	}
}

func TestToolsList(t *testing.T) {
	s := newTestServer(t, nil, &stubTool{name: "arc.connectivity.check"})
	rec := doRequest(t, s, "GET", "/api/tools", "")
	body := decode(t, rec)

	list, ok := body["tools"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("tools = %v", body["tools"])
	}
	entry := list[0].(map[string]any)
	if entry["name"] != "arc.connectivity.check" {
		t.Errorf("name = %v", entry["name"])
	}
	if entry["inputSchema"] == nil {
		t.Error("inputSchema missing")
	}
}

func TestToolExecute(t *testing.T) {
	s := newTestServer(t, nil, &stubTool{
		name:   "arcops.explain",
		result: map[string]any{"success": true, "topic": "connectivity"},
	})
	rec := doRequest(t, s, "POST", "/api/tools/arcops.explain", `{"topic":"connectivity"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["success"] != true {
		t.Error("tool result not relayed")
	}
}

func TestToolExecute_Unknown(t *testing.T) {
	rec := doRequest(t, newTestServer(t, nil), "POST", "/api/tools/nope", "{}")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestToolExecute_BadJSON(t *testing.T) {
	s := newTestServer(t, nil, &stubTool{name: "x", result: map[string]any{}})
	rec := doRequest(t, s, "POST", "/api/tools/x", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEndpointsCatalog(t *testing.T) {
	rec := doRequest(t, newTestServer(t, nil), "GET", "/api/connectivity/endpoints", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	eps, ok := body["endpoints"].([]any)
	if !ok || len(eps) == 0 {
		t.Fatalf("endpoints = %v", body["endpoints"])
	}
	first := eps[0].(map[string]any)
	for _, key := range []string{"fqdn", "port", "category"} {
		if _, ok := first[key]; !ok {
			t.Errorf("endpoint missing %s: %v", key, first)
		}
	}
}

func TestConnectivityCheck(t *testing.T) {
	check := map[string]any{"id": "arc.connectivity.mcr", "title": "MCR", "status": "pass"}
	s := newTestServer(t, nil, &stubTool{
		name:   "arc.connectivity.check",
		result: findingsResult([]any{check}, 1, 0, 0),
	})
	rec := doRequest(t, s, "GET", "/api/connectivity/check?mode=quick&dryRun=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["runId"] == nil || body["summary"] == nil {
		t.Errorf("findings shape not relayed: %v", body)
	}
}

func TestConnectivityStream(t *testing.T) {
	check := map[string]any{"id": "arc.connectivity.mcr", "status": "pass"}
	s := newTestServer(t, nil, &stubTool{
		name:   "arc.connectivity.check",
		result: findingsResult([]any{check}, 1, 0, 0),
	})
	rec := doRequest(t, s, "GET", "/api/connectivity/check/stream", "")

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("cache control = %q", cc)
	}

	events := parseSSE(t, rec.Body.String())
	if len(events) != 3 {
		t.Fatalf("got %d events, want started/check/complete", len(events))
	}
	if events[0]["type"] != "started" || events[1]["type"] != "check" || events[2]["type"] != "complete" {
		t.Errorf("event order wrong: %v", events)
	}
}

func parseSSE(t *testing.T, body string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e); err != nil {
			t.Fatalf("bad SSE payload %q: %v", line, err)
		}
		events = append(events, e)
	}
	return events
}

func TestChatSync(t *testing.T) {
	p := &stubProvider{responses: []*provider.Response{{Content: "All good."}}}
	s := newTestServer(t, p)
	rec := doRequest(t, s, "POST", "/api/chat", `{"message":"status?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["success"] != true || body["response"] != "All good." {
		t.Errorf("body = %v", body)
	}
}

func TestChatSync_MissingMessage(t *testing.T) {
	rec := doRequest(t, newTestServer(t, nil), "POST", "/api/chat", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatStream(t *testing.T) {
	p := &stubProvider{responses: []*provider.Response{{Content: "Nothing to run."}}}
	s := newTestServer(t, p)
	rec := doRequest(t, s, "POST", "/api/chat/stream", `{"message":"hello"}`)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	events := parseSSE(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatal("no events streamed")
	}
	if events[0]["type"] != "phase" || events[0]["phase"] != "analyzing" {
		t.Errorf("first event = %v", events[0])
	}
	last := events[len(events)-1]
	if last["type"] != "complete" {
		t.Errorf("last event = %v", last)
	}
}

func TestDiagnose_Healthy(t *testing.T) {
	s := newTestServer(t, nil,
		&stubTool{name: "arc.connectivity.check", result: findingsResult([]any{}, 3, 0, 0)},
		&stubTool{name: "aks.arc.validate", result: findingsResult([]any{}, 2, 0, 0)},
	)
	rec := doRequest(t, s, "POST", "/api/diagnose", `{"dryRun":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	diagnosis := decode(t, rec)["diagnosis"].(map[string]any)
	if diagnosis["overallHealth"] != "healthy" {
		t.Errorf("health = %v", diagnosis["overallHealth"])
	}
	stages := diagnosis["stages"].([]any)
	if len(stages) != 2 {
		t.Fatalf("stages = %d", len(stages))
	}
	totals := diagnosis["totals"].(map[string]any)
	if totals["pass"] != float64(5) {
		t.Errorf("pass total = %v", totals["pass"])
	}
	if diagnosis["tsgSuggestions"] != nil {
		t.Error("suggestions present with no issues")
	}
}

func TestDiagnose_CriticalWithSuggestions(t *testing.T) {
	failing := map[string]any{
		"id": "arc.connectivity.dns", "title": "DNS Resolution",
		"status": "fail", "hint": "Check DNS configuration",
	}
	s := newTestServer(t, nil,
		&stubTool{name: "arc.connectivity.check", result: findingsResult([]any{failing}, 0, 1, 0)},
		&stubTool{name: "aks.arc.validate", result: findingsResult([]any{}, 2, 0, 0)},
	)
	rec := doRequest(t, s, "POST", "/api/diagnose", `{"dryRun":true}`)
	diagnosis := decode(t, rec)["diagnosis"].(map[string]any)

	if diagnosis["overallHealth"] != "critical" {
		t.Errorf("health = %v", diagnosis["overallHealth"])
	}
	issues := diagnosis["allIssues"].([]any)
	if len(issues) != 1 {
		t.Fatalf("issues = %v", issues)
	}
	if issues[0].(map[string]any)["source"] != "connectivity" {
		t.Error("issue not tagged with source stage")
	}
	suggestions := diagnosis["tsgSuggestions"].([]any)
	if len(suggestions) == 0 {
		t.Fatal("no TSG suggestions for failing DNS check")
	}
	summary, _ := diagnosis["executiveSummary"].(string)
	if !strings.Contains(summary, "CRITICAL") || !strings.Contains(summary, "DNS Resolution") {
		t.Errorf("executive summary = %q", summary)
	}
}

func TestModels_Disabled(t *testing.T) {
	rec := doRequest(t, newTestServer(t, nil), "GET", "/api/models", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	doRequest(t, s, "GET", "/health", "")
	rec := doRequest(t, s, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "arcops_http_requests_total") {
		t.Error("request counter not exposed")
	}
}

func TestChatStatus_Unavailable(t *testing.T) {
	rec := doRequest(t, newTestServer(t, nil), "GET", "/api/chat/status", "")
	body := decode(t, rec)
	if body["available"] != false {
		t.Errorf("available = %v", body["available"])
	}
	if hint, _ := body["hint"].(string); !strings.Contains(hint, "Foundry") {
		t.Errorf("hint = %q", hint)
	}
}
