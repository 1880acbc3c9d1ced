// Package models manages Foundry Local models through the foundry CLI:
// listing the catalog, tracking download and load state, and starting or
// stopping the service.
package models

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// Model describes one Foundry Local model.
type Model struct {
	Alias      string   `json:"id"`
	ModelID    string   `json:"model_id"`
	Size       string   `json:"size"`
	License    string   `json:"license"`
	Device     string   `json:"device"`
	Tasks      []string `json:"tasks"`
	Downloaded bool     `json:"downloaded"`
	Running    bool     `json:"running"`
}

// SupportsTools reports whether the model can do function calling.
func (m Model) SupportsTools() bool {
	for _, t := range m.Tasks {
		if t == "tools" {
			return true
		}
	}
	return false
}

// Recommended models balance tool support against size.
var recommendedModels = map[string]bool{
	"phi-4-mini":       true,
	"qwen2.5-7b":       true,
	"qwen2.5-coder-7b": true,
}

// Recommended reports whether the model is a suggested default.
func (m Model) Recommended() bool { return recommendedModels[m.Alias] }

// DisplayName renders the alias as a title, "phi-4-mini" -> "Phi 4 Mini".
func (m Model) DisplayName() string {
	words := strings.Split(strings.ReplaceAll(m.Alias, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ToAPI converts the model to the REST response shape.
func (m Model) ToAPI() map[string]any {
	return map[string]any{
		"id":             m.Alias,
		"name":           m.DisplayName(),
		"model_id":       m.ModelID,
		"size":           m.Size,
		"license":        m.License,
		"device":         m.Device,
		"tasks":          m.Tasks,
		"supports_tools": m.SupportsTools(),
		"downloaded":     m.Downloaded,
		"running":        m.Running,
		"recommended":    m.Recommended(),
	}
}

// knownModel pins catalog metadata. The CLI output is variable-width text,
// so sizes and task capabilities come from this table rather than parsing.
type knownModel struct {
	alias string
	size  string
	tools bool
}

var knownModels = []knownModel{
	{"qwen2.5-0.5b", "0.52 GB", true},
	{"qwen2.5-1.5b", "1.25 GB", true},
	{"qwen2.5-7b", "4.73 GB", true},
	{"qwen2.5-14b", "8.79 GB", true},
	{"qwen2.5-coder-0.5b", "0.52 GB", true},
	{"qwen2.5-coder-1.5b", "1.25 GB", true},
	{"qwen2.5-coder-7b", "4.73 GB", true},
	{"qwen2.5-coder-14b", "8.79 GB", true},
	{"phi-4-mini", "3.60 GB", true},
	{"phi-4", "8.37 GB", false},
	{"phi-3.5-mini", "2.13 GB", false},
	{"phi-3-mini-128k", "2.13 GB", false},
	{"phi-3-mini-4k", "2.13 GB", false},
	{"mistral-7b-v0.2", "3.98 GB", false},
	{"deepseek-r1-1.5b", "1.43 GB", false},
	{"deepseek-r1-7b", "5.28 GB", false},
	{"deepseek-r1-14b", "9.83 GB", false},
	{"phi-4-mini-reasoning", "3.15 GB", false},
	{"gpt-oss-20b", "12.26 GB", false},
}

// IsToolCapable reports whether alias can drive the tool-calling chat loop.
func IsToolCapable(alias string) bool {
	if alias == "phi-4-mini" {
		return true
	}
	return strings.HasPrefix(alias, "qwen2.5")
}

// Manager tracks Foundry Local state through the foundry CLI.
type Manager struct {
	Run *runner.Runner

	mu       sync.Mutex
	endpoint string
	current  string
}

// NewManager creates a manager using the given command runner.
func NewManager(run *runner.Runner) *Manager {
	return &Manager{Run: run}
}

// Current returns the last known running model alias.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// List returns the model catalog with download and running state merged in.
// Recommended models sort first, then tool-capable, then by alias.
func (m *Manager) List(ctx context.Context) []Model {
	available := m.availableAliases(ctx)
	downloaded := m.downloadedAliases(ctx)
	running, _ := m.RunningModel(ctx)

	var out []Model
	for _, km := range knownModels {
		if len(available) > 0 && !available[km.alias] {
			continue
		}
		tasks := []string{"chat"}
		if km.tools {
			tasks = append(tasks, "tools")
		}
		out = append(out, Model{
			Alias:      km.alias,
			ModelID:    km.alias,
			Size:       km.size,
			License:    "MIT",
			Device:     "GPU",
			Tasks:      tasks,
			Downloaded: downloaded[km.alias],
			Running:    km.alias == running,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Recommended() != b.Recommended() {
			return a.Recommended()
		}
		if a.SupportsTools() != b.SupportsTools() {
			return a.SupportsTools()
		}
		return a.Alias < b.Alias
	})
	return out
}

// availableAliases parses 'foundry model list'. An empty map means the CLI
// was unavailable; the full known catalog is used instead.
func (m *Manager) availableAliases(ctx context.Context) map[string]bool {
	res := m.Run.Run(ctx, "foundry", "model", "list")
	if !res.Success {
		slog.Debug("foundry model list failed", slog.String("stderr", res.Stderr))
		return nil
	}
	return parseModelList(res.Stdout)
}

func parseModelList(output string) map[string]bool {
	known := map[string]bool{}
	for _, km := range knownModels {
		known[km.alias] = true
	}
	found := map[string]bool{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "Alias") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 && known[fields[0]] {
			found[fields[0]] = true
		}
	}
	return found
}

// downloadedAliases parses 'foundry cache list'.
func (m *Manager) downloadedAliases(ctx context.Context) map[string]bool {
	res := m.Run.Run(ctx, "foundry", "cache", "list")
	if !res.Success {
		return map[string]bool{}
	}
	return parseCacheList(res.Stdout)
}

// parseCacheList extracts model aliases from the cache listing, skipping
// headers and decoration.
func parseCacheList(output string) map[string]bool {
	downloaded := map[string]bool{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "Alias") || strings.Contains(strings.ToLower(line), "cached") {
			continue
		}
		for _, part := range strings.Fields(line) {
			if part == "Model" || part == "ID" {
				continue
			}
			if len(part) > 0 && isAlnum(part[0]) && (strings.Contains(part, "-") || strings.Contains(part, ".")) {
				downloaded[part] = true
				break
			}
		}
	}
	return downloaded
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

var endpointRe = regexp.MustCompile(`https?://[\w\.\-]+:\d+`)

// RunningModel returns the alias of the loaded model, if any, by parsing
// 'foundry service status'.
func (m *Manager) RunningModel(ctx context.Context) (string, string) {
	res := m.Run.Run(ctx, "foundry", "service", "status")
	if !res.Success {
		return "", ""
	}
	endpoint := endpointRe.FindString(res.Stdout)

	var alias string
	lower := strings.ToLower(res.Stdout)
	for _, km := range knownModels {
		if strings.Contains(lower, km.alias) {
			alias = km.alias
			break
		}
	}

	m.mu.Lock()
	m.endpoint = endpoint
	m.current = alias
	m.mu.Unlock()
	return alias, endpoint
}

// Start loads a model (downloading it first if needed). The foundry CLI
// keeps serving after the command returns, so the process is detached.
func (m *Manager) Start(ctx context.Context, alias string) (map[string]any, error) {
	if !knownAlias(alias) {
		return map[string]any{
			"success": false,
			"error":   fmt.Sprintf("unknown model: %s", alias),
		}, nil
	}

	cmd := exec.Command("foundry", "model", "run", alias)
	if err := cmd.Start(); err != nil {
		return map[string]any{
			"success": false,
			"error":   err.Error(),
			"hint":    "Make sure Foundry Local is installed and running",
		}, nil
	}
	go func() {
		// Reap the CLI process; the service itself outlives it.
		_ = cmd.Wait()
	}()

	m.mu.Lock()
	m.current = alias
	m.mu.Unlock()

	return map[string]any{
		"success": true,
		"model":   alias,
		"message": fmt.Sprintf("Model %s is starting", alias),
	}, nil
}

// Stop shuts down the Foundry Local service.
func (m *Manager) Stop(ctx context.Context) (map[string]any, error) {
	res := m.Run.Run(ctx, "foundry", "service", "stop")

	m.mu.Lock()
	m.endpoint = ""
	m.current = ""
	m.mu.Unlock()

	if !res.Success {
		return map[string]any{"success": false, "error": res.Stderr}, nil
	}
	return map[string]any{"success": true, "message": "Model stopped"}, nil
}

// Status reports whether a model is loaded and on which endpoint.
func (m *Manager) Status(ctx context.Context) map[string]any {
	alias, endpoint := m.RunningModel(ctx)
	return map[string]any{
		"model_running": alias != "",
		"current_model": alias,
		"endpoint":      endpoint,
	}
}

func knownAlias(alias string) bool {
	for _, km := range knownModels {
		if km.alias == alias {
			return true
		}
	}
	return false
}
