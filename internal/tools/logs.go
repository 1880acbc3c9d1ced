package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/azure"
	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// LogsTool collects AKS Arc on-premises logs via 'az aksarc get-logs'. Log
// collection can take several minutes, so the timeout is generous.
type LogsTool struct {
	Run   *runner.Runner
	Azure *azure.Context
}

func (t *LogsTool) Name() string { return "aksarc.logs.collect" }

func (t *LogsTool) Description() string {
	return "Collect AKS Arc on-premises logs via 'az aksarc get-logs'. " +
		"Requires either a control plane IP or a kubeconfig plus SSH credentials."
}

func (t *LogsTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ip":             map[string]any{"type": "string", "description": "Control plane IP address"},
			"kubeconfig":     map[string]any{"type": "string", "description": "Kubeconfig path, alternative to ip"},
			"credentialsDir": map[string]any{"type": "string", "description": "Directory holding SSH keys for node access"},
			"outDir":         map[string]any{"type": "string", "default": "./logs"},
			"timeoutSec":     map[string]any{"type": "integer", "default": 600},
			"dryRun": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Validate prerequisites without collecting logs",
			},
		},
	}
}

func (t *LogsTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	ip := getString(args, "ip", "")
	kubeconfig := getString(args, "kubeconfig", "")
	credentialsDir := getString(args, "credentialsDir", "")
	outDir := getString(args, "outDir", "./logs")
	dryRun := getBool(args, "dryRun", false)

	if ip == "" && kubeconfig == "" {
		return map[string]any{
			"success": false,
			"error":   "Either 'ip' or 'kubeconfig' is required",
			"hint":    "Provide the control plane IP or a kubeconfig path",
		}, nil
	}

	if dryRun {
		return t.validatePrerequisites(ctx, ip, kubeconfig, credentialsDir, outDir), nil
	}

	azPath := t.Azure.FindCLI()
	if azPath == "" {
		return map[string]any{
			"success": false,
			"error":   "Azure CLI not found",
			"hint":    "Install Azure CLI: https://aka.ms/installazurecli",
		}, nil
	}

	if installed := t.aksarcExtensionInstalled(ctx, azPath); !installed {
		return map[string]any{
			"success": false,
			"error":   "Azure CLI 'aksarc' extension not installed",
			"hint":    "az extension add --name aksarc",
		}, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	cliArgs := []string{"aksarc", "get-logs", "--out-dir", outDir}
	if ip != "" {
		cliArgs = append(cliArgs, "--ip", ip)
	} else {
		cliArgs = append(cliArgs, "--kubeconfig", kubeconfig)
	}
	if credentialsDir != "" {
		cliArgs = append(cliArgs, "--credentials-dir", credentialsDir)
	}

	start := time.Now()
	res := t.Run.Run(ctx, azPath, cliArgs...)
	durationMS := time.Since(start).Milliseconds()

	if !res.Success {
		errMsg := strings.TrimSpace(res.Stderr)
		if errMsg == "" {
			errMsg = fmt.Sprintf("log collection exited with code %d", res.ReturnCode)
		}
		return map[string]any{
			"success":    false,
			"error":      truncate(errMsg, 1000),
			"durationMs": durationMS,
		}, nil
	}

	archives := findLogArchives(outDir)
	return map[string]any{
		"success":    true,
		"outDir":     outDir,
		"archives":   archives,
		"durationMs": durationMS,
	}, nil
}

// validatePrerequisites reports what real collection would need, without
// touching any cluster.
func (t *LogsTool) validatePrerequisites(ctx context.Context, ip, kubeconfig, credentialsDir, outDir string) map[string]any {
	var issues []string
	var checks []map[string]any

	addCheck := func(name string, ok bool, detail string) {
		checks = append(checks, map[string]any{"name": name, "ok": ok, "detail": detail})
		if !ok {
			issues = append(issues, detail)
		}
	}

	azPath := t.Azure.FindCLI()
	azFound := azPath != ""
	addCheck("azure-cli", azFound, cliDetail(azPath))

	if azFound {
		installed := t.aksarcExtensionInstalled(ctx, azPath)
		detail := "aksarc extension installed"
		if !installed {
			detail = "aksarc extension missing. Run: az extension add --name aksarc"
		}
		addCheck("aksarc-extension", installed, detail)
	}

	if ip != "" {
		addCheck("target", true, "control plane IP: "+ip)
	} else {
		exists := fileExists(kubeconfig)
		detail := "kubeconfig found: " + kubeconfig
		if !exists {
			detail = "kubeconfig not found: " + kubeconfig
		}
		addCheck("target", exists, detail)
	}

	if credentialsDir != "" {
		keys := findSSHKeys(credentialsDir)
		detail := fmt.Sprintf("%d SSH key(s) found in %s", len(keys), credentialsDir)
		if len(keys) == 0 {
			detail = "no SSH keys (.pem or id_*) found in " + credentialsDir
		}
		addCheck("credentials", len(keys) > 0, detail)
	}

	return map[string]any{
		"success": len(issues) == 0,
		"dryRun":  true,
		"outDir":  outDir,
		"checks":  checks,
		"issues":  issues,
	}
}

func cliDetail(azPath string) string {
	if azPath == "" {
		return "Azure CLI not found on PATH"
	}
	return "Azure CLI found: " + azPath
}

func (t *LogsTool) aksarcExtensionInstalled(ctx context.Context, azPath string) bool {
	res := t.Run.Run(ctx, azPath, "extension", "show", "--name", "aksarc", "-o", "json")
	return res.Success
}

// findSSHKeys looks for .pem files and OpenSSH-style id_* keys.
func findSSHKeys(dir string) []string {
	var keys []string
	for _, pattern := range []string{"*.pem", "id_*"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		keys = append(keys, matches...)
	}
	return keys
}

// findLogArchives returns the archives 'az aksarc get-logs' produced.
func findLogArchives(dir string) []string {
	var archives []string
	for _, pattern := range []string{"*.tar.gz", "*.zip"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		archives = append(archives, matches...)
	}
	if archives == nil {
		archives = []string{}
	}
	return archives
}
