package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/findings"
)

// runToolCommand executes one diagnostic tool from the CLI, writes its
// findings artifact to disk, prints the summary and exits 1 when any check
// failed.
func runToolCommand(cfg config.Config, toolName, artifactName string) {
	reg, _, _ := buildRegistry(cfg)

	args := map[string]any{}
	if hasFlag("--dry-run") {
		args["dryRun"] = true
	}
	if mode := getFlagValue("--mode"); mode != "" {
		args["mode"] = mode
	}
	if kubeconfig := getFlagValue("--kubeconfig"); kubeconfig != "" {
		args["kubeconfig"] = kubeconfig
	}
	if hasFlag("--required-only") {
		args["requiredOnly"] = true
	}
	if cats := getFlagValue("--categories"); cats != "" {
		var categories []any
		for _, c := range strings.Split(cats, ",") {
			categories = append(categories, strings.TrimSpace(c))
		}
		args["categories"] = categories
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout)
	defer cancel()

	result, err := reg.Execute(ctx, toolName, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outDir := getFlagValue("--out")
	if outDir == "" {
		outDir = cfg.ArtifactsDir
	}
	path, writeErr := writeArtifact(outDir, artifactName, result)
	if writeErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", writeErr)
		os.Exit(1)
	}

	printResult(result, path)
}

// writeArtifact saves a tool result as <name>.json in dir.
func writeArtifact(dir, name string, result map[string]any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// printResult prints the findings summary and exits 1 on failures. Results
// that are not findings-shaped are printed as raw JSON.
func printResult(result map[string]any, artifactPath string) {
	data, _ := json.Marshal(result)
	f, err := findings.Parse(data)
	if err != nil {
		fmt.Println(string(data))
		fmt.Printf("\nArtifact: %s\n", artifactPath)
		return
	}

	for _, c := range f.Checks {
		marker := map[findings.Status]string{
			findings.StatusPass:    "PASS",
			findings.StatusFail:    "FAIL",
			findings.StatusWarn:    "WARN",
			findings.StatusSkipped: "SKIP",
		}[c.Status]
		fmt.Printf("[%s] %s\n", marker, c.Title)
		if c.Hint != "" && c.Status != findings.StatusPass {
			fmt.Printf("       hint: %s\n", c.Hint)
		}
	}

	fmt.Printf("\nSummary: %s\n", f.FormatSummary())
	fmt.Printf("Artifact: %s\n", artifactPath)

	if f.Summary.Fail > 0 {
		os.Exit(1)
	}
}
