package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/smitzlroy/arcops-mcp/internal/config"
)

// runBundle packages findings and logs into a support bundle.
func runBundle(cfg config.Config) {
	findingsDir := getFlagValue("--in")
	if findingsDir == "" {
		fmt.Fprintln(os.Stderr, "error: --in DIR is required")
		os.Exit(1)
	}

	reg, _, _ := buildRegistry(cfg)

	args := map[string]any{
		"findingsDir": findingsDir,
		"sign":        hasFlag("--sign"),
	}
	if logsDir := getFlagValue("--logs"); logsDir != "" {
		args["logsDir"] = logsDir
	}
	if outDir := getFlagValue("--out"); outDir != "" {
		args["outputDir"] = outDir
	}
	if policy := getFlagValue("--policy"); policy != "" {
		args["policyPath"] = policy
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout)
	defer cancel()

	result, err := reg.Execute(ctx, "arcops.diagnostics.bundle", args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if success, _ := result["success"].(bool); !success {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		os.Exit(1)
	}

	fmt.Printf("Bundle: %v\n", result["bundleZip"])
	fmt.Printf("Run ID: %v\n", result["runId"])
	if signed, _ := result["signed"].(bool); signed {
		fmt.Println("Signed: yes")
	}
	if policy, ok := result["policy"]; ok {
		data, _ := json.MarshalIndent(policy, "", "  ")
		fmt.Printf("Policy verdict:\n%s\n", data)
	}
}
