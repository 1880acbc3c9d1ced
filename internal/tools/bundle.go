package tools

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smitzlroy/arcops-mcp/internal/findings"
	"github.com/smitzlroy/arcops-mcp/internal/policy"
)

// BundleTool packages findings artifacts and collected logs into a signed
// diagnostics bundle: a staging directory with a merged findings file, a
// sha256 manifest, and a zip of everything. With a policy configured, the
// merged findings are gated and the verdict is included in the result.
type BundleTool struct {
	Signer       *findings.Signer
	ArtifactsDir string
	PolicyPath   string
}

func (t *BundleTool) Name() string { return "arcops.diagnostics.bundle" }

func (t *BundleTool) Description() string {
	return "Package findings artifacts and logs into a diagnostics bundle with a " +
		"sha256 manifest and merged findings summary."
}

func (t *BundleTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"findingsDir": map[string]any{"type": "string", "description": "Directory holding findings JSON artifacts"},
			"logsDir":     map[string]any{"type": "string", "description": "Optional directory of collected log archives"},
			"outputDir":   map[string]any{"type": "string", "description": "Where to create the bundle, defaults to the artifacts directory"},
			"sign":        map[string]any{"type": "boolean", "default": true},
			"policyPath":  map[string]any{"type": "string", "description": "Gate policy YAML, defaults to the configured policy"},
		},
	}
}

func (t *BundleTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	findingsDir := getString(args, "findingsDir", "")
	logsDir := getString(args, "logsDir", "")
	outputDir := getString(args, "outputDir", t.ArtifactsDir)
	sign := getBool(args, "sign", true)
	policyPath := getString(args, "policyPath", t.PolicyPath)

	if outputDir == "" {
		outputDir = "./artifacts"
	}

	runID := findings.NewRunID()
	bundleDir := filepath.Join(outputDir, runID)
	if err := os.MkdirAll(bundleDir, 0o755); err != nil {
		return nil, fmt.Errorf("create bundle directory: %w", err)
	}

	var bundled []string

	findingsFiles := collectFindingsFiles(findingsDir)
	merged := findings.New("bundle", t.Name(), "")
	merged.RunID = runID
	merged.SetExtra("sourceArtifacts", len(findingsFiles))

	for _, path := range findingsFiles {
		rel := filepath.Join("findings", filepath.Base(path))
		if err := copyIntoBundle(path, filepath.Join(bundleDir, rel)); err != nil {
			slog.Warn("skipping artifact", slog.String("path", path), slog.Any("error", err))
			continue
		}
		bundled = append(bundled, rel)
		mergeArtifact(merged, path)
	}

	if logsDir != "" {
		for _, path := range findLogArchives(logsDir) {
			rel := filepath.Join("logs", filepath.Base(path))
			if err := copyIntoBundle(path, filepath.Join(bundleDir, rel)); err != nil {
				slog.Warn("skipping log archive", slog.String("path", path), slog.Any("error", err))
				continue
			}
			bundled = append(bundled, rel)
		}
	}

	if sign {
		if err := t.Signer.Sign(merged); err != nil {
			return nil, fmt.Errorf("sign merged findings: %w", err)
		}
	}
	mergedPath := filepath.Join(bundleDir, "combined-findings.json")
	if err := writeJSON(mergedPath, merged); err != nil {
		return nil, err
	}
	bundled = append(bundled, "combined-findings.json")

	manifest, err := writeManifest(bundleDir, bundled)
	if err != nil {
		return nil, err
	}
	bundled = append(bundled, "sha256sum.txt")

	zipPath := filepath.Join(bundleDir, "bundle.zip")
	if err := writeBundleZip(zipPath, bundleDir, bundled); err != nil {
		return nil, err
	}

	result := map[string]any{
		"success":    true,
		"runId":      runID,
		"bundleDir":  bundleDir,
		"bundleZip":  zipPath,
		"files":      bundled,
		"manifest":   manifest,
		"signed":     sign,
		"summary":    merged.Summary,
		"checkCount": len(merged.Checks),
	}

	if policyPath != "" {
		gate, err := gateBundle(policyPath, merged, sign)
		if err != nil {
			return nil, err
		}
		result["policy"] = gate
	}
	return result, nil
}

// gateBundle evaluates the configured policy against the merged findings.
func gateBundle(policyPath string, merged *findings.Findings, signed bool) (policy.Result, error) {
	pol, err := policy.Load(policyPath)
	if err != nil {
		return policy.Result{}, err
	}
	data := merged.ToMap()
	data["signed"] = signed
	return pol.Evaluate(data), nil
}

// collectFindingsFiles returns JSON artifacts under dir that look like
// findings (a top-level checks array).
func collectFindingsFiles(dir string) []string {
	if dir == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil
	}
	var files []string
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var probe struct {
			Checks []json.RawMessage `json:"checks"`
		}
		if err := json.Unmarshal(data, &probe); err != nil || probe.Checks == nil {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// mergeArtifact folds an artifact's checks into the combined findings,
// prefixing IDs with the source run to keep them unique.
func mergeArtifact(merged *findings.Findings, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	f, err := findings.Parse(data)
	if err != nil {
		slog.Warn("artifact is not valid findings JSON", slog.String("path", path), slog.Any("error", err))
		return
	}
	for _, c := range f.Checks {
		if f.RunID != "" && !strings.HasPrefix(c.ID, f.RunID) {
			c.ID = f.RunID + "." + c.ID
		}
		merged.Add(c)
	}
}

func copyIntoBundle(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeManifest emits sha256sum.txt in coreutils format: hash, two spaces,
// relative name.
func writeManifest(bundleDir string, files []string) (map[string]string, error) {
	manifest := map[string]string{}
	var sb strings.Builder
	for _, rel := range files {
		hash, err := findings.FileSHA256(filepath.Join(bundleDir, rel))
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", rel, err)
		}
		manifest[rel] = hash
		fmt.Fprintf(&sb, "%s  %s\n", hash, filepath.ToSlash(rel))
	}
	path := filepath.Join(bundleDir, "sha256sum.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return manifest, nil
}

func writeBundleZip(zipPath, bundleDir string, files []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create bundle zip: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, rel := range files {
		in, err := os.Open(filepath.Join(bundleDir, rel))
		if err != nil {
			zw.Close()
			return fmt.Errorf("open %s: %w", rel, err)
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			in.Close()
			zw.Close()
			return fmt.Errorf("add %s to zip: %w", rel, err)
		}
		if _, err := io.Copy(w, in); err != nil {
			in.Close()
			zw.Close()
			return fmt.Errorf("write %s to zip: %w", rel, err)
		}
		in.Close()
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize bundle zip: %w", err)
	}
	return out.Close()
}
