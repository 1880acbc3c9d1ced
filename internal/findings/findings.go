// Package findings defines the normalized diagnostic result schema shared by
// every tool adapter: a versioned artifact with a list of checks and a
// summary whose counters always match the checks.
package findings

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the findings contract version written into every artifact.
const SchemaVersion = "0.1.0"

// ToolVersion is stamped into artifact metadata.
const ToolVersion = "0.1.0"

// Status is the outcome of a single check.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarn    Status = "warn"
	StatusSkipped Status = "skipped"
)

// Valid reports whether s is one of the four allowed statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusWarn, StatusSkipped:
		return true
	}
	return false
}

// Severity levels used by checks.
const (
	SeverityInfo     = "info"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SourceRef points a check at external documentation.
type SourceRef struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Check is one normalized diagnostic result.
type Check struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Severity    string         `json:"severity"`
	Status      Status         `json:"status"`
	Description string         `json:"description,omitempty"`
	Evidence    map[string]any `json:"evidence,omitempty"`
	Hint        string         `json:"hint,omitempty"`
	Sources     []SourceRef    `json:"sources,omitempty"`
	DurationMS  int64          `json:"duration_ms,omitempty"`
}

// Summary counts checks by status. Total always equals len(checks).
type Summary struct {
	Total   int `json:"total"`
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Warn    int `json:"warn"`
	Skipped int `json:"skipped"`
}

// Metadata describes the tool run that produced the artifact. Extra carries
// tool-specific details (endpoint counts, module versions, dry-run flags).
type Metadata struct {
	ToolName    string         `json:"toolName"`
	ToolVersion string         `json:"toolVersion"`
	Hostname    string         `json:"hostname"`
	Mode        string         `json:"mode,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// SetExtra records a tool-specific metadata value.
func (f *Findings) SetExtra(key string, value any) {
	if f.Metadata.Extra == nil {
		f.Metadata.Extra = map[string]any{}
	}
	f.Metadata.Extra[key] = value
}

// SignedInfo records who signed an artifact and when.
type SignedInfo struct {
	Signer   string `json:"signer"`
	SignedAt string `json:"signedAt"`
}

// Findings is the versioned artifact produced by every diagnostic tool,
// in both dry-run and real execution mode.
type Findings struct {
	Version      string      `json:"version"`
	Target       string      `json:"target"`
	Timestamp    string      `json:"timestamp"`
	RunID        string      `json:"runId"`
	Metadata     Metadata    `json:"metadata"`
	Checks       []Check     `json:"checks"`
	Summary      Summary     `json:"summary"`
	Signed       *SignedInfo `json:"_signed,omitempty"`
	ArtifactHash string      `json:"artifactHash,omitempty"`
}

// NewRunID returns a timestamped unique run identifier, e.g.
// "20260101-120000-1a2b3c4d".
func NewRunID() string {
	ts := time.Now().UTC().Format("20060102-150405")
	return ts + "-" + uuid.NewString()[:8]
}

// New creates an empty findings artifact for the given target and tool.
func New(target, toolName, mode string) *Findings {
	hostname, _ := os.Hostname()
	return &Findings{
		Version:   SchemaVersion,
		Target:    target,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunID:     NewRunID(),
		Metadata: Metadata{
			ToolName:    toolName,
			ToolVersion: ToolVersion,
			Hostname:    hostname,
			Mode:        mode,
		},
		Checks: []Check{},
	}
}

// Add appends a check and updates the summary counters.
func (f *Findings) Add(c Check) {
	f.Checks = append(f.Checks, c)
	f.Summary.Total++
	switch c.Status {
	case StatusPass:
		f.Summary.Pass++
	case StatusFail:
		f.Summary.Fail++
	case StatusWarn:
		f.Summary.Warn++
	case StatusSkipped:
		f.Summary.Skipped++
	}
}

// Validate checks schema-level invariants and returns a human-readable
// error for the first violation found.
func (f *Findings) Validate() error {
	if f.Version == "" {
		return fmt.Errorf("findings missing required field: version")
	}
	if f.Target == "" {
		return fmt.Errorf("findings missing required field: target")
	}
	if f.RunID == "" {
		return fmt.Errorf("findings missing required field: runId")
	}
	if f.Timestamp == "" {
		return fmt.Errorf("findings missing required field: timestamp")
	}
	for i, c := range f.Checks {
		if c.ID == "" {
			return fmt.Errorf("check %d missing required field: id", i)
		}
		if !c.Status.Valid() {
			return fmt.Errorf("check %q has invalid status %q (must be pass, fail, warn, or skipped)", c.ID, c.Status)
		}
	}
	if f.Summary.Total != len(f.Checks) {
		return fmt.Errorf("summary.total is %d but checks has %d entries", f.Summary.Total, len(f.Checks))
	}
	if sum := f.Summary.Pass + f.Summary.Fail + f.Summary.Warn + f.Summary.Skipped; sum != f.Summary.Total {
		return fmt.Errorf("summary counters sum to %d, want total %d", sum, f.Summary.Total)
	}
	return nil
}

// Parse unmarshals and validates a findings artifact.
func Parse(data []byte) (*Findings, error) {
	var f Findings
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("malformed findings JSON: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ToMap converts the artifact to a generic map, the shape tool results take
// when handed to the LLM or returned over the REST surface.
func (f *Findings) ToMap() map[string]any {
	data, _ := json.Marshal(f)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

// NeedsAttention returns true if any check failed or warned.
func (f *Findings) NeedsAttention() bool {
	return f.Summary.Fail > 0 || f.Summary.Warn > 0
}

// FormatSummary renders the one-line pass/fail/warn/skipped summary used by
// CLI output.
func (f *Findings) FormatSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d pass, %d fail, %d warn, %d skipped",
		f.Summary.Pass, f.Summary.Fail, f.Summary.Warn, f.Summary.Skipped)
	return b.String()
}
