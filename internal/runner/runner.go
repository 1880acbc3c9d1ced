// Package runner executes external diagnostic collaborators (PowerShell,
// az, foundry) as subprocesses with enforced timeouts.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/timeout"
)

// Result from a subprocess execution.
type Result struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
	Command    string `json:"command"`
	Success    bool   `json:"success"`
}

// Output returns stdout if non-empty, else stderr.
func (r Result) Output() string {
	if r.Stdout != "" {
		return r.Stdout
	}
	return r.Stderr
}

// Runner executes commands with a per-command timeout.
type Runner struct {
	Timeout time.Duration
}

// New creates a runner. A zero timeout defaults to 120s.
func New(commandTimeout time.Duration) *Runner {
	if commandTimeout <= 0 {
		commandTimeout = 120 * time.Second
	}
	return &Runner{Timeout: commandTimeout}
}

// Run executes name with args. A single attempt, no retries; on timeout the
// process group is killed and a failed Result is returned.
func (r *Runner) Run(ctx context.Context, name string, args ...string) Result {
	command := name
	if len(args) > 0 {
		command += " " + strings.Join(args, " ")
	}

	to := timeout.New[Result](r.Timeout)
	res, err := failsafe.With[Result](to).WithContext(ctx).GetWithExecution(
		func(exec failsafe.Execution[Result]) (Result, error) {
			return runCommand(exec.Context(), command, name, args...), nil
		})
	if err != nil {
		if errors.Is(err, timeout.ErrExceeded) {
			return Result{
				Stderr:     fmt.Sprintf("command timed out after %v", r.Timeout),
				ReturnCode: -1,
				Command:    command,
				Success:    false,
			}
		}
		return Result{
			Stderr:     err.Error(),
			ReturnCode: -1,
			Command:    command,
			Success:    false,
		}
	}
	return res
}

func runCommand(ctx context.Context, command, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 3 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	rc := 0
	if err != nil {
		if ctx.Err() != nil {
			return Result{
				Stderr:     "command canceled: " + ctx.Err().Error(),
				ReturnCode: -1,
				Command:    command,
				Success:    false,
			}
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			rc = exitErr.ExitCode()
		} else {
			rc = 1
			if stderr.Len() == 0 {
				stderr.WriteString(err.Error())
			}
		}
	}

	return Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ReturnCode: rc,
		Command:    command,
		Success:    rc == 0,
	}
}

// PowerShell runs a script through pwsh or powershell, whichever is on PATH.
func (r *Runner) PowerShell(ctx context.Context, script string) Result {
	shell := PowerShellBinary()
	if shell == "" {
		return Result{
			Stderr:     "PowerShell not found on PATH (install pwsh or run on Windows)",
			ReturnCode: -1,
			Command:    "powershell",
			Success:    false,
		}
	}
	return r.Run(ctx, shell, "-NoProfile", "-NonInteractive", "-Command", script)
}

// PowerShellBinary returns the path of pwsh or powershell, or "".
func PowerShellBinary() string {
	for _, name := range []string{"pwsh", "powershell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// Lookup reports whether a binary is available on PATH.
func Lookup(name string) (string, bool) {
	p, err := exec.LookPath(name)
	return p, err == nil
}

// ModuleInstalled checks for an installed PowerShell module and returns its
// version when found.
func (r *Runner) ModuleInstalled(ctx context.Context, module string) (bool, string) {
	script := fmt.Sprintf(
		"Get-Module -ListAvailable -Name %s | Select-Object -First 1 Name,Version | ConvertTo-Json -Compress",
		module)
	res := r.PowerShell(ctx, script)
	if !res.Success || strings.TrimSpace(res.Stdout) == "" {
		return false, ""
	}

	var info struct {
		Name    string `json:"Name"`
		Version any    `json:"Version"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &info); err != nil || info.Name == "" {
		return false, ""
	}
	return true, formatModuleVersion(info.Version)
}

// formatModuleVersion handles both string versions and the structured
// System.Version object ConvertTo-Json emits.
func formatModuleVersion(v any) string {
	switch ver := v.(type) {
	case string:
		return ver
	case map[string]any:
		major, okM := ver["Major"].(float64)
		minor, okN := ver["Minor"].(float64)
		if okM && okN {
			s := fmt.Sprintf("%d.%d", int(major), int(minor))
			if build, ok := ver["Build"].(float64); ok && build >= 0 {
				s += fmt.Sprintf(".%d", int(build))
			}
			return s
		}
	}
	return ""
}
