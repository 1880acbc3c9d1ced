// Package policy evaluates YAML gate rules against findings data and
// produces GREEN/AMBER/RED verdicts. A rule failing with a worse verdict
// than previous failures wins.
package policy

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Verdicts, ordered by severity.
const (
	VerdictGreen = "GREEN"
	VerdictAmber = "AMBER"
	VerdictRed   = "RED"
)

var verdictPriority = map[string]int{
	VerdictGreen: 0,
	VerdictAmber: 1,
	VerdictRed:   2,
}

// Rule is one gate condition. Condition syntax is a single comparison:
// "field.path == 0", "summary.fail <= 2", "metadata.mode in allowedModes",
// "signed == true".
type Rule struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Condition   string `yaml:"condition"`
	Verdict     string `yaml:"verdict"`
	FailVerdict string `yaml:"failVerdict"`
	Severity    string `yaml:"severity"`
}

// Policy is a named set of rules plus settings referenced by "in" conditions.
type Policy struct {
	Name     string           `yaml:"name"`
	Version  string           `yaml:"version"`
	Settings map[string][]any `yaml:"settings"`
	Rules    []Rule           `yaml:"rules"`
}

// RuleResult is the outcome of one rule.
type RuleResult struct {
	Rule     string `json:"rule"`
	Passed   bool   `json:"passed"`
	Verdict  string `json:"verdict"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// Failure describes a failed rule for the gate summary.
type Failure struct {
	Rule     string `json:"rule"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// Result is the outcome of evaluating a whole policy.
type Result struct {
	PolicyName     string       `json:"policyName"`
	PolicyVersion  string       `json:"policyVersion"`
	RulesEvaluated int          `json:"rulesEvaluated"`
	RulesPassed    int          `json:"rulesPassed"`
	RulesFailed    int          `json:"rulesFailed"`
	Verdict        string       `json:"verdict"`
	Results        []RuleResult `json:"results"`
	Failures       []Failure    `json:"failures"`
}

// Load reads a policy from a YAML file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals a policy document.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed policy YAML: %w", err)
	}
	if p.Version == "" {
		p.Version = "1.0"
	}
	if p.Name == "" {
		p.Name = "unknown"
	}
	return &p, nil
}

// Evaluate runs every rule against data, accumulating the worst failing
// verdict.
func (p *Policy) Evaluate(data map[string]any) Result {
	res := Result{
		PolicyName:    p.Name,
		PolicyVersion: p.Version,
		Verdict:       VerdictGreen,
	}

	for _, rule := range p.Rules {
		passVerdict := rule.Verdict
		if passVerdict == "" {
			passVerdict = VerdictGreen
		}
		failVerdict := rule.FailVerdict
		if failVerdict == "" {
			failVerdict = VerdictRed
		}
		severity := rule.Severity
		if severity == "" {
			severity = "medium"
		}

		passed := p.evalCondition(rule.Condition, data)

		rr := RuleResult{
			Rule:     rule.Name,
			Passed:   passed,
			Verdict:  passVerdict,
			Reason:   rule.Description,
			Severity: severity,
		}
		if !passed {
			rr.Verdict = failVerdict
			rr.Reason = "Failed: " + rule.Description
			reason := rule.Description
			if reason == "" {
				reason = "Condition not met: " + rule.Condition
			}
			res.Failures = append(res.Failures, Failure{Rule: rule.Name, Reason: reason, Severity: severity})
			if verdictPriority[failVerdict] > verdictPriority[res.Verdict] {
				res.Verdict = failVerdict
			}
			res.RulesFailed++
		} else {
			res.RulesPassed++
		}
		res.Results = append(res.Results, rr)
		res.RulesEvaluated++
	}

	return res
}

// evalCondition parses and evaluates one comparison. Conditions that cannot
// be parsed fail closed.
func (p *Policy) evalCondition(condition string, data map[string]any) bool {
	fields := strings.Fields(condition)
	if len(fields) != 3 {
		return false
	}
	path, op, operand := fields[0], fields[1], fields[2]
	value := nestedValue(data, path)

	switch op {
	case "==", "!=":
		var eq bool
		switch operand {
		case "true", "false":
			b, ok := value.(bool)
			eq = ok && b == (operand == "true")
		default:
			if n, err := strconv.ParseFloat(operand, 64); err == nil {
				v, ok := asFloat(value)
				eq = ok && v == n
			} else {
				s, ok := value.(string)
				eq = ok && s == strings.Trim(operand, `"'`)
			}
		}
		if op == "!=" {
			return value != nil && !eq
		}
		return eq
	case ">", ">=", "<", "<=":
		n, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return false
		}
		v, ok := asFloat(value)
		if !ok {
			return false
		}
		switch op {
		case ">":
			return v > n
		case ">=":
			return v >= n
		case "<":
			return v < n
		default:
			return v <= n
		}
	case "in":
		allowed, ok := p.Settings[operand]
		if !ok || value == nil {
			return false
		}
		for _, item := range allowed {
			if equalLoose(item, value) {
				return true
			}
		}
		return false
	}
	return false
}

// nestedValue walks dot-separated paths through nested maps.
func nestedValue(data map[string]any, path string) any {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// equalLoose compares values across the numeric types YAML and JSON
// decoding produce.
func equalLoose(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}
