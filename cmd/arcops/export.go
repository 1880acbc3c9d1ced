package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"github.com/smitzlroy/arcops-mcp/internal/findings"
)

// runExport converts a findings artifact to json, csv or html.
func runExport() {
	path := getFlagValue("--findings")
	if path == "" {
		fmt.Fprintln(os.Stderr, "error: --findings FILE is required")
		os.Exit(1)
	}
	format := getFlagValue("--format")
	if format == "" {
		format = "json"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f, err := findings.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if outPath := getFlagValue("--out"); outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}

	if err := exportFindings(out, f, format); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exportFindings renders a findings artifact in the requested format.
func exportFindings(w io.Writer, f *findings.Findings, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case "csv":
		return exportCSV(w, f)
	case "html":
		return exportHTML(w, f)
	}
	return fmt.Errorf("unknown format %q, use: json, csv, html", format)
}

func exportCSV(w io.Writer, f *findings.Findings) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "severity", "status", "hint"}); err != nil {
		return err
	}
	for _, c := range f.Checks {
		if err := cw.Write([]string{c.ID, c.Title, c.Severity, string(c.Status), c.Hint}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>ArcOps Report {{.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f0; }
.pass { color: #107c10; }
.fail { color: #d13438; }
.warn { color: #ca5010; }
.skipped { color: #605e5c; }
</style>
</head>
<body>
<h1>ArcOps Diagnostic Report</h1>
<p>Target: {{.Target}} &middot; Run: {{.RunID}} &middot; {{.Timestamp}}</p>
<p>Summary: {{.Summary.Pass}} pass, {{.Summary.Fail}} fail, {{.Summary.Warn}} warn, {{.Summary.Skipped}} skipped</p>
<table>
<tr><th>ID</th><th>Title</th><th>Severity</th><th>Status</th><th>Hint</th></tr>
{{range .Checks}}
<tr><td>{{.ID}}</td><td>{{.Title}}</td><td>{{.Severity}}</td><td class="{{.Status}}">{{.Status}}</td><td>{{.Hint}}</td></tr>
{{end}}
</table>
</body>
</html>
`))

func exportHTML(w io.Writer, f *findings.Findings) error {
	return htmlReport.Execute(w, f)
}
