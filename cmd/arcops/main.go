// Command arcops is the operations bridge for Azure Local and AKS Arc:
// diagnostic tool wrappers, a REST API with a chat backend, and an MCP
// server surface.
package main

import (
	"fmt"
	"os"

	"github.com/smitzlroy/arcops-mcp/internal/config"
)

const version = "0.1.0"

func main() {
	config.LoadDotenv(".env")
	cfg := config.Init()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(cfg)
	case "mcp":
		runMCP(cfg)
	case "connectivity":
		runToolCommand(cfg, "arc.connectivity.check", "connectivity")
	case "egress":
		runToolCommand(cfg, "arc.gateway.egress.check", "egress")
	case "envcheck":
		runToolCommand(cfg, "azlocal.envcheck.wrap", "envcheck")
	case "validate":
		runToolCommand(cfg, "aks.arc.validate", "validate")
	case "bundle":
		runBundle(cfg)
	case "export":
		runExport()
	case "version":
		fmt.Println("arcops " + version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `arcops - Azure Local / AKS Arc operations bridge

Usage:
  arcops serve [--port PORT]                   REST API server (chat, tools, models)
  arcops mcp [--stdio] [--port PORT]           MCP server (HTTP or stdio)
  arcops connectivity [--mode quick|full] [--dry-run] [--out DIR]
  arcops egress [--required-only] [--dry-run] [--out DIR]
  arcops envcheck [--mode quick|full] [--dry-run] [--out DIR]
  arcops validate [--kubeconfig PATH] [--dry-run] [--out DIR]
  arcops bundle --in DIR [--logs DIR] [--out DIR] [--sign] [--policy FILE]
  arcops export --findings FILE [--format json|csv|html] [--out FILE]
  arcops version
`)
}
