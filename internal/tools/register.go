package tools

import (
	"github.com/smitzlroy/arcops-mcp/internal/azure"
	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/findings"
	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// RegisterAll wires every diagnostic adapter into the registry with shared
// collaborators. This is the single place the tool set is defined.
func RegisterAll(reg *Registry, cfg *config.Config, run *runner.Runner, az *azure.Context) {
	reg.Register(&ConnectivityTool{Run: run, CatalogPath: cfg.EndpointsPath})
	reg.Register(&EgressTool{CatalogPath: cfg.EndpointsPath})
	reg.Register(&EnvCheckTool{Run: run})
	reg.Register(&ValidateTool{Run: run, Azure: az})
	reg.Register(&SupportTool{Run: run})
	reg.Register(&TSGSearchTool{Run: run})
	reg.Register(&LogsTool{Run: run, Azure: az})
	reg.Register(&BundleTool{Signer: findings.NewSigner(), ArtifactsDir: cfg.ArtifactsDir, PolicyPath: cfg.PolicyPath})
	reg.Register(&ExplainTool{})
}
