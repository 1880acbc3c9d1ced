// Package azure wraps the Azure CLI for Arc cluster queries. Every call
// shells out to az and parses its JSON output; auth problems are surfaced
// with a hint rather than a bare error.
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/smitzlroy/arcops-mcp/internal/runner"
)

// HintError carries a remediation hint alongside the error message.
type HintError struct {
	Msg  string
	Hint string
}

func (e *HintError) Error() string { return e.Msg }

// AuthStatus reports Azure CLI authentication state.
type AuthStatus struct {
	Authenticated    bool   `json:"authenticated"`
	AzCLIInstalled   bool   `json:"azCliInstalled"`
	SubscriptionID   string `json:"subscriptionId,omitempty"`
	SubscriptionName string `json:"subscriptionName,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	User             string `json:"user,omitempty"`
	UserType         string `json:"userType,omitempty"`
	Error            string `json:"error,omitempty"`
	Hint             string `json:"hint,omitempty"`
}

// Subscription summary from az account list.
type Subscription struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	State     string `json:"state"`
}

// Cluster is an Arc-connected Kubernetes cluster summary.
type Cluster struct {
	Name                 string `json:"name"`
	ResourceGroup        string `json:"resourceGroup"`
	Location             string `json:"location"`
	ConnectivityStatus   string `json:"connectivityStatus"`
	ProvisioningState    string `json:"provisioningState"`
	KubernetesVersion    string `json:"kubernetesVersion"`
	AgentVersion         string `json:"agentVersion"`
	Distribution         string `json:"distribution"`
	Infrastructure       string `json:"infrastructure"`
	TotalNodeCount       int    `json:"totalNodeCount"`
	LastConnectivityTime string `json:"lastConnectivityTime"`
}

// Extension is a k8s-extension summary on a connected cluster.
type Extension struct {
	Name              string `json:"name"`
	ExtensionType     string `json:"extensionType"`
	ProvisioningState string `json:"provisioningState"`
	Version           string `json:"version"`
	ReleaseTrain      string `json:"releaseTrain"`
	IsSystemExtension bool   `json:"isSystemExtension"`
}

const installHint = "Install Azure CLI: https://docs.microsoft.com/cli/azure/install-azure-cli"

// Context executes az commands.
type Context struct {
	run *runner.Runner

	mu     sync.Mutex
	azPath string
	looked bool
}

// New creates an Azure context backed by the given runner.
func New(r *runner.Runner) *Context {
	return &Context{run: r}
}

// FindCLI returns the az binary path or "" if not installed. Cached after
// the first lookup.
func (c *Context) FindCLI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.looked {
		return c.azPath
	}
	c.looked = true
	if p, err := exec.LookPath("az"); err == nil {
		c.azPath = p
	}
	return c.azPath
}

// CheckAuth reports whether az is installed and logged in.
func (c *Context) CheckAuth(ctx context.Context) AuthStatus {
	az := c.FindCLI()
	if az == "" {
		return AuthStatus{
			Error: "Azure CLI (az) not found",
			Hint:  installHint,
		}
	}

	res := c.run.Run(ctx, az, "account", "show", "-o", "json")
	if !res.Success {
		stderr := strings.ToLower(res.Stderr)
		if strings.Contains(stderr, "az login") || strings.Contains(stderr, "no subscription") {
			return AuthStatus{
				AzCLIInstalled: true,
				Error:          "Not logged in to Azure",
				Hint:           "Run 'az login' to authenticate",
			}
		}
		return AuthStatus{
			AzCLIInstalled: true,
			Error:          strings.TrimSpace(res.Stderr),
			Hint:           "Check Azure CLI configuration",
		}
	}

	status, err := parseAccount([]byte(res.Stdout))
	if err != nil {
		return AuthStatus{
			AzCLIInstalled: true,
			Error:          fmt.Sprintf("failed to parse Azure CLI response: %v", err),
			Hint:           "Azure CLI may need to be updated",
		}
	}
	return status
}

func parseAccount(data []byte) (AuthStatus, error) {
	var account struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		TenantID string `json:"tenantId"`
		User     struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &account); err != nil {
		return AuthStatus{}, err
	}
	return AuthStatus{
		Authenticated:    true,
		AzCLIInstalled:   true,
		SubscriptionID:   account.ID,
		SubscriptionName: account.Name,
		TenantID:         account.TenantID,
		User:             account.User.Name,
		UserType:         account.User.Type,
	}, nil
}

// Subscriptions lists available Azure subscriptions.
func (c *Context) Subscriptions(ctx context.Context) ([]Subscription, error) {
	az := c.FindCLI()
	if az == "" {
		return nil, &HintError{Msg: "Azure CLI not found", Hint: installHint}
	}

	res := c.run.Run(ctx, az, "account", "list", "-o", "json")
	if !res.Success {
		return nil, fmt.Errorf("az account list: %s", strings.TrimSpace(res.Stderr))
	}

	var subs []Subscription
	if err := json.Unmarshal([]byte(res.Stdout), &subs); err != nil {
		return nil, fmt.Errorf("parse subscriptions: %w", err)
	}
	return subs, nil
}

// SetSubscription switches the active subscription.
func (c *Context) SetSubscription(ctx context.Context, subscriptionID string) error {
	az := c.FindCLI()
	if az == "" {
		return &HintError{Msg: "Azure CLI not found", Hint: installHint}
	}
	res := c.run.Run(ctx, az, "account", "set", "--subscription", subscriptionID)
	if !res.Success {
		return fmt.Errorf("az account set: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// ConnectedClusters lists Arc-connected Kubernetes clusters, optionally
// scoped to a subscription.
func (c *Context) ConnectedClusters(ctx context.Context, subscription string) ([]Cluster, error) {
	az := c.FindCLI()
	if az == "" {
		return nil, &HintError{Msg: "Azure CLI not found", Hint: installHint}
	}

	auth := c.CheckAuth(ctx)
	if !auth.Authenticated {
		return nil, &HintError{Msg: auth.Error, Hint: auth.Hint}
	}

	args := []string{"connectedk8s", "list", "-o", "json"}
	if subscription != "" {
		args = append(args, "--subscription", subscription)
	}
	res := c.run.Run(ctx, az, args...)
	if !res.Success {
		stderr := strings.TrimSpace(res.Stderr)
		if strings.Contains(strings.ToLower(stderr), "extension") && strings.Contains(strings.ToLower(stderr), "not installed") {
			return nil, &HintError{
				Msg:  "connectedk8s extension not installed",
				Hint: "Run: az extension add --name connectedk8s",
			}
		}
		return nil, fmt.Errorf("az connectedk8s list: %s", stderr)
	}

	return parseClusters([]byte(res.Stdout))
}

func parseClusters(data []byte) ([]Cluster, error) {
	var clusters []Cluster
	if err := json.Unmarshal(data, &clusters); err != nil {
		return nil, fmt.Errorf("parse clusters: %w", err)
	}
	return clusters, nil
}

// ClusterShow fetches full details for a single connected cluster.
func (c *Context) ClusterShow(ctx context.Context, name, resourceGroup string) (map[string]any, error) {
	az := c.FindCLI()
	if az == "" {
		return nil, &HintError{Msg: "Azure CLI not found", Hint: installHint}
	}

	res := c.run.Run(ctx, az, "connectedk8s", "show",
		"--name", name, "--resource-group", resourceGroup, "-o", "json")
	if !res.Success {
		return nil, fmt.Errorf("cluster not found: %s", strings.TrimSpace(res.Stderr))
	}

	var cluster map[string]any
	if err := json.Unmarshal([]byte(res.Stdout), &cluster); err != nil {
		return nil, fmt.Errorf("parse cluster: %w", err)
	}
	return cluster, nil
}

// ClusterExtensions lists extensions on a connected cluster.
func (c *Context) ClusterExtensions(ctx context.Context, name, resourceGroup string) ([]Extension, error) {
	az := c.FindCLI()
	if az == "" {
		return nil, &HintError{Msg: "Azure CLI not found", Hint: installHint}
	}

	res := c.run.Run(ctx, az, "k8s-extension", "list",
		"--cluster-name", name,
		"--resource-group", resourceGroup,
		"--cluster-type", "connectedClusters",
		"-o", "json")
	if !res.Success {
		return nil, fmt.Errorf("az k8s-extension list: %s", strings.TrimSpace(res.Stderr))
	}

	return parseExtensions([]byte(res.Stdout))
}

func parseExtensions(data []byte) ([]Extension, error) {
	var exts []Extension
	if err := json.Unmarshal(data, &exts); err != nil {
		return nil, fmt.Errorf("parse extensions: %w", err)
	}
	return exts, nil
}

// CLIExtensionInstalled reports whether an az CLI extension (e.g. aksarc)
// is installed.
func (c *Context) CLIExtensionInstalled(ctx context.Context, name string) bool {
	az := c.FindCLI()
	if az == "" {
		return false
	}
	res := c.run.Run(ctx, az, "extension", "list", "-o", "json")
	if !res.Success {
		return false
	}
	var exts []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &exts); err != nil {
		return false
	}
	for _, e := range exts {
		if e.Name == name {
			return true
		}
	}
	return false
}

// ToAPIResponse converts auth status to the REST response shape.
func (s AuthStatus) ToAPIResponse() map[string]any {
	resp := map[string]any{
		"authenticated":  s.Authenticated,
		"azCliInstalled": s.AzCLIInstalled,
	}
	if s.Authenticated {
		resp["subscription"] = map[string]any{"id": s.SubscriptionID, "name": s.SubscriptionName}
		resp["tenant"] = s.TenantID
		resp["user"] = s.User
		resp["userType"] = s.UserType
	} else {
		resp["error"] = s.Error
		resp["hint"] = s.Hint
	}
	return resp
}
