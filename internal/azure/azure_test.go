package azure

import (
	"testing"
)

func TestParseAccount(t *testing.T) {
	data := []byte(`{
		"id": "sub-123",
		"name": "Contoso Production",
		"tenantId": "tenant-456",
		"user": {"name": "ops@contoso.com", "type": "user"}
	}`)

	status, err := parseAccount(data)
	if err != nil {
		t.Fatalf("parseAccount: %v", err)
	}
	if !status.Authenticated || !status.AzCLIInstalled {
		t.Errorf("status flags: %+v", status)
	}
	if status.SubscriptionID != "sub-123" || status.SubscriptionName != "Contoso Production" {
		t.Errorf("subscription: %+v", status)
	}
	if status.User != "ops@contoso.com" || status.UserType != "user" {
		t.Errorf("user: %+v", status)
	}
}

func TestParseClusters(t *testing.T) {
	data := []byte(`[
		{
			"name": "aks-arc-01",
			"resourceGroup": "rg-edge",
			"location": "eastus",
			"connectivityStatus": "Connected",
			"provisioningState": "Succeeded",
			"kubernetesVersion": "1.29.4",
			"agentVersion": "1.21.10",
			"distribution": "aks_edge_k3s",
			"totalNodeCount": 3
		}
	]`)

	clusters, err := parseClusters(data)
	if err != nil {
		t.Fatalf("parseClusters: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters", len(clusters))
	}
	c := clusters[0]
	if c.Name != "aks-arc-01" || c.ConnectivityStatus != "Connected" || c.TotalNodeCount != 3 {
		t.Errorf("cluster: %+v", c)
	}
}

func TestParseClusters_Malformed(t *testing.T) {
	if _, err := parseClusters([]byte(`{"not": "a list"}`)); err == nil {
		t.Error("expected error for non-array payload")
	}
}

func TestParseExtensions(t *testing.T) {
	data := []byte(`[
		{"name": "azuremonitor", "extensionType": "microsoft.azuremonitor.containers", "provisioningState": "Succeeded", "version": "3.0.1", "isSystemExtension": false},
		{"name": "flux", "extensionType": "microsoft.flux", "provisioningState": "Succeeded", "version": "1.9.0", "isSystemExtension": false}
	]`)

	exts, err := parseExtensions(data)
	if err != nil {
		t.Fatalf("parseExtensions: %v", err)
	}
	if len(exts) != 2 || exts[1].ExtensionType != "microsoft.flux" {
		t.Errorf("extensions: %+v", exts)
	}
}

func TestHintError(t *testing.T) {
	err := &HintError{Msg: "Not logged in to Azure", Hint: "Run 'az login' to authenticate"}
	if err.Error() != "Not logged in to Azure" {
		t.Errorf("Error(): got %q", err.Error())
	}
}

func TestAuthStatus_ToAPIResponse(t *testing.T) {
	ok := AuthStatus{Authenticated: true, AzCLIInstalled: true, SubscriptionID: "s", SubscriptionName: "n", TenantID: "t", User: "u"}
	resp := ok.ToAPIResponse()
	if resp["authenticated"] != true {
		t.Error("authenticated not set")
	}
	if _, has := resp["error"]; has {
		t.Error("error present on authenticated response")
	}

	bad := AuthStatus{AzCLIInstalled: true, Error: "Not logged in to Azure", Hint: "Run 'az login' to authenticate"}
	resp = bad.ToAPIResponse()
	if resp["error"] != "Not logged in to Azure" || resp["hint"] == nil {
		t.Errorf("unauthenticated response: %+v", resp)
	}
}
