package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed endpoints.yaml
var defaultEndpointsYAML []byte

// Endpoint is one Arc egress target from the endpoints catalog.
type Endpoint struct {
	FQDN     string `yaml:"fqdn" json:"fqdn"`
	Port     int    `yaml:"port" json:"port"`
	TLS      bool   `yaml:"tls" json:"tls"`
	Required bool   `yaml:"required" json:"required"`
	Category string `yaml:"category" json:"category"`
}

// Wildcard reports whether the FQDN contains a wildcard label and therefore
// cannot be dialed directly.
func (e Endpoint) Wildcard() bool {
	for i := 0; i < len(e.FQDN); i++ {
		if e.FQDN[i] == '*' {
			return true
		}
	}
	return false
}

// Catalog is the parsed endpoints configuration.
type Catalog struct {
	Endpoints []Endpoint `yaml:"endpoints"`
}

// KeyEndpoints are the FQDNs checked in quick mode.
var KeyEndpoints = []string{
	"management.azure.com",
	"login.microsoftonline.com",
	"mcr.microsoft.com",
	"gbl.his.arc.azure.com",
}

// LoadEndpoints reads the endpoints catalog from path, falling back to the
// built-in catalog when path is empty or missing.
func LoadEndpoints(path string) (*Catalog, error) {
	data := defaultEndpointsYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read endpoints catalog %s: %w", path, err)
			}
		} else {
			data = b
		}
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse endpoints catalog: %w", err)
	}
	return &cat, nil
}

// Filter returns endpoints matching the given categories (empty = all) and,
// when requiredOnly is set, only required ones.
func (c *Catalog) Filter(categories []string, requiredOnly bool) []Endpoint {
	want := map[string]bool{}
	for _, cat := range categories {
		want[cat] = true
	}

	var out []Endpoint
	for _, ep := range c.Endpoints {
		if len(want) > 0 && !want[ep.Category] {
			continue
		}
		if requiredOnly && !ep.Required {
			continue
		}
		out = append(out, ep)
	}
	return out
}

// ForMode returns the endpoints covered by a connectivity check mode:
// "quick" keeps key or required endpoints, "full" and "endpoints-only"
// keep everything.
func (c *Catalog) ForMode(mode string, categories []string) []Endpoint {
	eps := c.Filter(categories, false)
	if mode != "quick" {
		return eps
	}

	key := map[string]bool{}
	for _, fqdn := range KeyEndpoints {
		key[fqdn] = true
	}
	var out []Endpoint
	for _, ep := range eps {
		if key[ep.FQDN] || ep.Required {
			out = append(out, ep)
		}
	}
	return out
}
