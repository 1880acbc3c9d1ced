// Package config loads arcops configuration from environment variables and
// the endpoints catalog used by the connectivity tools.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all arcops configuration.
type Config struct {
	Port    string
	MCPPort string

	LLMURL    string
	LLMModel  string
	LLMAPIKey string

	EndpointsPath string
	ArtifactsDir  string
	PolicyPath    string

	CommandTimeout time.Duration
	ChatTimeout    time.Duration

	MaxToolIterations int
	LogLevel          string
}

// Init loads config from environment variables.
func Init() Config {
	return Config{
		Port:              env("ARCOPS_PORT", "8080"),
		MCPPort:           env("ARCOPS_MCP_PORT", "8765"),
		LLMURL:            env("ARCOPS_LLM_URL", "http://localhost:5273/v1"),
		LLMModel:          env("ARCOPS_LLM_MODEL", "qwen2.5-1.5b"),
		LLMAPIKey:         env("ARCOPS_LLM_API_KEY", "foundry-local"),
		EndpointsPath:     env("ARCOPS_ENDPOINTS_PATH", ""),
		ArtifactsDir:      env("ARCOPS_ARTIFACTS_DIR", "./artifacts"),
		PolicyPath:        env("ARCOPS_POLICY_PATH", ""),
		CommandTimeout:    envDuration("ARCOPS_COMMAND_TIMEOUT", 120*time.Second),
		ChatTimeout:       envDuration("ARCOPS_CHAT_TIMEOUT", 300*time.Second),
		MaxToolIterations: envInt("ARCOPS_MAX_TOOL_ITERATIONS", 5),
		LogLevel:          env("ARCOPS_LOG_LEVEL", "info"),
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// envDuration parses seconds from env.
func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

// LoadDotenv loads a .env file into os environment if it exists.
func LoadDotenv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}
