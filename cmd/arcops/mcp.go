package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/mcptools"
)

// runMCP starts the MCP server in HTTP or stdio mode.
func runMCP(cfg config.Config) {
	stdio := hasFlag("--stdio")

	// stdout carries the protocol in stdio mode, logs go to stderr.
	logWriter := os.Stdout
	if stdio {
		logWriter = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: logLevel(cfg)})))

	reg, _, _ := buildRegistry(cfg)
	server := mcptools.BuildServer(reg, version)

	slog.Info("arcops MCP server",
		slog.String("mode", map[bool]string{true: "stdio", false: "http"}[stdio]),
		slog.Int("tools", len(reg.List())))

	if stdio {
		if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
			slog.Error("stdio server failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	port := cfg.MCPPort
	if p := getFlagValue("--port"); p != "" {
		port = p
	}

	handler := mcptools.HTTPHandler(server)
	mx := http.NewServeMux()
	mx.Handle("/mcp", handler)
	mx.Handle("/mcp/", handler)
	mx.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"arcops","version":"` + version + `"}`))
	})

	sigCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startHTTPServer(sigCtx, &http.Server{
		Addr:         ":" + port,
		Handler:      mx,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}, "MCP server")
}
