package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smitzlroy/arcops-mcp/internal/chat"
	"github.com/smitzlroy/arcops-mcp/internal/config"
	"github.com/smitzlroy/arcops-mcp/internal/models"
	"github.com/smitzlroy/arcops-mcp/internal/provider"
	"github.com/smitzlroy/arcops-mcp/internal/server"
)

// runServe starts the REST API server.
func runServe(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg)})))

	reg, run, az := buildRegistry(cfg)
	llm := provider.NewFromEnv()
	mgr := models.NewManager(run)

	chatSvc := chat.NewService(llm, reg)
	chatSvc.ModelID = mgr.Current

	srv := server.New(cfg, reg, chatSvc, az, mgr, run)

	port := cfg.Port
	if p := getFlagValue("--port"); p != "" {
		port = p
	}

	slog.Info("arcops REST server",
		slog.String("port", port),
		slog.Int("tools", len(reg.List())))

	sigCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startHTTPServer(sigCtx, &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ChatTimeout,
	}, "REST server")
}

func logLevel(cfg config.Config) slog.Level {
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// startHTTPServer runs srv in a goroutine and shuts it down when ctx is done.
func startHTTPServer(ctx context.Context, srv *http.Server, label string) {
	go func() {
		slog.Info(label+" listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error(label+" failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down " + label)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
	slog.Info(label + " stopped")
}
