// Webhook receiver - enriches agent conversations with knowledge-graph
// context, discovered peer agents, and relevant tools on every inbound
// message.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/api"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/config"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/graphiti"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/letta"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/matrix"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/memory"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/pipeline"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/registry"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/toolfinder"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/tracker"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/version"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using existing environment")
	}

	// Configuration errors are fatal: the process refuses to serve.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting webhook receiver",
		"version", version.Full(),
		"http_port", cfg.HTTPPort)

	lettaClient := letta.NewClient(cfg.Letta.BaseURL, cfg.Letta.Password, cfg.Letta.APIKey)
	graphService := graphiti.NewService(graphiti.NewClient(cfg.Graphiti.URL))
	blockManager := memory.NewManager(lettaClient)

	var registryClient pipeline.AgentSearcher
	if cfg.Registry.URL != "" {
		registryClient = registry.NewClient(cfg.Registry.URL)
	} else {
		slog.Warn("AGENT_REGISTRY_URL not set, agent discovery disabled")
	}

	var toolClient pipeline.ToolAttacher
	if cfg.Tools.URL != "" {
		toolClient = toolfinder.NewClient(cfg.Tools.URL, lettaClient)
	} else {
		slog.Warn("TOOL_FINDER_URL not set, tool attachment disabled")
	}

	var notifier *matrix.Notifier
	if cfg.Matrix.URL != "" {
		notifier = matrix.NewNotifier(matrix.NewClient(cfg.Matrix.URL, cfg.Matrix.Room), 2)
	} else {
		slog.Warn("MATRIX_CLIENT_URL not set, new-agent notifications disabled")
	}
	defer notifier.Stop()

	agentTracker := tracker.New()
	orchestrator := pipeline.NewOrchestrator(
		agentTracker,
		notifier,
		graphService,
		blockManager,
		registryClient,
		toolClient,
		pipeline.Limits{
			MaxNodes:  cfg.Graphiti.MaxNodes,
			MaxFacts:  cfg.Graphiti.MaxFacts,
			MaxAgents: cfg.Registry.MaxAgents,
			MinScore:  cfg.Registry.MinScore,
		},
	)

	server := api.NewServer(cfg, orchestrator, agentTracker)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(":" + cfg.HTTPPort)
	}()
	slog.Info("HTTP server listening", "addr", ":"+cfg.HTTPPort)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
