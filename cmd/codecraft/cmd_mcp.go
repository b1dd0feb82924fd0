package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/codecraft/internal/lesson"
	mcpserver "github.com/felixgeelhaar/codecraft/internal/mcp"
	"github.com/felixgeelhaar/codecraft/internal/runner"
	"github.com/spf13/cobra"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve lessons and test runs over MCP",
	Long: `Start an MCP server exposing CodeCraft lessons and grading as tools.

Serves on stdio by default, for editor integrations. Code runs on the Piston
service from the config; the daemon is not needed.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve over HTTP on this address instead of stdio")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout carries the protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	registry, err := lesson.Open(cfg.Content.Path)
	if err != nil {
		return err
	}

	executor := cfg.NewExecutor(logger)
	defer executor.Close()

	srv := mcpserver.NewServer(mcpserver.Config{
		Registry:     registry,
		Orchestrator: runner.NewOrchestrator(runner.Config{CaseDelay: cfg.CaseDelay()}, executor, logger),
		Version:      Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if mcpHTTPAddr != "" {
		return srv.ServeHTTP(ctx, mcpHTTPAddr)
	}
	return srv.ServeStdio(ctx)
}
