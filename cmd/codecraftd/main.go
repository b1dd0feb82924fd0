package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/config"
	"github.com/felixgeelhaar/codecraft/internal/daemon"
	"github.com/felixgeelhaar/codecraft/internal/logging"
	"github.com/felixgeelhaar/codecraft/internal/queue"
	"golang.org/x/sync/errgroup"
)

const (
	pidFileName     = "codecraftd.pid"
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	dir, err := config.EnsureCodecraftDir()
	if err != nil {
		return fmt.Errorf("ensure codecraft dir: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := logging.Setup(dir, "codecraftd", logging.ParseLevel(cfg.Daemon.LogLevel))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	pidPath := filepath.Join(dir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Finished runs are published to RabbitMQ when the queue is enabled
	var publisher daemon.RunPublisher
	if cfg.Queue.Enabled {
		conn, err := queue.NewConnection(cfg.Queue.URL)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer conn.Close()
		publisher = queue.NewProducer(conn)
	}

	server, err := daemon.NewServer(ctx, daemon.ServerConfig{
		Config:    cfg,
		Publisher: publisher,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "reason", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("daemon stopped")
	return nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}
