// Command codecraft-worker grades jobs from the codecraft.runs queue and
// publishes results to codecraft.results.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/codecraft/internal/config"
	"github.com/felixgeelhaar/codecraft/internal/lesson"
	"github.com/felixgeelhaar/codecraft/internal/logging"
	"github.com/felixgeelhaar/codecraft/internal/queue"
	"github.com/felixgeelhaar/codecraft/internal/runner"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker error", "error", err)
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

	logFile, err := logging.Setup(dir, "codecraft-worker", logging.ParseLevel(cfg.Daemon.LogLevel))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	registry, err := lesson.Open(cfg.Content.Path)
	if err != nil {
		return err
	}

	executor := cfg.NewExecutor(slog.Default())
	defer executor.Close()

	orchestrator := runner.NewOrchestrator(runner.Config{CaseDelay: cfg.CaseDelay()}, executor, slog.Default())

	conn, err := queue.NewConnection(cfg.Queue.URL)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer conn.Close()

	consumer := queue.NewConsumer(conn, queue.Grader(registry, orchestrator), queue.ConsumerConfig{
		Workers:  cfg.Queue.Workers,
		Prefetch: cfg.Queue.Prefetch,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		return err
	}

	slog.Info("worker started",
		"piston", cfg.Piston.BaseURL,
		"workers", cfg.Queue.Workers,
		"lessons", registry.Stats().Lessons,
	)

	g, gctx := errgroup.WithContext(ctx)

	// Deliveries stop when the channel dies; exit so a supervisor restarts us
	g.Go(func() error {
		select {
		case <-consumer.Done():
			if ctx.Err() == nil {
				return errors.New("consumer stopped: delivery channel closed")
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		consumer.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("worker stopped")
	return nil
}
