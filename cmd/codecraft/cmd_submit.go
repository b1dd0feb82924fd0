package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/queue"
	"github.com/spf13/cobra"
)

var (
	submitQuestion bool
	submitLanguage string
)

var submitCmd = &cobra.Command{
	Use:   "submit <lesson> <file>",
	Short: "Grade a source file on a codecraft-worker through RabbitMQ",
	Long: `Publish a grading job to the codecraft.runs queue and wait for a
codecraft-worker to report the result on codecraft.results.

Uses queue.url from the config (or CODECRAFT_RABBITMQ_URL). The daemon is not needed.
Exits non-zero unless every test passes.`,
	Args: cobra.ExactArgs(2),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitQuestion, "question", false, "Grade against a practice question")
	submitCmd.Flags().StringVar(&submitLanguage, "language", "", "Submission language for questions")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Queue.URL == "" {
		return fmt.Errorf("queue.url is not configured")
	}

	// queue logging is noise on a terminal
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	conn, err := queue.NewConnection(cfg.Queue.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	results := queue.NewResultConsumer(conn)
	if err := results.Start(cmd.Context()); err != nil {
		return err
	}
	defer results.Stop()

	job := queue.NewLessonJob("", args[0], string(code))
	if submitQuestion {
		job = queue.NewQuestionJob("", args[0], submitLanguage, string(code))
	}
	job.Timeout = int(timeout / time.Second)

	pending, release := results.Expect(job.ID)
	defer release()

	if err := queue.NewProducer(conn).PublishRunJob(cmd.Context(), job); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "queued job %s\n", job.ID)

	// allow for queueing on top of the grading timeout
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout+30*time.Second)
	defer cancel()

	var result *queue.RunResult
	select {
	case result = <-pending:
	case <-ctx.Done():
		return fmt.Errorf("no result for job %s: %w", job.ID, ctx.Err())
	}

	printRun(cmd.OutOrStdout(), runViewFromResult(result))

	if result.Status != queue.StatusCompleted || result.Total == 0 || result.Passed != result.Total {
		if result.Summary == "" {
			return fmt.Errorf("job %s", result.Status)
		}
		return fmt.Errorf("%s", result.Summary)
	}
	return nil
}

func runViewFromResult(r *queue.RunResult) *runView {
	return &runView{
		ID:      r.JobID.String(),
		Status:  r.Status,
		Error:   r.Error,
		Results: r.Results,
		Summary: r.Summary,
		Passed:  r.Passed,
		Total:   r.Total,
	}
}
