// Package runner executes a lesson's test cases against user code on the
// remote execution service and reconciles the results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/harness"
	"github.com/felixgeelhaar/codecraft/internal/piston"
)

// Config holds runner configuration
type Config struct {
	// CaseDelay is the pause between consecutive test cases
	CaseDelay time.Duration
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		CaseDelay: 100 * time.Millisecond,
	}
}

// Suite is one request to run a set of test cases against a submission
type Suite struct {
	Language string
	Code     string
	Tests    []domain.TestCase
	Harness  *domain.Harness
	Compare  domain.ComparePolicy

	// StdinFromInput sends each case's input on stdin as well
	StdinFromInput bool
}

// Orchestrator runs test cases sequentially through the rewriter and executor
type Orchestrator struct {
	config   Config
	executor piston.Executor
	rewriter *harness.Rewriter
	logger   *slog.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(cfg Config, executor piston.Executor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		config:   cfg,
		executor: executor,
		rewriter: harness.NewRewriter(),
		logger:   logger,
	}
}

// Validate checks the conditions that block a run before any case executes
func Validate(s Suite) error {
	if strings.TrimSpace(s.Code) == "" {
		return domain.ErrEmptySource
	}
	if !piston.IsSupported(s.Language) {
		return &piston.UnsupportedLanguageError{Language: s.Language}
	}
	if !s.Compare.IsValid() {
		return fmt.Errorf("%w: compare policy %q", domain.ErrInvalidInput, s.Compare)
	}
	return nil
}

// Run executes every test case in order and returns one result per case.
// Per-case failures are recorded and never stop the run. If ctx is cancelled,
// the remaining cases are recorded as cancelled.
func (o *Orchestrator) Run(ctx context.Context, s Suite) ([]domain.TestResult, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}

	track := harness.TrackFor(s.Language)
	results := make([]domain.TestResult, 0, len(s.Tests))

	o.logger.Debug("running suite",
		"language", s.Language,
		"cases", len(s.Tests),
		"lesson_harness", s.Harness != nil,
		"builtin_driver", harness.DriverFor(s.Language, s.Code))

	for i, tc := range s.Tests {
		if ctx.Err() != nil {
			results = append(results, cancelled(tc))
			continue
		}

		res := o.runCase(ctx, track, s, tc)
		results = append(results, res)

		o.logger.Debug("test case finished",
			"case", tc.Name,
			"passed", res.Passed,
			"kind", res.Kind,
			"duration", res.Duration)

		if i < len(s.Tests)-1 {
			o.pause(ctx)
		}
	}

	return results, nil
}

func (o *Orchestrator) runCase(ctx context.Context, track harness.Track, s Suite, tc domain.TestCase) domain.TestResult {
	start := time.Now()

	source, err := o.rewriter.Rewrite(s.Language, s.Code, tc.Input, s.Harness)
	if err != nil {
		return failed(tc, domain.FailureHarness, err, time.Since(start))
	}

	req := piston.Request{Language: s.Language, Source: source}
	if s.StdinFromInput {
		req.Stdin = tc.Input
	}

	resp, err := o.executor.Execute(ctx, req)
	if err != nil {
		kind := domain.FailureTransport
		switch {
		case errors.Is(err, piston.ErrUnsupportedLanguage):
			kind = domain.FailureUnsupportedLanguage
		case ctx.Err() != nil:
			kind = domain.FailureCancelled
		}
		return failed(tc, kind, err, time.Since(start))
	}

	res := classify(track, resp, tc, s.Compare)
	res.Duration = time.Since(start)
	return res
}

func (o *Orchestrator) pause(ctx context.Context) {
	if o.config.CaseDelay <= 0 {
		return
	}
	t := time.NewTimer(o.config.CaseDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func failed(tc domain.TestCase, kind domain.FailureKind, err error, d time.Duration) domain.TestResult {
	return domain.TestResult{
		Name:     tc.Name,
		Expected: tc.ExpectedOutput,
		Error:    err.Error(),
		Kind:     kind,
		Duration: d,
	}
}

func cancelled(tc domain.TestCase) domain.TestResult {
	return domain.TestResult{
		Name:     tc.Name,
		Expected: tc.ExpectedOutput,
		Error:    "run cancelled",
		Kind:     domain.FailureCancelled,
	}
}
