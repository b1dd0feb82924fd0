package piston

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ErrRateLimited is returned when waiting on the local rate limiter fails
var ErrRateLimited = errors.New("rate limit exceeded")

// ResilientExecutor wraps an Executor with resilience patterns from fortify
type ResilientExecutor struct {
	executor       Executor
	circuitBreaker circuitbreaker.CircuitBreaker[*Response]
	retrier        retry.Retry[*Response]
	bulkhead       bulkhead.Bulkhead[*Response]
	rateLimit      ratelimit.RateLimiter
	logger         *slog.Logger
	key            string
}

// ResilientConfig holds configuration for the resilient executor
type ResilientConfig struct {
	// EnableCircuitBreaker opens after repeated transport failures
	EnableCircuitBreaker bool

	// EnableRetry retries 429/5xx responses with backoff. Off by default:
	// a failed case is reported, not re-run.
	EnableRetry bool

	// EnableBulkhead limits concurrent calls to the service
	EnableBulkhead bool

	// EnableRateLimit limits calls per second
	EnableRateLimit bool

	// MaxConcurrent for bulkhead (default: 4)
	MaxConcurrent int

	// RatePerSecond for rate limiting (default: 5)
	RatePerSecond int

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns defaults suited to the shared public service
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          false,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxConcurrent:        4,
		RatePerSecond:        5,
	}
}

// NewResilientExecutor wraps an executor with resilience patterns using fortify
func NewResilientExecutor(executor Executor, cfg ResilientConfig) *ResilientExecutor {
	re := &ResilientExecutor{
		executor: executor,
		logger:   cfg.Logger,
		key:      "piston",
	}

	if cfg.EnableCircuitBreaker {
		re.circuitBreaker = circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     20 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				if re.logger != nil {
					re.logger.Warn("circuit breaker state change",
						"executor", re.key,
						"from", from.String(),
						"to", to.String())
				}
			},
		})
	}

	if cfg.EnableRetry {
		re.retrier = retry.New[*Response](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 4
		}
		re.bulkhead = bulkhead.New[*Response](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 4,
			QueueTimeout:  30 * time.Second,
		})
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 5
		}
		re.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 2,
			Interval: time.Second,
		})
	}

	return re
}

// Execute validates the language, then runs the call through the configured
// patterns. Validation failures never reach the breaker.
func (r *ResilientExecutor) Execute(ctx context.Context, req Request) (*Response, error) {
	if !IsSupported(req.Language) {
		return nil, &UnsupportedLanguageError{Language: req.Language}
	}

	// Calls over the rate are delayed, not failed. Only a cancelled context
	// or an expired wait ends the call.
	if r.rateLimit != nil {
		if err := r.rateLimit.Wait(ctx, r.key); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to execute code: %w: %w", ErrRateLimited, err)
		}
	}

	operation := func(ctx context.Context) (*Response, error) {
		return r.executor.Execute(ctx, req)
	}

	if r.bulkhead != nil {
		inner := operation
		operation = func(ctx context.Context) (*Response, error) {
			return r.bulkhead.Execute(ctx, inner)
		}
	}

	if r.circuitBreaker != nil && r.retrier != nil {
		return r.circuitBreaker.Execute(ctx, func(ctx context.Context) (*Response, error) {
			return r.retrier.Do(ctx, operation)
		})
	}

	if r.circuitBreaker != nil {
		return r.circuitBreaker.Execute(ctx, operation)
	}

	if r.retrier != nil {
		return r.retrier.Do(ctx, operation)
	}

	return operation(ctx)
}

// Close stops the bulkhead worker and the rate limiter. Calls must have
// returned before Close.
func (r *ResilientExecutor) Close() error {
	var errs []error
	if r.bulkhead != nil {
		errs = append(errs, r.bulkhead.Close())
	}
	if r.rateLimit != nil {
		errs = append(errs, r.rateLimit.Close())
	}
	return errors.Join(errs...)
}

// isRetryable checks if an error is retryable based on HTTP semantics
func isRetryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Retryable()
}
