package runner

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/harness"
	"github.com/felixgeelhaar/codecraft/internal/piston"
)

// Output is the result of executing source once without test cases
type Output struct {
	Language string             `json:"language"`
	Version  string             `json:"version,omitempty"`
	Stdout   string             `json:"stdout"`
	Error    string             `json:"error,omitempty"`
	Kind     domain.FailureKind `json:"kind,omitempty"`
	Duration time.Duration      `json:"duration"`
}

// Execute runs source as written and reports its output the way a test case
// would see it, without comparing against an expectation
func (o *Orchestrator) Execute(ctx context.Context, language, code, stdin string) (*Output, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrEmptySource
	}

	start := time.Now()
	resp, err := o.executor.Execute(ctx, piston.Request{
		Language: language,
		Source:   code,
		Stdin:    stdin,
	})
	if err != nil {
		return nil, err
	}

	res := classify(harness.TrackFor(language), resp, domain.TestCase{}, domain.CompareExact)
	out := &Output{
		Language: language,
		Stdout:   res.Output,
		Error:    res.Error,
		Duration: time.Since(start),
	}
	if res.Kind != domain.FailureMismatch {
		out.Kind = res.Kind
	}
	if resp != nil {
		out.Version = resp.Version
	}
	return out, nil
}
