package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run represents one execution of a lesson's test cases against user code
type Run struct {
	ID         uuid.UUID    `json:"id"`
	SessionID  string       `json:"session_id,omitempty"`
	LessonID   string       `json:"lesson_id,omitempty"`
	Language   string       `json:"language"`
	Status     RunStatus    `json:"status"`
	Results    []TestResult `json:"results"`
	Error      string       `json:"error,omitempty"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// RunStatus represents the current state of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// FailureKind classifies why a test case did not pass
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureUnsupportedLanguage FailureKind = "unsupported_language"
	FailureTransport           FailureKind = "transport"
	FailureHarness             FailureKind = "harness"
	FailureRuntime             FailureKind = "runtime"
	FailureMismatch            FailureKind = "mismatch"
	FailureCancelled           FailureKind = "cancelled"
)

// TestResult is the outcome of a single test case. Expected always echoes the
// case's expected output.
type TestResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Output   string        `json:"output,omitempty"`
	Expected string        `json:"expected"`
	Error    string        `json:"error,omitempty"`
	Kind     FailureKind   `json:"kind,omitempty"`
	Duration time.Duration `json:"duration"`
}

// NewRun creates a pending run
func NewRun(sessionID, lessonID, language string) *Run {
	return &Run{
		ID:        uuid.New(),
		SessionID: sessionID,
		LessonID:  lessonID,
		Language:  language,
		Status:    RunStatusPending,
		CreatedAt: time.Now(),
	}
}

// IsTerminal returns true if the run is in a terminal state
func (r *Run) IsTerminal() bool {
	return r.Status == RunStatusCompleted ||
		r.Status == RunStatusCancelled ||
		r.Status == RunStatusFailed
}

// Passed returns the number of passing results
func (r *Run) Passed() int {
	passed, _ := Summarize(r.Results)
	return passed
}

// Success returns true if the run completed with every test passing
func (r *Run) Success() bool {
	if r.Status != RunStatusCompleted || len(r.Results) == 0 {
		return false
	}
	return r.Passed() == len(r.Results)
}

// Summary returns the "X/N tests passed" line
func (r *Run) Summary() string {
	return FormatSummary(r.Results)
}

// Summarize counts passing results
func Summarize(results []TestResult) (passed, total int) {
	for _, res := range results {
		if res.Passed {
			passed++
		}
	}
	return passed, len(results)
}

// FormatSummary renders the pass count for display
func FormatSummary(results []TestResult) string {
	passed, total := Summarize(results)
	return fmt.Sprintf("%d/%d tests passed", passed, total)
}
