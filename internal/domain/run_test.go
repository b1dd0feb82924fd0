package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestRun_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status RunStatus
		want   bool
	}{
		{"pending", RunStatusPending, false},
		{"running", RunStatusRunning, false},
		{"completed", RunStatusCompleted, true},
		{"cancelled", RunStatusCancelled, true},
		{"failed", RunStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &Run{ID: uuid.New(), Status: tt.status}
			if got := run.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_Success(t *testing.T) {
	pass := TestResult{Passed: true}
	fail := TestResult{Passed: false, Kind: FailureMismatch}

	tests := []struct {
		name    string
		status  RunStatus
		results []TestResult
		want    bool
	}{
		{"no results", RunStatusCompleted, nil, false},
		{"all passing", RunStatusCompleted, []TestResult{pass, pass}, true},
		{"one failing", RunStatusCompleted, []TestResult{pass, fail}, false},
		{"cancelled", RunStatusCancelled, []TestResult{pass}, false},
		{"running", RunStatusRunning, []TestResult{pass}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &Run{ID: uuid.New(), Status: tt.status, Results: tt.results}
			if got := run.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	results := []TestResult{{Passed: true}, {Passed: false}, {Passed: true}}

	passed, total := Summarize(results)
	if passed != 2 || total != 3 {
		t.Errorf("Summarize() = %d, %d; want 2, 3", passed, total)
	}
	if got := FormatSummary(results); got != "2/3 tests passed" {
		t.Errorf("FormatSummary() = %q; want %q", got, "2/3 tests passed")
	}
	if got := FormatSummary(nil); got != "0/0 tests passed" {
		t.Errorf("FormatSummary(nil) = %q; want %q", got, "0/0 tests passed")
	}
}

func TestNewRun(t *testing.T) {
	run := NewRun("sess-1", "count-marketers", "python")

	if run.ID == uuid.Nil {
		t.Error("ID should be set")
	}
	if run.Status != RunStatusPending {
		t.Errorf("Status = %v; want %v", run.Status, RunStatusPending)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}
