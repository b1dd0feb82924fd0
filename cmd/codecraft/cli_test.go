package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/config"
	daemonsrv "github.com/felixgeelhaar/codecraft/internal/daemon"
	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/piston"
	"github.com/felixgeelhaar/codecraft/internal/queue"
	"github.com/felixgeelhaar/codecraft/internal/sandbox"
	"github.com/spf13/cobra"
)

// fixedExecutor answers every request with the same stdout
type fixedExecutor struct {
	stdout string
}

func (e *fixedExecutor) Execute(ctx context.Context, req piston.Request) (*piston.Response, error) {
	return &piston.Response{Language: req.Language, Run: &piston.Stage{Stdout: e.stdout}}, nil
}

// startDaemon serves a real daemon backed by a fixed executor and points the
// CLI at it
func startDaemon(t *testing.T, stdout string) {
	t.Helper()

	cfg := config.DefaultLocalConfig()
	cfg.Daemon.RateLimit = 0
	cfg.Runner.CaseDelayMS = 0

	server, err := daemonsrv.NewServer(context.Background(), daemonsrv.ServerConfig{
		Config:   cfg,
		Executor: &fixedExecutor{stdout: stdout},
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = server.Shutdown(context.Background())
	})

	prev := daemonAddr
	daemonAddr = ts.URL
	t.Cleanup(func() { daemonAddr = prev })
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.src")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDaemonClientErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"lesson not found","status":404,"details":"lesson not found: nope"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}
	}))
	defer ts.Close()

	client := newDaemonClient(ts.URL+"/", time.Second)
	ctx := context.Background()

	err := client.get(ctx, "/json", nil)
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("get() error = %v; want *apiError", err)
	}
	if apiErr.Status != http.StatusNotFound || err.Error() != "lesson not found: lesson not found: nope" {
		t.Errorf("apiError = %+v (%q)", apiErr, err.Error())
	}

	err = client.get(ctx, "/plain", nil)
	if !errors.As(err, &apiErr) || apiErr.Message != "502 Bad Gateway" {
		t.Errorf("get(plain) error = %v", err)
	}

	unreachable := newDaemonClient("http://127.0.0.1:1", 100*time.Millisecond)
	if unreachable.healthy(ctx) {
		t.Error("healthy() = true for closed port")
	}
}

func TestCoursesAndShow(t *testing.T) {
	startDaemon(t, "")

	cmd, out := testCommand()
	if err := runCourses(cmd, nil); err != nil {
		t.Fatalf("runCourses() error = %v", err)
	}
	if !strings.Contains(out.String(), "dsa *") || !strings.Contains(out.String(), "vlsi *") {
		t.Errorf("courses output = %q", out.String())
	}

	cmd, out = testCommand()
	if err := runLessons(cmd, []string{"vlsi"}); err != nil {
		t.Fatalf("runLessons() error = %v", err)
	}
	if !strings.Contains(out.String(), "getting-started") {
		t.Errorf("lessons output = %q", out.String())
	}

	cmd, out = testCommand()
	if err := runShow(cmd, []string{"count-marketers"}); err != nil {
		t.Fatalf("runShow() error = %v", err)
	}
	if !strings.Contains(out.String(), "Tests (4):") || !strings.Contains(out.String(), "Next: sum-array") {
		t.Errorf("show output = %q", out.String())
	}
	if strings.Contains(out.String(), "Solution:") {
		t.Error("solution shown without --solution")
	}

	cmd, _ = testCommand()
	err := runLessons(cmd, []string{"nope"})
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("runLessons(nope) error = %v; want 404", err)
	}
}

func TestGradeLesson(t *testing.T) {
	startDaemon(t, "0\n")
	path := writeSource(t, "def count_marketers(data):\n    return 0\n")

	cmd, out := testCommand()
	err := runTest(cmd, []string{"count-marketers", path})

	// the last two cases expect 0
	if err == nil || err.Error() != "2/4 tests passed" {
		t.Fatalf("runTest() error = %v; want 2/4 tests passed", err)
	}
	if strings.Count(out.String(), "✓") != 2 || strings.Count(out.String(), "✗") != 2 {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "(mismatch)") {
		t.Errorf("output should name the failure kind: %q", out.String())
	}
}

func TestGradeQuestion(t *testing.T) {
	startDaemon(t, "[0,1]\n")
	path := writeSource(t, "def twoSum(nums, target):\n    pass\n")

	testQuestion = true
	defer func() { testQuestion = false }()

	cmd, out := testCommand()
	err := runTest(cmd, []string{"two-sum", path})
	if err == nil || err.Error() != "2/3 tests passed" {
		t.Fatalf("runTest() error = %v; want 2/3 tests passed", err)
	}
	if !strings.Contains(out.String(), "2/3 tests passed") {
		t.Errorf("output = %q", out.String())
	}
}

func TestExec(t *testing.T) {
	startDaemon(t, "hello\n")
	path := writeSource(t, "print('hello')")

	cmd, out := testCommand()
	if err := runExec(cmd, []string{"python", path}); err != nil {
		t.Fatalf("runExec() error = %v", err)
	}
	if out.String() != "hello\n" {
		t.Errorf("output = %q; want hello", out.String())
	}

	cmd, _ = testCommand()
	err := runExec(cmd, []string{"cobol", path})
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("runExec(cobol) error = %v; want 400", err)
	}
}

func TestPrintRun(t *testing.T) {
	var out bytes.Buffer
	printRun(&out, &runView{
		Results: []domain.TestResult{
			{Name: "AND gate truth table test 1", Passed: false, Output: "Output: out=0\n", Expected: "out=0", Kind: domain.FailureMismatch},
			{Name: "AND gate truth table test 2", Passed: false, Error: "Compilation/Simulation Error:\nsyntax error", Kind: domain.FailureRuntime},
		},
		Summary: "0/2 tests passed",
	})

	for _, want := range []string{
		"✗ AND gate truth table test 1 (mismatch)",
		"expected: out=0",
		"actual:   Output: out=0",
		"    syntax error",
		"0/2 tests passed",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	var content strings.Builder
	for i := 0; i < 100; i++ {
		content.WriteString(strings.Repeat("x", 9) + "\n")
	}
	content.WriteString("last line\n")
	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := tail(&out, f, 35); err != nil {
		t.Fatalf("tail() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[len(lines)-1] != "last line" {
		t.Errorf("last line = %q", lines[len(lines)-1])
	}
	for _, l := range lines {
		if l != "last line" && l != "xxxxxxxxx" {
			t.Errorf("partial line %q", l)
		}
	}
}

func TestSandboxConfig(t *testing.T) {
	cfg := config.DefaultLocalConfig()
	cfg.Sandbox.Port = 2100

	sb := sandboxConfig(cfg)
	if sb.Port != 2100 || sb.Name != cfg.Sandbox.Name || len(sb.Runtimes) != len(cfg.Sandbox.Runtimes) {
		t.Errorf("sandboxConfig() = %+v", sb)
	}
	if sb.URL() != cfg.SandboxURL() {
		t.Errorf("URL() = %q; want %q", sb.URL(), cfg.SandboxURL())
	}

	var out bytes.Buffer
	printSandbox(&out, &sandbox.Info{Name: "codecraft-piston", Status: sandbox.StatusMissing, URL: sb.URL()})
	if !strings.Contains(out.String(), "Status:    missing") {
		t.Errorf("printSandbox() = %q", out.String())
	}
}

func TestRunViewFromResult(t *testing.T) {
	result := &queue.RunResult{Status: queue.StatusCompleted}
	result.SetResults([]domain.TestResult{
		{Name: "Basic count test", Passed: true},
		{Name: "Empty list test", Passed: false, Output: "1", Expected: "0", Kind: domain.FailureMismatch},
	})

	view := runViewFromResult(result)
	if view.Passed != 1 || view.Total != 2 || view.Summary != "1/2 tests passed" {
		t.Errorf("view = %+v", view)
	}

	var out bytes.Buffer
	printRun(&out, view)
	if !strings.Contains(out.String(), "✓ Basic count test") || !strings.Contains(out.String(), "✗ Empty list test (mismatch)") {
		t.Errorf("output = %q", out.String())
	}
}
