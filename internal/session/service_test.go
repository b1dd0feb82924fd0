package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/piston"
	"github.com/felixgeelhaar/codecraft/internal/runner"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCatalog struct {
	lessons   map[string]*domain.Lesson
	questions map[string]*domain.Question
}

func (c *fakeCatalog) Lesson(id string) (*domain.Lesson, error) {
	l, ok := c.lessons[id]
	if !ok {
		return nil, domain.ErrLessonNotFound
	}
	return l, nil
}

func (c *fakeCatalog) Question(id string) (*domain.Question, error) {
	q, ok := c.questions[id]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	return q, nil
}

// echoExecutor prints whatever the submitted source says after "print:"
type echoExecutor struct {
	mu       sync.Mutex
	requests []piston.Request
}

func (e *echoExecutor) Execute(ctx context.Context, req piston.Request) (*piston.Response, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()

	out := ""
	if i := strings.Index(req.Source, "print:"); i >= 0 {
		out = strings.TrimSpace(req.Source[i+len("print:"):])
	}
	return &piston.Response{Run: &piston.Stage{Stdout: out + "\n"}}, nil
}

func (e *echoExecutor) Requests() []piston.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]piston.Request(nil), e.requests...)
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		lessons: map[string]*domain.Lesson{
			"hello": {
				ID:       "hello",
				CourseID: "dsa",
				Problem:  domain.Problem{Language: "python", StarterCode: "print:"},
				Tests: []domain.TestCase{
					{Name: "one", ExpectedOutput: "hi"},
					{Name: "two", ExpectedOutput: "hi"},
				},
			},
			"empty": {
				ID:      "empty",
				Problem: domain.Problem{Language: "python", StarterCode: "x"},
			},
		},
		questions: map[string]*domain.Question{
			"two-sum": {
				ID:          "two-sum",
				StarterCode: map[string]string{"python": "def twoSum(): pass", "javascript": "function twoSum() {}"},
				TestCases: []domain.TestCase{
					{Name: "Test case 1", Input: "nums = [2,7], target = 9", ExpectedOutput: "[0,1]"},
				},
			},
		},
	}
}

func setupService(t *testing.T) (*Service, *runner.Service, *echoExecutor) {
	t.Helper()

	exec := &echoExecutor{}
	orch := runner.NewOrchestrator(runner.Config{}, exec, nil)
	runs := runner.NewService(orch, nil)
	t.Cleanup(runs.Close)

	svc := NewService(NewStore(), testCatalog(), runs, nil)
	runs.OnComplete(svc.HandleRunComplete)
	return svc, runs, exec
}

func TestService_Create(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      CreateRequest
		wantKind Kind
		wantLang string
		wantCode string
		wantErr  error
	}{
		{
			name:     "lesson",
			req:      CreateRequest{LessonID: "hello"},
			wantKind: KindLesson,
			wantLang: "python",
			wantCode: "print:",
		},
		{
			name:     "question default language",
			req:      CreateRequest{QuestionID: "two-sum"},
			wantKind: KindQuestion,
			wantLang: "python",
			wantCode: "def twoSum(): pass",
		},
		{
			name:     "question javascript",
			req:      CreateRequest{QuestionID: "two-sum", Language: "javascript"},
			wantKind: KindQuestion,
			wantLang: "javascript",
			wantCode: "function twoSum() {}",
		},
		{
			name:    "question unsupported language",
			req:     CreateRequest{QuestionID: "two-sum", Language: "cobol"},
			wantErr: piston.ErrUnsupportedLanguage,
		},
		{
			name:    "lesson language mismatch",
			req:     CreateRequest{LessonID: "hello", Language: "go"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing lesson",
			req:     CreateRequest{LessonID: "nope"},
			wantErr: domain.ErrLessonNotFound,
		},
		{
			name:    "nothing requested",
			req:     CreateRequest{},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "both requested",
			req:     CreateRequest{LessonID: "hello", QuestionID: "two-sum"},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.Create(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if sess.Kind != tt.wantKind {
				t.Errorf("Kind = %s; want %s", sess.Kind, tt.wantKind)
			}
			if sess.Language != tt.wantLang {
				t.Errorf("Language = %s; want %s", sess.Language, tt.wantLang)
			}
			if sess.Code != tt.wantCode {
				t.Errorf("Code = %q; want %q", sess.Code, tt.wantCode)
			}
			if sess.Status != StatusActive {
				t.Errorf("Status = %s; want active", sess.Status)
			}
		})
	}
}

func TestService_UpdateCodeNotifies(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var got []string
	unsubscribe := svc.Subscribe(func(s *Session) {
		got = append(got, s.Code)
	})

	if _, err := svc.UpdateCode(ctx, sess.ID, "print: a"); err != nil {
		t.Fatalf("UpdateCode() error = %v", err)
	}
	unsubscribe()
	if _, err := svc.UpdateCode(ctx, sess.ID, "print: b"); err != nil {
		t.Fatalf("UpdateCode() error = %v", err)
	}

	if len(got) != 1 || got[0] != "print: a" {
		t.Errorf("notifications = %v; want [print: a]", got)
	}

	stored, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Code != "print: b" {
		t.Errorf("Code = %q; want %q", stored.Code, "print: b")
	}

	if _, err := svc.UpdateCode(ctx, "missing", "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("UpdateCode(missing) error = %v; want ErrSessionNotFound", err)
	}
}

func TestService_RunTestsPasses(t *testing.T) {
	svc, _, exec := setupService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	code := "print: hi"
	run, err := svc.RunTests(ctx, sess.ID, RunRequest{Code: &code})
	if err != nil {
		t.Fatalf("RunTests() error = %v", err)
	}

	final, err := svc.WaitRun(ctx, sess.ID, run.ID.String())
	if err != nil {
		t.Fatalf("WaitRun() error = %v", err)
	}
	if final.Status != domain.RunStatusCompleted {
		t.Errorf("Status = %s; want completed", final.Status)
	}
	if final.Summary() != "2/2 tests passed" {
		t.Errorf("Summary() = %q", final.Summary())
	}
	if n := len(exec.Requests()); n != 2 {
		t.Errorf("executor calls = %d; want 2", n)
	}

	// completion hooks run after Wait returns
	deadline := time.Now().Add(time.Second)
	for {
		stored, err := svc.Get(ctx, sess.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if stored.Status == StatusCompleted {
			if stored.RunCount != 1 || stored.LastRunID != run.ID.String() {
				t.Errorf("RunCount = %d, LastRunID = %s", stored.RunCount, stored.LastRunID)
			}
			if stored.Code != code {
				t.Errorf("Code = %q; want %q", stored.Code, code)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session was not completed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestService_RunTestsFailureKeepsSessionActive(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	run, err := svc.RunTests(ctx, sess.ID, RunRequest{})
	if err != nil {
		t.Fatalf("RunTests() error = %v", err)
	}
	final, err := svc.WaitRun(ctx, sess.ID, run.ID.String())
	if err != nil {
		t.Fatalf("WaitRun() error = %v", err)
	}
	if final.Success() {
		t.Fatal("run should fail with empty output")
	}

	stored, _ := svc.Get(ctx, sess.ID)
	if stored.Status != StatusActive {
		t.Errorf("Status = %s; want active", stored.Status)
	}
}

func TestService_QuestionRunUsesStdin(t *testing.T) {
	svc, _, exec := setupService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, CreateRequest{QuestionID: "two-sum"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	run, err := svc.RunTests(ctx, sess.ID, RunRequest{})
	if err != nil {
		t.Fatalf("RunTests() error = %v", err)
	}
	if _, err := svc.WaitRun(ctx, sess.ID, run.ID.String()); err != nil {
		t.Fatalf("WaitRun() error = %v", err)
	}

	reqs := exec.Requests()
	if len(reqs) != 1 {
		t.Fatalf("executor calls = %d; want 1", len(reqs))
	}
	if reqs[0].Stdin != "nums = [2,7], target = 9" {
		t.Errorf("Stdin = %q", reqs[0].Stdin)
	}
	if !strings.Contains(reqs[0].Source, `print("[0,1]")`) {
		t.Errorf("Source missing placeholder driver:\n%s", reqs[0].Source)
	}
}

func TestService_RunTestsErrors(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	empty, err := svc.Create(ctx, CreateRequest{LessonID: "empty"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.RunTests(ctx, empty.ID, RunRequest{}); !errors.Is(err, domain.ErrNoTestCases) {
		t.Errorf("RunTests(no tests) error = %v; want ErrNoTestCases", err)
	}

	if _, err := svc.RunTests(ctx, "missing", RunRequest{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("RunTests(missing) error = %v; want ErrSessionNotFound", err)
	}

	sess, _ := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	blank := "   "
	if _, err := svc.RunTests(ctx, sess.ID, RunRequest{Code: &blank}); !errors.Is(err, domain.ErrEmptySource) {
		t.Errorf("RunTests(blank) error = %v; want ErrEmptySource", err)
	}
}

func TestService_RunOwnership(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	b, _ := svc.Create(ctx, CreateRequest{LessonID: "hello"})

	run, err := svc.RunTests(ctx, a.ID, RunRequest{})
	if err != nil {
		t.Fatalf("RunTests() error = %v", err)
	}
	if _, err := svc.WaitRun(ctx, a.ID, run.ID.String()); err != nil {
		t.Fatalf("WaitRun() error = %v", err)
	}

	if _, err := svc.GetRun(ctx, b.ID, run.ID.String()); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("GetRun(other session) error = %v; want ErrRunNotFound", err)
	}
	if _, err := svc.GetRun(ctx, a.ID, "not-a-uuid"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("GetRun(bad id) error = %v; want ErrRunNotFound", err)
	}
	if err := svc.CancelRun(ctx, b.ID, run.ID.String()); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("CancelRun(other session) error = %v; want ErrRunNotFound", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	sess, _ := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	if err := svc.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after delete error = %v; want ErrSessionNotFound", err)
	}
	if err := svc.Delete(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete() twice error = %v; want ErrSessionNotFound", err)
	}
}

// gateExecutor holds calls until ctx ends
type gateExecutor struct {
	started chan struct{}
	once    sync.Once
}

func (g *gateExecutor) Execute(ctx context.Context, req piston.Request) (*piston.Response, error) {
	g.once.Do(func() { close(g.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestService_RunInProgressKeepsCode(t *testing.T) {
	exec := &gateExecutor{started: make(chan struct{})}
	runs := runner.NewService(runner.NewOrchestrator(runner.Config{}, exec, nil), nil)
	defer runs.Close()

	svc := NewService(NewStore(), testCatalog(), runs, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	first := "print: hi"
	run, err := svc.RunTests(ctx, sess.ID, RunRequest{Code: &first})
	if err != nil {
		t.Fatalf("RunTests() error = %v", err)
	}
	<-exec.started

	second := "print: bye"
	if _, err := svc.RunTests(ctx, sess.ID, RunRequest{Code: &second}); !errors.Is(err, domain.ErrRunInProgress) {
		t.Errorf("second RunTests() error = %v; want ErrRunInProgress", err)
	}

	stored, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Code != first {
		t.Errorf("Code = %q; want %q", stored.Code, first)
	}
	if stored.RunCount != 1 || stored.LastRunID != run.ID.String() {
		t.Errorf("RunCount = %d, LastRunID = %s; want 1, %s", stored.RunCount, stored.LastRunID, run.ID)
	}

	if err := svc.CancelRun(ctx, sess.ID, run.ID.String()); err != nil {
		t.Fatalf("CancelRun() error = %v", err)
	}
	if _, err := svc.WaitRun(ctx, sess.ID, run.ID.String()); err != nil {
		t.Fatalf("WaitRun() error = %v", err)
	}
}

func TestService_RejectedCodeNotStored(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, CreateRequest{LessonID: "hello"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	blank := "   "
	if _, err := svc.RunTests(ctx, sess.ID, RunRequest{Code: &blank}); !errors.Is(err, domain.ErrEmptySource) {
		t.Fatalf("RunTests(blank) error = %v; want ErrEmptySource", err)
	}
	stored, _ := svc.Get(ctx, sess.ID)
	if stored.Code != sess.Code || stored.RunCount != 0 {
		t.Errorf("Code = %q, RunCount = %d; want %q, 0", stored.Code, stored.RunCount, sess.Code)
	}
}
