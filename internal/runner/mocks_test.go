package runner

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/piston"
)

type call struct {
	req piston.Request
	at  time.Time
}

// mockExecutor returns scripted responses in call order. respond, when set,
// takes precedence.
type mockExecutor struct {
	mu        sync.Mutex
	calls     []call
	responses []*piston.Response
	errs      []error
	respond   func(ctx context.Context, i int, req piston.Request) (*piston.Response, error)
}

func (m *mockExecutor) Execute(ctx context.Context, req piston.Request) (*piston.Response, error) {
	m.mu.Lock()
	i := len(m.calls)
	m.calls = append(m.calls, call{req: req, at: time.Now()})
	m.mu.Unlock()

	if m.respond != nil {
		return m.respond(ctx, i, req)
	}
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return stdout(""), nil
}

func (m *mockExecutor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockExecutor) requests() []piston.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]piston.Request, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.req
	}
	return out
}

func stdout(s string) *piston.Response {
	code := 0
	return &piston.Response{Run: &piston.Stage{Stdout: s, Output: s, Code: &code}}
}

func stderr(out, errOut string) *piston.Response {
	code := 1
	return &piston.Response{Run: &piston.Stage{Stdout: out, Stderr: errOut, Code: &code}}
}

func testConfig() Config {
	return Config{CaseDelay: 0}
}
