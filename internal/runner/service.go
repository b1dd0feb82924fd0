package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/google/uuid"
)

// Service runs suites asynchronously and tracks their state. A session can
// have at most one run in flight.
type Service struct {
	orchestrator *Orchestrator
	logger       *slog.Logger

	mu         sync.Mutex
	runs       map[uuid.UUID]*runState
	active     map[string]uuid.UUID
	onComplete []func(*domain.Run)
	wg         sync.WaitGroup
	closed     bool
}

type runState struct {
	run    *domain.Run
	cancel context.CancelFunc
	doneCh chan struct{}
	// forgotten runs are dropped from the registry when they finish
	forgotten bool
}

// NewService creates a new runner service
func NewService(orchestrator *Orchestrator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orchestrator: orchestrator,
		logger:       logger,
		runs:         make(map[uuid.UUID]*runState),
		active:       make(map[string]uuid.UUID),
	}
}

// StartRequest contains data for starting a run
type StartRequest struct {
	SessionID string
	LessonID  string
	Suite     Suite
}

// OnComplete registers a hook called with a snapshot of every finished run
func (s *Service) OnComplete(fn func(*domain.Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = append(s.onComplete, fn)
}

// Start validates the suite and launches it in the background. The returned
// run is a snapshot taken at launch.
func (s *Service) Start(ctx context.Context, req StartRequest) (*domain.Run, error) {
	if err := Validate(req.Suite); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("runner service closed")
	}
	if req.SessionID != "" {
		if id, ok := s.active[req.SessionID]; ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, id)
		}
	}

	run := domain.NewRun(req.SessionID, req.LessonID, req.Suite.Language)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	state := &runState{
		run:    run,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	s.runs[run.ID] = state
	if req.SessionID != "" {
		s.active[req.SessionID] = run.ID
	}
	snapshot := copyRun(run)
	s.wg.Add(1)
	s.mu.Unlock()

	go s.execute(runCtx, state, req.Suite)

	return snapshot, nil
}

func (s *Service) execute(ctx context.Context, state *runState, suite Suite) {
	defer s.wg.Done()
	defer state.cancel()

	s.mu.Lock()
	started := time.Now()
	state.run.Status = domain.RunStatusRunning
	state.run.StartedAt = &started
	runID := state.run.ID
	s.mu.Unlock()

	s.logger.Info("run started",
		"run_id", runID,
		"session_id", state.run.SessionID,
		"lesson_id", state.run.LessonID,
		"language", suite.Language,
		"cases", len(suite.Tests))

	results, err := s.orchestrator.Run(ctx, suite)

	s.mu.Lock()
	finished := time.Now()
	run := state.run
	run.FinishedAt = &finished
	run.Results = results
	switch {
	case err != nil:
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
	case ctx.Err() != nil:
		run.Status = domain.RunStatusCancelled
	default:
		run.Status = domain.RunStatusCompleted
	}
	if run.SessionID != "" && s.active[run.SessionID] == run.ID {
		delete(s.active, run.SessionID)
	}
	if state.forgotten {
		delete(s.runs, runID)
	}
	snapshot := copyRun(run)
	hooks := append([]func(*domain.Run){}, s.onComplete...)
	close(state.doneCh)
	s.mu.Unlock()

	s.logger.Info("run finished",
		"run_id", runID,
		"status", snapshot.Status,
		"summary", snapshot.Summary(),
		"duration", finished.Sub(started))

	for _, hook := range hooks {
		hook(snapshot)
	}
}

// Get returns a snapshot of a run
func (s *Service) Get(runID uuid.UUID) (*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return copyRun(state.run), nil
}

// ActiveRun returns the in-flight run for a session
func (s *Service) ActiveRun(sessionID string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[sessionID]
	return id, ok
}

// Cancel cancels a running execution
func (s *Service) Cancel(runID uuid.UUID) error {
	s.mu.Lock()
	state, ok := s.runs[runID]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}

	state.cancel()
	return nil
}

// IsRunning checks if a run is currently executing
func (s *Service) IsRunning(runID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.runs[runID]
	return ok && !state.run.IsTerminal()
}

// Wait blocks until a run finishes and returns its final snapshot
func (s *Service) Wait(ctx context.Context, runID uuid.UUID) (*domain.Run, error) {
	s.mu.Lock()
	state, ok := s.runs[runID]
	s.mu.Unlock()

	if !ok {
		return nil, domain.ErrRunNotFound
	}

	select {
	case <-state.doneCh:
		s.mu.Lock()
		defer s.mu.Unlock()
		return copyRun(state.run), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Forget drops finished runs belonging to a session. An active one is
// cancelled and dropped once it stops.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, state := range s.runs {
		if state.run.SessionID != sessionID {
			continue
		}
		if !state.run.IsTerminal() {
			state.forgotten = true
			state.cancel()
			continue
		}
		delete(s.runs, id)
	}
}

// Close cancels every in-flight run and waits for them to stop
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for _, state := range s.runs {
		state.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func copyRun(r *domain.Run) *domain.Run {
	c := *r
	if r.Results != nil {
		c.Results = append([]domain.TestResult(nil), r.Results...)
	}
	return &c
}
