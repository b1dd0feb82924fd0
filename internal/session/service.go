package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/piston"
	"github.com/felixgeelhaar/codecraft/internal/runner"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
)

// DefaultQuestionLanguage is used when a question session names no language
const DefaultQuestionLanguage = runner.DefaultQuestionLanguage

// Catalog resolves the content a session is bound to
type Catalog interface {
	Lesson(id string) (*domain.Lesson, error)
	Question(id string) (*domain.Question, error)
}

// Runs starts and tracks grading runs
type Runs interface {
	Start(ctx context.Context, req runner.StartRequest) (*domain.Run, error)
	Get(runID uuid.UUID) (*domain.Run, error)
	Cancel(runID uuid.UUID) error
	Wait(ctx context.Context, runID uuid.UUID) (*domain.Run, error)
	Forget(sessionID string)
}

// Service manages editor sessions
type Service struct {
	store   *Store
	catalog Catalog
	runs    Runs
	logger  *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(*Session)
	nextID    int
}

// NewService creates a new session service
func NewService(store *Store, catalog Catalog, runs Runs, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		catalog:   catalog,
		runs:      runs,
		logger:    logger,
		listeners: make(map[int]func(*Session)),
	}
}

// CreateRequest contains data for creating a session
type CreateRequest struct {
	LessonID   string `json:"lesson_id,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	Language   string `json:"language,omitempty"`
}

// Create opens a session loaded with the starter code of a lesson or question
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	var session *Session

	switch {
	case req.LessonID != "" && req.QuestionID != "":
		return nil, fmt.Errorf("%w: lesson_id and question_id are exclusive", domain.ErrInvalidInput)

	case req.LessonID != "":
		lesson, err := s.catalog.Lesson(req.LessonID)
		if err != nil {
			return nil, err
		}
		language := lesson.Problem.Language
		if req.Language != "" && req.Language != language {
			return nil, fmt.Errorf("%w: lesson %s is written in %s", domain.ErrInvalidInput, lesson.ID, language)
		}
		session = NewLessonSession(lesson.ID, language, lesson.Problem.StarterCode)

	case req.QuestionID != "":
		q, err := s.catalog.Question(req.QuestionID)
		if err != nil {
			return nil, err
		}
		language := req.Language
		if language == "" {
			language = DefaultQuestionLanguage
		}
		if !piston.IsSupported(language) {
			return nil, &piston.UnsupportedLanguageError{Language: language}
		}
		session = NewQuestionSession(q.ID, language, q.StarterCode[language])

	default:
		return nil, fmt.Errorf("%w: lesson_id or question_id required", domain.ErrInvalidInput)
	}

	if err := s.store.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("session created",
		"session_id", session.ID,
		"kind", session.Kind,
		"content_id", session.ContentID(),
		"language", session.Language)

	return session, nil
}

// Get retrieves a session by ID
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	session, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// List returns all sessions
func (s *Service) List(ctx context.Context) []*Session {
	return s.store.List()
}

// Delete removes a session and cancels its active run
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	s.runs.Forget(id)
	return nil
}

// UpdateCode replaces the source held by a session
func (s *Service) UpdateCode(ctx context.Context, id, code string) (*Session, error) {
	session, err := s.update(id, func(sess *Session) {
		sess.UpdateCode(code)
	})
	if err != nil {
		return nil, err
	}

	s.notify(session)
	return session, nil
}

func (s *Service) update(id string, fn func(*Session)) (*Session, error) {
	session, err := s.store.Update(id, fn)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

// RunRequest contains data for grading a session
type RunRequest struct {
	// Code replaces the session source before the run when set
	Code *string `json:"code,omitempty"`
}

// RunTests starts grading the session's source against its test cases
func (s *Service) RunTests(ctx context.Context, id string, req RunRequest) (*domain.Run, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// New code is stored only once the run is accepted
	if req.Code != nil {
		session.Code = *req.Code
	}

	suite, err := s.suiteFor(session)
	if err != nil {
		return nil, err
	}

	run, err := s.runs.Start(ctx, runner.StartRequest{
		SessionID: session.ID,
		LessonID:  session.ContentID(),
		Suite:     suite,
	})
	if err != nil {
		return nil, err
	}

	session, err = s.update(id, func(sess *Session) {
		if req.Code != nil {
			sess.UpdateCode(*req.Code)
		}
		sess.RecordRun(run.ID.String())
	})
	if err != nil {
		return nil, err
	}
	s.notify(session)

	return run, nil
}

func (s *Service) suiteFor(session *Session) (runner.Suite, error) {
	if session.Kind == KindQuestion {
		q, err := s.catalog.Question(session.QuestionID)
		if err != nil {
			return runner.Suite{}, err
		}
		return runner.QuestionSuite(q, session.Language, session.Code)
	}

	lesson, err := s.catalog.Lesson(session.LessonID)
	if err != nil {
		return runner.Suite{}, err
	}
	return runner.LessonSuite(lesson, session.Code)
}

// GetRun returns a run that belongs to the session
func (s *Service) GetRun(ctx context.Context, sessionID, runID string) (*domain.Run, error) {
	id, err := s.ownedRun(ctx, sessionID, runID)
	if err != nil {
		return nil, err
	}
	return s.runs.Get(id)
}

// WaitRun blocks until a session's run finishes
func (s *Service) WaitRun(ctx context.Context, sessionID, runID string) (*domain.Run, error) {
	id, err := s.ownedRun(ctx, sessionID, runID)
	if err != nil {
		return nil, err
	}
	return s.runs.Wait(ctx, id)
}

// CancelRun stops a session's run
func (s *Service) CancelRun(ctx context.Context, sessionID, runID string) error {
	id, err := s.ownedRun(ctx, sessionID, runID)
	if err != nil {
		return err
	}
	return s.runs.Cancel(id)
}

func (s *Service) ownedRun(ctx context.Context, sessionID, runID string) (uuid.UUID, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}

	run, err := s.runs.Get(id)
	if err != nil {
		return uuid.Nil, err
	}
	if run.SessionID != sessionID {
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	return id, nil
}

// HandleRunComplete marks a session completed once a run passes every case.
// Register it with the runner service's completion hooks.
func (s *Service) HandleRunComplete(run *domain.Run) {
	if run.SessionID == "" || !run.Success() {
		return
	}

	completed := false
	session, err := s.store.Update(run.SessionID, func(sess *Session) {
		if sess.Status != StatusCompleted {
			sess.Complete()
			completed = true
		}
	})
	if err != nil || !completed {
		return
	}

	s.logger.Info("session completed", "session_id", session.ID, "content_id", session.ContentID())
	s.notify(session)
}

// Subscribe registers fn to receive every session change. The returned
// function removes the subscription.
func (s *Service) Subscribe(fn func(*Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notify(session *Session) {
	s.mu.Lock()
	listeners := make([]func(*Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		c := *session
		fn(&c)
	}
}
