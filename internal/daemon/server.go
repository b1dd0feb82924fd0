package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/config"
	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/lesson"
	"github.com/felixgeelhaar/codecraft/internal/piston"
	"github.com/felixgeelhaar/codecraft/internal/runner"
	"github.com/felixgeelhaar/codecraft/internal/session"
)

// Version is reported by the status endpoint
var Version = "0.1.0"

// RunPublisher receives every finished run
type RunPublisher interface {
	PublishRun(ctx context.Context, run *domain.Run) error
}

// Server represents the CodeCraft daemon HTTP server
type Server struct {
	cfg       *config.LocalConfig
	server    *http.Server
	router    *http.ServeMux
	limiter   *rateLimiter
	startedAt time.Time

	// Services
	registry       *lesson.Registry
	executor       piston.Executor
	orchestrator   *runner.Orchestrator
	runService     *runner.Service
	sessionService *session.Service
	publisher      RunPublisher
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config *config.LocalConfig

	// Registry defaults to the built-in lessons, or Config.Content.Path when set
	Registry *lesson.Registry

	// Executor defaults to a resilient Piston client built from Config
	Executor piston.Executor

	// Publisher is optional; finished runs are published to it
	Publisher RunPublisher
}

// NewServer creates a new daemon server
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		cfg.Config = config.DefaultLocalConfig()
	}

	s := &Server{
		cfg:       cfg.Config,
		router:    http.NewServeMux(),
		startedAt: time.Now(),
		publisher: cfg.Publisher,
	}

	// Lesson content
	s.registry = cfg.Registry
	if s.registry == nil {
		registry, err := lesson.Open(cfg.Config.Content.Path)
		if err != nil {
			return nil, err
		}
		s.registry = registry
	}
	if !s.registry.IsLoaded() {
		if err := s.registry.Load(); err != nil {
			return nil, fmt.Errorf("load lessons: %w", err)
		}
	}

	// Remote execution
	s.executor = cfg.Executor
	if s.executor == nil {
		s.executor = cfg.Config.NewExecutor(slog.Default())
	}

	// Runs and sessions
	s.orchestrator = runner.NewOrchestrator(runner.Config{CaseDelay: cfg.Config.CaseDelay()}, s.executor, slog.Default())
	s.runService = runner.NewService(s.orchestrator, slog.Default())
	s.sessionService = session.NewService(session.NewStore(), s.registry, s.runService, slog.Default())
	s.runService.OnComplete(s.sessionService.HandleRunComplete)
	if s.publisher != nil {
		s.runService.OnComplete(s.publishRun)
	}

	// Setup routes
	s.setupRoutes()

	// Create HTTP server with middleware chain
	var handler http.Handler = s.router
	if rate := cfg.Config.Daemon.RateLimit; rate > 0 {
		s.limiter = newRateLimiter(rate)
		handler = s.limiter.middleware(handler)
	}
	handler = recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(handler)))

	s.server = &http.Server{
		Addr:         cfg.Config.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // long for ?wait=true runs
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)
	s.router.HandleFunc("GET /v1/languages", s.handleListLanguages)

	// Content
	s.router.HandleFunc("GET /v1/courses", s.handleListCourses)
	s.router.HandleFunc("GET /v1/courses/{course}", s.handleGetCourse)
	s.router.HandleFunc("GET /v1/courses/{course}/lessons", s.handleListCourseLessons)
	s.router.HandleFunc("GET /v1/lessons/{id}", s.handleGetLesson)
	s.router.HandleFunc("GET /v1/questions", s.handleListQuestions)
	s.router.HandleFunc("GET /v1/questions/{id}", s.handleGetQuestion)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("PUT /v1/sessions/{id}/code", s.handleUpdateCode)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	// Runs
	s.router.HandleFunc("POST /v1/sessions/{id}/runs", s.handleCreateRun)
	s.router.HandleFunc("GET /v1/sessions/{id}/runs/{run}", s.handleGetRun)
	s.router.HandleFunc("DELETE /v1/sessions/{id}/runs/{run}", s.handleCancelRun)

	// Scratch execution and progress
	s.router.HandleFunc("POST /v1/execute", s.handleExecute)
	s.router.HandleFunc("GET /v1/progress", s.handleProgress)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	stats := s.registry.Stats()
	slog.Info("starting codecraft daemon",
		"addr", s.server.Addr,
		"piston", s.cfg.Piston.BaseURL,
		"courses", stats.Courses,
		"lessons", stats.Lessons,
		"questions", stats.Questions,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)

	s.runService.Close()

	if closer, ok := s.executor.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil {
			slog.Warn("failed to close executor", "error", cerr)
		}
	}
	if s.limiter != nil {
		s.limiter.Close()
	}

	return err
}

func (s *Server) publishRun(run *domain.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.publisher.PublishRun(ctx, run); err != nil {
		slog.Warn("failed to publish run result", "run_id", run.ID, "error", err)
	}
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "running",
		"version": Version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
		"piston":  s.cfg.Piston.BaseURL,
		"content": s.registry.Stats(),
		"queue":   s.publisher != nil,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"daemon":  s.cfg.Daemon,
		"piston":  s.cfg.Piston,
		"runner":  s.cfg.Runner,
		"sandbox": s.cfg.Sandbox,
	})
}

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"languages": piston.SupportedLanguages(),
	})
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// serviceError maps a service error to its HTTP status
func (s *Server) serviceError(w http.ResponseWriter, message string, err error) {
	var te *piston.TransportError

	switch {
	case errors.Is(err, domain.ErrLessonNotFound),
		errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		s.jsonError(w, http.StatusNotFound, message, err)
	case errors.Is(err, piston.ErrUnsupportedLanguage),
		errors.Is(err, domain.ErrEmptySource),
		errors.Is(err, domain.ErrNoTestCases),
		errors.Is(err, domain.ErrInvalidInput):
		s.jsonError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, domain.ErrRunInProgress):
		s.jsonError(w, http.StatusConflict, message, err)
	case errors.Is(err, piston.ErrRateLimited):
		s.jsonError(w, http.StatusTooManyRequests, message, err)
	case errors.As(err, &te):
		s.jsonError(w, http.StatusBadGateway, message, err)
	case errors.Is(err, context.DeadlineExceeded):
		s.jsonError(w, http.StatusGatewayTimeout, message, err)
	default:
		s.jsonError(w, http.StatusInternalServerError, message, err)
	}
}
