// Package mcp exposes lessons and test runs to MCP clients.
package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/lesson"
	"github.com/felixgeelhaar/codecraft/internal/piston"
	"github.com/felixgeelhaar/codecraft/internal/runner"
	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
)

// Server wraps the MCP server with CodeCraft functionality
type Server struct {
	mcpServer    *server.Server
	registry     *lesson.Registry
	orchestrator *runner.Orchestrator
}

// Config contains configuration for the MCP server
type Config struct {
	Registry     *lesson.Registry
	Orchestrator *runner.Orchestrator
	Version      string
}

// NewServer creates a new MCP server for CodeCraft
func NewServer(cfg Config) *Server {
	s := &Server{
		registry:     cfg.Registry,
		orchestrator: cfg.Orchestrator,
	}

	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "codecraft",
		Version: version,
	}, server.WithInstructions(`
CodeCraft grades solutions to programming and Verilog lessons by running them
on a Piston execution service.

Available tools:
- codecraft_languages: List supported languages and runtime versions
- codecraft_lessons: List courses, or the lessons of one course
- codecraft_lesson: Show a lesson's problem, starter code and visible tests
- codecraft_run_tests: Grade code against a lesson's or question's test cases
- codecraft_execute: Run code once and return its output

A case passes when the program writes nothing to stderr and its trimmed stdout
equals the trimmed expected output.
`))

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("codecraft_languages").
		Description("List the languages code can be run in.").
		Handler(s.handleLanguages)

	s.mcpServer.Tool("codecraft_lessons").
		Description("List courses, or the lessons of a course when course is set.").
		Handler(s.handleLessons)

	s.mcpServer.Tool("codecraft_lesson").
		Description("Show a lesson: problem statement, starter code, visible tests and hints.").
		Handler(s.handleLesson)

	s.mcpServer.Tool("codecraft_run_tests").
		Description("Run code against every test case of a lesson or practice question.").
		Handler(s.handleRunTests)

	s.mcpServer.Tool("codecraft_execute").
		Description("Run code once on the execution service and return its output.").
		Handler(s.handleExecute)
}

// Input/Output types for tools

type LanguagesInput struct{}

type LanguagesOutput struct {
	Languages []piston.LanguageInfo `json:"languages"`
}

type LessonsInput struct {
	Course string `json:"course,omitempty" jsonschema:"description=Course ID; omit to list courses"`
}

type LessonsOutput struct {
	Courses []CourseSummary `json:"courses,omitempty"`
	Lessons []LessonSummary `json:"lessons,omitempty"`
}

type CourseSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Interactive bool   `json:"interactive"`
}

type LessonSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Tests    int    `json:"tests"`
}

type LessonInput struct {
	LessonID string `json:"lesson_id" jsonschema:"description=Lesson ID from codecraft_lessons"`
}

type LessonOutput struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Language    string            `json:"language"`
	Statement   string            `json:"statement"`
	StarterCode string            `json:"starter_code"`
	Tests       []domain.TestCase `json:"tests"`
	Hints       []string          `json:"hints,omitempty"`
	Next        string            `json:"next,omitempty"`
}

type RunTestsInput struct {
	LessonID   string `json:"lesson_id,omitempty" jsonschema:"description=Lesson to grade against"`
	QuestionID string `json:"question_id,omitempty" jsonschema:"description=Practice question to grade against"`
	Language   string `json:"language,omitempty" jsonschema:"description=Language for questions (default: python)"`
	Code       string `json:"code" jsonschema:"description=Complete source code"`
}

type RunTestsOutput struct {
	Summary string              `json:"summary"`
	Passed  int                 `json:"passed"`
	Total   int                 `json:"total"`
	Results []domain.TestResult `json:"results"`
}

type ExecuteInput struct {
	Language string `json:"language" jsonschema:"description=Language name such as python or verilog"`
	Code     string `json:"code" jsonschema:"description=Complete source code"`
	Stdin    string `json:"stdin,omitempty" jsonschema:"description=Standard input"`
}

// Tool handlers

func (s *Server) handleLanguages(ctx context.Context, input LanguagesInput) (LanguagesOutput, error) {
	return LanguagesOutput{Languages: piston.SupportedLanguages()}, nil
}

func (s *Server) handleLessons(ctx context.Context, input LessonsInput) (LessonsOutput, error) {
	if s.registry == nil {
		return LessonsOutput{}, fmt.Errorf("lesson registry not configured")
	}

	if input.Course == "" {
		courses := s.registry.Courses()
		out := LessonsOutput{Courses: make([]CourseSummary, 0, len(courses))}
		for _, c := range courses {
			out.Courses = append(out.Courses, CourseSummary{
				ID:          c.ID,
				Title:       c.Title,
				Description: c.Description,
				Interactive: c.Interactive(),
			})
		}
		return out, nil
	}

	lessons, err := s.registry.CourseLessons(input.Course)
	if err != nil {
		return LessonsOutput{}, err
	}
	out := LessonsOutput{Lessons: make([]LessonSummary, 0, len(lessons))}
	for _, l := range lessons {
		out.Lessons = append(out.Lessons, LessonSummary{
			ID:       l.ID,
			Title:    l.Title,
			Language: l.Problem.Language,
			Tests:    len(l.Tests),
		})
	}
	return out, nil
}

func (s *Server) handleLesson(ctx context.Context, input LessonInput) (LessonOutput, error) {
	if s.registry == nil {
		return LessonOutput{}, fmt.Errorf("lesson registry not configured")
	}

	l, err := s.registry.Lesson(input.LessonID)
	if err != nil {
		return LessonOutput{}, err
	}

	out := LessonOutput{
		ID:          l.ID,
		Title:       l.Title,
		Language:    l.Problem.Language,
		Statement:   l.Problem.Statement,
		StarterCode: l.Problem.StarterCode,
		Tests:       l.VisibleTests(),
		Hints:       l.Hints,
	}
	if next, _ := s.registry.Next(l.ID); next != nil {
		out.Next = next.ID
	}
	return out, nil
}

func (s *Server) handleRunTests(ctx context.Context, input RunTestsInput) (RunTestsOutput, error) {
	if s.registry == nil || s.orchestrator == nil {
		return RunTestsOutput{}, fmt.Errorf("runner not configured")
	}

	suite, err := s.suite(input)
	if err != nil {
		return RunTestsOutput{}, err
	}

	results, err := s.orchestrator.Run(ctx, suite)
	if err != nil {
		return RunTestsOutput{}, err
	}

	passed, total := domain.Summarize(results)
	return RunTestsOutput{
		Summary: domain.FormatSummary(results),
		Passed:  passed,
		Total:   total,
		Results: results,
	}, nil
}

func (s *Server) suite(input RunTestsInput) (runner.Suite, error) {
	switch {
	case input.LessonID != "":
		l, err := s.registry.Lesson(input.LessonID)
		if err != nil {
			return runner.Suite{}, err
		}
		return runner.LessonSuite(l, input.Code)

	case input.QuestionID != "":
		q, err := s.registry.Question(input.QuestionID)
		if err != nil {
			return runner.Suite{}, err
		}
		return runner.QuestionSuite(q, input.Language, input.Code)

	default:
		return runner.Suite{}, fmt.Errorf("%w: lesson_id or question_id is required", domain.ErrInvalidInput)
	}
}

func (s *Server) handleExecute(ctx context.Context, input ExecuteInput) (runner.Output, error) {
	if s.orchestrator == nil {
		return runner.Output{}, fmt.Errorf("runner not configured")
	}
	out, err := s.orchestrator.Execute(ctx, input.Language, input.Code, input.Stdin)
	if err != nil {
		return runner.Output{}, err
	}
	return *out, nil
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
