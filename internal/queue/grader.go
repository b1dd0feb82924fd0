package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/runner"
)

// Catalog resolves the content a job is graded against
type Catalog interface {
	Lesson(id string) (*domain.Lesson, error)
	Question(id string) (*domain.Question, error)
}

// Grader returns a JobHandler that runs each job through the orchestrator
func Grader(catalog Catalog, orchestrator *runner.Orchestrator) JobHandler {
	return func(ctx context.Context, job *RunJob) (*RunResult, error) {
		suite, err := jobSuite(catalog, job)
		if err != nil {
			return nil, err
		}

		results, err := orchestrator.Run(ctx, suite)
		if err != nil {
			return nil, err
		}

		result := &RunResult{
			SessionID: job.SessionID,
			LessonID:  job.LessonID,
			Language:  suite.Language,
			Status:    StatusCompleted,
		}
		result.SetResults(results)

		if err := ctx.Err(); err != nil {
			result.Status = StatusCancelled
			if errors.Is(err, context.DeadlineExceeded) {
				result.Status = StatusTimeout
			}
		}
		return result, nil
	}
}

func jobSuite(catalog Catalog, job *RunJob) (runner.Suite, error) {
	switch {
	case job.LessonID != "" && job.QuestionID != "":
		return runner.Suite{}, fmt.Errorf("%w: job names both a lesson and a question", domain.ErrInvalidInput)

	case job.LessonID != "":
		l, err := catalog.Lesson(job.LessonID)
		if err != nil {
			return runner.Suite{}, err
		}
		return runner.LessonSuite(l, job.Code)

	case job.QuestionID != "":
		q, err := catalog.Question(job.QuestionID)
		if err != nil {
			return runner.Suite{}, err
		}
		return runner.QuestionSuite(q, job.Language, job.Code)

	default:
		return runner.Suite{}, fmt.Errorf("%w: job names no lesson or question", domain.ErrInvalidInput)
	}
}
