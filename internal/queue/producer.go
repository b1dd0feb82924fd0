package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/google/uuid"
)

// Producer publishes grading jobs and results
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishRunJob publishes a grading job to the run queue
func (p *Producer) PublishRunJob(ctx context.Context, job *RunJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, RunQueueName, job); err != nil {
		return fmt.Errorf("failed to publish run job: %w", err)
	}

	slog.Info("published run job",
		"job_id", job.ID,
		"session_id", job.SessionID,
		"lesson_id", job.LessonID,
		"question_id", job.QuestionID,
	)

	return nil
}

// PublishResult publishes a run result to the results queue
func (p *Producer) PublishResult(ctx context.Context, result *RunResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ResultQueueName, result); err != nil {
		return fmt.Errorf("failed to publish run result: %w", err)
	}

	slog.Info("published run result",
		"job_id", result.JobID,
		"status", result.Status,
		"summary", result.Summary,
		"duration", result.Duration,
	)

	return nil
}

// PublishRun publishes a run finished by the daemon as a result event
func (p *Producer) PublishRun(ctx context.Context, run *domain.Run) error {
	return p.PublishResult(ctx, ResultFromRun(run))
}

// NewLessonJob creates a job grading code against a lesson
func NewLessonJob(sessionID, lessonID, code string) *RunJob {
	return &RunJob{
		ID:        uuid.New(),
		SessionID: sessionID,
		LessonID:  lessonID,
		Code:      code,
		CreatedAt: time.Now(),
	}
}

// NewQuestionJob creates a job grading code against a practice question
func NewQuestionJob(sessionID, questionID, language, code string) *RunJob {
	return &RunJob{
		ID:         uuid.New(),
		SessionID:  sessionID,
		QuestionID: questionID,
		Language:   language,
		Code:       code,
		CreatedAt:  time.Now(),
	}
}
