package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names
const (
	RunQueueName    = "codecraft.runs"
	ResultQueueName = "codecraft.results"
)

// Result statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
	StatusCancelled = "cancelled"
)

// RunJob asks a worker to grade code against a lesson or a practice question.
// Exactly one of LessonID and QuestionID is set.
type RunJob struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id,omitempty"`
	LessonID   string    `json:"lesson_id,omitempty"`
	QuestionID string    `json:"question_id,omitempty"`
	Language   string    `json:"language,omitempty"`
	Code       string    `json:"code"`
	Timeout    int       `json:"timeout"` // seconds
	CreatedAt  time.Time `json:"created_at"`
}

// RunResult is a finished grading run
type RunResult struct {
	JobID       uuid.UUID           `json:"job_id"`
	RunID       uuid.UUID           `json:"run_id,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
	LessonID    string              `json:"lesson_id,omitempty"`
	Language    string              `json:"language,omitempty"`
	Status      string              `json:"status"`
	Results     []domain.TestResult `json:"results,omitempty"`
	Passed      int                 `json:"passed"`
	Total       int                 `json:"total"`
	Summary     string              `json:"summary,omitempty"`
	Error       string              `json:"error,omitempty"`
	Duration    time.Duration       `json:"duration"`
	CompletedAt time.Time           `json:"completed_at"`
}

// SetResults records test results and their summary
func (r *RunResult) SetResults(results []domain.TestResult) {
	r.Results = results
	r.Passed, r.Total = domain.Summarize(results)
	r.Summary = domain.FormatSummary(results)
}

// ResultFromRun converts a finished daemon run into a result event
func ResultFromRun(run *domain.Run) *RunResult {
	result := &RunResult{
		JobID:     run.ID,
		RunID:     run.ID,
		SessionID: run.SessionID,
		LessonID:  run.LessonID,
		Language:  run.Language,
		Status:    string(run.Status),
		Error:     run.Error,
	}
	result.SetResults(run.Results)

	if run.FinishedAt != nil {
		result.CompletedAt = *run.FinishedAt
		if run.StartedAt != nil {
			result.Duration = run.FinishedAt.Sub(*run.StartedAt)
		}
	}
	return result
}

// Connection owns one AMQP connection and channel, redialing in the
// background when the broker drops it
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	reconnects int
}

// NewConnection dials RabbitMQ and declares the run and result queues
func NewConnection(url string) (*Connection, error) {
	c := &Connection{
		url: url,
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := declareQueues(channel); err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	c.conn = conn
	c.channel = channel

	go c.handleReconnect(conn)

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

func declareQueues(ch *amqp.Channel) error {
	// Grading jobs outlive a slow worker but not a stale editor
	_, err := ch.QueueDeclare(
		RunQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-message-ttl": int32(300000),
		},
	)
	if err != nil {
		return fmt.Errorf("declare %s: %w", RunQueueName, err)
	}

	_, err = ch.QueueDeclare(
		ResultQueueName,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-message-ttl": int32(60000),
		},
	)
	if err != nil {
		return fmt.Errorf("declare %s: %w", ResultQueueName, err)
	}

	return nil
}

// handleReconnect waits for conn to drop and redials with exponential backoff
func (c *Connection) handleReconnect(conn *amqp.Connection) {
	err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || err == nil {
		return
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	slog.Warn("RabbitMQ connection closed, attempting to reconnect",
		"error", err,
		"reconnects", c.reconnects,
	)

	for i := 0; i < 10; i++ {
		c.reconnects++
		time.Sleep(backoff(i))

		if err := c.connect(); err != nil {
			slog.Error("reconnection failed", "error", err, "attempt", i+1)
			continue
		}

		slog.Info("reconnected to RabbitMQ", "attempts", i+1)
		return
	}

	slog.Error("failed to reconnect to RabbitMQ after 10 attempts")
}

func backoff(attempt int) time.Duration {
	d := time.Duration(1<<attempt) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// Channel returns the live channel, or nil while reconnecting
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected reports whether the broker connection is open
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON sends data as a persistent JSON message on queue
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	ch := c.Channel()
	if ch == nil {
		return fmt.Errorf("no open channel")
	}

	return ch.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// sanitizeURL masks the password of an AMQP URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "amqp://***"
	}
	return u.Redacted()
}
