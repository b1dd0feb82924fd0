package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultJobTimeout bounds a job whose Timeout is unset
const DefaultJobTimeout = 2 * time.Minute

// JobHandler grades one job. A nil result with a nil error counts as completed.
type JobHandler func(ctx context.Context, job *RunJob) (*RunResult, error)

// ResultPublisher receives the result of every processed job
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *RunResult) error
}

// Consumer pulls grading jobs off codecraft.runs and hands them to a pool of
// workers. Each result is published to codecraft.results before the delivery
// is acked.
type Consumer struct {
	conn       *Connection
	handler    JobHandler
	results    ResultPublisher
	workers    int
	prefetch   int
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	done       chan struct{}
}

// ConsumerConfig sizes the worker pool
type ConsumerConfig struct {
	Workers  int
	Prefetch int // unacked deliveries per channel
}

// DefaultConsumerConfig grades two jobs at a time, one delivery each
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 1,
	}
}

func (cfg ConsumerConfig) withDefaults() ConsumerConfig {
	def := DefaultConsumerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = def.Prefetch
	}
	return cfg
}

// NewConsumer builds a consumer whose results go out on conn
func NewConsumer(conn *Connection, handler JobHandler, cfg ConsumerConfig) *Consumer {
	cfg = cfg.withDefaults()

	return &Consumer{
		conn:     conn,
		handler:  handler,
		results:  NewProducer(conn),
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
		done:     make(chan struct{}),
	}
}

// Done is closed once every worker has exited, either after Stop or because
// the delivery channel closed.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

// Start subscribes to the run queue and launches the workers. It returns
// once they are running; Stop or ctx ends them.
func (c *Consumer) Start(ctx context.Context) error {
	ch := c.conn.Channel()
	if ch == nil {
		return errors.New("queue: not connected")
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(RunQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", RunQueueName, err)
	}

	ctx, c.cancelFunc = context.WithCancel(ctx)
	slog.Info("grading workers starting", "queue", RunQueueName, "workers", c.workers, "prefetch", c.prefetch)

	c.wg.Add(c.workers)
	for i := range c.workers {
		go c.worker(ctx, i, deliveries)
	}

	go func() {
		c.wg.Wait()
		close(c.done)
	}()

	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		var d amqp.Delivery
		var open bool
		select {
		case <-ctx.Done():
			return
		case d, open = <-deliveries:
		}
		if !open {
			slog.Warn("run queue deliveries closed", "worker_id", id)
			return
		}

		result, ok := c.process(ctx, id, d.Body)
		if !ok {
			// undecodable, never redeliver
			_ = d.Reject(false)
			continue
		}
		c.publish(ctx, id, result)
		if err := d.Ack(false); err != nil {
			slog.Error("ack failed", "worker_id", id, "job_id", result.JobID, "error", err)
		}
	}
}

// process decodes and runs one job. ok is false for undecodable messages.
func (c *Consumer) process(ctx context.Context, workerID int, body []byte) (result *RunResult, ok bool) {
	start := time.Now()

	var job RunJob
	if err := json.Unmarshal(body, &job); err != nil {
		slog.Error("malformed run job", "worker_id", workerID, "error", err)
		return nil, false
	}

	slog.Info("grading job",
		"worker_id", workerID,
		"job_id", job.ID,
		"lesson_id", job.LessonID,
		"question_id", job.QuestionID,
	)

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout(&job))
	defer cancel()

	result, err := c.handler(jobCtx, &job)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		slog.Error("grading failed", "worker_id", workerID, "job_id", job.ID, "error", err, "duration", elapsed)
		result = &RunResult{
			Status: StatusFailed,
			Error:  err.Error(),
		}
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			result.Status = StatusTimeout
			result.Error = "execution timed out"
		}
	case result == nil:
		result = &RunResult{}
	}

	result.JobID = job.ID
	if result.SessionID == "" {
		result.SessionID = job.SessionID
	}
	if result.Status == "" {
		result.Status = StatusCompleted
	}
	result.Duration = elapsed
	result.CompletedAt = time.Now()

	slog.Info("graded job",
		"worker_id", workerID,
		"job_id", job.ID,
		"status", result.Status,
		"summary", result.Summary,
		"duration", elapsed,
	)

	return result, true
}

func (c *Consumer) publish(ctx context.Context, workerID int, result *RunResult) {
	if c.results == nil {
		return
	}
	if err := c.results.PublishResult(ctx, result); err != nil {
		slog.Error("result not published", "worker_id", workerID, "job_id", result.JobID, "error", err)
	}
}

func jobTimeout(job *RunJob) time.Duration {
	if job.Timeout <= 0 {
		return DefaultJobTimeout
	}
	return time.Duration(job.Timeout) * time.Second
}

// Stop cancels the workers and waits for in-flight jobs to finish
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("grading workers stopped")
}

// ResultConsumer reads codecraft.results and routes each result to the
// subscriber registered for its job id. Results nobody waits for are dropped.
type ResultConsumer struct {
	conn       *Connection
	handlers   map[string]ResultHandler
	handlersMu sync.RWMutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// ResultHandler receives the result of one job
type ResultHandler func(result *RunResult)

// NewResultConsumer returns a consumer; call Start to begin reading
func NewResultConsumer(conn *Connection) *ResultConsumer {
	return &ResultConsumer{
		conn:     conn,
		handlers: make(map[string]ResultHandler),
	}
}

// Subscribe routes results for jobID to handler, replacing any earlier one
func (rc *ResultConsumer) Subscribe(jobID string, handler ResultHandler) {
	rc.handlersMu.Lock()
	defer rc.handlersMu.Unlock()
	rc.handlers[jobID] = handler
}

// Unsubscribe drops the handler for jobID
func (rc *ResultConsumer) Unsubscribe(jobID string) {
	rc.handlersMu.Lock()
	defer rc.handlersMu.Unlock()
	delete(rc.handlers, jobID)
}

// Expect subscribes to the result of jobID before the job is published. The
// channel yields at most one result; release drops the subscription.
func (rc *ResultConsumer) Expect(jobID uuid.UUID) (results <-chan *RunResult, release func()) {
	ch := make(chan *RunResult, 1)
	key := jobID.String()
	rc.Subscribe(key, func(r *RunResult) {
		select {
		case ch <- r:
		default:
		}
	})
	return ch, func() { rc.Unsubscribe(key) }
}

// Start reads the results queue (auto-ack) until Stop or ctx ends
func (rc *ResultConsumer) Start(ctx context.Context) error {
	ch := rc.conn.Channel()
	if ch == nil {
		return errors.New("queue: not connected")
	}
	deliveries, err := ch.Consume(ResultQueueName, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", ResultQueueName, err)
	}

	ctx, rc.cancelFunc = context.WithCancel(ctx)
	rc.wg.Add(1)
	go rc.consume(ctx, deliveries)
	return nil
}

func (rc *ResultConsumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer rc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case d, open := <-deliveries:
			if !open {
				return
			}
			rc.dispatch(d.Body)
		}
	}
}

func (rc *ResultConsumer) dispatch(body []byte) {
	var result RunResult
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Error("malformed run result", "error", err)
		return
	}

	rc.handlersMu.RLock()
	handler, ok := rc.handlers[result.JobID.String()]
	rc.handlersMu.RUnlock()

	if ok {
		handler(&result)
	}
}

// Stop ends the read loop and waits for it
func (rc *ResultConsumer) Stop() {
	if rc.cancelFunc != nil {
		rc.cancelFunc()
	}
	rc.wg.Wait()
}
