package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/observability"
	"github.com/google/uuid"
)

// RunExecutor is the pipeline behaviour the consumer drives, one
// invocation per trigger.
type RunExecutor interface {
	Execute(ctx context.Context, identity domain.RunIdentity) (Result, error)
}

// Consumer reads run triggers from the broker and drives the pipeline.
// Retry of failed runs is the upstream scheduler's concern: every
// fetched trigger is committed exactly once, whether it was malformed,
// failed, or succeeded.
type Consumer struct {
	source    TriggerSource
	publisher CompletionPublisher
	executor  RunExecutor
	logger    *slog.Logger
	metrics   *observability.Metrics

	ready atomic.Bool

	mu      sync.Mutex
	lastRun domain.RunCompleted
	hasRun  bool
}

// NewConsumer creates a trigger consumer around the pipeline.
func NewConsumer(source TriggerSource, publisher CompletionPublisher, executor RunExecutor, logger *slog.Logger, metrics *observability.Metrics) *Consumer {
	return &Consumer{
		source:    source,
		publisher: publisher,
		executor:  executor,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the consumer has handled at least one
// trigger message.
func (c *Consumer) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("consumer has not handled any triggers yet")
	}
	return nil
}

// LastRun returns the most recently completed run of this process, if any.
func (c *Consumer) LastRun() (domain.RunCompleted, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun, c.hasRun
}

// Run executes the trigger loop until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("trigger consumer started")
	c.metrics.ConsumerRunning.Set(1)
	defer c.metrics.ConsumerRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("trigger consumer stopping", "reason", ctx.Err())
			return nil
		default:
		}

		raw, err := c.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("fetch trigger failed", "error", err)
			if !c.backoffOrStop(ctx, &backoff, maxBackoff) {
				return nil
			}
			continue
		}
		backoff = 200 * time.Millisecond

		c.handleTrigger(ctx, raw)
		c.ready.Store(true)
	}
}

// handleTrigger decodes, validates, and executes one trigger message.
// Malformed triggers and failed runs are logged and counted; the offset
// is committed in every outcome except context cancellation mid-run.
func (c *Consumer) handleTrigger(ctx context.Context, raw domain.RawMessage) {
	c.metrics.TriggersConsumed.Inc()
	logger := c.logger.With(
		"correlation_id", uuid.NewString(),
		"partition", raw.Partition,
		"offset", raw.Offset,
	)

	var trigger domain.RunTrigger
	if err := json.Unmarshal(raw.Value, &trigger); err != nil {
		logger.Warn("malformed trigger message, skipping", "error", err)
		c.metrics.TriggersRejected.Inc()
		c.commit(ctx, raw)
		return
	}
	identity, err := trigger.Identity()
	if err != nil {
		logger.Warn("invalid trigger, skipping", "error", err)
		c.metrics.TriggersRejected.Inc()
		c.commit(ctx, raw)
		return
	}

	logger.Info("trigger received", "run", identity.String())
	start := time.Now()

	result, err := c.executor.Execute(ctx, identity)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the run; leave the trigger uncommitted
			// so the next process picks it up.
			logger.Info("run interrupted by shutdown", "run", identity.String())
			return
		}
		logger.Error("run failed", "run", identity.String(), "error", err)
		c.commit(ctx, raw)
		return
	}

	completed := domain.RunCompleted{
		RunID:       result.RunID,
		RunType:     identity.RunType,
		RunDatetime: identity.RunDatetime,
		ForDate:     identity.ForDate.Format(domain.ForDateLayout),
		RowCounts:   result.RowCounts,
		DurationSec: time.Since(start).Seconds(),
		CompletedAt: domain.Now(),
	}
	if err := c.publisher.PublishCompletion(ctx, completed); err != nil {
		// Downstream reporting misses one event; the statistics are
		// already persisted, so the run itself still counts as done.
		logger.Warn("publish completion failed", "error", err)
	}

	c.mu.Lock()
	c.lastRun = completed
	c.hasRun = true
	c.mu.Unlock()

	logger.Info("run completed", "run", identity.String(),
		"run_id", result.RunID, "duration", time.Since(start))
	c.commit(ctx, raw)
}

// commit acknowledges the message offset if a commit function is available.
func (c *Consumer) commit(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		c.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoffOrStop sleeps with the current backoff and advances it.
// Returns false if the consumer should stop.
func (c *Consumer) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
