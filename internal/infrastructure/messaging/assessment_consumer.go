package messaging

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// AssessmentRequest is the message a scheduler publishes to request an assessment.
// An entity type of "portfolio" requests a portfolio run.
type AssessmentRequest struct {
	EntityType     models.EntityType     `json:"entity_type"`
	EntityID       string                `json:"entity_id,omitempty"`
	AssessmentType models.AssessmentType `json:"assessment_type,omitempty"`
}

// AssessmentRunner is the part of the assessment service the consumer drives.
type AssessmentRunner interface {
	Assess(ctx context.Context, entityType models.EntityType, entityID string, assessmentType models.AssessmentType) (*models.RiskAssessment, error)
	AssessPortfolio(ctx context.Context, assessmentType models.AssessmentType) (*models.RiskAssessment, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AssessmentRequestConsumer reads assessment requests and runs them.
// A message is committed once handled or once it is known it can never succeed.
// A transiently failing message holds its partition: committing a later offset
// would commit it too.
type AssessmentRequestConsumer struct {
	reader      messageReader
	runner      AssessmentRunner
	logger      logger.Logger
	maxAttempts uint64
	backoff     time.Duration
	maxBackoff  time.Duration
}

// NewAssessmentRequestConsumer creates a consumer group member on cfg.AssessmentRequestsTopic.
func NewAssessmentRequestConsumer(cfg config.KafkaConfig, runner AssessmentRunner, log logger.Logger) *AssessmentRequestConsumer {
	groupID := cfg.ConsumerGroup
	if groupID == "" {
		groupID = constants.AssessmentRequestsConsumerGroup
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.AssessmentRequestsTopic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	return newAssessmentRequestConsumer(reader, runner, log)
}

func newAssessmentRequestConsumer(r messageReader, runner AssessmentRunner, log logger.Logger) *AssessmentRequestConsumer {
	return &AssessmentRequestConsumer{
		reader:      r,
		runner:      runner,
		logger:      log.WithComponent("assessment_consumer"),
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		maxBackoff:  30 * time.Second,
	}
}

// Run consumes until ctx is cancelled. It blocks.
func (c *AssessmentRequestConsumer) Run(ctx context.Context) error {
	c.logger.Info(ctx, "Starting assessment request consumer")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info(ctx, "Stopping assessment request consumer")
				return nil
			}
			c.logger.Error(ctx, "Failed to fetch assessment request", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error(ctx, "Assessment request failed, retrying before consuming further", err,
				logger.Int64("offset", msg.Offset),
				logger.Int("partition", msg.Partition),
			)
			if err := c.redeliver(ctx, msg); err != nil {
				// Only cancellation ends redelivery; the message stays uncommitted.
				return nil
			}
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error(ctx, "Failed to commit assessment request", err, logger.Int64("offset", msg.Offset))
		}
	}
}

// redeliver retries msg with exponential backoff until it is handled or ctx ends.
func (c *AssessmentRequestConsumer) redeliver(ctx context.Context, msg kafka.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(
		func() error { return c.handle(ctx, msg) },
		backoff.WithContext(b, ctx),
		func(err error, wait time.Duration) {
			c.logger.Warn(ctx, "Assessment request still failing",
				logger.Int64("offset", msg.Offset),
				logger.Int("partition", msg.Partition),
				logger.Duration("next_attempt_in", wait),
				logger.Error(err),
			)
		},
	)
}

// Close closes the reader.
func (c *AssessmentRequestConsumer) Close() error {
	return c.reader.Close()
}

func (c *AssessmentRequestConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var req AssessmentRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.logger.Warn(ctx, "Dropping malformed assessment request",
			logger.String("value", string(msg.Value)),
			logger.Error(err),
		)
		return nil
	}
	if req.AssessmentType == "" {
		req.AssessmentType = models.AssessmentTypeComprehensive
	}

	op := func() error {
		var err error
		if req.EntityType == models.EntityTypePortfolio {
			_, err = c.runner.AssessPortfolio(ctx, req.AssessmentType)
		} else {
			_, err = c.runner.Assess(ctx, req.EntityType, req.EntityID, req.AssessmentType)
		}
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), c.maxAttempts-1),
		ctx,
	)
	err := backoff.Retry(op, b)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !isRetryable(err) {
		c.logger.Warn(ctx, "Dropping assessment request that cannot succeed",
			logger.String("entity_type", string(req.EntityType)),
			logger.String("entity_id", req.EntityID),
			logger.Error(err),
		)
		return nil
	}
	return err
}

func isRetryable(err error) bool {
	return errors.IsTransient(err) || stderrors.Is(err, context.DeadlineExceeded)
}
