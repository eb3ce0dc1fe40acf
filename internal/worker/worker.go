package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/segmentio/kafka-go"

	"session-todos/internal/models"
	"session-todos/pkg/logger"
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer tails the todo change feed and writes each event to the log.
// One consumer per process; scale by running more replicas (consumer group shares partitions).
type Consumer struct {
	r         messageReader
	topic     string
	processed atomic.Int64
}

// NewConsumer returns a consumer for topic in group. It returns nil when no
// brokers are configured.
func NewConsumer(brokers []string, topic, group string) *Consumer {
	if len(brokers) == 0 {
		return nil
	}
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  group,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		topic: topic,
	}
}

// Processed is the number of events handled so far.
func (c *Consumer) Processed() int64 { return c.processed.Load() }

// Run consumes until ctx is cancelled. A nil consumer returns at once.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		logger.Info(ctx, "Event consumer disabled (no Kafka brokers)")
		return nil
	}
	defer c.r.Close()

	logger.Info(ctx, "Kafka consumer started", "topic", c.topic)
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Kafka consumer stopped", "processed", c.Processed())
				return nil
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid poison pill blocking the partition
			_ = c.r.CommitMessages(ctx, msg)
			continue
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
		c.processed.Add(1)
	}
}

func handleMessage(ctx context.Context, payload []byte) error {
	var evt models.TodoEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("decode todo event: %w", err)
	}
	ctx = logger.With(ctx, "owner_id", evt.OwnerID, "action", evt.Action)
	switch evt.Action {
	case models.ActionCreated, models.ActionUpdated, models.ActionDeleted:
		logger.Info(ctx, "Todo changed", "todo_id", evt.TodoID, "completed", models.Flag(evt.Completed), "at", evt.OccurredAt)
	case models.ActionToggledAll, models.ActionClearedCompleted:
		logger.Info(ctx, "Todos changed in bulk", "affected", evt.Affected, "completed", models.Flag(evt.Completed), "at", evt.OccurredAt)
	default:
		logger.Warn(ctx, "Unknown todo event")
	}
	return nil
}
