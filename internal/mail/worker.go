package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "github.com/umar1110/Donation-Plantform-Server/common/redis"
)

// WorkerConfig outbox stream and retry settings
type WorkerConfig struct {
	Stream        string
	ConsumerGroup string
	ConsumerName  string
	BatchSize     int64
	Block         time.Duration
	MaxAttempts   int
}

// Worker consumes the receipt email outbox
type Worker struct {
	client *redis.Client
	sender Sender
	marker ReceiptMarker
	outbox *Outbox
	cfg    WorkerConfig
	logger *zap.Logger

	// set when an entry was left unacked; the next batch re-reads this consumer's pending list first
	reclaim bool
}

func NewWorker(client *redis.Client, sender Sender, marker ReceiptMarker, cfg WorkerConfig, logger *zap.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Worker{
		client:  client,
		sender:  sender,
		marker:  marker,
		outbox:  NewOutbox(client, cfg.Stream, logger),
		cfg:     cfg,
		logger:  logger,
		reclaim: true,
	}
}

// Run consumes until ctx is cancelled, backing off exponentially on read errors
func (w *Worker) Run(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, w.client, w.cfg.Stream, w.cfg.ConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("Receipt mail worker started",
		zap.String("stream", w.cfg.Stream),
		zap.String("consumer_group", w.cfg.ConsumerGroup),
		zap.String("consumer_name", w.cfg.ConsumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := w.ProcessOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to consume receipt emails",
				zap.Error(err),
				zap.Duration("backoff", backoffDuration),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoffDuration):
				backoffDuration *= 2
				if backoffDuration > maxBackoff {
					backoffDuration = maxBackoff
				}
			}
			continue
		}
		backoffDuration = time.Second
	}
}

// ProcessOnce reads one batch and handles every message in it, returning how many were read.
// Entries left unacked by an earlier batch are retried before new ones are read; leaving any
// entry unacked is reported as an error so Run backs off. The consumer group must already exist.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	messages, err := w.read(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	left := 0
	for _, msg := range messages {
		if !w.handle(ctx, msg) {
			w.reclaim = true
			left++
			continue
		}
		if err := rediscommon.AckMessage(ctx, w.client, w.cfg.Stream, w.cfg.ConsumerGroup, msg.ID); err != nil {
			w.logger.Warn("Failed to ack receipt email",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			w.reclaim = true
		}
	}
	if left > 0 {
		return len(messages), fmt.Errorf("%d receipt emails left pending", left)
	}
	return len(messages), nil
}

func (w *Worker) read(ctx context.Context) ([]rediscommon.StreamMessage, error) {
	if w.reclaim {
		pending, err := rediscommon.ReadPendingFromStream(ctx, w.client, w.cfg.Stream, w.cfg.ConsumerGroup, w.cfg.ConsumerName, w.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		w.reclaim = false
		if len(pending) > 0 {
			w.logger.Info("Retrying unacked receipt emails", zap.Int("count", len(pending)))
			return pending, nil
		}
	}
	return rediscommon.ReadFromStream(
		ctx,
		w.client,
		w.cfg.Stream,
		w.cfg.ConsumerGroup,
		w.cfg.ConsumerName,
		w.cfg.BatchSize,
		w.cfg.Block,
	)
}

// handle reports whether msg may be acked. A failed delivery is re-queued as a new entry with a
// higher attempt count; only when that re-queue fails does the original stay pending.
func (w *Worker) handle(ctx context.Context, msg rediscommon.StreamMessage) bool {
	var email ReceiptEmail
	if err := rediscommon.DecodeJSON(msg, &email); err != nil {
		w.logger.Error("Dropping malformed receipt email",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return true
	}

	err := deliver(ctx, w.sender, w.marker, &email, w.logger)
	if err == nil {
		return true
	}

	email.Attempt++
	if email.Attempt >= w.cfg.MaxAttempts {
		w.logger.Error("Giving up on receipt email",
			zap.String("receipt_id", email.ReceiptID),
			zap.String("to", email.To),
			zap.Int("attempts", email.Attempt),
			zap.Error(err),
		)
		return true
	}

	w.logger.Warn("Receipt email failed, re-queueing",
		zap.String("receipt_id", email.ReceiptID),
		zap.Int("attempt", email.Attempt),
		zap.Error(err),
	)
	if qErr := w.outbox.Dispatch(ctx, &email); qErr != nil {
		w.logger.Error("Failed to re-queue receipt email, leaving it pending",
			zap.String("receipt_id", email.ReceiptID),
			zap.String("message_id", msg.ID),
			zap.Error(qErr),
		)
		return false
	}
	return true
}
