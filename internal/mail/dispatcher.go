package mail

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "github.com/umar1110/Donation-Plantform-Server/common/redis"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

// Dispatcher hands a receipt email off for delivery after the issuing transaction has committed.
// Implementations must not block on the delivery itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, email *ReceiptEmail) error
}

// ReceiptMarker records a successful delivery on the receipt row
type ReceiptMarker interface {
	MarkEmailSent(ctx context.Context, receiptID string, sentAt time.Time) error
}

type dbMarker struct {
	db       *sql.DB
	receipts repository.ReceiptsRepository
}

// NewReceiptMarker marks receipts through the receipts repository outside any request transaction
func NewReceiptMarker(db *sql.DB, receipts repository.ReceiptsRepository) ReceiptMarker {
	return &dbMarker{db: db, receipts: receipts}
}

func (m *dbMarker) MarkEmailSent(ctx context.Context, receiptID string, sentAt time.Time) error {
	return m.receipts.MarkEmailSent(ctx, m.db, receiptID, sentAt)
}

// deliver sends and then marks. A marking failure is logged only: the mail has gone out.
func deliver(ctx context.Context, sender Sender, marker ReceiptMarker, email *ReceiptEmail, logger *zap.Logger) error {
	if err := sender.Send(ctx, email.To, email.Subject, email.HTML, email.Text); err != nil {
		return err
	}
	if marker != nil {
		if err := marker.MarkEmailSent(ctx, email.ReceiptID, time.Now().UTC()); err != nil {
			logger.Warn("Receipt email sent but not marked",
				zap.String("receipt_id", email.ReceiptID),
				zap.Error(err),
			)
		}
	}
	logger.Info("Receipt email sent",
		zap.String("receipt_id", email.ReceiptID),
		zap.String("receipt_number", email.ReceiptNumber),
	)
	return nil
}

// AsyncDispatcher delivers in a detached goroutine per email, for deployments without Redis
type AsyncDispatcher struct {
	sender  Sender
	marker  ReceiptMarker
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncDispatcher(sender Sender, marker ReceiptMarker, logger *zap.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{
		sender:  sender,
		marker:  marker,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Dispatch returns immediately; the send outlives the caller's context cancellation
func (d *AsyncDispatcher) Dispatch(ctx context.Context, email *ReceiptEmail) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := deliver(sendCtx, d.sender, d.marker, email, d.logger); err != nil {
			d.logger.Error("Failed to send receipt email",
				zap.String("receipt_id", email.ReceiptID),
				zap.String("to", email.To),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until every dispatched email has finished; call on shutdown
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// Outbox queues emails on a Redis Stream for the Worker
type Outbox struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewOutbox(client *redis.Client, stream string, logger *zap.Logger) *Outbox {
	return &Outbox{client: client, stream: stream, logger: logger}
}

func (o *Outbox) Dispatch(ctx context.Context, email *ReceiptEmail) error {
	id, err := rediscommon.PublishJSONToStream(ctx, o.client, o.stream, email)
	if err != nil {
		return fmt.Errorf("failed to enqueue receipt email: %w", err)
	}
	o.logger.Debug("Receipt email queued",
		zap.String("receipt_id", email.ReceiptID),
		zap.String("message_id", id),
		zap.Int("attempt", email.Attempt),
	)
	return nil
}
