package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"travelease/services/notification"
)

const (
	TypeConfirmationRetry = "confirmation:retry"
	// MailQueue is the asynq queue confirmation retries are placed on.
	MailQueue = "mail"
	// DefaultRetryDelay is how long the first background attempt waits.
	DefaultRetryDelay = time.Minute
)

// NewConfirmationRetryTask wraps a confirmation for delivery by the worker.
func NewConfirmationRetryTask(c notification.Confirmation, maxRetry int, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeConfirmationRetry, b)
	opts := []asynq.Option{
		asynq.Queue(MailQueue),
		asynq.MaxRetry(maxRetry),
		asynq.ProcessIn(delay),
		// One queued retry per ticket.
		asynq.TaskID(TypeConfirmationRetry + ":" + c.TicketID),
	}
	return task, opts, nil
}

// ParseConfirmation decodes the payload of a confirmation retry task.
func ParseConfirmation(task *asynq.Task) (notification.Confirmation, error) {
	var c notification.Confirmation
	if err := json.Unmarshal(task.Payload(), &c); err != nil {
		return notification.Confirmation{}, fmt.Errorf("invalid confirmation payload: %w", err)
	}
	return c, nil
}

// Enqueuer is the part of *asynq.Client the queued notifier uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuedNotifier sends confirmations inline and, when that fails, hands them
// to the background worker. The inline error is still returned so the caller
// can warn the user.
type QueuedNotifier struct {
	inner    notification.Notifier
	queue    Enqueuer
	maxRetry int
	delay    time.Duration
	logger   *zap.Logger
}

func NewQueuedNotifier(inner notification.Notifier, queue Enqueuer, maxRetry int, logger *zap.Logger) *QueuedNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuedNotifier{
		inner:    inner,
		queue:    queue,
		maxRetry: maxRetry,
		delay:    DefaultRetryDelay,
		logger:   logger,
	}
}

func (n *QueuedNotifier) SendBookingConfirmation(ctx context.Context, c notification.Confirmation) error {
	err := n.inner.SendBookingConfirmation(ctx, c)
	if err == nil {
		return nil
	}
	// No recipient will not get better on retry.
	if c.To.Email == "" {
		return err
	}

	task, opts, terr := NewConfirmationRetryTask(c, n.maxRetry, n.delay)
	if terr != nil {
		n.logger.Error("Failed to build confirmation retry task", zap.String("ticketId", c.TicketID), zap.Error(terr))
		return err
	}
	// The submission context may already be near its deadline.
	enqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if _, qerr := n.queue.EnqueueContext(enqCtx, task, opts...); qerr != nil {
		n.logger.Error("Failed to queue confirmation retry", zap.String("ticketId", c.TicketID), zap.Error(qerr))
		return err
	}
	n.logger.Info("Queued confirmation retry", zap.String("ticketId", c.TicketID), zap.Int("maxRetry", n.maxRetry))
	return err
}
