package cron

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"travelease/services/notification"
	"travelease/services/tasks"
)

// ConfirmationWorker delivers confirmations queued after an inline send failed.
type ConfirmationWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewConfirmationWorker builds a worker consuming the mail queue on redisOpt.
func NewConfirmationWorker(redisOpt asynq.RedisClientOpt, notifier notification.Notifier, logger *zap.Logger) *ConfirmationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				tasks.MailQueue: 1,
			},
			RetryDelayFunc: retryDelay,
			Logger:         logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeConfirmationRetry, handleConfirmationTask(notifier, logger))

	return &ConfirmationWorker{srv: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying startup a few times.
func (w *ConfirmationWorker) Start() {
	go func() {
		w.logger.Info("Starting confirmation worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("Confirmation worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Error("Confirmation worker giving up; failed mail will not be retried")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

// Shutdown stops fetching tasks and waits for in-flight deliveries.
func (w *ConfirmationWorker) Shutdown() {
	w.srv.Shutdown()
}

// retryDelay backs off linearly in minutes, capped at half an hour.
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	d := time.Duration(n+1) * time.Minute
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}

func handleConfirmationTask(notifier notification.Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		c, err := tasks.ParseConfirmation(task)
		if err != nil {
			logger.Error("Dropping confirmation task", zap.Error(err))
			return errors.Join(err, asynq.SkipRetry)
		}
		if err := notifier.SendBookingConfirmation(ctx, c); err != nil {
			if errors.Is(err, notification.ErrNoRecipient) {
				return errors.Join(err, asynq.SkipRetry)
			}
			logger.Warn("Confirmation retry failed", zap.String("ticketId", c.TicketID), zap.Error(err))
			return err
		}
		logger.Info("Confirmation delivered by worker", zap.String("ticketId", c.TicketID))
		return nil
	}
}
