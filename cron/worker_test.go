package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travelease/models"
	"travelease/services/notification"
	"travelease/services/tasks"
)

type recordingNotifier struct {
	got []notification.Confirmation
	err error
}

func (r *recordingNotifier) SendBookingConfirmation(_ context.Context, c notification.Confirmation) error {
	r.got = append(r.got, c)
	return r.err
}

func retryTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewConfirmationRetryTask(notification.Confirmation{
		To:       models.Contact{Name: "Asha", Email: "asha@example.com"},
		TicketID: "T-9",
		Seats:    []string{"5"},
	}, 3, time.Minute)
	require.NoError(t, err)
	return task
}

func TestHandleConfirmationTask_Delivers(t *testing.T) {
	n := &recordingNotifier{}
	h := handleConfirmationTask(n, zap.NewNop())

	require.NoError(t, h(context.Background(), retryTask(t)))
	require.Len(t, n.got, 1)
	assert.Equal(t, "T-9", n.got[0].TicketID)
}

func TestHandleConfirmationTask_TransientFailureRetries(t *testing.T) {
	n := &recordingNotifier{err: errors.New("smtp down")}
	h := handleConfirmationTask(n, zap.NewNop())

	err := h(context.Background(), retryTask(t))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleConfirmationTask_PermanentFailuresSkipRetry(t *testing.T) {
	h := handleConfirmationTask(&recordingNotifier{err: notification.ErrNoRecipient}, zap.NewNop())
	assert.ErrorIs(t, h(context.Background(), retryTask(t)), asynq.SkipRetry)

	bad := asynq.NewTask(tasks.TypeConfirmationRetry, []byte("not json"))
	assert.ErrorIs(t, h(context.Background(), bad), asynq.SkipRetry)
}

func TestRetryDelay_Capped(t *testing.T) {
	assert.Equal(t, time.Minute, retryDelay(0, nil, nil))
	assert.Equal(t, 3*time.Minute, retryDelay(2, nil, nil))
	assert.Equal(t, 30*time.Minute, retryDelay(100, nil, nil))
}
