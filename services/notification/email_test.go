package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"travelease/models"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func sampleConfirmation() Confirmation {
	return Confirmation{
		To:          models.Contact{Name: "Asha", Email: "asha@example.com"},
		TicketID:    "T-100",
		Seats:       []string{"3", "4"},
		TotalPrice:  899.5,
		BusName:     "Night Rider",
		BusNumber:   "KA-01",
		Origin:      "Hyderabad",
		Destination: "Bengaluru",
		StartTime:   "21:30:00",
		JourneyDate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderConfirmation(t *testing.T) {
	body, err := renderConfirmation(sampleConfirmation())
	require.NoError(t, err)
	assert.Contains(t, body, "Hi Asha,")
	assert.Contains(t, body, "T-100")
	assert.Contains(t, body, "Night Rider (KA-01)")
	assert.Contains(t, body, "Hyderabad to Bengaluru")
	assert.Contains(t, body, "9:30 PM")
	assert.Contains(t, body, "2024-05-01")
	assert.Contains(t, body, "3, 4")
	assert.Contains(t, body, "899.50")
}

func TestEmailNotifier_Sends(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifierWithSender("tickets@travelease.test", sender, nil)

	require.NoError(t, n.SendBookingConfirmation(context.Background(), sampleConfirmation()))
	require.Len(t, sender.sent, 1)

	rcpts, err := sender.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"asha@example.com"}, rcpts)
	assert.Equal(t, []string{"Your TravelEase ticket T-100"}, sender.sent[0].GetGenHeader(mail.HeaderSubject))
}

func TestEmailNotifier_NoRecipient(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifierWithSender("tickets@travelease.test", sender, nil)

	c := sampleConfirmation()
	c.To.Email = "  "
	err := n.SendBookingConfirmation(context.Background(), c)
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, sender.sent)
}

func TestEmailNotifier_TransportFailure(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	n := NewEmailNotifierWithSender("tickets@travelease.test", &fakeSender{err: boom}, nil)

	err := n.SendBookingConfirmation(context.Background(), sampleConfirmation())
	assert.ErrorIs(t, err, boom)
}

func TestNewEmailNotifier_RequiresHost(t *testing.T) {
	_, err := NewEmailNotifier(SMTPConfig{From: "a@b.c"}, nil)
	assert.Error(t, err)
}

func TestConfirmationFromRecord(t *testing.T) {
	rec := models.BookingRecord{
		TicketID:   "T1",
		Seats:      []string{"1"},
		TotalPrice: 500,
		Bus:        models.BookingBus{Name: "A", Number: "N", Origin: "X", Destination: "Y", StartTime: "08:00"},
	}
	c := ConfirmationFromRecord(models.Contact{Email: "a@b.c"}, rec)
	assert.Equal(t, "T1", c.TicketID)
	assert.Equal(t, "A", c.BusName)
	assert.Equal(t, "08:00", c.StartTime)
}
