package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"travelease/models"
)

// Confirmation is the content of a booking confirmation message.
type Confirmation struct {
	To          models.Contact `json:"to"`
	TicketID    string         `json:"ticketId"`
	Seats       []string       `json:"seats"`
	TotalPrice  float64        `json:"totalPrice"`
	BusName     string         `json:"busName"`
	BusNumber   string         `json:"busNumber"`
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	StartTime   string         `json:"startTime"`
	JourneyDate time.Time      `json:"journeyDate"`
}

// ConfirmationFromRecord builds the message for a confirmed booking.
func ConfirmationFromRecord(to models.Contact, rec models.BookingRecord) Confirmation {
	return Confirmation{
		To:          to,
		TicketID:    rec.TicketID,
		Seats:       append([]string(nil), rec.Seats...),
		TotalPrice:  rec.TotalPrice,
		BusName:     rec.Bus.Name,
		BusNumber:   rec.Bus.Number,
		Origin:      rec.Bus.Origin,
		Destination: rec.Bus.Destination,
		StartTime:   rec.Bus.StartTime,
		JourneyDate: rec.BookingTime,
	}
}

// Notifier delivers booking confirmations. Delivery is best effort: callers
// report a failure to the user but never undo the booking.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, c Confirmation) error
}

// LogNotifier only logs confirmations. It is used when no mail server is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendBookingConfirmation(_ context.Context, c Confirmation) error {
	n.logger.Info("Booking confirmation (mail disabled)",
		zap.String("ticketId", c.TicketID),
		zap.String("to", c.To.Email),
		zap.Strings("seats", c.Seats),
		zap.Float64("totalPrice", c.TotalPrice))
	return nil
}
