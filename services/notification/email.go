package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"travelease/utils"
)

// ErrNoRecipient is returned when a confirmation has no email address.
var ErrNoRecipient = errors.New("no email provided: cannot send confirmation email")

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Sender abstracts the SMTP transport so message building can be tested alone.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier sends confirmations over SMTP.
type EmailNotifier struct {
	from   string
	sender Sender
	logger *zap.Logger
}

// NewEmailNotifier builds an SMTP client for cfg.
func NewEmailNotifier(cfg SMTPConfig, logger *zap.Logger) (*EmailNotifier, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("email notifier initialization error: host and from address are required")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return NewEmailNotifierWithSender(cfg.From, client, logger), nil
}

// NewEmailNotifierWithSender wires an existing transport.
func NewEmailNotifierWithSender(from string, sender Sender, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{from: from, sender: sender, logger: logger}
}

func (n *EmailNotifier) SendBookingConfirmation(ctx context.Context, c Confirmation) error {
	msg, err := n.BuildMessage(c)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		n.logger.Warn("Failed to send booking confirmation",
			zap.String("ticketId", c.TicketID), zap.Error(err))
		return fmt.Errorf("SendBookingConfirmation: %w", err)
	}
	n.logger.Info("Booking confirmation sent",
		zap.String("ticketId", c.TicketID), zap.String("to", c.To.Email))
	return nil
}

// BuildMessage renders the confirmation into a mail message.
func (n *EmailNotifier) BuildMessage(c Confirmation) (*mail.Msg, error) {
	if strings.TrimSpace(c.To.Email) == "" {
		return nil, ErrNoRecipient
	}
	body, err := renderConfirmation(c)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if c.To.Name != "" {
		err = msg.AddToFormat(c.To.Name, c.To.Email)
	} else {
		err = msg.To(c.To.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Your TravelEase ticket %s", c.TicketID))
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(
	`Hi {{.Name}},

Your booking is confirmed.

Ticket ID:    {{.TicketID}}
Bus:          {{.BusName}} ({{.BusNumber}})
Route:        {{.Origin}} to {{.Destination}}
Departure:    {{.Departure}}
Journey date: {{.JourneyDate}}
Seats:        {{.Seats}}
Total paid:   Rs. {{.Total}}

Thank you for travelling with TravelEase.
© {{.Year}} TravelEase
`))

func renderConfirmation(c Confirmation) (string, error) {
	name := c.To.Name
	if name == "" {
		name = "traveller"
	}
	date := c.JourneyDate
	if date.IsZero() {
		date = time.Now()
	}
	data := struct {
		Name, TicketID, BusName, BusNumber, Origin, Destination string
		Departure, JourneyDate, Seats, Total                    string
		Year                                                    int
	}{
		Name:        name,
		TicketID:    c.TicketID,
		BusName:     c.BusName,
		BusNumber:   c.BusNumber,
		Origin:      c.Origin,
		Destination: c.Destination,
		Departure:   utils.FormatTo12Hour(c.StartTime),
		JourneyDate: date.Format("2006-01-02"),
		Seats:       strings.Join(c.Seats, ", "),
		Total:       fmt.Sprintf("%.2f", c.TotalPrice),
		Year:        date.Year(),
	}
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return buf.String(), nil
}
