package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"travelease/models"
	"travelease/services/pricing"
	"travelease/services/seats"
)

// Session carries a confirmed seat selection from the seat map to payment.
// It is consumed once by the submission controller.
type Session struct {
	ID             string         `json:"sessionId"`
	UserID         string         `json:"userId"`
	Owner          string         `json:"owner"`
	Bus            models.Bus     `json:"bus"`
	Seats          []models.Seat  `json:"seats"`
	Contact        models.Contact `json:"contact"`
	CouponCode     string         `json:"couponCode,omitempty"`
	IdempotencyKey string         `json:"idempotencyKey"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// SessionStore persists sessions between the checkout and submit requests.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// NewSession validates the selection and builds a session for it. Seats are
// copied and kept in seat-number order; the bus is stored without its seat map.
func NewSession(user *models.CurrentUser, bus models.Bus, selected []models.Seat, contact models.Contact) (*Session, error) {
	if !user.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	if len(selected) == 0 {
		return nil, ErrNoSeatsSelected
	}

	sel := seats.NewSelection()
	for _, s := range selected {
		if !s.IsAvailable {
			return nil, ErrSeatNotAvailable
		}
		if !sel.IsSelected(s.ID) {
			sel.Toggle(s)
		}
	}

	return &Session{
		ID:     uuid.New().String(),
		UserID: user.UserID,
		Owner:  user.StateKey(),
		Bus:    bus.Summary(),
		Seats:  sel.Selected(),
		Contact: models.Contact{
			Name:  strings.TrimSpace(contact.Name),
			Email: strings.TrimSpace(contact.Email),
		},
		IdempotencyKey: uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// SeatNumbers returns the seat numbers sent to the booking endpoint.
func (s *Session) SeatNumbers() []string {
	out := make([]string, len(s.Seats))
	for i, seat := range s.Seats {
		out[i] = seat.SeatNumber
	}
	return out
}

// SeatIDs returns the ids of the session's seats.
func (s *Session) SeatIDs() []int64 {
	out := make([]int64, len(s.Seats))
	for i, seat := range s.Seats {
		out[i] = seat.ID
	}
	return out
}

// Totals prices the session with its current coupon.
func (s *Session) Totals(lookup pricing.CouponLookup) pricing.Totals {
	return pricing.ComputeTotals(s.Seats, s.Bus.Price, s.CouponCode, lookup)
}

// Request builds the POST /bookings/ body.
func (s *Session) Request() models.BookingRequest {
	return models.BookingRequest{BusID: s.Bus.ID, Seats: s.SeatNumbers()}
}

// OwnedBy reports whether the session was created by user with the same token.
func (s *Session) OwnedBy(user *models.CurrentUser) bool {
	return user != nil && s.UserID == user.UserID && s.Owner == user.StateKey()
}
