package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelease/models"
	"travelease/services/pricing"
)

func TestNewSession(t *testing.T) {
	bus := scenarioBus()
	s, err := NewSession(testUser, *bus, []models.Seat{bus.Seats[2], bus.Seats[0]}, models.Contact{Name: " Asha ", Email: "asha@example.com "})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.NotEmpty(t, s.IdempotencyKey)
	assert.NotEqual(t, s.ID, s.IdempotencyKey)
	assert.Equal(t, "7", s.UserID)
	assert.Nil(t, s.Bus.Seats)
	assert.Equal(t, []string{"A1", "A3"}, s.SeatNumbers())
	assert.Equal(t, []int64{1, 3}, s.SeatIDs())
	assert.Equal(t, models.Contact{Name: "Asha", Email: "asha@example.com"}, s.Contact)
	assert.Equal(t, models.BookingRequest{BusID: 1, Seats: []string{"A1", "A3"}}, s.Request())
	assert.False(t, s.CreatedAt.IsZero())
}

func TestNewSession_DeduplicatesSeats(t *testing.T) {
	bus := scenarioBus()
	s, err := NewSession(testUser, *bus, []models.Seat{bus.Seats[0], bus.Seats[0]}, models.Contact{})
	require.NoError(t, err)
	assert.Len(t, s.Seats, 1)
}

func TestNewSession_Validation(t *testing.T) {
	bus := scenarioBus()

	_, err := NewSession(nil, *bus, bus.Seats[:1], models.Contact{})
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	_, err = NewSession(&models.CurrentUser{UserID: "7"}, *bus, bus.Seats[:1], models.Contact{})
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	_, err = NewSession(testUser, *bus, nil, models.Contact{})
	assert.ErrorIs(t, err, ErrNoSeatsSelected)
	assert.True(t, IsValidation(err))

	_, err = NewSession(testUser, *bus, []models.Seat{bus.Seats[1]}, models.Contact{})
	assert.ErrorIs(t, err, ErrSeatNotAvailable)
}

func TestSession_Totals(t *testing.T) {
	bus := scenarioBus()
	s, err := NewSession(testUser, *bus, []models.Seat{bus.Seats[0], bus.Seats[2]}, models.Contact{})
	require.NoError(t, err)

	// A3 has no price of its own and falls back to the bus price.
	totals := s.Totals(pricing.DefaultRegistry())
	assert.Equal(t, 1000.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Discount)

	s.CouponCode = "flat50"
	totals = s.Totals(pricing.DefaultRegistry())
	assert.Equal(t, 50.0, totals.Discount)
	assert.Equal(t, 950.0, totals.FinalPrice)
}

func TestSession_OwnedBy(t *testing.T) {
	s := &Session{UserID: "7", Owner: testUser.StateKey()}
	assert.True(t, s.OwnedBy(testUser))
	assert.False(t, s.OwnedBy(&models.CurrentUser{UserID: "8", Token: "x"}))
	assert.False(t, s.OwnedBy(nil))
}

func TestSession_OwnedByIsScopedToToken(t *testing.T) {
	first := &models.CurrentUser{UserID: "7", Token: "a", TokenHash: "ha"}
	other := &models.CurrentUser{UserID: "7", Token: "b", TokenHash: "hb"}

	bus := scenarioBus()
	s, err := NewSession(first, *bus, bus.Seats[:1], models.Contact{Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "7:ha", s.Owner)
	assert.True(t, s.OwnedBy(first))
	assert.False(t, s.OwnedBy(other))
}
