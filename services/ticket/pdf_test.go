package ticket

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelease/models"
)

func TestRenderETicket(t *testing.T) {
	rec := models.BookingRecord{
		TicketID:    "TK/42",
		Seats:       []string{"3", "4"},
		TotalPrice:  899.5,
		BookingTime: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Bus:         models.BookingBus{Name: "Night Rider", Number: "KA-01", Origin: "Hyderabad", Destination: "Bengaluru", StartTime: "21:30:00"},
	}

	doc, name, err := RenderETicket(rec, models.Contact{Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	assert.Equal(t, "ETICKET_TK_42.pdf", name)
}

func TestRenderETicket_RequiresTicketID(t *testing.T) {
	_, _, err := RenderETicket(models.BookingRecord{}, models.Contact{})
	assert.Error(t, err)
}
