package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"travelease/models"
	"travelease/utils"
)

// RenderETicket lays out a one-page PDF ticket for rec, issued to passenger.
// It returns the document and a download filename.
func RenderETicket(rec models.BookingRecord, passenger models.Contact) ([]byte, string, error) {
	if rec.TicketID == "" {
		return nil, "", fmt.Errorf("ticket: booking has no ticket id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+rec.TicketID, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRAVELEASE E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Ticket ID      : %s", rec.TicketID),
		fmt.Sprintf("Passenger      : %s", safe(passenger.Name, "-")),
		fmt.Sprintf("Email          : %s", safe(passenger.Email, "-")),
		fmt.Sprintf("Bus            : %s (%s)", safe(rec.Bus.Name, "-"), safe(rec.Bus.Number, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(rec.Bus.Origin, "-"), safe(rec.Bus.Destination, "-")),
		fmt.Sprintf("Departure      : %s", safe(utils.FormatTo12Hour(rec.Bus.StartTime), "-")),
		fmt.Sprintf("Seats          : %s", safe(strings.Join(rec.Seats, ", "), "-")),
		fmt.Sprintf("Total paid     : Rs. %.2f", utils.RoundMoney(rec.TotalPrice)),
	}
	if !rec.BookingTime.IsZero() {
		lines = append(lines, fmt.Sprintf("Booked on      : %s", rec.BookingTime.Format("2006-01-02 15:04")))
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please show this ticket with a valid photo ID when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%s.pdf", filenamePart(rec.TicketID)), nil
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func filenamePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
