package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"travelease/models"
)

// flexFloat accepts a JSON number or a numeric string ("500.00").
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		f.Value, f.Set = v, true
		return nil
	}
	if err := json.Unmarshal(b, &f.Value); err != nil {
		return err
	}
	f.Set = true
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func flexStrings(in []flexString) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := strings.TrimSpace(string(s)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type wireUser struct {
	ID       flexString `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
}

func (w wireUser) toModel() models.UserProfile {
	return models.UserProfile{
		ID:       strings.TrimSpace(string(w.ID)),
		Username: w.Username,
		Email:    w.Email,
	}
}

type wireSeat struct {
	ID          int64      `json:"id"`
	SeatNumber  flexString `json:"seat_number"`
	IsAvailable bool       `json:"is_available"`
	Price       flexFloat  `json:"price"`
}

type wireBus struct {
	ID          int64      `json:"id"`
	Name        string     `json:"bus_name"`
	Number      flexString `json:"bus_number"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Price       flexFloat  `json:"price"`
	Seats       []wireSeat `json:"seats"`
}

func (w wireBus) toModel() models.Bus {
	b := models.Bus{
		ID:          w.ID,
		Name:        w.Name,
		Number:      string(w.Number),
		Origin:      w.Origin,
		Destination: w.Destination,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		Price:       w.Price.Value,
	}
	if len(w.Seats) > 0 {
		b.Seats = make([]models.Seat, 0, len(w.Seats))
	}
	for _, s := range w.Seats {
		seat := models.Seat{ID: s.ID, SeatNumber: string(s.SeatNumber), IsAvailable: s.IsAvailable}
		if s.Price.Set {
			p := s.Price.Value
			seat.Price = &p
		}
		b.Seats = append(b.Seats, seat)
	}
	return b
}

type wireBookingResponse struct {
	Message     string       `json:"message"`
	TicketID    flexString   `json:"ticket_id"`
	Seats       []flexString `json:"seats"`
	TotalPrice  flexFloat    `json:"total_price"`
	BusName     string       `json:"bus_name"`
	BusNumber   flexString   `json:"bus_number"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	StartTime   string       `json:"start_time"`
}

func (w wireBookingResponse) toModel() models.BookingResponse {
	return models.BookingResponse{
		Message:     w.Message,
		TicketID:    string(w.TicketID),
		Seats:       flexStrings(w.Seats),
		TotalPrice:  w.TotalPrice.Value,
		BusName:     w.BusName,
		BusNumber:   string(w.BusNumber),
		Origin:      w.Origin,
		Destination: w.Destination,
		StartTime:   w.StartTime,
	}
}

// wireHistoryBooking covers both history record layouts seen from the server:
// flat route fields with a seats list, and a nested bus object with one seat.
type wireHistoryBooking struct {
	ID          flexString      `json:"id"`
	TicketID    flexString      `json:"ticket_id"`
	Seats       []flexString    `json:"seats"`
	Seat        json.RawMessage `json:"seat"`
	TotalPrice  flexFloat       `json:"total_price"`
	BookingTime string          `json:"booking_time"`
	BusName     string          `json:"bus_name"`
	BusNumber   flexString      `json:"bus_number"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Bus         json.RawMessage `json:"bus"`
}

func (w wireHistoryBooking) toModel() models.BookingRecord {
	rec := models.BookingRecord{
		TicketID:    string(w.TicketID),
		Seats:       flexStrings(w.Seats),
		TotalPrice:  w.TotalPrice.Value,
		BookingTime: ParseTimestamp(w.BookingTime),
		Bus: models.BookingBus{
			Name:        w.BusName,
			Number:      string(w.BusNumber),
			Origin:      w.Origin,
			Destination: w.Destination,
			StartTime:   w.StartTime,
			EndTime:     w.EndTime,
		},
	}
	if rec.TicketID == "" {
		rec.TicketID = string(w.ID)
	}

	var nested wireBus
	if isObject(w.Bus) && json.Unmarshal(w.Bus, &nested) == nil {
		if rec.Bus.Name == "" {
			rec.Bus.Name = nested.Name
		}
		if rec.Bus.Number == "" {
			rec.Bus.Number = string(nested.Number)
		}
		if rec.Bus.Origin == "" {
			rec.Bus.Origin = nested.Origin
		}
		if rec.Bus.Destination == "" {
			rec.Bus.Destination = nested.Destination
		}
		if rec.Bus.StartTime == "" {
			rec.Bus.StartTime = nested.StartTime
		}
		if rec.Bus.EndTime == "" {
			rec.Bus.EndTime = nested.EndTime
		}
	}

	var single wireSeat
	if len(rec.Seats) == 0 && isObject(w.Seat) && json.Unmarshal(w.Seat, &single) == nil && single.SeatNumber != "" {
		rec.Seats = []string{string(single.SeatNumber)}
	}
	return rec
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the booking time formats the server emits. Values
// without a zone are read as UTC. Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DecodeBookings normalizes a booking history payload. Both a bare array and
// an object wrapping the array under "bookings" are accepted.
func DecodeBookings(raw []byte) ([]models.BookingRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrUnexpectedShape
	}

	var items []wireHistoryBooking
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
	case '{':
		var wrapped struct {
			Bookings json.RawMessage `json:"bookings"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		inner := bytes.TrimSpace(wrapped.Bookings)
		if len(inner) == 0 || inner[0] != '[' {
			return nil, ErrUnexpectedShape
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
	default:
		return nil, ErrUnexpectedShape
	}

	out := make([]models.BookingRecord, 0, len(items))
	for _, item := range items {
		out = append(out, item.toModel())
	}
	return out, nil
}
