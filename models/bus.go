package models

import "strconv"

// Seat is one seat of a bus as reported by the remote API. The availability flag
// reflects fetch time only; the server re-validates on booking.
type Seat struct {
	ID          int64    `json:"id"`
	SeatNumber  string   `json:"seat_number"`
	IsAvailable bool     `json:"is_available"`
	Price       *float64 `json:"price,omitempty"` // Optional per-seat price; falls back to Bus.Price
}

// PriceOr returns the seat's own price, or fallback when the seat carries none.
func (s Seat) PriceOr(fallback float64) float64 {
	if s.Price != nil {
		return *s.Price
	}
	return fallback
}

// Bus is a route snapshot including its seat map.
type Bus struct {
	ID          int64   `json:"id"`
	Name        string  `json:"bus_name"`
	Number      string  `json:"bus_number"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	StartTime   string  `json:"start_time"` // "HH:MM" or "HH:MM:SS"
	EndTime     string  `json:"end_time"`
	Price       float64 `json:"price"` // Price per seat
	Seats       []Seat  `json:"seats,omitempty"`
}

// Key returns the bus id in its string form, used in URLs and cache keys.
func (b Bus) Key() string {
	return strconv.FormatInt(b.ID, 10)
}

// Summary strips the seat map; sessions and records carry only route details.
func (b Bus) Summary() Bus {
	b.Seats = nil
	return b
}
