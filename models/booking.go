package models

import "time"

// BookingRequest is the body of POST /bookings/.
type BookingRequest struct {
	BusID int64    `json:"bus_id"`
	Seats []string `json:"seats"`
}

// BookingResponse is the success payload of POST /bookings/.
type BookingResponse struct {
	Message     string   `json:"message"`
	TicketID    string   `json:"ticket_id"`
	Seats       []string `json:"seats"`
	TotalPrice  float64  `json:"total_price"`
	BusName     string   `json:"bus_name"`
	BusNumber   string   `json:"bus_number"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	StartTime   string   `json:"start_time"`
}

// BookingBus is the route information attached to a booking record.
type BookingBus struct {
	Name        string `json:"bus_name"`
	Number      string `json:"bus_number"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
}

// BookingRecord is a server-issued booking confirmation.
type BookingRecord struct {
	TicketID    string     `json:"ticketId"`
	Seats       []string   `json:"seats"`
	TotalPrice  float64    `json:"totalPrice"`
	BookingTime time.Time  `json:"bookingTime"`
	Bus         BookingBus `json:"bus"`
}

// RecordFromResponse converts a booking response into a record stamped at bookedAt.
func RecordFromResponse(resp BookingResponse, bookedAt time.Time) BookingRecord {
	return BookingRecord{
		TicketID:    resp.TicketID,
		Seats:       append([]string(nil), resp.Seats...),
		TotalPrice:  resp.TotalPrice,
		BookingTime: bookedAt,
		Bus: BookingBus{
			Name:        resp.BusName,
			Number:      resp.BusNumber,
			Origin:      resp.Origin,
			Destination: resp.Destination,
			StartTime:   resp.StartTime,
		},
	}
}
