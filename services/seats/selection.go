package seats

import (
	"sort"
	"strconv"
	"unicode"

	"travelease/models"
)

// Selection is the set of seats picked on one seat map. The zero value is not
// usable; call NewSelection.
type Selection struct {
	seats map[int64]models.Seat
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{seats: make(map[int64]models.Seat)}
}

// Toggle adds an available seat that is not selected, or removes it if it is.
// Unavailable seats are ignored. It reports whether the selection changed.
func (s *Selection) Toggle(seat models.Seat) bool {
	if !seat.IsAvailable {
		return false
	}
	if _, ok := s.seats[seat.ID]; ok {
		delete(s.seats, seat.ID)
		return true
	}
	s.seats[seat.ID] = seat
	return true
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.seats = make(map[int64]models.Seat)
}

func (s *Selection) IsSelected(seatID int64) bool {
	_, ok := s.seats[seatID]
	return ok
}

func (s *Selection) Count() int {
	return len(s.seats)
}

// Selected returns the selected seats ordered by seat number.
func (s *Selection) Selected() []models.Seat {
	out := make([]models.Seat, 0, len(s.seats))
	for _, seat := range s.seats {
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatNumber == out[j].SeatNumber {
			return out[i].ID < out[j].ID
		}
		return SeatNumberLess(out[i].SeatNumber, out[j].SeatNumber)
	})
	return out
}

// SeatNumbers returns the selected seat numbers in ascending seat-number order.
func (s *Selection) SeatNumbers() []string {
	selected := s.Selected()
	out := make([]string, 0, len(selected))
	for _, seat := range selected {
		out = append(out, seat.SeatNumber)
	}
	return out
}

// IDs returns the selected seat ids, ascending.
func (s *Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.seats))
	for id := range s.seats {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SeatNumberLess orders seat numbers naturally, so "A2" sorts before "A10"
// and plain numbers compare numerically.
func SeatNumberLess(a, b string) bool {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] == cb[i] {
			continue
		}
		na, errA := strconv.Atoi(ca[i])
		nb, errB := strconv.Atoi(cb[i])
		if errA == nil && errB == nil {
			if na != nb {
				return na < nb
			}
			continue
		}
		return ca[i] < cb[i]
	}
	if len(ca) != len(cb) {
		return len(ca) < len(cb)
	}
	return a < b
}

// chunks splits s into alternating runs of digits and non-digits.
func chunks(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if i == 0 {
			continue
		}
		prev := rune(s[i-1])
		if unicode.IsDigit(r) != unicode.IsDigit(prev) {
			out = append(out, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
