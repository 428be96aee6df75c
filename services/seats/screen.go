package seats

import (
	"context"
	"errors"
	"sync"

	"travelease/models"
)

var (
	// ErrStaleResponse is returned when a seat map arrives after a newer load
	// or a teardown; the response is discarded.
	ErrStaleResponse = errors.New("seat map response discarded: screen was reloaded or closed")
	ErrNoSeatMap     = errors.New("no seat map loaded")
	ErrSeatNotFound  = errors.New("seat not found on this bus")
)

// BusFetcher loads a bus with its seat map.
type BusFetcher interface {
	GetBus(ctx context.Context, busID string) (*models.Bus, error)
}

// State is a read-only view of the screen.
type State struct {
	Bus         *models.Bus   `json:"bus,omitempty"`
	Selected    []models.Seat `json:"selectedSeats"`
	SeatIDs     []int64       `json:"selectedSeatIds"`
	SeatNumbers []string      `json:"selectedSeatNumbers"`
	Count       int           `json:"selectedCount"`
}

// SeatMapScreen owns one bus snapshot and the selection made on it. Each Load
// or Close starts a new generation; fetch results from older generations are
// dropped so a slow response never overwrites newer state.
type SeatMapScreen struct {
	mu         sync.Mutex
	fetcher    BusFetcher
	generation uint64
	bus        *models.Bus
	selection  *Selection
}

// NewSeatMapScreen returns an empty screen.
func NewSeatMapScreen(fetcher BusFetcher) *SeatMapScreen {
	return &SeatMapScreen{fetcher: fetcher, selection: NewSelection()}
}

// Load fetches busID and replaces the snapshot, resetting the selection. On a
// fetch error the screen degrades to no seat map and the error is returned.
func (s *SeatMapScreen) Load(ctx context.Context, busID string) (State, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	bus, err := s.fetcher.GetBus(ctx, busID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return State{}, ErrStaleResponse
	}
	s.selection = NewSelection()
	if err != nil {
		s.bus = nil
		return s.stateLocked(), err
	}
	s.bus = bus
	return s.stateLocked(), nil
}

// Close tears the screen down; in-flight loads will be discarded.
func (s *SeatMapScreen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.bus = nil
	s.selection = NewSelection()
}

// Toggle flips seatID in the selection. Unavailable seats are left untouched
// without error.
func (s *SeatMapScreen) Toggle(seatID int64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil {
		return s.stateLocked(), ErrNoSeatMap
	}
	for _, seat := range s.bus.Seats {
		if seat.ID == seatID {
			s.selection.Toggle(seat)
			return s.stateLocked(), nil
		}
	}
	return s.stateLocked(), ErrSeatNotFound
}

// Clear empties the selection but keeps the seat map.
func (s *SeatMapScreen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// State returns the current snapshot.
func (s *SeatMapScreen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Bus returns the loaded bus, or nil.
func (s *SeatMapScreen) Bus() *models.Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bus == nil {
		return nil
	}
	b := *s.bus
	return &b
}

func (s *SeatMapScreen) stateLocked() State {
	st := State{
		Selected:    s.selection.Selected(),
		SeatIDs:     s.selection.IDs(),
		SeatNumbers: s.selection.SeatNumbers(),
		Count:       s.selection.Count(),
	}
	if s.bus != nil {
		b := *s.bus
		st.Bus = &b
	}
	return st
}

// Rows groups seats three to a row: one on the left of the aisle, two on the right.
func Rows(seats []models.Seat) [][]models.Seat {
	rows := make([][]models.Seat, 0, (len(seats)+2)/3)
	for i := 0; i < len(seats); i += 3 {
		end := i + 3
		if end > len(seats) {
			end = len(seats)
		}
		rows = append(rows, seats[i:end])
	}
	return rows
}
