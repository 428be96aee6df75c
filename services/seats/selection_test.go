package seats

import (
	"fmt"
	"testing"

	"travelease/models"

	"github.com/stretchr/testify/assert"
)

func seat(id int64, num string, available bool) models.Seat {
	return models.Seat{ID: id, SeatNumber: num, IsAvailable: available}
}

func selectionOf(seats ...models.Seat) *Selection {
	s := NewSelection()
	for _, st := range seats {
		s.Toggle(st)
	}
	return s
}

func TestToggle_IsItsOwnInverse(t *testing.T) {
	pool := []models.Seat{seat(1, "A1", true), seat(2, "A2", true), seat(3, "B1", true), seat(4, "B2", true)}

	// Every subset of the pool as the starting selection, every seat as the toggled one.
	for mask := 0; mask < 1<<len(pool); mask++ {
		var start []models.Seat
		for i, st := range pool {
			if mask&(1<<i) != 0 {
				start = append(start, st)
			}
		}
		for _, st := range pool {
			sel := selectionOf(start...)
			before := sel.IDs()

			sel.Toggle(st)
			sel.Toggle(st)

			assert.Equal(t, before, sel.IDs(), fmt.Sprintf("mask=%b seat=%d", mask, st.ID))
		}
	}
}

func TestToggle_UnavailableSeatIsNoop(t *testing.T) {
	taken := seat(9, "C1", false)
	for _, start := range [][]models.Seat{nil, {seat(1, "A1", true)}, {seat(1, "A1", true), seat(2, "A2", true)}} {
		sel := selectionOf(start...)
		before := sel.IDs()

		changed := sel.Toggle(taken)

		assert.False(t, changed)
		assert.Equal(t, before, sel.IDs())
		assert.False(t, sel.IsSelected(taken.ID))
	}
}

func TestToggle_AddThenRemove(t *testing.T) {
	sel := NewSelection()
	a1 := seat(1, "A1", true)

	assert.True(t, sel.Toggle(a1))
	assert.True(t, sel.IsSelected(1))
	assert.Equal(t, 1, sel.Count())

	assert.True(t, sel.Toggle(a1))
	assert.False(t, sel.IsSelected(1))
	assert.Zero(t, sel.Count())
}

func TestSeatNumbers_OrderedBySeatNumberNotInsertion(t *testing.T) {
	sel := selectionOf(seat(5, "A10", true), seat(1, "B1", true), seat(2, "A2", true), seat(3, "A1", true))

	assert.Equal(t, []string{"A1", "A2", "A10", "B1"}, sel.SeatNumbers())
	assert.Equal(t, []int64{1, 2, 3, 5}, sel.IDs())
}

func TestSeatNumbers_NumericSeats(t *testing.T) {
	sel := selectionOf(seat(1, "12", true), seat(2, "3", true), seat(3, "21", true))

	assert.Equal(t, []string{"3", "12", "21"}, sel.SeatNumbers())
}

func TestClear(t *testing.T) {
	sel := selectionOf(seat(1, "A1", true), seat(2, "A2", true))

	sel.Clear()

	assert.Zero(t, sel.Count())
	assert.Empty(t, sel.SeatNumbers())
}

func TestSeatNumberLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"A1", "A2", true},
		{"A2", "A10", true},
		{"A10", "A2", false},
		{"A9", "B1", true},
		{"1", "2", true},
		{"10", "9", false},
		{"A", "A1", true},
		{"A1", "A1", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SeatNumberLess(tc.a, tc.b), "%s < %s", tc.a, tc.b)
	}
}
