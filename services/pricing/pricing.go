package pricing

import (
	"errors"
	"math"
	"strings"

	"travelease/models"
)

// ErrInvalidCoupon is reported when a non-empty code is not in the registry.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Totals is the result of pricing a seat selection. FinalPrice is unrounded;
// use Display for the two-decimal presentation values.
type Totals struct {
	SeatCount  int            `json:"seatCount"`
	Subtotal   float64        `json:"subtotal"`
	Discount   float64        `json:"discount"`
	FinalPrice float64        `json:"finalPrice"`
	Coupon     *models.Coupon `json:"coupon,omitempty"`
	Err        error          `json:"-"`
}

// DisplayTotals holds rounded amounts for rendering.
type DisplayTotals struct {
	SeatCount   int     `json:"seatCount"`
	Subtotal    float64 `json:"subtotal"`
	Discount    float64 `json:"discount"`
	FinalPrice  float64 `json:"finalPrice"`
	CouponCode  string  `json:"couponCode,omitempty"`
	CouponError string  `json:"couponError,omitempty"`
}

// Display rounds every amount to two decimals.
func (t Totals) Display() DisplayTotals {
	d := DisplayTotals{
		SeatCount:  t.SeatCount,
		Subtotal:   Round2(t.Subtotal),
		Discount:   Round2(t.Discount),
		FinalPrice: Round2(t.FinalPrice),
	}
	if t.Coupon != nil {
		d.CouponCode = t.Coupon.Code
	}
	if t.Err != nil {
		d.CouponError = t.Err.Error()
	}
	return d
}

// Subtotal sums seat prices. Seats without their own price are charged pricePerSeat.
func Subtotal(seats []models.Seat, pricePerSeat float64) float64 {
	total := 0.0
	for _, s := range seats {
		total += s.PriceOr(pricePerSeat)
	}
	return total
}

// ComputeTotals prices a selection and applies an optional coupon. It has no
// side effects. A nil lookup behaves like an empty registry.
func ComputeTotals(seats []models.Seat, pricePerSeat float64, couponCode string, lookup CouponLookup) Totals {
	subtotal := Subtotal(seats, pricePerSeat)
	t := Totals{
		SeatCount:  len(seats),
		Subtotal:   subtotal,
		FinalPrice: subtotal,
	}

	code := strings.TrimSpace(couponCode)
	if code == "" {
		return t
	}

	var (
		coupon models.Coupon
		found  bool
	)
	if lookup != nil {
		coupon, found = lookup.Lookup(code)
	}
	if !found {
		t.Err = ErrInvalidCoupon
		return t
	}

	t.Coupon = &coupon
	t.Discount = Discount(coupon, subtotal)
	t.FinalPrice = subtotal - t.Discount
	return t
}

// Discount computes a coupon's reduction, clamped to [0, subtotal].
func Discount(c models.Coupon, subtotal float64) float64 {
	var d float64
	switch c.Kind {
	case models.CouponPercentage:
		d = subtotal * c.Value / 100
	case models.CouponFlat:
		d = c.Value
	}
	if d > subtotal {
		d = subtotal
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
