package models

// CouponKind distinguishes percentage-of-subtotal from flat-amount coupons.
type CouponKind string

const (
	CouponPercentage CouponKind = "percentage"
	CouponFlat       CouponKind = "flat"
)

// Coupon is a discount code.
type Coupon struct {
	Code  string     `json:"code"`
	Kind  CouponKind `json:"kind"`
	Value float64    `json:"value"`
}
