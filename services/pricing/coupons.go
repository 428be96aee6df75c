package pricing

import (
	"sort"
	"strings"

	"travelease/models"
)

// CouponLookup resolves a coupon code. Implementations must treat codes
// case-insensitively.
type CouponLookup interface {
	Lookup(code string) (models.Coupon, bool)
}

// StaticRegistry is a fixed, in-memory coupon table.
type StaticRegistry struct {
	coupons map[string]models.Coupon
}

// DefaultCoupons are the codes offered on the payment screen.
var DefaultCoupons = []models.Coupon{
	{Code: "SAVE10", Kind: models.CouponPercentage, Value: 10},
	{Code: "FLAT50", Kind: models.CouponFlat, Value: 50},
	{Code: "SAVE20", Kind: models.CouponPercentage, Value: 20},
}

// NewStaticRegistry builds a registry from the given coupons, keyed by upper-cased code.
func NewStaticRegistry(coupons ...models.Coupon) *StaticRegistry {
	r := &StaticRegistry{coupons: make(map[string]models.Coupon, len(coupons))}
	for _, c := range coupons {
		r.coupons[normalizeCode(c.Code)] = c
	}
	return r
}

// DefaultRegistry returns a registry holding DefaultCoupons.
func DefaultRegistry() *StaticRegistry {
	return NewStaticRegistry(DefaultCoupons...)
}

func (r *StaticRegistry) Lookup(code string) (models.Coupon, bool) {
	c, ok := r.coupons[normalizeCode(code)]
	return c, ok
}

// Codes lists the registered codes, sorted.
func (r *StaticRegistry) Codes() []string {
	codes := make([]string, 0, len(r.coupons))
	for code := range r.coupons {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
