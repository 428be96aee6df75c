// File: travelease/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"travelease/middleware"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Users     middleware.UserFetcher
	AuthCache *redis.Client

	// Bus list and seat map
	ListBuses      gin.HandlerFunc
	LoadSeatMap    gin.HandlerFunc
	CloseSeatMap   gin.HandlerFunc
	GetSelection   gin.HandlerFunc
	ToggleSeat     gin.HandlerFunc
	ClearSelection gin.HandlerFunc

	// Checkout and submission
	CreateCheckout   gin.HandlerFunc
	GetCheckout      gin.HandlerFunc
	ApplyCoupon      gin.HandlerFunc
	PaymentQR        gin.HandlerFunc
	CancelCheckout   gin.HandlerFunc
	SubmitBooking    gin.HandlerFunc
	SubmissionStatus gin.HandlerFunc

	// History
	GetBookings    gin.HandlerFunc
	DownloadTicket gin.HandlerFunc

	// Health
	Health gin.HandlerFunc
}

// NewHandlerBundle wires the handlers' methods into a bundle.
func NewHandlerBundle(users middleware.UserFetcher, authCache *redis.Client, bus *BusHandler, checkout *CheckoutHandler, hist *HistoryHandler) *HandlerBundle {
	return &HandlerBundle{
		Users:     users,
		AuthCache: authCache,

		ListBuses:      bus.ListBuses,
		LoadSeatMap:    bus.LoadSeatMap,
		CloseSeatMap:   bus.CloseSeatMap,
		GetSelection:   bus.GetSelection,
		ToggleSeat:     bus.ToggleSeat,
		ClearSelection: bus.ClearSelection,

		CreateCheckout:   checkout.CreateCheckout,
		GetCheckout:      checkout.GetCheckout,
		ApplyCoupon:      checkout.ApplyCoupon,
		PaymentQR:        checkout.PaymentQR,
		CancelCheckout:   checkout.CancelCheckout,
		SubmitBooking:    checkout.Submit,
		SubmissionStatus: checkout.SubmissionStatus,

		GetBookings:    hist.GetBookings,
		DownloadTicket: hist.DownloadTicket,

		Health: HealthHandler,
	}
}
