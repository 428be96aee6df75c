package routes

import (
	"github.com/gin-gonic/gin"

	"travelease/handlers"
	"travelease/middleware"
)

// RegisterBookingRoutes registers seat selection, checkout and submission.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	auth := middleware.TokenAuthMiddleware(hb.Users, hb.AuthCache)

	selection := r.Group("/api/selection")
	{
		selection.Use(auth)
		selection.GET("", hb.GetSelection)
		selection.POST("/seats/:seatId/toggle", hb.ToggleSeat)
		selection.DELETE("", hb.ClearSelection)
	}

	checkout := r.Group("/api/checkout")
	{
		checkout.Use(auth)
		checkout.POST("", hb.CreateCheckout)                  // Seat map -> payment
		checkout.GET("/status", hb.SubmissionStatus)          // Submission state
		checkout.GET("/:sessionId", hb.GetCheckout)           // Payment screen
		checkout.POST("/:sessionId/coupon", hb.ApplyCoupon)   // Apply or clear coupon
		checkout.GET("/:sessionId/qr", hb.PaymentQR)          // UPI QR code
		checkout.POST("/:sessionId/submit", hb.SubmitBooking) // Book
		checkout.DELETE("/:sessionId", hb.CancelCheckout)     // Back to seat map
	}
}
