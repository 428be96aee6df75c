package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"travelease/handlers"
	"travelease/middleware"
)

// RegisterBusRoutes registers the bus list and seat-map endpoints.
func RegisterBusRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/buses")
	{
		// Protected routes (Require Authentication)
		api.Use(middleware.TokenAuthMiddleware(hb.Users, hb.AuthCache))
		api.GET("", hb.ListBuses)
		api.GET("/:busId/seats", hb.LoadSeatMap)
		api.DELETE("/current", hb.CloseSeatMap)
	}
}

// RegisterHistoryRoutes registers the booking history endpoint.
func RegisterHistoryRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.TokenAuthMiddleware(hb.Users, hb.AuthCache))
		api.GET("", hb.GetBookings)
		api.GET("/:ticketId/ticket", hb.DownloadTicket)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !containsWildcard(allowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterBusRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterHistoryRoutes(r, hb)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
