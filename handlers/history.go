package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelease/middleware"
	"travelease/models"
	"travelease/services/history"
	"travelease/services/ticket"
	"travelease/utils"
)

// HistoryHandler serves the booking history screen.
type HistoryHandler struct {
	History *history.Service
	Logger  *zap.Logger
}

func NewHistoryHandler(svc *history.Service, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{History: svc, Logger: logger}
}

// GetBookings handles GET /api/bookings. Upstream failures are reported in
// the body alongside an empty list.
func (h *HistoryHandler) GetBookings(c *gin.Context) {
	view := h.History.Load(c.Request.Context(), middleware.CurrentUser(c))
	resp := gin.H{
		"bookings": view.Bookings,
		"latest":   view.Latest,
		"cached":   view.Cached,
	}
	if view.Err != nil {
		resp["error"] = "Could not load your bookings. Please try again later."
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadTicket handles GET /api/bookings/:ticketId/ticket and returns the
// booking as a PDF e-ticket.
func (h *HistoryHandler) DownloadTicket(c *gin.Context) {
	ticketID := c.Param("ticketId")
	view := h.History.Load(c.Request.Context(), middleware.CurrentUser(c))
	rec := view.Find(ticketID)
	if rec == nil {
		if view.Err != nil {
			utils.JSONErrorCode(c, http.StatusBadGateway, "upstreamUnavailable", "Could not load your bookings", "Please try again later")
			return
		}
		utils.JSONErrorCode(c, http.StatusNotFound, "ticketNotFound", "Booking not found", "")
		return
	}

	var passenger models.Contact
	if profile := middleware.UserProfile(c); profile != nil {
		passenger = models.Contact{Name: profile.Username, Email: profile.Email}
	}
	doc, filename, err := ticket.RenderETicket(*rec, passenger)
	if err != nil {
		getLogger(c).Error("DownloadTicket: failed to render ticket", zap.String("ticketId", ticketID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to render ticket", "")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
