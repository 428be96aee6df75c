package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelease/middleware"
	"travelease/models"
	"travelease/services/booking"
	"travelease/services/pricing"
	"travelease/services/seats"
	"travelease/utils"
)

// BusLister lists routes.
type BusLister interface {
	ListBuses(ctx context.Context) ([]models.Bus, error)
}

// BusHandler serves the bus list and the seat-map screen.
type BusHandler struct {
	Buses  BusLister
	Flows  *booking.Registry
	Logger *zap.Logger
}

func NewBusHandler(buses BusLister, flows *booking.Registry, logger *zap.Logger) *BusHandler {
	return &BusHandler{Buses: buses, Flows: flows, Logger: logger}
}

type busView struct {
	models.Bus
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

func newBusView(b models.Bus) busView {
	return busView{
		Bus:       b.Summary(),
		Departure: utils.FormatTo12Hour(b.StartTime),
		Arrival:   utils.FormatTo12Hour(b.EndTime),
	}
}

type seatMapView struct {
	Bus       busView         `json:"bus"`
	Seats     []models.Seat   `json:"seats"`
	Rows      [][]models.Seat `json:"rows"`
	Selection seats.State     `json:"selection"`
	Subtotal  float64         `json:"subtotal"`
}

func newSeatMapView(st seats.State) seatMapView {
	v := seatMapView{Selection: st, Seats: []models.Seat{}, Rows: [][]models.Seat{}}
	v.Selection.Bus = nil
	if st.Bus != nil {
		v.Bus = newBusView(*st.Bus)
		v.Seats = st.Bus.Seats
		v.Rows = seats.Rows(st.Bus.Seats)
		v.Subtotal = pricing.Round2(pricing.Subtotal(st.Selected, st.Bus.Price))
	}
	return v
}

// ListBuses handles GET /api/buses?q=. A failed fetch degrades to an empty list.
func (h *BusHandler) ListBuses(c *gin.Context) {
	buses, err := h.Buses.ListBuses(c.Request.Context())
	if err != nil {
		h.Logger.Warn("ListBuses: failed to fetch buses", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"buses": []busView{}, "error": "Could not load buses. Please try again later."})
		return
	}
	filtered := seats.FilterBuses(buses, c.Query("q"))
	out := make([]busView, 0, len(filtered))
	for _, b := range filtered {
		out = append(out, newBusView(b))
	}
	c.JSON(http.StatusOK, gin.H{"buses": out})
}

// LoadSeatMap handles GET /api/buses/:busId/seats. It replaces the caller's
// seat map and resets the selection.
func (h *BusHandler) LoadSeatMap(c *gin.Context) {
	busID := c.Param("busId")
	if _, err := strconv.ParseInt(busID, 10, 64); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalidBusId", "Invalid bus id", "")
		return
	}
	flow := h.Flows.For(middleware.CurrentUser(c).StateKey())
	st, err := flow.Screen.Load(c.Request.Context(), busID)
	if err != nil {
		getLogger(c).Warn("LoadSeatMap: failed to load seat map", zap.String("busId", busID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSeatMapView(st))
}

// GetSelection handles GET /api/selection.
func (h *BusHandler) GetSelection(c *gin.Context) {
	flow := h.Flows.For(middleware.CurrentUser(c).StateKey())
	c.JSON(http.StatusOK, newSeatMapView(flow.Screen.State()))
}

// ToggleSeat handles POST /api/selection/seats/:seatId/toggle. Unavailable
// seats are ignored.
func (h *BusHandler) ToggleSeat(c *gin.Context) {
	seatID, err := strconv.ParseInt(c.Param("seatId"), 10, 64)
	if err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalidSeatId", "Invalid seat id", "")
		return
	}
	flow := h.Flows.For(middleware.CurrentUser(c).StateKey())
	st, err := flow.Screen.Toggle(seatID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSeatMapView(st))
}

// ClearSelection handles DELETE /api/selection.
func (h *BusHandler) ClearSelection(c *gin.Context) {
	flow := h.Flows.For(middleware.CurrentUser(c).StateKey())
	flow.Screen.Clear()
	c.JSON(http.StatusOK, newSeatMapView(flow.Screen.State()))
}

// CloseSeatMap handles DELETE /api/buses/current. In-flight loads are discarded.
func (h *BusHandler) CloseSeatMap(c *gin.Context) {
	flow := h.Flows.For(middleware.CurrentUser(c).StateKey())
	flow.Screen.Close()
	c.Status(http.StatusNoContent)
}
