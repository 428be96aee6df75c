package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelease/middleware"
	"travelease/models"
	"travelease/services/booking"
	"travelease/services/pricing"
	"travelease/utils"
)

// PaymentConfig identifies the UPI payee shown on the payment QR.
type PaymentConfig struct {
	PayeeVPA  string
	PayeeName string
}

// CheckoutHandler serves the payment screen and booking submission.
type CheckoutHandler struct {
	Flows   *booking.Registry
	Payment PaymentConfig
	Logger  *zap.Logger
}

func NewCheckoutHandler(flows *booking.Registry, payment PaymentConfig, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{Flows: flows, Payment: payment, Logger: logger}
}

type checkoutView struct {
	SessionID   string                `json:"sessionId"`
	Bus         busView               `json:"bus"`
	Seats       []models.Seat         `json:"seats"`
	SeatNumbers []string              `json:"seatNumbers"`
	Contact     models.Contact        `json:"contact"`
	Totals      pricing.DisplayTotals `json:"totals"`
	PaymentLink string                `json:"paymentLink"`
	Coupons     []string              `json:"availableCoupons,omitempty"`
	CreatedAt   string                `json:"createdAt"`
}

func (h *CheckoutHandler) view(co *booking.Checkout) checkoutView {
	display := co.Totals.Display()
	v := checkoutView{
		SessionID:   co.Session.ID,
		Bus:         newBusView(co.Session.Bus),
		Seats:       co.Session.Seats,
		SeatNumbers: co.Session.SeatNumbers(),
		Contact:     co.Session.Contact,
		Totals:      display,
		PaymentLink: pricing.BuildUPILink(h.Payment.PayeeVPA, h.Payment.PayeeName, display.FinalPrice),
		CreatedAt:   co.Session.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if reg, ok := h.Flows.Coupons().(*pricing.StaticRegistry); ok {
		v.Coupons = reg.Codes()
	}
	return v
}

// CreateCheckout handles POST /api/checkout. The contact defaults to the
// caller's profile; the body may override name or email.
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.JSONErrorCode(c, http.StatusBadRequest, "invalidInput", "invalid input", err.Error())
			return
		}
	}

	contact := models.Contact{Name: body.Name, Email: body.Email}
	if profile := middleware.UserProfile(c); profile != nil {
		if contact.Name == "" {
			contact.Name = profile.Username
		}
		if contact.Email == "" {
			contact.Email = profile.Email
		}
	}

	user := middleware.CurrentUser(c)
	co, err := h.Flows.For(user.StateKey()).Checkout(c.Request.Context(), user, contact)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Checkout started", zap.String("sessionId", co.Session.ID), zap.Strings("seats", co.Session.SeatNumbers()))
	c.JSON(http.StatusCreated, h.view(co))
}

// GetCheckout handles GET /api/checkout/:sessionId.
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	co, err := h.Flows.For(user.StateKey()).Session(c.Request.Context(), user, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(co))
}

// ApplyCoupon handles POST /api/checkout/:sessionId/coupon. An unknown code is
// not an HTTP error: the totals come back undiscounted with couponError set.
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalidInput", "invalid input", err.Error())
		return
	}
	user := middleware.CurrentUser(c)
	co, err := h.Flows.For(user.StateKey()).ApplyCoupon(c.Request.Context(), user, c.Param("sessionId"), body.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(co))
}

// PaymentQR handles GET /api/checkout/:sessionId/qr and returns a PNG.
func (h *CheckoutHandler) PaymentQR(c *gin.Context) {
	user := middleware.CurrentUser(c)
	co, err := h.Flows.For(user.StateKey()).Session(c.Request.Context(), user, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}

	size := pricing.DefaultQRSize
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > 1024 {
			utils.JSONErrorCode(c, http.StatusBadRequest, "invalidSize", "size must be between 64 and 1024", "")
			return
		}
		size = n
	}

	link := pricing.BuildUPILink(h.Payment.PayeeVPA, h.Payment.PayeeName, co.Totals.Display().FinalPrice)
	png, err := pricing.RenderQR(link, size)
	if err != nil {
		getLogger(c).Error("PaymentQR: failed to render QR", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to render payment QR", "")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// CancelCheckout handles DELETE /api/checkout/:sessionId. The seat selection
// is kept so the user can adjust it.
func (h *CheckoutHandler) CancelCheckout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.Flows.For(user.StateKey()).Cancel(c.Request.Context(), user, c.Param("sessionId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit handles POST /api/checkout/:sessionId/submit.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var body struct {
		AcknowledgeUnknown bool `json:"acknowledgeUnknown"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.JSONErrorCode(c, http.StatusBadRequest, "invalidInput", "invalid input", err.Error())
			return
		}
	}

	user := middleware.CurrentUser(c)
	sessionID := c.Param("sessionId")
	res, err := h.Flows.For(user.StateKey()).Submit(c.Request.Context(), user, sessionID,
		booking.SubmitOptions{AcknowledgeUnknown: body.AcknowledgeUnknown})
	if err != nil {
		getLogger(c).Warn("Submit: booking failed", zap.String("sessionId", sessionID), zap.Error(err))
		respondError(c, err)
		return
	}

	resp := gin.H{
		"message": "Booking confirmed",
		"booking": res.Record,
		"next":    res.Next,
	}
	if res.NotificationErr != nil {
		resp["warning"] = "Booking succeeded, but confirmation email could not be sent."
	}
	c.JSON(http.StatusCreated, resp)
}

// SubmissionStatus handles GET /api/checkout/status.
func (h *CheckoutHandler) SubmissionStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, h.Flows.For(user.StateKey()).Controller.Status())
}
