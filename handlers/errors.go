package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelease/services/api"
	"travelease/services/booking"
	"travelease/services/seats"
	"travelease/utils"
)

// respondError maps domain errors to HTTP responses. Transport details never
// reach the client.
func respondError(c *gin.Context, err error) {
	var (
		validation *booking.ValidationError
		conflict   *api.SeatConflictError
		rejection  *api.ServerRejectionError
	)
	switch {
	case errors.Is(err, booking.ErrAuthenticationRequired):
		utils.JSONErrorCode(c, http.StatusUnauthorized, validationCode(err), "Authentication required", err.Error())
	case errors.As(err, &validation):
		utils.JSONErrorCode(c, http.StatusBadRequest, validation.Code, validation.Message, "")
	case errors.Is(err, booking.ErrSessionNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "sessionNotFound", "Booking session not found or expired", "")
	case errors.Is(err, booking.ErrSessionForbidden):
		utils.JSONErrorCode(c, http.StatusForbidden, "sessionForbidden", "Booking session belongs to another user", "")
	case errors.Is(err, booking.ErrSubmissionInProgress):
		utils.JSONErrorCode(c, http.StatusConflict, "submissionInProgress", "A booking is already being processed", "")
	case errors.Is(err, booking.ErrSubmissionStatusUnknown):
		utils.JSONErrorCode(c, http.StatusGatewayTimeout, "statusUnknown",
			"Booking status unknown", "The booking may have gone through. Check your bookings before retrying.")
	case errors.Is(err, seats.ErrNoSeatMap):
		utils.JSONErrorCode(c, http.StatusConflict, "noSeatMap", "Load a bus before selecting seats", "")
	case errors.Is(err, seats.ErrSeatNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "seatNotFound", "Seat not found on this bus", "")
	case errors.Is(err, seats.ErrStaleResponse):
		utils.JSONErrorCode(c, http.StatusConflict, "staleResponse", "Seat map was reloaded", "")
	case errors.As(err, &conflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"message": "Some seats are no longer available",
			"code":    "seatConflict",
			"details": conflict.Message,
			"seats":   conflict.Seats,
		})
	case errors.As(err, &rejection):
		status := http.StatusBadGateway
		if rejection.StatusCode >= 400 && rejection.StatusCode < 500 {
			status = http.StatusBadRequest
		}
		if rejection.StatusCode == http.StatusUnauthorized || rejection.StatusCode == http.StatusForbidden {
			status = http.StatusUnauthorized
		}
		if rejection.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		utils.JSONErrorCode(c, status, "rejected", "Request was rejected", rejection.Message)
	case api.IsTimeout(err):
		utils.JSONErrorCode(c, http.StatusGatewayTimeout, "timeout", "The booking service did not respond in time", "")
	case api.IsNetwork(err), errors.Is(err, api.ErrUnexpectedShape):
		utils.JSONErrorCode(c, http.StatusBadGateway, "upstreamUnavailable", "The booking service is unavailable", "Please try again later")
	default:
		getLogger(c).Error("Unhandled error", zap.Error(err))
		utils.JSONErrorCode(c, http.StatusInternalServerError, "internal", "Internal Server Error", "")
	}
}

func validationCode(err error) string {
	var v *booking.ValidationError
	if errors.As(err, &v) {
		return v.Code
	}
	return ""
}
