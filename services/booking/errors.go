package booking

import (
	"errors"
	"fmt"
)

// ValidationError is returned before any network call when the flow is not
// in a state that can be submitted.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newValidationError(code, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}

var (
	ErrNoSeatsSelected        = newValidationError("noSeatsSelected", "select at least one seat")
	ErrAuthenticationRequired = newValidationError("authenticationRequired", "log in to continue")
	ErrMissingContact         = newValidationError("missingContact", "a contact email is required")
	ErrSeatNotAvailable       = newValidationError("seatNotAvailable", "selected seat is not available")

	ErrSessionNotFound      = errors.New("booking session not found or expired")
	ErrSessionForbidden     = errors.New("booking session belongs to another user")
	ErrSubmissionInProgress = errors.New("booking submission already in progress")

	// ErrSubmissionStatusUnknown means the last submit timed out and the
	// server may or may not have created the booking.
	ErrSubmissionStatusUnknown = errors.New("booking status unknown: check your bookings before retrying")
)

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
