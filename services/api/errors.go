package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError wraps transport failures: connection errors, timeouts and
// unreadable responses. Outcome of a write may be unknown when Timeout is set.
type NetworkError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out", e.Op)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerRejectionError is a non-2xx answer from the remote API.
type ServerRejectionError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerRejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// SeatConflictError is a rejection caused by seats no longer being available.
type SeatConflictError struct {
	ServerRejectionError
	Seats []string
}

func (e *SeatConflictError) Error() string {
	if len(e.Seats) > 0 {
		return fmt.Sprintf("seats no longer available: %s", strings.Join(e.Seats, ", "))
	}
	if e.Message != "" {
		return fmt.Sprintf("seat conflict: %s", e.Message)
	}
	return "seat conflict"
}

func (e *SeatConflictError) Unwrap() error { return &e.ServerRejectionError }

// ErrUnexpectedShape is returned when a payload matches none of the known shapes.
var ErrUnexpectedShape = errors.New("unexpected response shape")

func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

func IsTimeout(err error) bool {
	var target *NetworkError
	return errors.As(err, &target) && target.Timeout
}

func IsSeatConflict(err error) bool {
	var target *SeatConflictError
	return errors.As(err, &target)
}

func IsRejection(err error) bool {
	var target *ServerRejectionError
	return errors.As(err, &target)
}

// StatusCode returns the HTTP status carried by a rejection, or 0.
func StatusCode(err error) int {
	var target *ServerRejectionError
	if errors.As(err, &target) {
		return target.StatusCode
	}
	return 0
}

func networkError(op string, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		timeout = true
	}
	return &NetworkError{Op: op, Timeout: timeout, Err: err}
}

var conflictPhrases = []string{
	"already booked",
	"already taken",
	"not available",
	"unavailable",
	"no longer available",
	"taken",
}

// rejectionFromBody builds a typed error from a non-2xx response. Error bodies
// vary by endpoint; the message is pulled from the first field that has one.
func rejectionFromBody(op string, status int, body []byte) error {
	base := ServerRejectionError{Op: op, StatusCode: status}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		base.Message = truncate(strings.TrimSpace(string(body)), 200)
	} else {
		base.Message = firstMessage(payload)
	}

	seats := conflictSeats(payload)
	if status == http.StatusConflict || len(seats) > 0 || mentionsConflict(base.Message) {
		return &SeatConflictError{ServerRejectionError: base, Seats: seats}
	}
	return &base
}

func firstMessage(payload map[string]any) string {
	for _, key := range []string{"message", "error", "detail", "non_field_errors", "seats"} {
		if msg := stringish(payload[key]); msg != "" {
			return msg
		}
	}
	return ""
}

func conflictSeats(payload map[string]any) []string {
	for _, key := range []string{"unavailable_seats", "conflicting_seats", "booked_seats"} {
		if list, ok := payload[key].([]any); ok {
			out := make([]string, 0, len(list))
			for _, v := range list {
				if s := stringish(v); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func mentionsConflict(msg string) bool {
	msg = strings.ToLower(msg)
	if !strings.Contains(msg, "seat") {
		return false
	}
	for _, phrase := range conflictPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func stringish(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%g", t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringish(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
