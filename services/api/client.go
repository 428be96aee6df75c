package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"travelease/models"
)

const maxBodyBytes = 1 << 20

// Client is the remote bus API used by the booking flow.
type Client interface {
	ListBuses(ctx context.Context) ([]models.Bus, error)
	GetBus(ctx context.Context, busID string) (*models.Bus, error)
	GetUser(ctx context.Context, user *models.CurrentUser) (*models.UserProfile, error)
	CreateBooking(ctx context.Context, user *models.CurrentUser, req models.BookingRequest, idempotencyKey string) (*models.BookingResponse, error)
	ListBookings(ctx context.Context, user *models.CurrentUser) ([]models.BookingRecord, error)
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a client rooted at baseURL. A zero timeout leaves
// deadlines to the caller's context.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListBuses fetches every route without seat maps.
func (c *HTTPClient) ListBuses(ctx context.Context) ([]models.Bus, error) {
	body, err := c.do(ctx, "list buses", http.MethodGet, "/buses/", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var wire []wireBus
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("list buses: %w: %v", ErrUnexpectedShape, err)
	}
	buses := make([]models.Bus, 0, len(wire))
	for _, w := range wire {
		buses = append(buses, w.toModel())
	}
	return buses, nil
}

// GetBus fetches one route with its seat map.
func (c *HTTPClient) GetBus(ctx context.Context, busID string) (*models.Bus, error) {
	path := "/buses/" + url.PathEscape(busID)
	body, err := c.do(ctx, "get bus", http.MethodGet, path, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var wire wireBus
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("get bus: %w: %v", ErrUnexpectedShape, err)
	}
	bus := wire.toModel()
	return &bus, nil
}

// GetUser fetches the caller's profile. It is also used to validate tokens.
func (c *HTTPClient) GetUser(ctx context.Context, user *models.CurrentUser) (*models.UserProfile, error) {
	path := "/users/" + url.PathEscape(user.UserID)
	body, err := c.do(ctx, "get user", http.MethodGet, path, user, nil, nil)
	if err != nil {
		return nil, err
	}
	var wire wireUser
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("get user: %w: %v", ErrUnexpectedShape, err)
	}
	profile := wire.toModel()
	return &profile, nil
}

// CreateBooking submits a booking. The idempotency key is sent on every
// attempt for the same session so the server can deduplicate retries.
func (c *HTTPClient) CreateBooking(ctx context.Context, user *models.CurrentUser, req models.BookingRequest, idempotencyKey string) (*models.BookingResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("create booking: encode request: %w", err)
	}
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	body, err := c.do(ctx, "create booking", http.MethodPost, "/bookings/", user, bytes.NewReader(payload), headers)
	if err != nil {
		return nil, err
	}
	var wire wireBookingResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("create booking: %w: %v", ErrUnexpectedShape, err)
	}
	resp := wire.toModel()
	if resp.TicketID == "" {
		return nil, fmt.Errorf("create booking: %w: missing ticket id", ErrUnexpectedShape)
	}
	return &resp, nil
}

// ListBookings fetches the caller's booking history in server order.
func (c *HTTPClient) ListBookings(ctx context.Context, user *models.CurrentUser) ([]models.BookingRecord, error) {
	path := "/user/" + url.PathEscape(user.UserID) + "/bookings/"
	body, err := c.do(ctx, "list bookings", http.MethodGet, path, user, nil, nil)
	if err != nil {
		return nil, err
	}
	records, err := DecodeBookings(body)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return records, nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, user *models.CurrentUser, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil && user.Token != "" {
		req.Header.Set("Authorization", "Token "+user.Token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Remote API request failed",
			zap.String("op", op), zap.String("path", path), zap.Error(err))
		return nil, networkError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, networkError(op, err)
	}

	c.logger.Debug("Remote API request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejectionFromBody(op, resp.StatusCode, raw)
	}
	return raw, nil
}
