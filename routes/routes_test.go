package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travelease/handlers"
	"travelease/middleware"
	"travelease/services/api"
	"travelease/services/booking"
	"travelease/services/history"
	"travelease/services/notification"
	"travelease/services/pricing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const busJSON = `{
	"id": 1, "bus_name": "Night Rider", "bus_number": "KA-01",
	"origin": "Hyderabad", "destination": "Bengaluru",
	"start_time": "21:30:00", "end_time": "06:00:00", "price": "500.00",
	"seats": [
		{"id": 1, "seat_number": "A1", "is_available": true, "price": 500},
		{"id": 2, "seat_number": "A2", "is_available": false, "price": 500}
	]
}`

// fakeRemote stands in for the bus API.
type fakeRemote struct {
	bookingStatus atomic.Int32
	bookings      atomic.Int32
}

func (f *fakeRemote) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/7", func(w http.ResponseWriter, r *http.Request) {
		// Any valid token may read the profile.
		if auth := r.Header.Get("Authorization"); auth != "Token good" && auth != "Token other" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Invalid token."}`))
			return
		}
		w.Write([]byte(`{"id":7,"username":"asha","email":"asha@example.com"}`))
	})
	mux.HandleFunc("/buses/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/buses/" {
			w.Write([]byte(`[` + busJSON + `]`))
			return
		}
		w.Write([]byte(busJSON))
	})
	mux.HandleFunc("/bookings/", func(w http.ResponseWriter, r *http.Request) {
		f.bookings.Add(1)
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		if status := int(f.bookingStatus.Load()); status == http.StatusConflict {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"Seat A1 is already booked","unavailable_seats":["A1"]}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Booking successful","ticket_id":"TKT-42","seats":["A1"],"total_price":"400.00",
			"bus_name":"Night Rider","bus_number":"KA-01","origin":"Hyderabad","destination":"Bengaluru","start_time":"21:30:00"}`))
	})
	mux.HandleFunc("/user/7/bookings/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bookings":[{"ticket_id":"TKT-42","booking_time":"2024-05-01T10:00:00Z","seats":["A1"],"total_price":"400.00","bus_name":"Night Rider"}]}`))
	})
	return mux
}

type testApp struct {
	router *gin.Engine
	remote *fakeRemote
	flows  *booking.Registry
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	remote := &fakeRemote{}
	srv := httptest.NewServer(remote.handler(t))
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client := api.NewHTTPClient(srv.URL, 2*time.Second, logger)
	latest := booking.NewMemoryLatestBookingCache()
	flows := booking.NewRegistry(booking.FlowDeps{
		Fetcher: client,
		Coupons: pricing.DefaultRegistry(),
		Controller: booking.ControllerDeps{
			Booker:   client,
			Sessions: booking.NewMemorySessionStore(time.Minute),
			Cache:    latest,
			Notifier: notification.NewLogNotifier(logger),
			Logger:   logger,
		},
	})

	hb := handlers.NewHandlerBundle(client, nil,
		handlers.NewBusHandler(client, flows, logger),
		handlers.NewCheckoutHandler(flows, handlers.PaymentConfig{PayeeVPA: "6302543439@axl", PayeeName: "VipulStore"}, logger),
		handlers.NewHistoryHandler(history.NewService(client, latest, logger), logger),
	)
	r := gin.New()
	RegisterRoutes(r, hb, nil)
	return &testApp{router: r, remote: remote, flows: flows}
}

func (a *testApp) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return a.doAs(t, "good", method, path, body)
}

func (a *testApp) doAs(t *testing.T, token, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set(middleware.UserIDHeader, "7")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func selectionIDs(t *testing.T, view map[string]any) []any {
	t.Helper()
	sel, ok := view["selection"].(map[string]any)
	require.True(t, ok)
	ids, _ := sel["selectedSeatIds"].([]any)
	return ids
}

// prepareCheckout walks the seat map: A2 is refused, A1 is selected, SAVE20 applied.
func (a *testApp) prepareCheckout(t *testing.T) string {
	t.Helper()
	w, view := a.do(t, http.MethodGet, "/api/buses/1/seats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, view["rows"], 1)

	w, view = a.do(t, http.MethodPost, "/api/selection/seats/2/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, selectionIDs(t, view))

	w, view = a.do(t, http.MethodPost, "/api/selection/seats/1/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{float64(1)}, selectionIDs(t, view))
	assert.Equal(t, 500.0, view["subtotal"])

	w, view = a.do(t, http.MethodPost, "/api/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := view["sessionId"].(string)
	assert.Equal(t, "asha@example.com", view["contact"].(map[string]any)["email"])

	w, view = a.do(t, http.MethodPost, "/api/checkout/"+sessionID+"/coupon", `{"code":"save20"}`)
	require.Equal(t, http.StatusOK, w.Code)
	totals := view["totals"].(map[string]any)
	assert.Equal(t, 500.0, totals["subtotal"])
	assert.Equal(t, 100.0, totals["discount"])
	assert.Equal(t, 400.0, totals["finalPrice"])
	assert.Equal(t, "upi://pay?pa=6302543439@axl&pn=VipulStore&am=400.00&cu=INR", view["paymentLink"])
	return sessionID
}

func TestEndToEnd_BookingSucceeds(t *testing.T) {
	app := newTestApp(t)
	sessionID := app.prepareCheckout(t)

	w, _ := app.do(t, http.MethodGet, "/api/checkout/"+sessionID+"/qr", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w, body := app.do(t, http.MethodPost, "/api/checkout/"+sessionID+"/submit", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/bookings", body["next"])
	assert.Equal(t, "TKT-42", body["booking"].(map[string]any)["ticketId"])
	assert.Nil(t, body["warning"])

	_, view := app.do(t, http.MethodGet, "/api/selection", "")
	assert.Empty(t, selectionIDs(t, view))

	w, _ = app.do(t, http.MethodGet, "/api/checkout/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, hist := app.do(t, http.MethodGet, "/api/bookings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, hist["bookings"], 1)
	assert.Equal(t, "TKT-42", hist["cached"].(map[string]any)["ticketId"])
	assert.Equal(t, "TKT-42", hist["latest"].(map[string]any)["ticketId"])

	w, _ = app.do(t, http.MethodGet, "/api/bookings/TKT-42/ticket", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ETICKET_TKT-42.pdf")

	w, _ = app.do(t, http.MethodGet, "/api/bookings/NOPE/ticket", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndToEnd_SeatTaken(t *testing.T) {
	app := newTestApp(t)
	sessionID := app.prepareCheckout(t)
	app.remote.bookingStatus.Store(http.StatusConflict)

	w, body := app.do(t, http.MethodPost, "/api/checkout/"+sessionID+"/submit", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "seatConflict", body["code"])
	assert.Equal(t, []any{"A1"}, body["seats"])
	assert.Nil(t, body["booking"])

	_, view := app.do(t, http.MethodGet, "/api/selection", "")
	assert.Equal(t, []any{float64(1)}, selectionIDs(t, view))

	w, _ = app.do(t, http.MethodGet, "/api/checkout/"+sessionID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	_, status := app.do(t, http.MethodGet, "/api/checkout/status", "")
	assert.Equal(t, "failed", status["state"])
	assert.Equal(t, int32(1), app.remote.bookings.Load())
}

func TestEndToEnd_Auth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/buses", nil)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/buses", nil)
	req.Header.Set("Authorization", "Token wrong")
	req.Header.Set(middleware.UserIDHeader, "7")
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEndToEnd_BusSearchAndValidation(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodGet, "/api/buses?q=bengaluru", "")
	require.Equal(t, http.StatusOK, w.Code)
	buses := body["buses"].([]any)
	require.Len(t, buses, 1)
	assert.Equal(t, "9:30 PM", buses[0].(map[string]any)["departure"])

	_, body = app.do(t, http.MethodGet, "/api/buses?q=delhi", "")
	assert.Empty(t, body["buses"])

	w, _ = app.do(t, http.MethodGet, "/api/buses/abc/seats", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/selection/seats/1/toggle", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = app.do(t, http.MethodGet, "/api/buses/1/seats", "")
	require.Equal(t, http.StatusOK, w.Code)
	w, body = app.do(t, http.MethodPost, "/api/checkout", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "noSeatsSelected", body["code"])

	w, _ = app.do(t, http.MethodPost, "/api/selection/seats/99/toggle", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndToEnd_InvalidCoupon(t *testing.T) {
	app := newTestApp(t)
	sessionID := app.prepareCheckout(t)

	w, view := app.do(t, http.MethodPost, "/api/checkout/"+sessionID+"/coupon", `{"code":"save10"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 450.0, view["totals"].(map[string]any)["finalPrice"])
	assert.Contains(t, view["paymentLink"], "am=450.00")

	w, view = app.do(t, http.MethodPost, "/api/checkout/"+sessionID+"/coupon", `{"code":"NOPE"}`)
	require.Equal(t, http.StatusOK, w.Code)
	totals := view["totals"].(map[string]any)
	assert.Equal(t, 0.0, totals["discount"])
	assert.Equal(t, 500.0, totals["finalPrice"])
	assert.Equal(t, pricing.ErrInvalidCoupon.Error(), totals["couponError"])

	// The stored session and the payment link are back at the subtotal.
	w, view = app.do(t, http.MethodGet, "/api/checkout/"+sessionID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500.0, view["totals"].(map[string]any)["finalPrice"])
	assert.Contains(t, view["paymentLink"], "am=500.00")
}

func TestEndToEnd_OtherTokenCannotReachUserState(t *testing.T) {
	app := newTestApp(t)
	sessionID := app.prepareCheckout(t)

	w, _ := app.do(t, http.MethodPost, "/api/checkout/"+sessionID+"/submit", "")
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID = app.prepareCheckout(t)

	// A different valid token claiming the same user id.
	w, _ = app.doAs(t, "other", http.MethodGet, "/api/checkout/"+sessionID, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = app.doAs(t, "other", http.MethodPost, "/api/checkout/"+sessionID+"/submit", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, view := app.doAs(t, "other", http.MethodGet, "/api/selection", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, selectionIDs(t, view))

	w, hist := app.doAs(t, "other", http.MethodGet, "/api/bookings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, hist["cached"])

	// The owner still sees everything.
	w, _ = app.do(t, http.MethodGet, "/api/checkout/"+sessionID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	_, hist = app.do(t, http.MethodGet, "/api/bookings", "")
	assert.Equal(t, "TKT-42", hist["cached"].(map[string]any)["ticketId"])
}
