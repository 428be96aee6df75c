package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"travelease/models"
	"travelease/services/notification"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var testUser = &models.CurrentUser{UserID: "7", Token: "tok"}

func price(v float64) *float64 { return &v }

func scenarioBus() *models.Bus {
	return &models.Bus{
		ID:          1,
		Name:        "Night Rider",
		Number:      "KA-01",
		Origin:      "Hyderabad",
		Destination: "Bengaluru",
		StartTime:   "21:30:00",
		EndTime:     "06:00:00",
		Price:       500,
		Seats: []models.Seat{
			{ID: 1, SeatNumber: "A1", IsAvailable: true, Price: price(500)},
			{ID: 2, SeatNumber: "A2", IsAvailable: false, Price: price(500)},
			{ID: 3, SeatNumber: "A3", IsAvailable: true},
		},
	}
}

type staticFetcher struct{ bus *models.Bus }

func (f staticFetcher) GetBus(_ context.Context, _ string) (*models.Bus, error) {
	b := *f.bus
	b.Seats = append([]models.Seat(nil), f.bus.Seats...)
	return &b, nil
}

// events records the order in which side effects happen.
type events struct {
	mu   sync.Mutex
	list []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, s)
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.list...)
}

type fakeBooker struct {
	calls atomic.Int32
	gate  chan struct{}
	ev    *events

	mu   sync.Mutex
	keys []string
	resp *models.BookingResponse
	err  error
}

func (b *fakeBooker) CreateBooking(ctx context.Context, _ *models.CurrentUser, req models.BookingRequest, key string) (*models.BookingResponse, error) {
	b.calls.Add(1)
	b.mu.Lock()
	b.keys = append(b.keys, key)
	resp, err := b.resp, b.err
	b.mu.Unlock()

	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.ev != nil {
		b.ev.add("book")
	}
	if err != nil {
		return nil, err
	}
	if resp != nil {
		return resp, nil
	}
	return &models.BookingResponse{
		Message:    "Booking successful",
		TicketID:   "TKT-1",
		Seats:      req.Seats,
		TotalPrice: 400,
		BusName:    "Night Rider",
	}, nil
}

func (b *fakeBooker) set(resp *models.BookingResponse, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resp, b.err = resp, err
}

func (b *fakeBooker) usedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.keys...)
}

type fakeNotifier struct {
	ev   *events
	err  error
	sent []notification.Confirmation
}

func (n *fakeNotifier) SendBookingConfirmation(_ context.Context, c notification.Confirmation) error {
	if n.ev != nil {
		n.ev.add("notify")
	}
	n.sent = append(n.sent, c)
	return n.err
}

type recordingCache struct {
	*MemoryLatestBookingCache
	ev *events
}

func (c recordingCache) Put(ctx context.Context, userID string, rec models.BookingRecord) error {
	c.ev.add("cache")
	return c.MemoryLatestBookingCache.Put(ctx, userID, rec)
}

type recordingSelection struct {
	ev      *events
	cleared atomic.Int32
}

func (s *recordingSelection) Clear() {
	s.ev.add("clear")
	s.cleared.Add(1)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}
