package history

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"travelease/models"
)

// BookingLister fetches a user's bookings from the remote API.
type BookingLister interface {
	ListBookings(ctx context.Context, user *models.CurrentUser) ([]models.BookingRecord, error)
}

// LatestReader reads the locally cached most recent booking.
type LatestReader interface {
	Get(ctx context.Context, userID string) (*models.BookingRecord, error)
}

// View is the booking history screen.
type View struct {
	Bookings []models.BookingRecord `json:"bookings"`
	// Latest is the newest booking on the server.
	Latest *models.BookingRecord `json:"latest,omitempty"`
	// Cached is the last booking confirmed from this service, if any.
	Cached *models.BookingRecord `json:"cached,omitempty"`
	Err    error                 `json:"-"`
}

// Service builds history views.
type Service struct {
	lister BookingLister
	cache  LatestReader
	logger *zap.Logger
}

func NewService(lister BookingLister, cache LatestReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lister: lister, cache: cache, logger: logger}
}

// Load fetches and sorts the user's bookings, newest first. Any failure
// yields an empty list with the error in View.Err.
func (s *Service) Load(ctx context.Context, user *models.CurrentUser) View {
	view := View{Bookings: []models.BookingRecord{}}

	if s.cache != nil && user != nil {
		cached, err := s.cache.Get(ctx, user.StateKey())
		if err != nil {
			s.logger.Warn("Failed to read latest booking cache", zap.String("userId", user.UserID), zap.Error(err))
		}
		view.Cached = cached
	}

	if !user.Authenticated() {
		view.Err = ErrNotAuthenticated
		return view
	}

	records, err := s.lister.ListBookings(ctx, user)
	if err != nil {
		s.logger.Warn("Failed to load booking history", zap.String("userId", user.UserID), zap.Error(err))
		view.Err = err
		return view
	}

	view.Bookings = Sorted(records)
	if len(view.Bookings) > 0 {
		latest := view.Bookings[0]
		view.Latest = &latest
	}
	return view
}

// Find returns the booking with ticketID from the list or the cached slot.
func (v View) Find(ticketID string) *models.BookingRecord {
	for i := range v.Bookings {
		if v.Bookings[i].TicketID == ticketID {
			rec := v.Bookings[i]
			return &rec
		}
	}
	if v.Cached != nil && v.Cached.TicketID == ticketID {
		rec := *v.Cached
		return &rec
	}
	return nil
}

// Sorted returns a copy of records ordered by booking time, newest first.
// Records with equal times keep their server order.
func Sorted(records []models.BookingRecord) []models.BookingRecord {
	out := append([]models.BookingRecord{}, records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BookingTime.After(out[j].BookingTime)
	})
	return out
}
