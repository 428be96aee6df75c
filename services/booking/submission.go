package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"travelease/models"
	"travelease/services/api"
	"travelease/services/notification"
)

// SubmitState is the lifecycle of a booking submission.
type SubmitState string

const (
	StateIdle       SubmitState = "idle"
	StateSubmitting SubmitState = "submitting"
	StateConfirmed  SubmitState = "confirmed"
	StateFailed     SubmitState = "failed"
)

const (
	DefaultSubmitTimeout = 20 * time.Second
	DefaultNotifyTimeout = 10 * time.Second

	// HistoryRoute is where the caller goes after a confirmed booking.
	HistoryRoute = "/bookings"
)

// Booker creates bookings on the remote API.
type Booker interface {
	CreateBooking(ctx context.Context, user *models.CurrentUser, req models.BookingRequest, idempotencyKey string) (*models.BookingResponse, error)
}

// SelectionClearer is the seat selection the controller empties after success.
type SelectionClearer interface {
	Clear()
}

// SubmitOptions tunes a single Submit call.
type SubmitOptions struct {
	// AcknowledgeUnknown allows a retry after a submit whose outcome is
	// unknown. The retry reuses the session's idempotency key.
	AcknowledgeUnknown bool
}

// Result is returned for a confirmed booking.
type Result struct {
	Record models.BookingRecord
	// NotificationErr is set when the confirmation could not be delivered.
	// The booking stands regardless.
	NotificationErr error
	Next            string
}

// Status is a snapshot of the controller.
type Status struct {
	State   SubmitState `json:"state"`
	Error   string      `json:"error,omitempty"`
	Unknown []string    `json:"unknownSessions,omitempty"`
}

// ControllerDeps are the collaborators of a Controller.
type ControllerDeps struct {
	Booker        Booker
	Sessions      SessionStore
	Cache         LatestBookingCache
	Notifier      notification.Notifier
	Selection     SelectionClearer
	Logger        *zap.Logger
	SubmitTimeout time.Duration
	NotifyTimeout time.Duration
}

// Controller drives Idle -> Submitting -> Confirmed|Failed for one user.
// Only one submission runs at a time; a second Submit while one is in flight
// returns ErrSubmissionInProgress without touching the network.
type Controller struct {
	mu      sync.Mutex
	state   SubmitState
	lastErr error
	unknown map[string]bool

	booker        Booker
	sessions      SessionStore
	cache         LatestBookingCache
	notifier      notification.Notifier
	selection     SelectionClearer
	logger        *zap.Logger
	submitTimeout time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewController(deps ControllerDeps) *Controller {
	c := &Controller{
		state:         StateIdle,
		unknown:       make(map[string]bool),
		booker:        deps.Booker,
		sessions:      deps.Sessions,
		cache:         deps.Cache,
		notifier:      deps.Notifier,
		selection:     deps.Selection,
		logger:        deps.Logger,
		submitTimeout: deps.SubmitTimeout,
		notifyTimeout: deps.NotifyTimeout,
		now:           time.Now,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.submitTimeout <= 0 {
		c.submitTimeout = DefaultSubmitTimeout
	}
	if c.notifyTimeout <= 0 {
		c.notifyTimeout = DefaultNotifyTimeout
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() SubmitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the state with the last error, if any.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state}
	if c.lastErr != nil {
		st.Error = c.lastErr.Error()
	}
	for id := range c.unknown {
		st.Unknown = append(st.Unknown, id)
	}
	return st
}

// begin enters Submitting, returning the state to restore if the attempt is
// abandoned before reaching the network.
func (c *Controller) begin() (SubmitState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return "", ErrSubmissionInProgress
	}
	prev := c.state
	c.state = StateSubmitting
	return prev, nil
}

func (c *Controller) abandon(prev SubmitState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = prev
}

func (c *Controller) finish(state SubmitState, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.lastErr = err
}

// Submit books the seats held by sessionID. On failure the session and the
// selection are left intact so the user can retry. The booking call runs on
// its own deadline and is not cancelled when ctx is, so an abandoned request
// still resolves.
func (c *Controller) Submit(ctx context.Context, user *models.CurrentUser, sessionID string, opts SubmitOptions) (*Result, error) {
	prev, err := c.begin()
	if err != nil {
		return nil, err
	}

	session, err := c.prepare(ctx, user, sessionID, opts)
	if err != nil {
		c.abandon(prev)
		return nil, err
	}

	logger := c.logger.With(zap.String("sessionId", session.ID), zap.String("userId", user.UserID))

	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.submitTimeout)
	resp, err := c.booker.CreateBooking(submitCtx, user, session.Request(), session.IdempotencyKey)
	timedOut := errors.Is(submitCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil {
		if timedOut || api.IsTimeout(err) {
			c.mu.Lock()
			c.unknown[session.ID] = true
			c.mu.Unlock()
			err = fmt.Errorf("%w: %w", ErrSubmissionStatusUnknown, err)
		}
		logger.Warn("Booking submission failed", zap.Error(err))
		c.finish(StateFailed, err)
		return nil, err
	}

	c.mu.Lock()
	delete(c.unknown, session.ID)
	c.mu.Unlock()

	record := recordFor(*resp, session, c.now())
	result := &Result{Record: record, Next: HistoryRoute}

	if c.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
		result.NotificationErr = c.notifier.SendBookingConfirmation(notifyCtx,
			notification.ConfirmationFromRecord(session.Contact, record))
		cancel()
		if result.NotificationErr != nil {
			logger.Warn("Booking succeeded, but confirmation email could not be sent",
				zap.String("ticketId", record.TicketID), zap.Error(result.NotificationErr))
		}
	}

	if c.cache != nil {
		if err := c.cache.Put(context.WithoutCancel(ctx), user.StateKey(), record); err != nil {
			logger.Warn("Failed to cache latest booking", zap.Error(err))
		}
	}

	if err := c.sessions.Delete(context.WithoutCancel(ctx), session.ID); err != nil {
		logger.Warn("Failed to delete booking session", zap.Error(err))
	}
	if c.selection != nil {
		c.selection.Clear()
	}

	logger.Info("Booking confirmed", zap.String("ticketId", record.TicketID), zap.Strings("seats", record.Seats))
	c.finish(StateConfirmed, nil)
	return result, nil
}

func (c *Controller) prepare(ctx context.Context, user *models.CurrentUser, sessionID string, opts SubmitOptions) (*Session, error) {
	if !user.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	session, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.OwnedBy(user) {
		return nil, ErrSessionForbidden
	}
	if len(session.Seats) == 0 {
		return nil, ErrNoSeatsSelected
	}
	if session.Contact.Email == "" {
		return nil, ErrMissingContact
	}

	c.mu.Lock()
	unknown := c.unknown[session.ID]
	c.mu.Unlock()
	if unknown && !opts.AcknowledgeUnknown {
		return nil, ErrSubmissionStatusUnknown
	}
	return session, nil
}

// recordFor fills route details the booking response left out from the session.
func recordFor(resp models.BookingResponse, session *Session, bookedAt time.Time) models.BookingRecord {
	rec := models.RecordFromResponse(resp, bookedAt)
	if len(rec.Seats) == 0 {
		rec.Seats = session.SeatNumbers()
	}
	bus := session.Bus
	if rec.Bus.Name == "" {
		rec.Bus.Name = bus.Name
	}
	if rec.Bus.Number == "" {
		rec.Bus.Number = bus.Number
	}
	if rec.Bus.Origin == "" {
		rec.Bus.Origin = bus.Origin
	}
	if rec.Bus.Destination == "" {
		rec.Bus.Destination = bus.Destination
	}
	if rec.Bus.StartTime == "" {
		rec.Bus.StartTime = bus.StartTime
	}
	if rec.Bus.EndTime == "" {
		rec.Bus.EndTime = bus.EndTime
	}
	return rec
}
