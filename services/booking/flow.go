package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"travelease/models"
	"travelease/services/pricing"
	"travelease/services/seats"
)

// FlowDeps are shared by every user's flow.
type FlowDeps struct {
	Fetcher    seats.BusFetcher
	Coupons    pricing.CouponLookup
	Controller ControllerDeps
	// IdleTTL is how long an unused flow is kept. Defaults to DefaultSessionTTL.
	IdleTTL time.Duration
}

// Flow is one user's booking journey: a seat-map screen, the checkout
// sessions built from it and the submission controller.
type Flow struct {
	Key        string
	Screen     *seats.SeatMapScreen
	Controller *Controller

	sessions SessionStore
	coupons  pricing.CouponLookup
	lastUsed time.Time // guarded by Registry.mu
}

// Checkout is a session priced with its current coupon.
type Checkout struct {
	Session *Session
	Totals  pricing.Totals
}

// Registry hands out one Flow per caller. Flows idle for longer than IdleTTL
// are evicted by Evict.
type Registry struct {
	mu    sync.Mutex
	deps  FlowDeps
	flows map[string]*Flow
	now   func() time.Time
}

func NewRegistry(deps FlowDeps) *Registry {
	if deps.Coupons == nil {
		deps.Coupons = pricing.DefaultRegistry()
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = DefaultSessionTTL
	}
	return &Registry{deps: deps, flows: make(map[string]*Flow), now: time.Now}
}

// For returns the flow for key, creating it on first use. key is the
// caller's CurrentUser.StateKey.
func (r *Registry) For(key string) *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.flows[key]; ok {
		f.lastUsed = r.now()
		return f
	}
	screen := seats.NewSeatMapScreen(r.deps.Fetcher)
	cdeps := r.deps.Controller
	cdeps.Selection = screen
	f := &Flow{
		Key:        key,
		Screen:     screen,
		Controller: NewController(cdeps),
		sessions:   cdeps.Sessions,
		coupons:    r.deps.Coupons,
		lastUsed:   r.now(),
	}
	r.flows[key] = f
	return f
}

// Len returns the number of live flows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Evict drops flows unused for longer than IdleTTL. A flow with a submission
// in flight is kept. It returns the number of flows dropped.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.deps.IdleTTL)

	r.mu.Lock()
	var stale []*Flow
	for key, f := range r.flows {
		if f.lastUsed.After(cutoff) || f.Controller.State() == StateSubmitting {
			continue
		}
		delete(r.flows, key)
		stale = append(stale, f)
	}
	r.mu.Unlock()

	for _, f := range stale {
		f.Screen.Close()
	}
	return len(stale)
}

// StartJanitor runs Evict every interval until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Evict(); n > 0 {
					logger.Debug("Evicted idle booking flows", zap.Int("evicted", n))
				}
			}
		}
	}()
}

// Coupons returns the coupon lookup used for pricing.
func (r *Registry) Coupons() pricing.CouponLookup {
	return r.deps.Coupons
}

// Drop discards a flow and tears down its screen.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	f, ok := r.flows[key]
	delete(r.flows, key)
	r.mu.Unlock()
	if ok {
		f.Screen.Close()
	}
}

// Checkout turns the current selection into a stored session. The contact
// normally comes from the user's profile.
func (f *Flow) Checkout(ctx context.Context, user *models.CurrentUser, contact models.Contact) (*Checkout, error) {
	if !user.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	st := f.Screen.State()
	if st.Bus == nil {
		return nil, seats.ErrNoSeatMap
	}
	session, err := NewSession(user, *st.Bus, st.Selected, contact)
	if err != nil {
		return nil, err
	}
	if err := f.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return f.price(session), nil
}

// Session loads a session owned by user.
func (f *Flow) Session(ctx context.Context, user *models.CurrentUser, sessionID string) (*Checkout, error) {
	session, err := f.owned(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	return f.price(session), nil
}

// ApplyCoupon prices the session with code. A valid code is stored on the
// session. An unknown code is reported through Totals.Err and, like an empty
// code, removes any earlier coupon so the stored price is the subtotal.
func (f *Flow) ApplyCoupon(ctx context.Context, user *models.CurrentUser, sessionID, code string) (*Checkout, error) {
	session, err := f.owned(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	totals := pricing.ComputeTotals(session.Seats, session.Bus.Price, code, f.coupons)
	session.CouponCode = ""
	if totals.Coupon != nil && totals.Err == nil {
		session.CouponCode = totals.Coupon.Code
	}
	if err := f.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &Checkout{Session: session, Totals: totals}, nil
}

// Cancel discards a session, as when the user goes back to the seat map.
// The selection is kept.
func (f *Flow) Cancel(ctx context.Context, user *models.CurrentUser, sessionID string) error {
	if _, err := f.owned(ctx, user, sessionID); err != nil {
		return err
	}
	return f.sessions.Delete(ctx, sessionID)
}

// Submit books the session's seats.
func (f *Flow) Submit(ctx context.Context, user *models.CurrentUser, sessionID string, opts SubmitOptions) (*Result, error) {
	return f.Controller.Submit(ctx, user, sessionID, opts)
}

func (f *Flow) owned(ctx context.Context, user *models.CurrentUser, sessionID string) (*Session, error) {
	if !user.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	session, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.OwnedBy(user) {
		return nil, ErrSessionForbidden
	}
	return session, nil
}

func (f *Flow) price(session *Session) *Checkout {
	return &Checkout{Session: session, Totals: session.Totals(f.coupons)}
}
