package history

import "errors"

var ErrNotAuthenticated = errors.New("log in to see your bookings")
