package models

// CurrentUser is the authenticated caller as established by the auth middleware.
// It is passed explicitly to the booking components that need it.
type CurrentUser struct {
	UserID string `json:"userId"`
	Token  string `json:"-"`
	// TokenHash is the hash of Token, set by the auth middleware.
	TokenHash string `json:"-"`
}

// Authenticated reports whether both an id and a token are present.
func (u *CurrentUser) Authenticated() bool {
	return u != nil && u.UserID != "" && u.Token != ""
}

// StateKey keys the caller's local state (flows, sessions, cached booking).
// It includes the token hash so a token only reaches state it created.
func (u *CurrentUser) StateKey() string {
	if u == nil {
		return ""
	}
	if u.TokenHash == "" {
		return u.UserID
	}
	return u.UserID + ":" + u.TokenHash
}

// UserProfile is the subset of the remote user record the booking flow uses.
type UserProfile struct {
	// ID is the user id the remote API reports, empty when it sends none.
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Contact is who the confirmation goes to.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
