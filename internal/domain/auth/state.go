package auth

import (
	"errors"
	"fmt"
)

// State is the authentication state of one browser session.
type State int

const (
	// StateUnknown means the session store has not answered yet.
	StateUnknown State = iota
	StateLoggedOut
	StateLoggingIn
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateLoggedOut:
		return "logged_out"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedIn:
		return "logged_in"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrIllegalTransition is returned when a state change is not allowed.
var ErrIllegalTransition = errors.New("illegal auth state transition")

var transitions = map[State][]State{
	StateUnknown:   {StateLoggedOut, StateLoggedIn},
	StateLoggedOut: {StateLoggingIn},
	StateLoggingIn: {StateLoggedIn, StateLoggedOut},
	StateLoggedIn:  {StateLoggedOut},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// View is the auth state of one request as seen by guards, the sidebar and handlers.
// Session is non-nil exactly when State is StateLoggedIn.
type View struct {
	State   State
	Session *Session
}

// UnknownView returns the state before the store has been consulted.
func UnknownView() View { return View{State: StateUnknown} }

// LoggedOutView returns a view with no principal.
func LoggedOutView() View { return View{State: StateLoggedOut} }

// IsAuthenticated reports whether a principal is present.
func (v View) IsAuthenticated() bool {
	return v.State == StateLoggedIn && v.Session != nil
}

// IsSuperAdmin reports whether the principal has the SUPER_ADMIN role.
func (v View) IsSuperAdmin() bool {
	return v.IsAuthenticated() && v.Session.Principal.IsSuperAdmin()
}

// Role returns the principal role, or "" when not authenticated.
func (v View) Role() Role {
	if !v.IsAuthenticated() {
		return ""
	}
	return v.Session.Principal.Role
}

// Principal returns the authenticated principal, if any.
func (v View) Principal() (Principal, bool) {
	if !v.IsAuthenticated() {
		return Principal{}, false
	}
	return v.Session.Principal, true
}

// Advance moves the view to next, attaching sess when entering StateLoggedIn
// and dropping it on any other state.
func (v *View) Advance(next State, sess *Session) error {
	if !v.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, v.State, next)
	}
	if next == StateLoggedIn && sess == nil {
		return fmt.Errorf("%w: logged_in requires a session", ErrIllegalTransition)
	}
	v.State = next
	if next == StateLoggedIn {
		v.Session = sess
	} else {
		v.Session = nil
	}
	return nil
}
