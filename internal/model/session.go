package model

// SessionState tells whether the authentication outcome is known yet.
type SessionState int

const (
	// SessionUnresolved means the identity provider has not reported yet.
	SessionUnresolved SessionState = iota
	// SessionAbsent means the provider reported that nobody is signed in.
	SessionAbsent
	// SessionPresent means a signed-in user is known.
	SessionPresent
)

func (s SessionState) String() string {
	switch s {
	case SessionAbsent:
		return "absent"
	case SessionPresent:
		return "present"
	default:
		return "unresolved"
	}
}

// Session is the client's current view of the authenticated identity.
// The zero value is an unresolved session.
type Session struct {
	State SessionState
	User  *User
}

// Resolved reports whether the authentication outcome is known.
func (s Session) Resolved() bool {
	return s.State != SessionUnresolved
}

// IsAdmin reports whether a present user carries the admin flag.
func (s Session) IsAdmin() bool {
	return s.State == SessionPresent && s.User != nil && s.User.IsAdmin
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// AbsentSession returns a resolved session without a user.
func AbsentSession() Session {
	return Session{State: SessionAbsent}
}

// PresentSession returns a resolved session for the given user.
func PresentSession(u User) Session {
	return Session{State: SessionPresent, User: &u}
}
