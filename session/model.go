package session

// User defines a public type used by goAuthClient APIs.
//
// User instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type User struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session defines a public type used by goAuthClient APIs.
//
// Invariant: IsLoggedIn == (User != nil), and Role mirrors User.Role (empty
// when logged out). The three fields are never individually inconsistent;
// [Store] is the only mutator.
type Session struct {
	IsLoggedIn bool
	User       *User
	Role       string
}

func (s Session) clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

func loggedOut() Session {
	return Session{}
}
