package domain

import "time"

// ============================================================
// Authentication
// ============================================================

// Credentials is what the gateway issues on a successful login and what
// gets persisted for session restore. Token is an opaque bearer token;
// only its expiry claim is ever inspected client-side.
type Credentials struct {
	ID       int32    `json:"id,omitempty"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Token    string   `json:"token"`
}

// LoginRequest is the payload for POST /login on the gateway.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionSnapshot is a read-only view of the current auth session,
// handed to the view layer and to the route guard.
type SessionSnapshot struct {
	LoggedIn  bool      `json:"loggedIn"`
	Username  string    `json:"username,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	Token     string    `json:"-"`
	LoginTime time.Time `json:"loginTime,omitempty"`
}

// HasRole reports whether the snapshot's role set contains role.
// An absent role set answers false for every role.
func (s SessionSnapshot) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
