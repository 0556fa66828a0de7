// Package guard decides whether a session may enter a protected view.
package guard

import "github.com/larkin/bankview-go/internal/domain"

// Decision is the outcome of a route guard evaluation.
type Decision int

const (
	// Allow admits the navigation.
	Allow Decision = iota
	// RedirectToLogin means no live session exists.
	RedirectToLogin
	// Forbidden means the session lacks every required role.
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decide is a pure function over a session snapshot and a required role
// set. It must be re-evaluated on every navigation to a protected
// destination — never cached — since the session can expire or be cleared
// between navigations.
//
// An empty or nil requiredRoles means any live session is admitted. A
// non-empty set admits only sessions holding at least one of the roles.
func Decide(snapshot domain.SessionSnapshot, requiredRoles []string) Decision {
	if !snapshot.LoggedIn {
		return RedirectToLogin
	}
	if len(requiredRoles) == 0 {
		return Allow
	}
	for _, role := range requiredRoles {
		if snapshot.HasRole(role) {
			return Allow
		}
	}
	return Forbidden
}
