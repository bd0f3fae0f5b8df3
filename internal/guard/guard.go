// Package guard decides, before a navigation completes, whether the console
// route may be entered or the client must be sent elsewhere.
//
// Decisions depend only on whether a session token is present at navigation
// time. Guards never change session state themselves.
package guard

import "context"

// Console routes referenced by the guards.
const (
	LoginRoute   = "/_/auth/login"
	LandingRoute = "/_/"
	EntryRoute   = "/_/auth"
)

// Decision is the outcome of a guard: allow the navigation or redirect it.
type Decision struct {
	// Redirect is the route to send the client to. Empty means allow.
	Redirect string
}

// Allow lets the navigation proceed.
var Allow = Decision{}

// RedirectTo replaces the navigation with target.
func RedirectTo(target string) Decision {
	return Decision{Redirect: target}
}

// Allowed reports whether the navigation may proceed unmodified.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Routes names the navigation targets used by the guards.
type Routes struct {
	Login   string
	Landing string
}

// DefaultRoutes are the console's login and landing routes.
var DefaultRoutes = Routes{Login: LoginRoute, Landing: LandingRoute}

// Protected guards an entry point that requires a session and always dispatches
// onward: to the login route without a token, to the landing route with one.
func (r Routes) Protected(authenticated bool) Decision {
	if !authenticated {
		return RedirectTo(r.Login)
	}
	return RedirectTo(r.Landing)
}

// Guest guards routes meant only for logged-out users such as the login page.
func (r Routes) Guest(authenticated bool) Decision {
	if authenticated {
		return RedirectTo(r.Landing)
	}
	return Allow
}

// TokenReader reports the current session token, "" when logged out.
type TokenReader interface {
	Token(ctx context.Context) string
}

// Guard is a pre-navigation check for a route.
type Guard func(ctx context.Context, to, from string) Decision

// Protected returns a Guard applying Routes.Protected to the token held by tokens.
func Protected(tokens TokenReader, routes Routes) Guard {
	return func(ctx context.Context, _, _ string) Decision {
		return routes.Protected(tokens.Token(ctx) != "")
	}
}

// Guest returns a Guard applying Routes.Guest to the token held by tokens.
func Guest(tokens TokenReader, routes Routes) Guard {
	return func(ctx context.Context, _, _ string) Decision {
		return routes.Guest(tokens.Token(ctx) != "")
	}
}
