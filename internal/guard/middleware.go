package guard

import (
	"log/slog"
	"net/http"

	"github.com/moosedb/moose/internal/tokenstore"
)

// Check maps token presence to a decision, e.g. Routes.Protected or Routes.Guest.
type Check func(authenticated bool) Decision

// Middleware applies check to every request using the session cookie the request carries.
// Redirects use 302 Found, so the redirected entry never lands in the client's history.
func Middleware(check Check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokens := tokenstore.FromRequest(nil, r)
			decision := check(tokens.HasToken(r.Context()))

			if decision.Allowed() {
				next.ServeHTTP(w, r)
				return
			}

			slog.DebugContext(r.Context(), "route guard redirect", "from", r.URL.Path, "to", decision.Redirect)
			http.Redirect(w, r, decision.Redirect, http.StatusFound)
		})
	}
}
