package authfetch

import (
	"context"
	"log/slog"
	"net/http"
)

// Interceptor observes a failed request after the failure happened and before
// the error reaches the caller. It cannot change the outcome.
type Interceptor func(ctx context.Context, err error)

// Session is the token state an Unauthorized interceptor clears.
type Session interface {
	TokenReader
	RemoveToken(ctx context.Context) error
}

// Navigator performs a client-side redirect that replaces the current entry.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, route string) error {
	return f(ctx, route)
}

// Unauthorized returns an Interceptor that, on a 401, removes the session token
// and then navigates to loginRoute. Running it more than once is safe.
func Unauthorized(session Session, nav Navigator, loginRoute string) Interceptor {
	return func(ctx context.Context, err error) {
		if StatusCode(err) != http.StatusUnauthorized {
			return
		}

		// Cleanup must finish even if the caller's context is already done.
		ctx = context.WithoutCancel(ctx)

		if rmErr := session.RemoveToken(ctx); rmErr != nil {
			slog.WarnContext(ctx, "failed to clear session after 401", "error", rmErr)
		}

		if nav == nil {
			return
		}
		if navErr := nav.Navigate(ctx, loginRoute); navErr != nil {
			slog.WarnContext(ctx, "failed to redirect to login after 401", "route", loginRoute, "error", navErr)
		}
	}
}
