// Package nav models client-side navigation for the console: a current route,
// a history, and guards that run before a navigation commits.
package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/moosedb/moose/internal/guard"
)

// maxRedirects bounds guard redirect chains.
const maxRedirects = 8

// ErrRedirectLoop is returned when guards keep redirecting past maxRedirects.
var ErrRedirectLoop = errors.New("navigation redirect loop")

// Router tracks the current route and runs route guards before every navigation.
// It is safe for concurrent use.
type Router struct {
	mu      sync.Mutex
	current string
	history []string
	guards  map[string][]guard.Guard

	onNavigate func(ctx context.Context, from, to string)
}

// Option configures a Router.
type Option func(*Router)

// WithOnNavigate registers a hook invoked after every committed navigation.
func WithOnNavigate(fn func(ctx context.Context, from, to string)) Option {
	return func(r *Router) {
		r.onNavigate = fn
	}
}

// NewRouter creates a Router positioned at start.
func NewRouter(start string, opts ...Option) *Router {
	r := &Router{
		current: start,
		guards:  make(map[string][]guard.Guard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use registers guards for an exact route. Guards run in registration order;
// the first redirect wins.
func (r *Router) Use(route string, guards ...guard.Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[route] = append(r.guards[route], guards...)
}

// Current returns the current route.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns the routes that were pushed before the current one, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Push navigates to route, keeping the current route in history.
// Returns the route actually reached after guards ran.
func (r *Router) Push(ctx context.Context, route string) (string, error) {
	return r.navigate(ctx, route, false)
}

// Replace navigates to route, replacing the current history entry.
func (r *Router) Replace(ctx context.Context, route string) (string, error) {
	return r.navigate(ctx, route, true)
}

// Navigate performs a replacing navigation. It lets the Router serve as the
// redirect target of the authorized requester.
func (r *Router) Navigate(ctx context.Context, route string) error {
	_, err := r.Replace(ctx, route)
	return err
}

// Back returns to the previous history entry without running guards.
// Reports false when there is nothing to go back to.
func (r *Router) Back(ctx context.Context) bool {
	r.mu.Lock()
	if len(r.history) == 0 {
		r.mu.Unlock()
		return false
	}
	from := r.current
	r.current = r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	to := r.current
	r.mu.Unlock()

	r.notify(ctx, from, to)
	return true
}

func (r *Router) navigate(ctx context.Context, route string, replace bool) (string, error) {
	from := r.Current()
	target := route

	for hops := 0; ; hops++ {
		if err := ctx.Err(); err != nil {
			return from, err
		}
		if hops > maxRedirects {
			return from, fmt.Errorf("navigating to %s: %w", route, ErrRedirectLoop)
		}

		decision := r.check(ctx, target, from)
		if decision.Allowed() {
			break
		}

		slog.DebugContext(ctx, "navigation redirected", "to", target, "redirect", decision.Redirect)
		target = decision.Redirect
	}

	// Only the final target is committed; redirected routes never enter history.

	r.mu.Lock()
	if !replace {
		r.history = append(r.history, r.current)
	}
	r.current = target
	r.mu.Unlock()

	r.notify(ctx, from, target)
	return target, nil
}

func (r *Router) check(ctx context.Context, to, from string) guard.Decision {
	r.mu.Lock()
	guards := append([]guard.Guard(nil), r.guards[to]...)
	r.mu.Unlock()

	for _, g := range guards {
		if d := g(ctx, to, from); !d.Allowed() {
			return d
		}
	}
	return guard.Allow
}

func (r *Router) notify(ctx context.Context, from, to string) {
	if r.onNavigate != nil {
		r.onNavigate(ctx, from, to)
	}
}
