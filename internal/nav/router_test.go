package nav

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/moosedb/moose/internal/guard"
)

type tokens struct{ value string }

func (t *tokens) Token(context.Context) string { return t.value }

func newConsoleRouter(tok *tokens, opts ...Option) *Router {
	r := NewRouter("/", opts...)
	r.Use(guard.EntryRoute, guard.Protected(tok, guard.DefaultRoutes))
	r.Use(guard.LoginRoute, guard.Guest(tok, guard.DefaultRoutes))
	return r
}

func TestRouterGuards(t *testing.T) {
	tests := []struct {
		name  string
		token string
		to    string
		want  string
	}{
		{name: "entry without token dispatches to login", to: guard.EntryRoute, want: guard.LoginRoute},
		{name: "entry with token dispatches to landing", token: "abc", to: guard.EntryRoute, want: guard.LandingRoute},
		{name: "login with token goes to landing", token: "abc", to: guard.LoginRoute, want: guard.LandingRoute},
		{name: "login without token is allowed", to: guard.LoginRoute, want: guard.LoginRoute},
		{name: "unguarded route is allowed", to: "/_/collections", want: "/_/collections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newConsoleRouter(&tokens{value: tt.token})

			got, err := r.Push(context.Background(), tt.to)
			if err != nil {
				t.Fatalf("push: %v", err)
			}
			if got != tt.want || r.Current() != tt.want {
				t.Fatalf("reached %q (current %q), want %q", got, r.Current(), tt.want)
			}
		})
	}
}

func TestRouterRedirectDoesNotRecordGuardedRoute(t *testing.T) {
	r := newConsoleRouter(&tokens{})
	ctx := context.Background()

	if _, err := r.Push(ctx, "/_/collections"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := r.Push(ctx, guard.EntryRoute); err != nil {
		t.Fatalf("push entry: %v", err)
	}

	want := []string{"/", "/_/collections"}
	if got := r.History(); !slices.Equal(got, want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
	if r.Current() != guard.LoginRoute {
		t.Fatalf("current = %q, want %q", r.Current(), guard.LoginRoute)
	}
}

func TestRouterNavigateReplaces(t *testing.T) {
	var hops [][2]string
	r := newConsoleRouter(&tokens{}, WithOnNavigate(func(_ context.Context, from, to string) {
		hops = append(hops, [2]string{from, to})
	}))
	ctx := context.Background()

	if _, err := r.Push(ctx, "/_/collections"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := r.Navigate(ctx, guard.LoginRoute); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	if got := r.History(); !slices.Equal(got, []string{"/"}) {
		t.Fatalf("history = %v, want [/]", got)
	}
	if len(hops) != 2 || hops[1] != [2]string{"/_/collections", guard.LoginRoute} {
		t.Fatalf("unexpected navigation hooks: %v", hops)
	}

	if !r.Back(ctx) || r.Current() != "/" {
		t.Fatalf("back did not return to /, current %q", r.Current())
	}
	if r.Back(ctx) {
		t.Fatal("back succeeded on empty history")
	}
}

func TestRouterRedirectLoop(t *testing.T) {
	r := NewRouter("/")
	r.Use("/a", func(context.Context, string, string) guard.Decision { return guard.RedirectTo("/b") })
	r.Use("/b", func(context.Context, string, string) guard.Decision { return guard.RedirectTo("/a") })

	_, err := r.Push(context.Background(), "/a")
	if !errors.Is(err, ErrRedirectLoop) {
		t.Fatalf("expected ErrRedirectLoop, got %v", err)
	}
	if r.Current() != "/" {
		t.Fatalf("current moved to %q on failed navigation", r.Current())
	}
}

func TestRouterCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRouter("/")
	if _, err := r.Push(ctx, "/_/"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
