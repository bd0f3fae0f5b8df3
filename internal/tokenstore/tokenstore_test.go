package tokenstore

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"
)

// memMedium is an in-memory Medium that enforces expiry against a movable clock.
type memMedium struct {
	rec    *record
	now    time.Time
	writes []*http.Cookie
	clears int
	err    error
}

func (m *memMedium) Read(context.Context) (*http.Cookie, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.rec == nil {
		return nil, ErrNoToken
	}
	return m.rec.cookie(m.now)
}

func (m *memMedium) Write(_ context.Context, c *http.Cookie) error {
	rec := recordFromCookie(c)
	m.rec = &rec
	m.writes = append(m.writes, c)
	return nil
}

func (m *memMedium) Clear(context.Context) error {
	m.rec = nil
	m.clears++
	return nil
}

func TestTokenStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	medium := &memMedium{now: start}
	store := New(medium, WithClock(func() time.Time { return start }))

	if got := store.Token(ctx); got != "" {
		t.Fatalf("expected empty token on fresh store, got %q", got)
	}

	if err := store.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if got := store.Token(ctx); got != "abc" {
		t.Fatalf("expected token abc, got %q", got)
	}

	if err := store.SetToken(ctx, "def"); err != nil {
		t.Fatalf("replace token: %v", err)
	}
	if got := store.Token(ctx); got != "def" {
		t.Fatalf("expected replaced token def, got %q", got)
	}

	if err := store.RemoveToken(ctx); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	if err := store.RemoveToken(ctx); err != nil {
		t.Fatalf("second remove token: %v", err)
	}
	if store.HasToken(ctx) {
		t.Fatal("expected no token after remove")
	}
}

func TestTokenStoreCookieAttributes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		opts       []Option
		wantSecure bool
	}{
		{name: "no origin is secure", wantSecure: true},
		{name: "https origin", opts: []Option{WithOrigin(&url.URL{Scheme: "https", Host: "db.example"})}, wantSecure: true},
		{name: "http origin", opts: []Option{WithOrigin(&url.URL{Scheme: "http", Host: "127.0.0.1:8855"})}, wantSecure: false},
		{name: "schemeless origin is secure", opts: []Option{WithOrigin(&url.URL{Host: "db.example"})}, wantSecure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			medium := &memMedium{now: now}
			opts := append([]Option{WithClock(func() time.Time { return now })}, tt.opts...)
			store := New(medium, opts...)

			if err := store.SetToken(ctx, "abc"); err != nil {
				t.Fatalf("set token: %v", err)
			}
			c := medium.writes[0]

			if c.Name != CookieName {
				t.Errorf("name = %q, want %q", c.Name, CookieName)
			}
			if c.MaxAge != 3600 {
				t.Errorf("max age = %d, want 3600", c.MaxAge)
			}
			if !c.Expires.Equal(now.Add(time.Hour)) {
				t.Errorf("expires = %v, want %v", c.Expires, now.Add(time.Hour))
			}
			if c.Path != "/" {
				t.Errorf("path = %q, want /", c.Path)
			}
			if c.SameSite != http.SameSiteStrictMode {
				t.Errorf("same site = %v, want strict", c.SameSite)
			}
			if c.Secure != tt.wantSecure {
				t.Errorf("secure = %v, want %v", c.Secure, tt.wantSecure)
			}
		})
	}
}

func TestTokenStoreExpiryEnforcedByMedium(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	medium := &memMedium{now: start}
	store := New(medium, WithClock(func() time.Time { return start }))

	if err := store.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	medium.now = start.Add(59 * time.Minute)
	if got := store.Token(ctx); got != "abc" {
		t.Fatalf("expected token before expiry, got %q", got)
	}

	medium.now = start.Add(time.Hour)
	if got := store.Token(ctx); got != "" {
		t.Fatalf("expected token gone at expiry, got %q", got)
	}
}

func TestTokenStoreSetEmptyRemoves(t *testing.T) {
	ctx := context.Background()
	medium := &memMedium{now: time.Now()}
	store := New(medium)

	if err := store.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := store.SetToken(ctx, ""); err != nil {
		t.Fatalf("set empty token: %v", err)
	}
	if medium.clears != 1 {
		t.Fatalf("expected empty set to clear the medium once, got %d", medium.clears)
	}
	if store.HasToken(ctx) {
		t.Fatal("expected no token")
	}
}

func TestTokenStoreUnreadableMediumReadsAsLoggedOut(t *testing.T) {
	medium := &memMedium{err: errors.New("disk on fire")}
	store := New(medium)

	if got := store.Token(context.Background()); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestFileMedium(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "nested", "session")

	medium, err := NewFileMedium(path, WithMediumClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new file medium: %v", err)
	}

	if _, err := medium.Read(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken for missing file, got %v", err)
	}

	store := New(medium, WithClock(func() time.Time { return now }))
	if err := store.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}

	c, err := medium.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if c.Value != "abc" || c.SameSite != http.SameSiteStrictMode || !c.Secure {
		t.Fatalf("unexpected cookie read back: %+v", c)
	}

	now = now.Add(2 * time.Hour)
	if _, err := medium.Read(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after expiry, got %v", err)
	}

	if err := medium.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := medium.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileMediumRejectsEmptyPath(t *testing.T) {
	if _, err := NewFileMedium(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestEnvMedium(t *testing.T) {
	ctx := context.Background()
	t.Setenv("MOOSE_TEST_TOKEN", "from-env")

	medium, err := NewEnvMedium("MOOSE_TEST_TOKEN")
	if err != nil {
		t.Fatalf("new env medium: %v", err)
	}

	store := New(medium)
	if got := store.Token(ctx); got != "from-env" {
		t.Fatalf("expected env token, got %q", got)
	}
	if err := store.SetToken(ctx, "other"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly on set, got %v", err)
	}
	if err := store.RemoveToken(ctx); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly on remove, got %v", err)
	}

	t.Setenv("MOOSE_TEST_TOKEN", "")
	if got := store.Token(ctx); got != "" {
		t.Fatalf("expected empty token for empty variable, got %q", got)
	}
}
