package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Option configures a TokenStore.
type Option func(*TokenStore)

// WithOrigin sets the origin the token belongs to. The Secure attribute follows
// its scheme; without an origin the token is always marked secure.
func WithOrigin(origin *url.URL) Option {
	return func(s *TokenStore) {
		s.secure = SecureFor(origin)
	}
}

// WithClock overrides the clock used to stamp cookie expiry.
func WithClock(now func() time.Time) Option {
	return func(s *TokenStore) {
		s.now = now
	}
}

// WithLogger sets the logger used to report unreadable storage.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TokenStore) {
		s.logger = logger
	}
}

// TokenStore holds the single session token of a client.
//
// Absence of a value is the logged-out state. The store never inspects expiry;
// the Medium drops expired values on its own.
type TokenStore struct {
	medium Medium
	secure bool
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a TokenStore over medium.
func New(medium Medium, opts ...Option) *TokenStore {
	s := &TokenStore{
		medium: medium,
		secure: true,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Token returns the current token, or "" when logged out.
// Storage failures are logged and read as logged out.
func (s *TokenStore) Token(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.medium.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			s.logger.WarnContext(ctx, "session token unreadable", "error", err)
		}
		return ""
	}
	return c.Value
}

// HasToken reports whether a token is present.
func (s *TokenStore) HasToken(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// SetToken replaces the stored token. An empty value removes it.
func (s *TokenStore) SetToken(ctx context.Context, value string) error {
	if value == "" {
		return s.RemoveToken(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.medium.Write(ctx, newCookie(value, s.secure, s.now(), MaxAge)); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	return nil
}

// RemoveToken clears the stored token. Removing an absent token is a no-op.
func (s *TokenStore) RemoveToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.medium.Clear(ctx); err != nil {
		return fmt.Errorf("removing session token: %w", err)
	}
	return nil
}

// Secure reports whether stored cookies carry the Secure attribute.
func (s *TokenStore) Secure() bool {
	return s.secure
}
