package tokenstore

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// CookieName is the persisted key holding the session token.
	CookieName = "moose_auth_token"

	// CookiePath scopes the cookie to the whole application.
	CookiePath = "/"

	// MaxAge is the lifetime of a freshly set token.
	MaxAge = time.Hour
)

// SecureFor reports whether a token set for origin must only travel over secure
// transport. Unknown origins are treated as secure.
func SecureFor(origin *url.URL) bool {
	if origin == nil || origin.Scheme == "" {
		return true
	}
	return !strings.EqualFold(origin.Scheme, "http")
}

// newCookie builds the session cookie for value.
func newCookie(value string, secure bool, now time.Time, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     CookiePath,
		MaxAge:   int(maxAge / time.Second),
		Expires:  now.Add(maxAge),
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// expiredCookie builds a cookie that instructs the medium to drop the token.
func expiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// record is the on-disk and in-keyring representation of the session cookie.
type record struct {
	Value    string    `json:"value"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"same_site"`
}

func recordFromCookie(c *http.Cookie) record {
	return record{
		Value:    c.Value,
		Path:     c.Path,
		Expires:  c.Expires,
		Secure:   c.Secure,
		SameSite: sameSiteName(c.SameSite),
	}
}

// cookie converts the record back, reporting ErrNoToken when it is empty or expired at now.
func (r record) cookie(now time.Time) (*http.Cookie, error) {
	if r.Value == "" {
		return nil, ErrNoToken
	}
	if !r.Expires.IsZero() && !now.Before(r.Expires) {
		return nil, ErrNoToken
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    r.Value,
		Path:     r.Path,
		Expires:  r.Expires,
		Secure:   r.Secure,
		SameSite: sameSiteMode(r.SameSite),
	}, nil
}

func sameSiteName(mode http.SameSite) string {
	switch mode {
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteNoneMode:
		return "none"
	default:
		return ""
	}
}

func sameSiteMode(name string) http.SameSite {
	switch name {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MediumOption configures the persistent media.
type MediumOption func(*mediumConfig)

type mediumConfig struct {
	now func() time.Time
}

// WithMediumClock overrides the clock used to decide whether a stored record expired.
func WithMediumClock(now func() time.Time) MediumOption {
	return func(c *mediumConfig) {
		c.now = now
	}
}

func newMediumConfig(opts []MediumOption) mediumConfig {
	cfg := mediumConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
