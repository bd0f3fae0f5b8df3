package tokenstore

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// HTTPMedium exposes the session cookie of a single server-side exchange.
// Reads come from the request, writes go out as Set-Cookie headers.
type HTTPMedium struct {
	w http.ResponseWriter
	r *http.Request
}

// Compile-time check to ensure HTTPMedium implements Medium
var _ Medium = (*HTTPMedium)(nil)

// NewHTTPMedium binds a medium to the request/response pair. w may be nil for read-only use.
func NewHTTPMedium(w http.ResponseWriter, r *http.Request) *HTTPMedium {
	return &HTTPMedium{w: w, r: r}
}

// FromRequest returns a TokenStore over the request's cookie, configured for the request's origin.
func FromRequest(w http.ResponseWriter, r *http.Request, opts ...Option) *TokenStore {
	opts = append([]Option{WithOrigin(RequestOrigin(r))}, opts...)
	return New(NewHTTPMedium(w, r), opts...)
}

// RequestOrigin reconstructs the origin the client used to reach the server.
// A TLS connection or an X-Forwarded-Proto of https marks it secure.
func RequestOrigin(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return &url.URL{Scheme: scheme, Host: r.Host}
}

// Read returns the cookie sent with the request.
func (h *HTTPMedium) Read(ctx context.Context) (*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := h.r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoToken
	}
	return c, nil
}

// Write emits a Set-Cookie header carrying the cookie.
func (h *HTTPMedium) Write(ctx context.Context, cookie *http.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.w == nil {
		return ErrReadOnly
	}

	http.SetCookie(h.w, cookie)
	return nil
}

// Clear emits a Set-Cookie header that expires the cookie on the client.
func (h *HTTPMedium) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.w == nil {
		return ErrReadOnly
	}

	http.SetCookie(h.w, expiredCookie(SecureFor(RequestOrigin(h.r))))
	return nil
}
