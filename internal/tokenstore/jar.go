package tokenstore

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// JarMedium keeps the session cookie in an in-memory cookie jar bound to an origin.
// The jar applies Max-Age, Path and Secure exactly like a browser would.
type JarMedium struct {
	jar    http.CookieJar
	origin *url.URL
}

// Compile-time check to ensure JarMedium implements Medium
var _ Medium = (*JarMedium)(nil)

// NewJarMedium creates a JarMedium for origin backed by a fresh cookie jar.
func NewJarMedium(origin *url.URL) (*JarMedium, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return NewJarMediumWith(jar, origin)
}

// NewJarMediumWith creates a JarMedium over an existing jar, e.g. one shared with an http.Client.
func NewJarMediumWith(jar http.CookieJar, origin *url.URL) (*JarMedium, error) {
	if jar == nil {
		return nil, fmt.Errorf("missing cookie jar")
	}
	if origin == nil || origin.Host == "" {
		return nil, fmt.Errorf("cookie jar requires an absolute origin")
	}
	return &JarMedium{jar: jar, origin: origin}, nil
}

// Jar returns the underlying cookie jar.
func (j *JarMedium) Jar() http.CookieJar {
	return j.jar
}

// Read returns the session cookie the jar would send to the origin.
func (j *JarMedium) Read(ctx context.Context) (*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, c := range j.jar.Cookies(j.origin) {
		if c.Name == CookieName && c.Value != "" {
			return c, nil
		}
	}
	return nil, ErrNoToken
}

// Write stores the cookie in the jar as if the origin had sent it.
func (j *JarMedium) Write(ctx context.Context, cookie *http.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.jar.SetCookies(j.origin, []*http.Cookie{cookie})
	return nil
}

// Clear expires the cookie in the jar.
func (j *JarMedium) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.jar.SetCookies(j.origin, []*http.Cookie{expiredCookie(SecureFor(j.origin))})
	return nil
}
