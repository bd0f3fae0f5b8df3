package authfetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// TokenReader reports the current session token, "" when logged out.
type TokenReader interface {
	Token(ctx context.Context) string
}

// HeaderTransport is an http.RoundTripper that attaches the session token and
// the default JSON headers to every request.
//
// Without a token the Authorization header is still sent, with an empty value.
// Requests to another origin, including redirect hops, carry no Authorization
// header at all.
type HeaderTransport struct {
	Tokens TokenReader
	Base   http.RoundTripper

	// Origin is the only scheme and host the token is sent to. When nil, it is
	// the origin of the first request in a redirect chain.
	Origin *url.URL

	// Debug enables redacted per-request debug records.
	Debug bool
}

// Compile-time check that HeaderTransport implements http.RoundTripper.
var _ http.RoundTripper = (*HeaderTransport)(nil)

// RoundTrip implements http.RoundTripper interface.
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	ctx := req.Context()

	newReq := req.Clone(ctx)
	caller := newReq.Header
	newReq.Header = make(http.Header, len(caller)+3)

	// The token is read per request; concurrent requests never share a snapshot.
	if t.trusts(newReq) {
		newReq.Header.Set("Authorization", "")
		if token := t.Tokens.Token(ctx); token != "" {
			(&oauth2.Token{AccessToken: token}).SetAuthHeader(newReq)
		}
	}
	newReq.Header.Set("Accept", "application/json")
	newReq.Header.Set("Content-Type", "application/json")

	for key, values := range caller {
		newReq.Header[http.CanonicalHeaderKey(key)] = values
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(newReq.Header))

	if t.Debug {
		slog.DebugContext(ctx, "authorized request",
			"method", newReq.Method,
			"url", newReq.URL.Redacted(),
			"authorization", redacted(newReq.Header.Get("Authorization")),
			"trace_id", traceID(ctx),
		)
	}

	return base.RoundTrip(newReq)
}

// trusts reports whether req targets the origin the token belongs to.
func (t *HeaderTransport) trusts(req *http.Request) bool {
	origin := t.Origin
	if origin == nil {
		first := req
		for first.Response != nil && first.Response.Request != nil {
			first = first.Response.Request
		}
		origin = first.URL
	}
	return sameOrigin(req.URL, origin)
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// redacted hides a credential from log output while keeping its presence visible.
type redacted string

// LogValue implements slog.LogValuer.
func (r redacted) LogValue() slog.Value {
	if r == "" {
		return slog.StringValue("<empty>")
	}
	return slog.StringValue("<redacted>")
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
