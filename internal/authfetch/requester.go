package authfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/moosedb/moose/internal/guard"
)

// Options are the caller-supplied parts of a request. Header entries override
// the defaults set by HeaderTransport; everything else is passed through.
type Options struct {
	// Method defaults to GET.
	Method string
	Header http.Header
	// Body is sent as-is when it is a []byte, string, json.RawMessage or io.Reader,
	// and JSON-encoded otherwise.
	Body any
}

// Response is a successful reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Option configures a Requester.
type Option func(*config)

type config struct {
	client       *http.Client
	baseURL      *url.URL
	loginRoute   string
	interceptors []Interceptor
	debug        bool
}

// WithHTTPClient sets the client whose transport the header stage wraps.
// The client's cookie jar, redirect policy and timeout are kept.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.client = client
	}
}

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base *url.URL) Option {
	return func(c *config) {
		c.baseURL = base
	}
}

// WithLoginRoute overrides the route a 401 navigates to.
func WithLoginRoute(route string) Option {
	return func(c *config) {
		c.loginRoute = route
	}
}

// WithInterceptors appends failure interceptors. They run after the 401 handler.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *config) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithDebug enables redacted debug logging of requests and responses.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}

// Requester performs authorized requests for a session.
// It is safe for concurrent use.
type Requester struct {
	client       *http.Client
	baseURL      *url.URL
	interceptors []Interceptor
	debug        bool
}

// New creates a Requester that reads its token from session and, on a 401,
// clears session and navigates nav to the login route.
func New(session Session, nav Navigator, opts ...Option) *Requester {
	cfg := &config{
		client:     http.DefaultClient,
		loginRoute: guard.LoginRoute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := *cfg.client
	client.Transport = &HeaderTransport{
		Tokens: session,
		Base:   cfg.client.Transport,
		Origin: cfg.baseURL,
		Debug:  cfg.debug,
	}

	interceptors := append([]Interceptor{Unauthorized(session, nav, cfg.loginRoute)}, cfg.interceptors...)

	return &Requester{
		client:       &client,
		baseURL:      cfg.baseURL,
		interceptors: interceptors,
		debug:        cfg.debug,
	}
}

// Fetch sends the request and returns the response if the status is 2xx.
//
// Any failure, including a non-2xx *StatusError, first runs through the
// interceptors and is then returned unchanged.
func (r *Requester) Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	resp, err := r.do(ctx, rawURL, opts)
	if err != nil {
		for _, intercept := range r.interceptors {
			intercept(ctx, err)
		}
		return nil, err
	}
	return resp, nil
}

// FetchJSON is Fetch followed by decoding the body into out. A nil out or an
// empty body skips decoding.
func (r *Requester) FetchJSON(ctx context.Context, rawURL string, opts Options, out any) error {
	resp, err := r.Fetch(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.JSON(out)
}

func (r *Requester) do(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	target, err := r.resolve(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if opts.Header != nil {
		req.Header = opts.Header.Clone()
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if r.debug {
		slog.DebugContext(ctx, "authorized response", "method", method, "url", req.URL.Redacted(), "status", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (r *Requester) resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing request URL: %w", err)
	}
	if r.baseURL != nil && !u.IsAbs() {
		u = r.baseURL.ResolveReference(u)
	}
	return u.String(), nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}
