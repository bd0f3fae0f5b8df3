package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/moosedb/moose/internal/authfetch"
	"github.com/moosedb/moose/internal/console"
	"github.com/moosedb/moose/internal/guard"
	"github.com/moosedb/moose/internal/nav"
	"github.com/moosedb/moose/internal/tokenstore"
)

// Client is the console session as seen from a client: the token store, the
// router its guards run on, and the authorized requester.
//
// A Client is created once at bootstrap and passed to whatever needs the session.
type Client struct {
	Tokens    *tokenstore.TokenStore
	Router    *nav.Router
	Requester *authfetch.Requester
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	medium     tokenstore.Medium
	navOpts    []nav.Option
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithMedium overrides the token medium derived from the session configuration.
func WithMedium(medium tokenstore.Medium) ClientOption {
	return func(c *clientConfig) {
		c.medium = medium
	}
}

// WithNavigationHook registers a hook run after every committed navigation.
func WithNavigationHook(fn func(ctx context.Context, from, to string)) ClientOption {
	return func(c *clientConfig) {
		c.navOpts = append(c.navOpts, nav.WithOnNavigate(fn))
	}
}

// NewClient wires a Client from configuration.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cc := &clientConfig{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(cc)
	}

	origin := cfg.ConsoleOrigin()
	if origin == nil {
		return nil, fmt.Errorf("invalid console base URL: %q", cfg.Console.BaseURL)
	}

	medium := cc.medium
	if medium == nil {
		m, err := cfg.Session.NewMedium(origin)
		if err != nil {
			return nil, fmt.Errorf("failed to create token storage: %w", err)
		}
		medium = m
	}

	// A jar medium doubles as the HTTP client's cookie jar, the way a browser sends its cookies.
	if jar, ok := medium.(*tokenstore.JarMedium); ok && cc.httpClient.Jar == nil {
		httpClient := *cc.httpClient
		httpClient.Jar = jar.Jar()
		cc.httpClient = &httpClient
	}

	tokens := tokenstore.New(medium, tokenstore.WithOrigin(origin))

	routes := guard.DefaultRoutes
	router := nav.NewRouter("", cc.navOpts...)
	router.Use(guard.EntryRoute, guard.Protected(tokens, routes))
	router.Use(guard.LoginRoute, guard.Guest(tokens, routes))

	requester := authfetch.New(tokens, router,
		authfetch.WithHTTPClient(cc.httpClient),
		authfetch.WithBaseURL(origin),
		authfetch.WithLoginRoute(routes.Login),
		authfetch.WithDebug(cfg.Debug),
	)

	return &Client{
		Tokens:    tokens,
		Router:    router,
		Requester: requester,
	}, nil
}

// Start dispatches through the console entry route and returns where the session lands:
// the login route when logged out, the landing route otherwise.
func (c *Client) Start(ctx context.Context) (string, error) {
	return c.Router.Replace(ctx, guard.EntryRoute)
}

// Login exchanges credentials for a session token, stores it and moves to the landing route.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp console.LoginResponse
	err := c.Requester.FetchJSON(ctx, "/auth/login", authfetch.Options{
		Method: http.MethodPost,
		Body:   console.LoginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !resp.Success || resp.Token == "" {
		return fmt.Errorf("login: %s", resp.Message)
	}

	if err := c.Tokens.SetToken(ctx, resp.Token); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	_, err = c.Router.Push(ctx, guard.LandingRoute)
	return err
}

// Logout drops the session token and returns to the login route.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Tokens.RemoveToken(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return c.Router.Navigate(ctx, guard.LoginRoute)
}

// Fetch performs an authorized request against the console.
func (c *Client) Fetch(ctx context.Context, path string, opts authfetch.Options) (*authfetch.Response, error) {
	return c.Requester.Fetch(ctx, path, opts)
}
