// Package console serves the MooseDB admin console: the login endpoint that
// issues session tokens, the bearer-protected admin API, and the guarded
// console pages.
package console

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/moosedb/moose/internal/guard"
	"github.com/moosedb/moose/internal/tokenstore"
)

//go:embed shell.html
var shellHTML []byte

// Config holds what the console server needs to authenticate the admin.
type Config struct {
	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         []byte
	Version           string

	// TokenTTL defaults to the session cookie lifetime.
	TokenTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the console HTTP server.
type Server struct {
	handler http.Handler
	server  *http.Server
	tokens  *issuer
	cfg     Config
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates the console server.
func New(cfg Config) (*Server, error) {
	if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" {
		return nil, errors.New("admin email and password hash are required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("missing token signing secret")
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = tokenstore.MaxAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		tokens: &issuer{secret: cfg.JWTSecret, ttl: cfg.TokenTTL, now: cfg.Now},
		cfg:    cfg,
	}

	logger := slog.Default()
	routes := guard.DefaultRoutes

	api := http.NewServeMux()
	api.HandleFunc("POST /admin/api/get-version", s.handleVersion)
	api.HandleFunc("GET /admin/api/session", s.handleSession)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/get-version", s.handleVersion)
	mux.Handle("/admin/api/", applyMiddlewares(api, s.requireBearer))

	// Console pages
	mux.Handle("GET "+guard.EntryRoute, applyMiddlewares(http.HandlerFunc(serveShell), guard.Middleware(routes.Protected)))
	mux.Handle("GET "+guard.LoginRoute, applyMiddlewares(http.HandlerFunc(serveShell), guard.Middleware(routes.Guest)))
	mux.HandleFunc("GET /_/", serveShell)

	s.handler = applyMiddlewares(mux,
		Logging(logger),
		Recovery,
	)

	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// serveShell answers every console route with the single-page shell.
func serveShell(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(shellHTML)
}
