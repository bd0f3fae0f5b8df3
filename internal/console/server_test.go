package console

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/moosedb/moose/internal/guard"
	"github.com/moosedb/moose/internal/tokenstore"
)

const (
	testEmail    = "admin@moose.test"
	testPassword = "correct-horse"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*Server, *testClock) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	clock := &testClock{now: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)}
	srv, err := New(Config{
		AdminEmail:        testEmail,
		AdminPasswordHash: string(hash),
		JWTSecret:         []byte("test-secret"),
		Version:           "0.1.0",
		Now:               clock.Now,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, clock
}

func login(t *testing.T, srv http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Email: email, Password: password})
	r := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{JWTSecret: []byte("x")}); err == nil {
		t.Fatal("expected error without admin credentials")
	}
	if _, err := New(Config{AdminEmail: testEmail, AdminPasswordHash: "hash"}); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	w := login(t, srv, testEmail, testPassword)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("unexpected login response %+v", resp)
	}

	cookie := w.Header().Get("Set-Cookie")
	if !strings.HasPrefix(cookie, tokenstore.CookieName+"="+resp.Token) {
		t.Fatalf("Set-Cookie %q does not carry the token", cookie)
	}
	if !strings.Contains(cookie, "SameSite=Strict") || !strings.Contains(cookie, "Max-Age=3600") {
		t.Fatalf("Set-Cookie %q misses session attributes", cookie)
	}
}

func TestLoginRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: testEmail, password: "nope"},
		{name: "unknown email", email: "someone@moose.test", password: testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := login(t, srv, tt.email, tt.password)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if w.Header().Get("Set-Cookie") != "" {
				t.Fatal("rejected login set a cookie")
			}
			var resp MessageResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Success {
				t.Fatalf("unexpected body %s", w.Body)
			}
		})
	}
}

func TestAdminAPIRequiresBearer(t *testing.T) {
	srv, clock := newTestServer(t)

	var resp LoginResponse
	_ = json.Unmarshal(login(t, srv, testEmail, testPassword).Body.Bytes(), &resp)

	call := func(authorization string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/admin/api/get-version", nil)
		if authorization != "" {
			r.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, r)
		return w
	}

	if w := call("Bearer " + resp.Token); w.Code != http.StatusOK {
		t.Fatalf("valid token: status %d, body %s", w.Code, w.Body)
	}
	if w := call(""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d", w.Code)
	}
	if w := call("Bearer not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d", w.Code)
	}

	clock.now = clock.now.Add(time.Hour + time.Second)
	if w := call("Bearer " + resp.Token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: status %d", w.Code)
	}
}

func TestSessionEndpoint(t *testing.T) {
	srv, clock := newTestServer(t)

	var resp LoginResponse
	_ = json.Unmarshal(login(t, srv, testEmail, testPassword).Body.Bytes(), &resp)

	r := httptest.NewRequest(http.MethodGet, "/admin/api/session", nil)
	r.Header.Set("Authorization", "Bearer "+resp.Token)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	var session SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.Email != testEmail || session.ExpiresAt != clock.now.Add(time.Hour).Unix() {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	for range 2 {
		r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if cookie := w.Header().Get("Set-Cookie"); !strings.Contains(cookie, "Max-Age=0") {
			t.Fatalf("Set-Cookie %q does not expire the session", cookie)
		}
	}
}

func TestConsolePages(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name         string
		path         string
		cookie       bool
		wantStatus   int
		wantLocation string
	}{
		{name: "entry without session", path: guard.EntryRoute, wantStatus: http.StatusFound, wantLocation: guard.LoginRoute},
		{name: "entry with session", path: guard.EntryRoute, cookie: true, wantStatus: http.StatusFound, wantLocation: guard.LandingRoute},
		{name: "login page with session", path: guard.LoginRoute, cookie: true, wantStatus: http.StatusFound, wantLocation: guard.LandingRoute},
		{name: "login page without session", path: guard.LoginRoute, wantStatus: http.StatusOK},
		{name: "landing", path: guard.LandingRoute, wantStatus: http.StatusOK},
		{name: "nested console route", path: "/_/collections/users", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie {
				r.AddCookie(&http.Cookie{Name: tokenstore.CookieName, Value: "abc"})
			}
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Fatalf("location = %q, want %q", got, tt.wantLocation)
			}
			if tt.wantStatus == http.StatusOK && !strings.Contains(w.Body.String(), "<title>MooseDB</title>") {
				t.Fatalf("expected console shell, got %s", w.Body)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer abc", want: "abc", ok: true},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
		{header: "Basic abc", ok: false},
	}

	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
