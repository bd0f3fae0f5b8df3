package tokenstore

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrNoToken is returned by a Medium when no unexpired token is stored.
	ErrNoToken = errors.New("no session token")

	// ErrReadOnly is returned by media that cannot be written to.
	ErrReadOnly = errors.New("token storage is read-only")
)

// Medium persists the session cookie.
//
// Expiry is the medium's job: Read must report ErrNoToken once the cookie's
// lifetime has elapsed.
type Medium interface {
	// Read returns the stored cookie. Returns ErrNoToken if it is missing, empty or expired.
	Read(ctx context.Context) (*http.Cookie, error)

	// Write persists the cookie, replacing any previous value.
	Write(ctx context.Context, cookie *http.Cookie) error

	// Clear removes the stored cookie. Clearing an empty medium is not an error.
	Clear(ctx context.Context) error
}
