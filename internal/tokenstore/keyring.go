package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zalando/go-keyring"
)

// KeyringMedium provides OS-native secure credential storage for the session cookie.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringMedium struct {
	service string
	user    string
	cfg     mediumConfig
}

// Compile-time check to ensure KeyringMedium implements Medium
var _ Medium = (*KeyringMedium)(nil)

// NewKeyringMedium creates a KeyringMedium using the given service and user identifiers.
func NewKeyringMedium(service, user string, opts ...MediumOption) (*KeyringMedium, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringMedium{
		service: service,
		user:    user,
		cfg:     newMediumConfig(opts),
	}, nil
}

// Read returns the cookie from the system keyring. Missing or expired entries read as ErrNoToken.
func (k *KeyringMedium) Read(ctx context.Context) (*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decoding keyring entry for service %s, user %s: %w", k.service, k.user, err)
	}
	return rec.cookie(k.cfg.now())
}

// Write persists the cookie to the system keyring, overwriting any existing value.
func (k *KeyringMedium) Write(ctx context.Context, cookie *http.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(recordFromCookie(cookie))
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}
	return keyring.Set(k.service, k.user, string(data))
}

// Clear deletes the keyring entry. A missing entry is not an error.
func (k *KeyringMedium) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
