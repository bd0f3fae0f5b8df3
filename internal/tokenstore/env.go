package tokenstore

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// EnvMedium provides read-only access to a token stored in an environment variable.
// Suitable for scripted access but not for logging in (requires writable storage).
type EnvMedium struct {
	envKey string
}

// Compile-time check to ensure EnvMedium implements Medium
var _ Medium = (*EnvMedium)(nil)

// NewEnvMedium creates an EnvMedium for the given environment variable.
func NewEnvMedium(envKey string) (*EnvMedium, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvMedium{
		envKey: envKey,
	}, nil
}

// Read returns the token from the environment variable. Unset or empty reads as ErrNoToken.
func (e *EnvMedium) Read(ctx context.Context) (*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token := os.Getenv(e.envKey)
	if token == "" {
		return nil, ErrNoToken
	}
	return &http.Cookie{Name: CookieName, Value: token, Path: CookiePath}, nil
}

// Write is not supported for environment variables (they are read-only).
func (e *EnvMedium) Write(ctx context.Context, _ *http.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable %s: %w", e.envKey, ErrReadOnly)
}

// Clear is not supported for environment variables (they are read-only).
func (e *EnvMedium) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("environment variable %s: %w", e.envKey, ErrReadOnly)
}
