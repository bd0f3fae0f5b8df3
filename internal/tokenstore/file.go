package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// FileMedium provides atomic file-based cookie storage with secure permissions.
// Writes use temp file + rename for crash safety.
type FileMedium struct {
	filePath string
	cfg      mediumConfig
}

// Compile-time check to ensure FileMedium implements Medium
var _ Medium = (*FileMedium)(nil)

// NewFileMedium creates a FileMedium for the given path, creating parent directories
// with 0700 permissions if they don't exist.
func NewFileMedium(filePath string, opts ...MediumOption) (*FileMedium, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileMedium{
		filePath: filePath,
		cfg:      newMediumConfig(opts),
	}, nil
}

// Read returns the stored cookie. A missing file or an expired record reads as
// ErrNoToken; insecure permissions are an error.
func (f *FileMedium) Read(ctx context.Context) (*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Check file permissions before reading
	info, err := os.Stat(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	if info.Mode().Perm() != 0600 {
		return nil, fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", f.filePath, info.Mode().Perm())
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding token file %s: %w", f.filePath, err)
	}
	return rec.cookie(f.cfg.now())
}

// Write atomically saves the cookie using temp file + rename for crash safety.
// Sets file permissions to 0600 (owner read/write only).
func (f *FileMedium) Write(ctx context.Context, cookie *http.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(recordFromCookie(cookie))
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}

	// Create secure temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(data); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tempName, f.filePath); err != nil {
		return err
	}

	return os.Chmod(f.filePath, 0600)
}

// Clear deletes the token file. A missing file is not an error.
func (f *FileMedium) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(f.filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
