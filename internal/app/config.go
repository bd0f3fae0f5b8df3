package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/moosedb/moose/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
	LogFormatOTel LogFormat = "otel"
)

// TokenStorageType represents the media supported for the session token.
type TokenStorageType string

const (
	TokenStorageTypeJar     TokenStorageType = "jar"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// keyringService identifies the console's entry in the OS keyring.
const keyringService = "moose-session-token"

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 8855
	DefaultConfigShutdownTimeout = 5 * time.Second
	DefaultConfigConsoleBaseURL  = "http://127.0.0.1:8855"
	DefaultConfigSessionStorage  = TokenStorageTypeFile
	DefaultConfigTelemetryProto  = "http"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// ConsoleConfig points the client at a running console server.
type ConsoleConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
}

// SessionConfig describes where the client keeps its session token.
type SessionConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=jar file env keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to token file
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// AdminConfig holds the console administrator's credentials. Only the server uses it.
type AdminConfig struct {
	Email        string `json:"email" validate:"omitempty,email"`
	PasswordHash string `json:"password_hash"`
	// JWTSecret signs session tokens. A random secret is generated when empty.
	JWTSecret string `json:"jwt_secret"`
}

// TelemetryConfig configures OTLP log export for the otel log format.
type TelemetryConfig struct {
	Endpoint string `json:"endpoint" validate:"omitempty,url"`
	Protocol string `json:"protocol" validate:"omitempty,oneof=grpc http"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level `json:"log_level"`
	LogFormat LogFormat  `json:"log_format" validate:"oneof=text json otel"`
	// Debug enables redacted request/response debug records of the authorized requester.
	Debug     bool            `json:"debug"`
	Server    ServerConfig    `json:"server"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
	Console   ConsoleConfig   `json:"console"`
	Session   SessionConfig   `json:"session"`
	Admin     AdminConfig     `json:"admin"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.Console.BaseURL == "" {
		c.Console.BaseURL = DefaultConfigConsoleBaseURL
	}
	if c.Session.Storage == "" {
		c.Session.Storage = DefaultConfigSessionStorage
	}
	if c.Telemetry.Endpoint != "" && c.Telemetry.Protocol == "" {
		c.Telemetry.Protocol = DefaultConfigTelemetryProto
	}

	// Dynamic defaults based on storage type
	switch c.Session.Storage {
	case TokenStorageTypeFile:
		if c.Session.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("session.file required (auto-detect failed: %w)", err)
			}
			c.Session.File = filepath.Join(configDir, "moose", "session")
		}
	case TokenStorageTypeKeyring:
		if c.Session.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("session.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Session.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeEnv, TokenStorageTypeJar:
		// env_key must be explicitly configured; the jar needs no settings
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Session.Storage {
	case TokenStorageTypeFile:
		if c.Session.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeEnv:
		if c.Session.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case TokenStorageTypeKeyring:
		if c.Session.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}

// ValidateServer checks the settings only the console server needs.
func (c *Config) ValidateServer() error {
	if c.Admin.Email == "" {
		return errors.New("admin.email required to serve the console")
	}
	if c.Admin.PasswordHash == "" {
		return errors.New("admin.password_hash required to serve the console")
	}
	return nil
}

// ValidateLogin checks that the session storage can hold a new token.
func (c *Config) ValidateLogin() error {
	if c.Session.Storage == TokenStorageTypeEnv {
		return errors.New("login requires writable storage, env is read-only")
	}
	return nil
}

// ConsoleOrigin returns the parsed console base URL, or nil when it cannot be determined.
func (c *Config) ConsoleOrigin() *url.URL {
	u, err := url.Parse(c.Console.BaseURL)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// NewMedium creates the token storage medium described by the session configuration.
func (s *SessionConfig) NewMedium(origin *url.URL) (tokenstore.Medium, error) {
	switch s.Storage {
	case TokenStorageTypeJar:
		return tokenstore.NewJarMedium(origin)
	case TokenStorageTypeFile:
		return tokenstore.NewFileMedium(s.File)
	case TokenStorageTypeEnv:
		return tokenstore.NewEnvMedium(s.EnvKey)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringMedium(keyringService, s.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Storage)
	}
}
