// Package config loads the server configuration from the data directory.
//
// Two files are read: config.yaml holds the account, the session signing key
// and the limits, and .env holds deployment overrides for the CLI flags and
// secrets such as GEMINI_API_KEY and MONGODB_URI.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the YAML configuration file in the data directory.
const FileName = "config.yaml"

// EnvFileName is the name of the dotenv file in the data directory.
const EnvFileName = ".env"

// Config is the content of config.yaml. It is created with defaults on first
// start.
type Config struct {
	// JWTSecret signs session cookies, hex encoded. Generated when empty.
	JWTSecret string `yaml:"jwt_secret"`

	Auth       Auth       `yaml:"auth"`
	Session    Session    `yaml:"session"`
	RateLimits RateLimits `yaml:"rate_limits"`
	Assistant  Assistant  `yaml:"assistant"`

	// MaxRequestBodyBytes limits the size of any request body.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`
}

// Auth is the single performer account.
type Auth struct {
	Username string `yaml:"username"`
	// PasswordHash is a bcrypt hash, see stagehand -hash-password.
	PasswordHash string `yaml:"password_hash"`
	// DisplayName is shown in the session. Defaults to Username.
	DisplayName string `yaml:"display_name,omitempty"`
}

// Enabled reports whether an account is configured.
func (a *Auth) Enabled() bool {
	return a.Username != "" && a.PasswordHash != ""
}

// Session configures the session cookie.
type Session struct {
	TTL time.Duration `yaml:"ttl"`
}

// RateLimits are in requests per minute per client IP. 0 disables the limit.
type RateLimits struct {
	LoginPerMin     int `yaml:"login_per_min"`
	AssistantPerMin int `yaml:"assistant_per_min"`
	ReadPerMin      int `yaml:"read_per_min"`
	WritePerMin     int `yaml:"write_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.LoginPerMin < 0 {
		return errors.New("login_per_min must be non-negative")
	}
	if r.AssistantPerMin < 0 {
		return errors.New("assistant_per_min must be non-negative")
	}
	if r.ReadPerMin < 0 {
		return errors.New("read_per_min must be non-negative")
	}
	if r.WritePerMin < 0 {
		return errors.New("write_per_min must be non-negative")
	}
	return nil
}

// Assistant configures the question answering model.
type Assistant struct {
	Model string `yaml:"model"`
}

// Default returns the configuration written on first start.
func Default() *Config {
	return &Config{
		Session: Session{TTL: 7 * 24 * time.Hour},
		RateLimits: RateLimits{
			LoginPerMin:     5,
			AssistantPerMin: 10,
			ReadPerMin:      6000,
			WritePerMin:     60,
		},
		Assistant:           Assistant{Model: "gemini-2.5-flash"},
		MaxRequestBodyBytes: 1 << 20,
	}
}

// Secret returns the decoded JWT signing key.
func (c *Config) Secret() ([]byte, error) {
	b, err := hex.DecodeString(c.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("jwt_secret: %w", err)
	}
	return b, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	b, err := c.Secret()
	if err != nil {
		return err
	}
	if len(b) < 32 {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	if (c.Auth.Username == "") != (c.Auth.PasswordHash == "") {
		return errors.New("auth.username and auth.password_hash must both be set or both be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes must be non-negative")
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	return nil
}

// Load reads dataDir/config.yaml, creating it with defaults when missing and
// generating the JWT secret when empty.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, FileName)
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the data dir flag
	missing := errors.Is(err, os.ErrNotExist)
	if err != nil && !missing {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	if !missing {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	}

	modified := false
	if cfg.JWTSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(b)
		modified = true
	}
	if modified || missing {
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// Save writes the configuration to dataDir/config.yaml.
func (c *Config) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, FileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}

// LoadEnv reads dataDir/.env. A missing file yields an empty map.
func LoadEnv(dataDir string) (map[string]string, error) {
	env, err := godotenv.Read(filepath.Join(dataDir, EnvFileName))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", EnvFileName, err)
	}
	return env, nil
}
