package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Store       StoreConfig       `toml:"store"`
	Redis       RedisConfig       `toml:"redis"`
	Identity    IdentityConfig    `toml:"identity"`
	Link        LinkConfig        `toml:"link"`
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Session     SessionConfig     `toml:"session"`
	Log         LogConfig         `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	BaseURL string `toml:"base_url"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StoreConfig selects the credential store driver.
type StoreConfig struct {
	Driver string `toml:"driver"`
}

// RedisConfig contains connection settings for the redis credential store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// IdentityConfig holds the primary identity provider project credentials.
type IdentityConfig struct {
	Transport    string `toml:"transport"`
	Issuer       string `toml:"issuer"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	APIKey       string `toml:"api_key"`
	AuthDomain   string `toml:"auth_domain"`
	ProjectID    string `toml:"project_id"`
	AppID        string `toml:"app_id"`
}

// LinkConfig controls where the secondary account login lives.
type LinkConfig struct {
	AuthServiceURL string `toml:"auth_service_url"`
	Embedded       bool   `toml:"embedded"`
	AutoLink       bool   `toml:"auto_link"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// Map returns the credentials in the shape expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// APIConfig points at the backend API.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout returns the configured request timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// SessionConfig controls browser session cookies.
type SessionConfig struct {
	TTLMinutes    int  `toml:"ttl_minutes"`
	SecureCookies bool `toml:"secure_cookies"`
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// LogConfig sets the log level by name (debug, info, warn, error).
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the configuration back to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings the web client cannot start without.
//
// The primary identity provider has no degraded mode, so its credentials are required.
func (c *Config) Validate() error {
	id := c.Identity
	if id.Issuer == "" || id.ClientID == "" || id.ProjectID == "" {
		return fmt.Errorf("%w: identity issuer, client_id and project_id are required", ErrMissingConfig)
	}
	switch id.Transport {
	case "popup", "redirect":
	default:
		return fmt.Errorf("%w: unknown identity transport %q", ErrInvalidConfig, id.Transport)
	}
	if id.Transport == "redirect" && (id.ClientSecret == "" || id.RedirectURI == "") {
		return fmt.Errorf("%w: redirect transport needs client_secret and redirect_uri", ErrMissingConfig)
	}

	switch c.Store.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if c.Link.AuthServiceURL == "" {
		return fmt.Errorf("%w: link.auth_service_url is required", ErrMissingConfig)
	}
	if c.Link.Embedded && (c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "") {
		return fmt.Errorf("%w: embedded linking needs spotify client_id and client_secret", ErrMissingCredentials)
	}

	return nil
}
