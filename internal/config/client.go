// ABOUTME: Client-side configuration for jardin-tui, loaded from TOML
// ABOUTME: Resolves the API base address, session token and reconnect policy

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Client defaults
const (
	DefaultAPIURL               = "http://localhost:8080"
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 2 * time.Second
)

// ClientConfig configures a conversation client.
type ClientConfig struct {
	API     ClientAPIConfig     `toml:"api"`
	Session ClientSessionConfig `toml:"session"`
	Channel ClientChannelConfig `toml:"channel"`
	Logging LoggingConfig       `toml:"logging"`
}

// ClientAPIConfig holds the message bus base address.
type ClientAPIConfig struct {
	URL string `toml:"url"`
}

// ClientSessionConfig holds the session token sent as the "sesion" cookie.
type ClientSessionConfig struct {
	Token string `toml:"token"`
}

// ClientChannelConfig holds the live reconnect policy.
type ClientChannelConfig struct {
	MaxReconnectAttempts int           `toml:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `toml:"-"`
	ReconnectDelayRaw    string        `toml:"reconnect_delay"`
}

// DefaultClientConfigPath returns ~/.config/jardin/client.toml, honouring XDG_CONFIG_HOME.
func DefaultClientConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jardin", "client.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "jardin", "client.toml")
	}
	return filepath.Join(home, ".config", "jardin", "client.toml")
}

// LoadClient reads client config from path. A missing file yields defaults.
// JARDIN_API_URL and JARDIN_TOKEN override the file.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(expandEnvVars(string(data)), &cfg); err != nil {
			return nil, fmt.Errorf("parsing client config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading client config: %w", err)
	}

	if v := os.Getenv("JARDIN_API_URL"); v != "" {
		cfg.API.URL = v
	}
	if v := os.Getenv("JARDIN_TOKEN"); v != "" {
		cfg.Session.Token = v
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}
	return &cfg, nil
}

func (c *ClientConfig) applyDefaults() error {
	if c.API.URL == "" {
		c.API.URL = DefaultAPIURL
	}
	if c.Channel.MaxReconnectAttempts == 0 {
		c.Channel.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	c.Channel.ReconnectDelay = DefaultReconnectDelay
	if c.Channel.ReconnectDelayRaw != "" {
		d, err := time.ParseDuration(c.Channel.ReconnectDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_delay %q: %w", c.Channel.ReconnectDelayRaw, err)
		}
		c.Channel.ReconnectDelay = d
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	return nil
}

// Validate checks that the client config is usable.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil {
		return fmt.Errorf("api.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.url must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("api.url must include a host")
	}
	if c.Channel.MaxReconnectAttempts < 0 {
		return fmt.Errorf("channel.max_reconnect_attempts must not be negative")
	}
	if c.Channel.ReconnectDelay < 0 {
		return fmt.Errorf("channel.reconnect_delay must not be negative")
	}
	return nil
}
