// config.go

// Environment variable loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/MGallo-Code/pawlink/internal/digest"
	"github.com/MGallo-Code/pawlink/internal/oauth"
	"github.com/caarlos0/env/v11"
)

// Config holds all env configuration for the pawlink sign-in server.
type Config struct {
	DatabaseURL string
	RedisURL    string
	Port        string
	LogLevel    slog.Level

	Auth *AuthConfig
}

// AuthConfig holds the settings the sign-in flows need. It is all that login mode loads.
type AuthConfig struct {
	// Clients holds one entry per provider, even when its client id is blank.
	// Client reports the missing id when a flow for that provider is requested.
	Clients map[string]oauth.Client

	// RedirectURI is OAUTH_CALLBACK_URL when set, otherwise <scheme>://auth/callback.
	RedirectURI string

	Digest          digest.Func
	AllowWeakRandom bool

	// HTTPTimeout bounds each outbound call to a provider. Default 10s.
	HTTPTimeout time.Duration

	// PendingTTL is how long a started sign-in may wait for its callback. Default 10m.
	PendingTTL time.Duration

	LogLevel slog.Level
}

// rawEnv mirrors the environment before validation.
type rawEnv struct {
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	Port        string `env:"PORT" envDefault:"7865"`
	LogLevel    string `env:"LOG_LEVEL"`

	LINEClientID     string `env:"LINE_CLIENT_ID"`
	LINEClientSecret string `env:"LINE_CLIENT_SECRET"`
	XClientID        string `env:"X_CLIENT_ID"`
	XClientSecret    string `env:"X_CLIENT_SECRET"`

	CallbackURL   string `env:"OAUTH_CALLBACK_URL"`
	AppScheme     string `env:"APP_SCHEME"`
	AppIdentifier string `env:"APP_IDENTIFIER" envDefault:"pawlink"`

	PKCEDigest      string        `env:"PKCE_DIGEST" envDefault:"native"`
	AllowWeakRandom bool          `env:"PKCE_ALLOW_WEAK_RANDOM"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	PendingAuthTTL  time.Duration `env:"PENDING_AUTH_TTL" envDefault:"10m"`
}

// LoadConfig reads environment variables and returns a validated Config.
// Returns an error if required variables (DATABASE_URL, REDIS_URL) are missing.
func LoadConfig() (*Config, error) {
	raw, err := parseEnv()
	if err != nil {
		return nil, err
	}

	if raw.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if raw.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	auth, err := buildAuthConfig(raw)
	if err != nil {
		return nil, err
	}

	port := raw.Port
	if port == "" {
		port = "7865"
	}

	return &Config{
		DatabaseURL: raw.DatabaseURL,
		RedisURL:    raw.RedisURL,
		Port:        port,
		LogLevel:    auth.LogLevel,
		Auth:        auth,
	}, nil
}

// LoadAuthConfig reads only the sign-in settings. Used by login mode, which has no
// database or cache.
func LoadAuthConfig() (*AuthConfig, error) {
	raw, err := parseEnv()
	if err != nil {
		return nil, err
	}
	return buildAuthConfig(raw)
}

// Client returns the credentials for provider, or a ConfigurationError when its
// client id is not set.
func (c *AuthConfig) Client(provider string) (oauth.Client, error) {
	client, ok := c.Clients[provider]
	if !ok {
		return oauth.Client{}, &oauth.ConfigurationError{Field: "provider " + provider, Reason: "is not supported"}
	}
	if client.ClientID == "" {
		return oauth.Client{}, &oauth.ConfigurationError{Field: strings.ToUpper(provider) + "_CLIENT_ID", Reason: "is required"}
	}
	return client, nil
}

func parseEnv() (*rawEnv, error) {
	raw := &rawEnv{}
	if err := env.Parse(raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return raw, nil
}

func buildAuthConfig(raw *rawEnv) (*AuthConfig, error) {
	redirect, err := redirectURI(raw)
	if err != nil {
		return nil, err
	}

	d, err := digest.ByName(raw.PKCEDigest)
	if err != nil {
		return nil, &oauth.ConfigurationError{Field: "PKCE_DIGEST", Reason: err.Error()}
	}

	if raw.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if raw.PendingAuthTTL <= 0 {
		return nil, fmt.Errorf("PENDING_AUTH_TTL must be positive")
	}

	return &AuthConfig{
		Clients: map[string]oauth.Client{
			"line": {
				ClientID:     strings.TrimSpace(raw.LINEClientID),
				ClientSecret: raw.LINEClientSecret,
				RedirectURI:  redirect,
			},
			"x": {
				ClientID:     strings.TrimSpace(raw.XClientID),
				ClientSecret: raw.XClientSecret,
				RedirectURI:  redirect,
			},
		},
		RedirectURI:     redirect,
		Digest:          d,
		AllowWeakRandom: raw.AllowWeakRandom,
		HTTPTimeout:     raw.HTTPTimeout,
		PendingTTL:      raw.PendingAuthTTL,
		LogLevel:        parseLevel(raw.LogLevel),
	}, nil
}

// redirectURI picks the fixed external callback when configured, else a deep link
// built from the app scheme.
func redirectURI(raw *rawEnv) (string, error) {
	if cb := strings.TrimSpace(raw.CallbackURL); cb != "" {
		u, err := url.Parse(cb)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return "", &oauth.ConfigurationError{Field: "OAUTH_CALLBACK_URL", Reason: "must be an absolute https url"}
		}
		return cb, nil
	}

	scheme := strings.ToLower(strings.TrimSpace(raw.AppScheme))
	if scheme == "" {
		scheme = strings.ToLower(strings.TrimSpace(raw.AppIdentifier))
	}
	if scheme == "" {
		return "", &oauth.ConfigurationError{Field: "APP_SCHEME", Reason: "is required when OAUTH_CALLBACK_URL is unset"}
	}
	u, err := url.Parse(scheme + "://auth/callback")
	if err != nil || u.Scheme != scheme {
		return "", &oauth.ConfigurationError{Field: "APP_SCHEME", Reason: "is not a valid url scheme"}
	}
	return u.String(), nil
}

// Parse log level, default to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
