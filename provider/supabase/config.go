// Package supabase implements the session store against a hosted
// Supabase project: GoTrue for credentials and sessions, PostgREST for
// the profile and organization rows, and the project JWK set for token
// validation.
package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the Supabase project settings.
type Config struct {
	// URL is the project base URL (e.g. "https://abc.supabase.co").
	URL string `env:"SUPABASE_URL"`

	// AnonKey is the public API key sent with every request.
	AnonKey string `env:"SUPABASE_ANON_KEY"`

	// ServiceKey, when set, authorizes row access server-side instead of
	// the user's own token.
	ServiceKey string `env:"SUPABASE_SERVICE_KEY"`

	// JWKSURL overrides the default JWK set location (optional).
	// Default: "{URL}/auth/v1/.well-known/jwks.json".
	JWKSURL string `env:"SUPABASE_JWKS_URL"`

	// Issuer overrides the expected token issuer (optional).
	// Default: "{URL}/auth/v1".
	Issuer string `env:"SUPABASE_JWT_ISSUER"`

	// Audience is the expected token audience.
	Audience string `env:"SUPABASE_JWT_AUDIENCE, default=authenticated"`

	// RequestTimeout bounds every REST call.
	RequestTimeout time.Duration `env:"SUPABASE_REQUEST_TIMEOUT, default=10s"`
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return cfg, fmt.Errorf("supabase: failed to load configuration: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings required to reach the project.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("supabase: project URL is required")
	}
	if strings.TrimSpace(c.AnonKey) == "" {
		return fmt.Errorf("supabase: anon key is required")
	}
	return nil
}

func (c Config) baseURL() string {
	return strings.TrimSuffix(strings.TrimSpace(c.URL), "/")
}

func (c Config) jwksURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return c.baseURL() + "/auth/v1/.well-known/jwks.json"
}

func (c Config) issuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return c.baseURL() + "/auth/v1"
}

func (c Config) rowKey() string {
	if c.ServiceKey != "" {
		return c.ServiceKey
	}
	return c.AnonKey
}
