package supabase

import (
	stderrors "errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus"
)

// TokenValidator validates project-issued JWTs against the JWK set. The
// token's "role" claim is the database role, not the account role; the
// account role always comes from the profile row.
type TokenValidator struct {
	cfg  Config
	jwks *keyfunc.JWKS
}

var _ nexus.TokenValidator = (*TokenValidator)(nil)

// NewTokenValidator fetches the project JWK set and keeps it refreshed in
// the background. Call Close when done.
func NewTokenValidator(cfg Config) (*TokenValidator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jwks, err := keyfunc.Get(cfg.jwksURL(), keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: failed to fetch JWK set: %w", err)
	}

	return &TokenValidator{
		cfg:  cfg,
		jwks: jwks,
	}, nil
}

// Close stops the background JWK set refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Validate implements the root package token validator.
func (v *TokenValidator) Validate(tokenString string) (nexus.AuthClaims, error) {
	claims := &nexus.JWTClaims{}

	opts := []jwt.ParserOption{
		jwt.WithIssuer(v.cfg.issuer()),
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	if !token.Valid {
		return nil, nexus.ErrTokenMalformed
	}

	return claims, nil
}

func normalizeValidationError(err error) error {
	if err == nil {
		return nil
	}

	clone := nexus.ErrTokenMalformed.Clone()
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		clone = nexus.ErrTokenExpired.Clone()
	}

	if clone == nil {
		return err
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"provider": "supabase",
		"cause":    err.Error(),
	})
}
