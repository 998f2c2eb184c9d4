package sessionware_test

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus/middleware/sessionware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	role string
}

func (s stubClaims) Subject() string { return "sub" }
func (s stubClaims) UserID() string  { return "user-id" }
func (s stubClaims) Email() string   { return "user@test.local" }
func (s stubClaims) Role() string    { return s.role }
func (s stubClaims) HasRole(role string) bool {
	return s.role == role
}

type stubValidator struct{}

func (stubValidator) Validate(tokenString string) (sessionware.SessionClaims, error) {
	return stubClaims{role: "customer"}, nil
}

func TestGetDefaultConfig_PanicsWithoutValidator(t *testing.T) {
	assert.Panics(t, func() {
		sessionware.GetDefaultConfig(sessionware.Config{
			SigningKey: sessionware.SigningKey{Key: []byte("secret"), JWTAlg: "HS256"},
		})
	})
}

func TestGetDefaultConfig_PanicsWithoutSigningMaterial(t *testing.T) {
	assert.Panics(t, func() {
		sessionware.GetDefaultConfig(sessionware.Config{
			TokenValidator: stubValidator{},
		})
	})
}

func TestGetDefaultConfig_AppliesDefaults(t *testing.T) {
	cfg := sessionware.GetDefaultConfig(sessionware.Config{
		TokenValidator: stubValidator{},
		SigningKey:     sessionware.SigningKey{Key: []byte("secret"), JWTAlg: "HS256"},
	})

	assert.Equal(t, "session", cfg.ContextKey)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "header:"+router.HeaderAuthorization, cfg.TokenLookup)
	assert.NotNil(t, cfg.SuccessHandler)
	assert.NotNil(t, cfg.ErrorHandler)
	assert.NotNil(t, cfg.KeyFunc)
}

func TestGetDefaultConfig_KeepsExplicitValues(t *testing.T) {
	cfg := sessionware.GetDefaultConfig(sessionware.Config{
		TokenValidator: stubValidator{},
		SigningKey:     sessionware.SigningKey{Key: []byte("secret"), JWTAlg: "HS256"},
		ContextKey:     "auth_session",
		AuthScheme:     "Token",
		TokenLookup:    "cookie:session_token",
	})

	assert.Equal(t, "auth_session", cfg.ContextKey)
	assert.Equal(t, "Token", cfg.AuthScheme)
	assert.Equal(t, "cookie:session_token", cfg.TokenLookup)
}

func TestGetExtractors_ParsesEachSource(t *testing.T) {
	extractors := sessionware.GetExtractors(
		"header:Authorization, cookie:session_token, query:auth_token, param:token",
	)
	assert.Len(t, extractors, 4)
}

func TestGetExtractors_SkipsUnknownSources(t *testing.T) {
	extractors := sessionware.GetExtractors("body:token,header:Authorization")
	assert.Len(t, extractors, 1)
}

func TestExtractRawToken_FirstNonEmptyWins(t *testing.T) {
	empty := func(c router.Context) (string, error) {
		return "", sessionware.ErrTokenMissingOrMalformed
	}
	found := func(c router.Context) (string, error) {
		return "raw-token", nil
	}
	never := func(c router.Context) (string, error) {
		t.Fatal("extractor after a match should not run")
		return "", nil
	}

	raw, err := sessionware.ExtractRawTokenFromContext(nil, []sessionware.TokenExtractor{empty, found, never})
	require.NoError(t, err)
	assert.Equal(t, "raw-token", raw)
}

func TestExtractRawToken_AllMissing(t *testing.T) {
	empty := func(c router.Context) (string, error) {
		return "", sessionware.ErrTokenMissingOrMalformed
	}

	raw, err := sessionware.ExtractRawTokenFromContext(nil, []sessionware.TokenExtractor{empty, empty})
	assert.Empty(t, raw)
	assert.ErrorIs(t, err, sessionware.ErrTokenMissingOrMalformed)
}
