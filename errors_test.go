package nexus_test

import (
	"errors"
	"testing"

	nexus "github.com/laxmi-narasimha26/b2b-commerce-nexus"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorPredicatesMatchSentinels(t *testing.T) {
	assert.True(t, nexus.IsInvalidCredentials(nexus.ErrInvalidCredentials))
	assert.True(t, nexus.IsInvalidCredentials(nexus.ErrMismatchedHashAndPassword))
	assert.True(t, nexus.IsRegistrationIncomplete(nexus.ErrRegistrationIncomplete))
	assert.True(t, nexus.IsSignOutFailed(nexus.ErrSignOutFailed))
	assert.True(t, nexus.IsProfileUpdateFailed(nexus.ErrProfileUpdateFailed))
	assert.True(t, nexus.IsNotAuthenticated(nexus.ErrNotAuthenticated))
	assert.True(t, nexus.IsTokenExpiredError(nexus.ErrTokenExpired))
	assert.True(t, nexus.IsMalformedError(nexus.ErrTokenMalformed))
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := goerrors.Wrap(nexus.ErrInvalidCredentials, goerrors.CategoryAuth, "login handler").
		WithTextCode("INVALID_CREDENTIALS")
	assert.True(t, nexus.IsInvalidCredentials(wrapped))
}

func TestErrorPredicatesRejectOthers(t *testing.T) {
	plain := errors.New("disk full")
	assert.False(t, nexus.IsInvalidCredentials(plain))
	assert.False(t, nexus.IsInvalidCredentials(nil))
	assert.False(t, nexus.IsNotAuthenticated(nexus.ErrInvalidCredentials))
	assert.False(t, nexus.IsTokenExpiredError(nexus.ErrTokenMalformed))
}

func TestSentinelCategories(t *testing.T) {
	assert.Equal(t, goerrors.CategoryAuth, nexus.ErrInvalidCredentials.Category)
	assert.Equal(t, goerrors.CategoryAuth, nexus.ErrNotAuthenticated.Category)
	assert.Equal(t, goerrors.CategoryOperation, nexus.ErrSignOutFailed.Category)
	assert.Equal(t, goerrors.CodeUnauthorized, nexus.ErrTokenExpired.Code)
}
