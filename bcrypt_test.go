package nexus_test

import (
	"testing"

	nexus "github.com/laxmi-narasimha26/b2b-commerce-nexus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordAndCompare(t *testing.T) {
	hash, err := nexus.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	require.NoError(t, nexus.ComparePasswordAndHash("correct horse battery staple", hash))

	err = nexus.ComparePasswordAndHash("wrong password", hash)
	require.Error(t, err)
	assert.True(t, nexus.IsInvalidCredentials(err))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := nexus.HashPassword("")
	assert.ErrorIs(t, err, nexus.ErrNoEmptyString)
}

func TestComparePasswordAndHashRejectsBogusHash(t *testing.T) {
	err := nexus.ComparePasswordAndHash("anything", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, nexus.IsInvalidCredentials(err))
}
