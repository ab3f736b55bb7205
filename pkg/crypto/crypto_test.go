package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("tracker-secret-1")
	require.NoError(t, err)
	require.NotEqual(t, "tracker-secret-1", hash)

	require.True(t, VerifyPassword(hash, "tracker-secret-1"))
	require.False(t, VerifyPassword(hash, "wrong"))
}

func TestGenerateTokenIsRandomAndURLSafe(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NotContains(t, a, "+")
	require.NotContains(t, a, "/")
	require.NotContains(t, a, "=")
}
