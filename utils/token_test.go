package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ExtractUserIDFromToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestExtractUserIDFromTokenRejectsBadHeaders(t *testing.T) {
	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		_, err := ExtractUserIDFromToken(header)
		assert.Error(t, err, "header %q", header)
	}
}

func TestGenerateRefreshTokenIsOpaqueAndUnique(t *testing.T) {
	first, err := GenerateRefreshToken()
	require.NoError(t, err)
	second, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}

func TestHashTokenIsDeterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
