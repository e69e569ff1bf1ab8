package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAPIToken(t *testing.T) {
	raw, token, err := IssueAPIToken(7)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	assert.True(t, strings.HasPrefix(raw, tokenPrefix))
	assert.Equal(t, uint(7), token.UserID)
	assert.Equal(t, HashAccessToken(raw), token.TokenHash)
	assert.Len(t, token.TokenHash, 64)
	assert.True(t, strings.HasPrefix(raw, token.Prefix))
	assert.True(t, token.IsActive())
}

func TestIssueAPITokenIsRandom(t *testing.T) {
	a, _, err := IssueAPIToken(1)
	require.NoError(t, err)
	b, _, err := IssueAPIToken(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAPITokenRevoke(t *testing.T) {
	_, token, err := IssueAPIToken(3)
	require.NoError(t, err)

	token.Revoke()

	assert.False(t, token.IsActive())
	assert.NotNil(t, token.RevokedAt)
}

func TestHashAccessTokenTrimsWhitespace(t *testing.T) {
	assert.Equal(t, HashAccessToken("abc"), HashAccessToken("  abc \n"))
}
