package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("u123", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u123", claims.UserID)
	assert.Equal(t, "alice", claims.Handle)
	assert.Equal(t, "linkup", claims.Issuer)
}

func TestValidTokenRejectsGarbage(t *testing.T) {
	_, err := ValidToken("not-a-token")
	assert.Error(t, err)
}

func TestVerifierYieldsUserID(t *testing.T) {
	token, err := GenerateToken("u123", "alice")
	require.NoError(t, err)

	verifier := NewJWTVerifier()
	userID, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u123", userID)
}

func TestVerifierWrapsAuthFailure(t *testing.T) {
	verifier := NewJWTVerifier()
	_, err := verifier.Verify("bogus")
	assert.ErrorIs(t, err, ErrAuthFailed)
}
