package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndParseAdminToken(t *testing.T) {
	token, errSign := SignAdminToken("secret", "operator", time.Hour)
	require.NoError(t, errSign)

	claims, errParse := ParseAdminToken("secret", token)
	require.NoError(t, errParse)
	require.Equal(t, "operator", claims.Username)
}

func TestSignAdminToken_RequiresSecret(t *testing.T) {
	_, errSign := SignAdminToken("  ", "operator", time.Hour)
	require.Error(t, errSign)
}

func TestParseAdminToken_WrongSecret(t *testing.T) {
	token, errSign := SignAdminToken("secret", "operator", time.Hour)
	require.NoError(t, errSign)

	_, errParse := ParseAdminToken("other-secret", token)
	require.Error(t, errParse)
}

func TestParseAdminToken_Expired(t *testing.T) {
	token, errSign := SignAdminToken("secret", "operator", -time.Minute)
	require.NoError(t, errSign)

	_, errParse := ParseAdminToken("secret", token)
	require.Error(t, errParse)
}

func TestVerifyPassword(t *testing.T) {
	hash, errHash := HashPassword("hunter2")
	require.NoError(t, errHash)

	require.True(t, VerifyPassword(hash, "hunter2"))
	require.False(t, VerifyPassword(hash, "wrong"))
	require.False(t, VerifyPassword("not-a-hash", "hunter2"))
}
