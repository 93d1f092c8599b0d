package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateJWT("operator", secret, time.Hour)
	require.NoError(t, err)

	subject, err := ValidateToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "operator", subject)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("operator", []byte("one"), time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, []byte("two"))
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateJWT("operator", []byte("s"), -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, []byte("s"))
	assert.Error(t, err)
}

func TestGenerateJWT_RequiresSubject(t *testing.T) {
	_, err := GenerateJWT("", []byte("s"), time.Hour)
	assert.Error(t, err)
}
