package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain digits", "1234567890123456", "**** **** **** 3456"},
		{"spaced digits", "1234 5678 9012 3456", "**** **** **** 3456"},
		{"short value passes through", "3456", "3456"},
		{"empty", "", ""},
		{"already masked passes through", "**** **** **** 3456", "**** **** **** 3456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskCardNumber(tt.in))
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("admin", true, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.True(t, claims.IsAdmin)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestTokenSecretComesFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	token, err := GenerateToken("admin", true, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	// Rotating the secret invalidates previously issued tokens
	t.Setenv("JWT_SECRET", "second-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("admin", true, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-admin-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-admin-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-admin-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
