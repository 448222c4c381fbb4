package security

import (
	"testing"
	"time"

	"github.com/coolchillgy/pay/src/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService() *AuthService {
	config.Cfg = &config.AppConfig{TokenExpiry: time.Hour}
	return NewAuthService("test-secret-key-that-is-long-enough!")
}

func TestTokenRoundTrip(t *testing.T) {
	auth := newTestAuthService()

	token, err := auth.GenerateToken(7, RoleCompany, 7)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, RoleCompany, claims.Role)
	assert.Equal(t, int64(7), claims.CompanyID)
}

func TestAdminTokenHasNoCompany(t *testing.T) {
	auth := newTestAuthService()

	token, err := auth.GenerateToken(1, RoleAdmin, 0)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Zero(t, claims.CompanyID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	auth := newTestAuthService()
	token, err := auth.GenerateToken(1, RoleAdmin, 0)
	require.NoError(t, err)

	other := NewAuthService("a-completely-different-secret-value!")
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuthService()
	_, err := auth.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	auth := newTestAuthService()

	hash, err := auth.HashPassword("79797979")
	require.NoError(t, err)
	assert.NoError(t, auth.CompareHashAndPassword(hash, "79797979"))
	assert.Error(t, auth.CompareHashAndPassword(hash, "wrong"))
}

func TestGenerateAPIKeyIsUnique(t *testing.T) {
	auth := newTestAuthService()

	first, err := auth.GenerateAPIKey()
	require.NoError(t, err)
	second, err := auth.GenerateAPIKey()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestGenerateAPIKeyIsURLSafe(t *testing.T) {
	auth := newTestAuthService()

	for i := 0; i < 10; i++ {
		key, err := auth.GenerateAPIKey()
		require.NoError(t, err)
		// The key is a path segment in the webhook URL: no padding,
		// no characters needing escaping.
		assert.NotContains(t, key, "=")
		assert.NotContains(t, key, "/")
		assert.NotContains(t, key, "+")
	}
}
