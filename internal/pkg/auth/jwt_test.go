package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmende/npi-registration/internal/app/models"
)

func testService(accessExp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret-key-for-tokens",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "npi-registration-test",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := testService(15 * time.Minute)
	user := &models.User{ID: 42, Email: "registrar@npi.ac.pg", Role: models.RoleRegistrar}

	access, refresh, expiresIn, refreshExpiresIn, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.Equal(t, int((15 * time.Minute).Seconds()), expiresIn)
	assert.Equal(t, int((24 * time.Hour).Seconds()), refreshExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "registrar@npi.ac.pg", claims.Email)
	assert.Equal(t, string(models.RoleRegistrar), claims.Role)
	assert.Equal(t, "npi-registration-test", claims.Issuer)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := testService(-1 * time.Minute)
	user := &models.User{ID: 1, Email: "bursar@npi.ac.pg", Role: models.RoleBursar}

	access, _, _, _, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = svc.ValidateAndExtractClaims(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenSignedWithDifferentSecretRejected(t *testing.T) {
	user := &models.User{ID: 7, Email: "admin@npi.ac.pg", Role: models.RoleAdmin}

	access, _, _, _, err := testService(time.Hour).GenerateTokenPair(user)
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{
		SecretKey:       "a-completely-different-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "npi-registration-test",
	})

	_, err = other.ValidateAndExtractClaims(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := testService(time.Hour).ValidateAndExtractClaims("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = ExtractBearerToken("bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ExtractBearerToken("abc.def.ghi")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ExtractBearerToken("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Registrar!2026")
	require.NoError(t, err)
	require.NotEqual(t, "Registrar!2026", hash)

	assert.True(t, CheckPassword(hash, "Registrar!2026"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}
