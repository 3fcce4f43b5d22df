package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
	"github.com/kmende/npi-registration/internal/pkg/auth"
)

func newAuthFixture(t *testing.T) (*AuthService, *memUsers) {
	t.Helper()
	users := newMemUsers()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})
	return NewAuthService(users, jwtService, zerolog.Nop()), users
}

func seedUser(t *testing.T, users *memUsers, email, password string, active bool) {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	require.NoError(t, err)
	users.add(&models.User{
		ID:       1,
		Email:    email,
		Password: hashed,
		FullName: "Martha Waiko",
		Role:     models.RoleRegistrar,
		IsActive: active,
	})
}

func TestLoginSuccess(t *testing.T) {
	svc, users := newAuthFixture(t)
	seedUser(t, users, "registrar@npi.ac.pg", "Registrar123!", true)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "registrar@npi.ac.pg",
		Password: "Registrar123!",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, 3600, resp.Token.ExpiresIn)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users := newAuthFixture(t)
	seedUser(t, users, "registrar@npi.ac.pg", "Registrar123!", true)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "registrar@npi.ac.pg",
		Password: "wrong",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@npi.ac.pg",
		Password: "whatever",
	})
	// Indistinguishable from a wrong password
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	seedUser(t, users, "registrar@npi.ac.pg", "Registrar123!", false)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "registrar@npi.ac.pg",
		Password: "Registrar123!",
	})
	require.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}
