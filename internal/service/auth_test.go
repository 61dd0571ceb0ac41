package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenapp/haven-server/internal/auth"
	"github.com/havenapp/haven-server/internal/config"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
)

func newAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()

	tokenService, err := auth.NewTokenService(strings.Repeat("a1", 32), 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	sessions := NewSessionService(env.store, tokenService, logger)
	instances := NewInstanceService(env.store, logger, &config.Config{})
	return NewAuthService(env.store, tokenService, sessions, instances, logger)
}

func TestSetupOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	resp, err := svc.Setup(ctx, SetupRequest{
		Email: "root@example.com", Password: "correct horse", DisplayName: "Root",
	})
	require.NoError(t, err)
	assert.True(t, resp.User.IsRoot)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	_, err = svc.Setup(ctx, SetupRequest{
		Email: "second@example.com", Password: "correct horse", DisplayName: "Second",
	})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyConfigured)
}

func TestRegisterRequiresSetup(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email: "user@example.com", Password: "correct horse", DisplayName: "User",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Setup(ctx, SetupRequest{
		Email: "root@example.com", Password: "correct horse", DisplayName: "Root",
	})
	require.NoError(t, err)

	user, err := svc.Register(ctx, RegisterRequest{
		Email: "user@example.com", Password: "correct horse", DisplayName: "User",
	})
	require.NoError(t, err)
	assert.False(t, user.IsRoot)
	assert.NotEmpty(t, user.AvatarColor)

	// Duplicate email is rejected.
	_, err = svc.Register(ctx, RegisterRequest{
		Email: "user@example.com", Password: "correct horse", DisplayName: "Dupe",
	})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	_, err := svc.Setup(ctx, SetupRequest{
		Email: "root@example.com", Password: "correct horse", DisplayName: "Root",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "root@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)

	// The access token verifies back to the same user.
	user, claims, err := svc.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = svc.Login(ctx, LoginRequest{Email: "root@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	setup, err := svc.Setup(ctx, SetupRequest{
		Email: "root@example.com", Password: "correct horse", DisplayName: "Root",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshTokens(ctx, RefreshRequest{RefreshToken: setup.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, setup.SessionID, refreshed.SessionID)
	assert.NotEqual(t, setup.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is now invalid.
	_, err = svc.RefreshTokens(ctx, RefreshRequest{RefreshToken: setup.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The rotated one still works.
	_, err = svc.RefreshTokens(ctx, RefreshRequest{RefreshToken: refreshed.RefreshToken})
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	setup, err := svc.Setup(ctx, SetupRequest{
		Email: "root@example.com", Password: "correct horse", DisplayName: "Root",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, setup.SessionID))

	_, err = svc.RefreshTokens(ctx, RefreshRequest{RefreshToken: setup.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestValidationMessages(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	_, err := svc.Setup(ctx, SetupRequest{Email: "not-an-email", Password: "correct horse", DisplayName: "X"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "email")

	_, err = svc.Setup(ctx, SetupRequest{Email: "root@example.com", Password: "short", DisplayName: "X"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "password")
}
