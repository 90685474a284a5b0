package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/joblo-ai/backend/internal/cache"
	"github.com/joblo-ai/backend/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSetupAuthenticatorCachesSecret(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	env.totp.On("GenerateSecret").Return("JBSWY3DPEHPK3PXP")
	env.setupCache.On("Set", mock.Anything, user.ID, "JBSWY3DPEHPK3PXP", 10*time.Minute).
		Return(nil)
	env.totp.On("ProvisioningURI", "JBSWY3DPEHPK3PXP", "user@example.com", "Joblo AI").
		Return("otpauth://totp/example")

	setup, err := env.services.TwoFactor.SetupAuthenticator(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "JBSWY3DPEHPK3PXP", setup.Secret)
	require.Equal(t, "otpauth://totp/example", setup.ProvisioningURI)

	// Setup alone must not touch the stored secret.
	env.users.AssertNotCalled(t, "SetTOTPSecret", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAuthenticatorPromotesSecret(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.setupCache.On("Get", mock.Anything, user.ID).Return("JBSWY3DPEHPK3PXP", nil)
	env.totp.On("Verify", "JBSWY3DPEHPK3PXP", "123456", 2).Return(true)
	env.users.On("SetTOTPSecret", mock.Anything, user.ID,
		sql.NullString{String: "JBSWY3DPEHPK3PXP", Valid: true}).Return(nil)
	env.users.On("UpdateTwoFactor", mock.Anything, user.ID, true,
		sql.NullString{String: string(domain.TwoFactorAuthenticatorApp), Valid: true}).Return(nil)
	env.setupCache.On("Delete", mock.Anything, user.ID).Return(nil)

	err := env.services.TwoFactor.VerifyAuthenticator(context.Background(), user.ID, "123456")
	require.NoError(t, err)
	env.setupCache.AssertCalled(t, "Delete", mock.Anything, user.ID)
}

func TestVerifyAuthenticatorWrongCode(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.setupCache.On("Get", mock.Anything, user.ID).Return("JBSWY3DPEHPK3PXP", nil)
	env.totp.On("Verify", "JBSWY3DPEHPK3PXP", "000000", 2).Return(false)

	err := env.services.TwoFactor.VerifyAuthenticator(context.Background(), user.ID, "000000")
	require.ErrorIs(t, err, ErrInvalidCode)
	env.users.AssertNotCalled(t, "SetTOTPSecret", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAuthenticatorNoPendingSetup(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.setupCache.On("Get", mock.Anything, user.ID).Return("", cache.ErrKeyNotFound)

	err := env.services.TwoFactor.VerifyAuthenticator(context.Background(), user.ID, "123456")
	require.ErrorIs(t, err, ErrAuthenticatorNotSetup)
}

func signinChallengedUser(env *testEnv) *domain.User {
	user := env.testUser("password123")
	user.TwoFactorActivated = true
	user.TwoFactorType = sql.NullString{String: string(domain.TwoFactorAuthenticatorApp), Valid: true}
	user.TOTPSecret = sql.NullString{String: "JBSWY3DPEHPK3PXP", Valid: true}
	now := time.Now()
	user.LastSigninAt = &now
	return user
}

func TestVerifySigninTOTPSuccess(t *testing.T) {
	env := newTestEnv()
	user := signinChallengedUser(env)

	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	env.totp.On("Verify", "JBSWY3DPEHPK3PXP", "123456", 2).Return(true)
	env.expectSession(user.ID, user.TokenVersion)

	tokens, err := env.services.TwoFactor.VerifySigninTOTP(context.Background(), user.ID, "123456")
	require.NoError(t, err)
	require.Equal(t, "access-token", tokens.AccessToken)
}

func TestVerifySigninTOTPChallengeWindowClosed(t *testing.T) {
	env := newTestEnv()
	user := signinChallengedUser(env)
	stale := time.Now().Add(-time.Hour)
	user.LastSigninAt = &stale

	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	_, err := env.services.TwoFactor.VerifySigninTOTP(context.Background(), user.ID, "123456")
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestVerifySigninTOTPNotEnabled(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	_, err := env.services.TwoFactor.VerifySigninTOTP(context.Background(), user.ID, "123456")
	require.ErrorIs(t, err, ErrTwoFactorNotEnabled)
}

func TestEnableRequiresVerifiedContact(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")
	user.EmailVerified = false

	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err := env.services.TwoFactor.Enable(context.Background(), user.ID, domain.TwoFactorEmail)
	require.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestEnableAlreadyEnabled(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")
	user.TwoFactorActivated = true

	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err := env.services.TwoFactor.Enable(context.Background(), user.ID, domain.TwoFactorEmail)
	require.ErrorIs(t, err, ErrTwoFactorAlreadyEnabled)
}

func TestDisableClearsSecret(t *testing.T) {
	env := newTestEnv()
	user := signinChallengedUser(env)

	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	env.users.On("UpdateTwoFactor", mock.Anything, user.ID, false, sql.NullString{}).Return(nil)
	env.users.On("SetTOTPSecret", mock.Anything, user.ID, sql.NullString{}).Return(nil)

	err := env.services.TwoFactor.Disable(context.Background(), user.ID)
	require.NoError(t, err)
	env.users.AssertCalled(t, "SetTOTPSecret", mock.Anything, user.ID, sql.NullString{})
}
