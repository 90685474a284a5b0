package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/domain"
	"github.com/joblo-ai/backend/internal/repository"
	"github.com/joblo-ai/backend/internal/repository/mocks"
	"github.com/joblo-ai/backend/pkg/auth"
	"github.com/joblo-ai/backend/pkg/hash"
	"github.com/joblo-ai/backend/pkg/otp"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockTokenManager struct {
	mock.Mock
}

func (m *mockTokenManager) NewAccessToken(userID uuid.UUID, tokenVersion int, email string, role string) (string, time.Duration, error) {
	args := m.Called(userID, tokenVersion, email, role)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *mockTokenManager) NewRefreshToken(userID uuid.UUID, tokenVersion int) (string, time.Duration, error) {
	args := m.Called(userID, tokenVersion)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *mockTokenManager) ParseAccessToken(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if claims := args.Get(0); claims != nil {
		return claims.(*auth.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenManager) ParseRefreshToken(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if claims := args.Get(0); claims != nil {
		return claims.(*auth.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) DispatchCode(ctx context.Context, record *domain.CodeVerification, code string) error {
	return m.Called(ctx, record, code).Error(0)
}

type mockTOTP struct {
	mock.Mock
}

func (m *mockTOTP) GenerateSecret() string {
	return m.Called().String(0)
}

func (m *mockTOTP) ProvisioningURI(secret string, account string, issuer string) string {
	return m.Called(secret, account, issuer).String(0)
}

func (m *mockTOTP) Verify(secret string, code string, driftSteps int) bool {
	return m.Called(secret, code, driftSteps).Bool(0)
}

type mockTOTPSetupCache struct {
	mock.Mock
}

func (m *mockTOTPSetupCache) Set(ctx context.Context, userID uuid.UUID, secret string, ttl time.Duration) error {
	return m.Called(ctx, userID, secret, ttl).Error(0)
}

func (m *mockTOTPSetupCache) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockTOTPSetupCache) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type testEnv struct {
	users        *mocks.Users
	records      *mocks.CodeVerifications
	tokenManager *mockTokenManager
	dispatcher   *mockDispatcher
	totp         *mockTOTP
	setupCache   *mockTOTPSetupCache
	hasher       hash.PasswordHasher
	services     *Services
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			BcryptCost:     4,
			BrandName:      "Joblo AI",
			TOTPSetupTTL:   10 * time.Minute,
			TOTPDriftSteps: 2,
		},
		CodeVerification: config.CodeVerificationConfig{
			CodeLength:            4,
			LinkTokenLength:       50,
			MaxRetryAttempts:      5,
			Expiration:            10 * time.Minute,
			PassedCodeExpiration:  10 * time.Minute,
			ResendBackoff:         []int{30, 60, 120, 300},
			ResendLimitInSession:  5,
			ResendSessionDuration: 30 * time.Minute,
		},
	}
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:        new(mocks.Users),
		records:      new(mocks.CodeVerifications),
		tokenManager: new(mockTokenManager),
		dispatcher:   new(mockDispatcher),
		totp:         new(mockTOTP),
		setupCache:   new(mockTOTPSetupCache),
	}
	env.hasher, _ = hash.NewBcryptHasher(4)

	env.services = NewServices(Deps{
		Repos: &repository.Repositories{
			Users:             env.users,
			CodeVerifications: env.records,
		},
		TokenManager:   env.tokenManager,
		Hasher:         env.hasher,
		OTPGenerator:   otp.NewGenerator(),
		TOTP:           env.totp,
		TOTPSetupCache: env.setupCache,
		Dispatcher:     env.dispatcher,
		Config:         testConfig(),
	})

	return env
}

func (e *testEnv) expectSession(userID uuid.UUID, tokenVersion int) {
	e.tokenManager.On("NewAccessToken", userID, tokenVersion, mock.Anything, mock.Anything).
		Return("access-token", 15*time.Minute, nil)
	e.tokenManager.On("NewRefreshToken", userID, tokenVersion).
		Return("refresh-token", 168*time.Hour, nil)
	e.users.On("UpdateRefreshToken", mock.Anything, userID, mock.Anything, mock.Anything).
		Return(nil)
	e.users.On("UpdateLastSigninAt", mock.Anything, userID, mock.Anything).
		Return(nil)
}

func (e *testEnv) testUser(password string) *domain.User {
	hashed, _ := e.hasher.Hash(password)
	now := time.Now()
	return &domain.User{
		ID:            uuid.New(),
		Email:         sql.NullString{String: "user@example.com", Valid: true},
		Role:          domain.RoleUser,
		PasswordHash:  hashed,
		EmailVerified: true,
		TokenVersion:  1,
		IsActive:      true,
		CreatedAt:     now,
	}
}
