package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/joblo-ai/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type Users struct {
	mock.Mock
}

func (m *Users) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *Users) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Users) GetByPhone(ctx context.Context, phone string, countryCode string) (*domain.User, error) {
	args := m.Called(ctx, phone, countryCode)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Users) CountByEmailExcept(ctx context.Context, email string, exceptID uuid.UUID) (int, error) {
	args := m.Called(ctx, email, exceptID)
	return args.Int(0), args.Error(1)
}

func (m *Users) CountByPhoneExcept(ctx context.Context, phone string, countryCode string, exceptID uuid.UUID) (int, error) {
	args := m.Called(ctx, phone, countryCode, exceptID)
	return args.Int(0), args.Error(1)
}

func (m *Users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *Users) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token sql.NullString, expiresAt *time.Time) error {
	return m.Called(ctx, id, token, expiresAt).Error(0)
}

func (m *Users) BumpTokenVersion(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Users) UpdateLastSigninAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *Users) UpdateEmail(ctx context.Context, id uuid.UUID, email string, verified bool) error {
	return m.Called(ctx, id, email, verified).Error(0)
}

func (m *Users) UpdatePhone(ctx context.Context, id uuid.UUID, phone string, countryCode string, verified bool) error {
	return m.Called(ctx, id, phone, countryCode, verified).Error(0)
}

func (m *Users) SetEmailVerifiedByID(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Users) SetPhoneVerifiedByID(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *Users) SetEmailVerifiedByEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *Users) SetPhoneVerifiedByPhone(ctx context.Context, phone string, countryCode string) error {
	return m.Called(ctx, phone, countryCode).Error(0)
}

func (m *Users) UpdateTwoFactor(ctx context.Context, id uuid.UUID, activated bool, twoFactorType sql.NullString) error {
	return m.Called(ctx, id, activated, twoFactorType).Error(0)
}

func (m *Users) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret sql.NullString) error {
	return m.Called(ctx, id, secret).Error(0)
}

func (m *Users) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type CodeVerifications struct {
	mock.Mock
}

func (m *CodeVerifications) Create(ctx context.Context, record *domain.CodeVerification) error {
	return m.Called(ctx, record).Error(0)
}

func (m *CodeVerifications) GetActiveByID(ctx context.Context, id uuid.UUID) (*domain.CodeVerification, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*domain.CodeVerification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CodeVerifications) GetActiveForVerification(ctx context.Context, id uuid.UUID) (*domain.CodeVerification, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*domain.CodeVerification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CodeVerifications) GetPassedActive(ctx context.Context, id uuid.UUID, purpose domain.CodeVerificationPurpose) (*domain.CodeVerification, error) {
	args := m.Called(ctx, id, purpose)
	if r := args.Get(0); r != nil {
		return r.(*domain.CodeVerification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CodeVerifications) ListRecentAttempts(ctx context.Context, fp domain.CodeVerificationFingerprint, since time.Time) ([]domain.CodeVerification, error) {
	args := m.Called(ctx, fp, since)
	if r := args.Get(0); r != nil {
		return r.([]domain.CodeVerification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CodeVerifications) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *CodeVerifications) DeactivateOlderActive(ctx context.Context, fp domain.CodeVerificationFingerprint, exceptID uuid.UUID) error {
	return m.Called(ctx, fp, exceptID).Error(0)
}

func (m *CodeVerifications) UpdateResult(ctx context.Context, record *domain.CodeVerification) error {
	return m.Called(ctx, record).Error(0)
}

func (m *CodeVerifications) UpdateOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return m.Called(ctx, id, code, expiresAt).Error(0)
}
