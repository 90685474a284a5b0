package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/joblo-ai/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Users             Users
	CodeVerifications CodeVerifications
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:             newUserRepository(db),
		CodeVerifications: newCodeVerificationRepository(db),
	}
}

type Users interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string, countryCode string) (*domain.User, error)
	CountByEmailExcept(ctx context.Context, email string, exceptID uuid.UUID) (int, error)
	CountByPhoneExcept(ctx context.Context, phone string, countryCode string, exceptID uuid.UUID) (int, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token sql.NullString, expiresAt *time.Time) error
	BumpTokenVersion(ctx context.Context, id uuid.UUID) error
	UpdateLastSigninAt(ctx context.Context, id uuid.UUID, at time.Time) error

	UpdateEmail(ctx context.Context, id uuid.UUID, email string, verified bool) error
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string, countryCode string, verified bool) error
	SetEmailVerifiedByID(ctx context.Context, id uuid.UUID) error
	SetPhoneVerifiedByID(ctx context.Context, id uuid.UUID) error
	SetEmailVerifiedByEmail(ctx context.Context, email string) error
	SetPhoneVerifiedByPhone(ctx context.Context, phone string, countryCode string) error

	UpdateTwoFactor(ctx context.Context, id uuid.UUID, activated bool, twoFactorType sql.NullString) error
	SetTOTPSecret(ctx context.Context, id uuid.UUID, secret sql.NullString) error

	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type CodeVerifications interface {
	Create(ctx context.Context, record *domain.CodeVerification) error
	GetActiveByID(ctx context.Context, id uuid.UUID) (*domain.CodeVerification, error)
	GetActiveForVerification(ctx context.Context, id uuid.UUID) (*domain.CodeVerification, error)
	GetPassedActive(ctx context.Context, id uuid.UUID, purpose domain.CodeVerificationPurpose) (*domain.CodeVerification, error)
	ListRecentAttempts(ctx context.Context, fp domain.CodeVerificationFingerprint, since time.Time) ([]domain.CodeVerification, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateOlderActive(ctx context.Context, fp domain.CodeVerificationFingerprint, exceptID uuid.UUID) error
	UpdateResult(ctx context.Context, record *domain.CodeVerification) error
	UpdateOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
}
