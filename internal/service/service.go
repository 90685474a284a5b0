package service

import (
	"context"
	"time"

	"github.com/joblo-ai/backend/internal/cache"
	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/domain"
	"github.com/joblo-ai/backend/internal/repository"
	"github.com/joblo-ai/backend/pkg/auth"
	"github.com/joblo-ai/backend/pkg/hash"
	"github.com/joblo-ai/backend/pkg/otp"

	"github.com/google/uuid"
)

// Tokens is a freshly minted access/refresh pair.
type Tokens struct {
	AccessToken     string
	AccessTokenTTL  time.Duration
	RefreshToken    string
	RefreshTokenTTL time.Duration
}

// CodeDispatcher hands a generated code off for delivery. Implementations
// enqueue, they do not send inline.
type CodeDispatcher interface {
	DispatchCode(ctx context.Context, record *domain.CodeVerification, code string) error
}

type SignInInput struct {
	Email              string
	Phone              string
	CountryCode        string
	Password           string
	CodeVerificationID *uuid.UUID
}

// SignInOutcome either carries tokens or flags that a second factor is still
// required, never both.
type SignInOutcome struct {
	User              *domain.User
	Tokens            *Tokens
	TwoFactorRequired bool
	TwoFactorType     domain.TwoFactorType
}

type SignUpInput struct {
	CodeVerificationID uuid.UUID
	FirstName          string
	LastName           string
	Password           string
}

type Availability struct {
	EmailInUse bool
	PhoneInUse bool
}

type Auth interface {
	SignUp(ctx context.Context, input SignUpInput) (*domain.User, *Tokens, error)
	SignIn(ctx context.Context, input SignInInput) (*SignInOutcome, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	SignOut(ctx context.Context, userID uuid.UUID) error
	SignOutAll(ctx context.Context, userID uuid.UUID) error
	ResetPassword(ctx context.Context, codeVerificationID uuid.UUID, password string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string, signOutOthers bool) error
	UserByAccessToken(ctx context.Context, token string) (*domain.User, error)
	CheckAvailability(ctx context.Context, email string, phone string, countryCode string) (*Availability, error)
	CreateSession(ctx context.Context, user *domain.User) (*Tokens, error)
}

type CodeVerificationInput struct {
	Purpose     domain.CodeVerificationPurpose
	Email       string
	Phone       string
	CountryCode string

	// UseLink selects an opaque link token instead of a numeric code. Link
	// records are redeemed through the link endpoint, never by code
	// submission.
	UseLink bool

	// AuthUser is set for purposes that require an authenticated caller.
	AuthUser *domain.User
}

// SubmitOutcome carries the record after a code submission; Tokens is set
// only when the purpose completes a sign-in.
type SubmitOutcome struct {
	View   domain.CodeVerificationView
	Tokens *Tokens
}

type CodeVerifications interface {
	Request(ctx context.Context, input CodeVerificationInput) (*domain.CodeVerificationView, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.CodeVerificationView, error)
	Resend(ctx context.Context, id uuid.UUID) (*domain.CodeVerificationView, error)
	Submit(ctx context.Context, id uuid.UUID, code string) (*SubmitOutcome, error)
}

type TOTPSetup struct {
	Secret          string
	ProvisioningURI string
}

type TwoFactor interface {
	SetupAuthenticator(ctx context.Context, userID uuid.UUID) (*TOTPSetup, error)
	VerifyAuthenticator(ctx context.Context, userID uuid.UUID, code string) error
	VerifySigninTOTP(ctx context.Context, userID uuid.UUID, code string) (*Tokens, error)
	Enable(ctx context.Context, userID uuid.UUID, twoFactorType domain.TwoFactorType) error
	Disable(ctx context.Context, userID uuid.UUID) error
}

type Services struct {
	Auth              Auth
	CodeVerifications CodeVerifications
	TwoFactor         TwoFactor
}

type Deps struct {
	Repos          *repository.Repositories
	TokenManager   auth.TokenManager
	Hasher         hash.PasswordHasher
	OTPGenerator   otp.Generator
	TOTP           otp.TOTP
	TOTPSetupCache cache.TOTPSetupCache
	Dispatcher     CodeDispatcher
	Config         *config.Config
}

func NewServices(deps Deps) *Services {
	authService := newAuthService(deps)
	codeVerificationService := newCodeVerificationService(deps, authService)
	twoFactorService := newTwoFactorService(deps, authService)

	return &Services{
		Auth:              authService,
		CodeVerifications: codeVerificationService,
		TwoFactor:         twoFactorService,
	}
}
