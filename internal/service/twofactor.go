package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joblo-ai/backend/internal/cache"
	"github.com/joblo-ai/backend/internal/domain"
	"github.com/joblo-ai/backend/internal/repository"
	"github.com/joblo-ai/backend/pkg/otp"

	"github.com/google/uuid"
)

type twoFactorService struct {
	users      repository.Users
	totp       otp.TOTP
	setupCache cache.TOTPSetupCache
	sessions   *authService

	brandName  string
	setupTTL   time.Duration
	driftSteps int
}

func newTwoFactorService(deps Deps, sessions *authService) *twoFactorService {
	return &twoFactorService{
		users:      deps.Repos.Users,
		totp:       deps.TOTP,
		setupCache: deps.TOTPSetupCache,
		sessions:   sessions,
		brandName:  deps.Config.Auth.BrandName,
		setupTTL:   deps.Config.Auth.TOTPSetupTTL,
		driftSteps: deps.Config.Auth.TOTPDriftSteps,
	}
}

// SetupAuthenticator generates a fresh secret and parks it in the cache until
// the user proves their device with VerifyAuthenticator. Nothing is written
// to the user record yet; an abandoned setup just expires.
func (s *twoFactorService) SetupAuthenticator(ctx context.Context, userID uuid.UUID) (*TOTPSetup, error) {
	const op = "service.twoFactor.SetupAuthenticator"

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret := s.totp.GenerateSecret()

	if err := s.setupCache.Set(ctx, userID, secret, s.setupTTL); err != nil {
		return nil, fmt.Errorf("%s: cache secret failed: %w", op, err)
	}

	return &TOTPSetup{
		Secret:          secret,
		ProvisioningURI: s.totp.ProvisioningURI(secret, user.Contact(), s.brandName),
	}, nil
}

// VerifyAuthenticator confirms the pending secret against a live code and
// promotes it: the secret is persisted and two-factor switches to the
// authenticator app in one go.
func (s *twoFactorService) VerifyAuthenticator(ctx context.Context, userID uuid.UUID, code string) error {
	const op = "service.twoFactor.VerifyAuthenticator"

	secret, err := s.setupCache.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return ErrAuthenticatorNotSetup
		}
		return fmt.Errorf("%s: read pending secret failed: %w", op, err)
	}

	if !s.totp.Verify(secret, code, s.driftSteps) {
		return ErrInvalidCode
	}

	err = s.users.SetTOTPSecret(ctx, userID, sql.NullString{String: secret, Valid: true})
	if err != nil {
		return fmt.Errorf("%s: store secret failed: %w", op, err)
	}

	err = s.users.UpdateTwoFactor(ctx, userID, true,
		sql.NullString{String: string(domain.TwoFactorAuthenticatorApp), Valid: true})
	if err != nil {
		return fmt.Errorf("%s: enable two-factor failed: %w", op, err)
	}

	if err := s.setupCache.Delete(ctx, userID); err != nil {
		return fmt.Errorf("%s: drop pending secret failed: %w", op, err)
	}

	return nil
}

// VerifySigninTOTP completes a sign-in challenged with the authenticator app.
func (s *twoFactorService) VerifySigninTOTP(ctx context.Context, userID uuid.UUID, code string) (*Tokens, error) {
	const op = "service.twoFactor.VerifySigninTOTP"

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.TwoFactorActivated ||
		user.TwoFactorType.String != string(domain.TwoFactorAuthenticatorApp) {
		return nil, ErrTwoFactorNotEnabled
	}

	if !user.TOTPSecret.Valid || user.TOTPSecret.String == "" {
		return nil, ErrAuthenticatorNotSetup
	}

	// The challenge is only open for a short window after the password stage
	// stamped last_signin_at.
	if user.LastSigninAt == nil ||
		time.Now().After(user.LastSigninAt.Add(s.sessions.passedCodeExpiration)) {
		return nil, ErrSessionExpired
	}

	if !s.totp.Verify(user.TOTPSecret.String, code, s.driftSteps) {
		return nil, ErrInvalidCode
	}

	tokens, err := s.sessions.CreateSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: create session failed: %w", op, err)
	}

	return tokens, nil
}

// Enable turns on two-factor over email or phone directly; the authenticator
// app path must go through setup and verification instead.
func (s *twoFactorService) Enable(ctx context.Context, userID uuid.UUID, twoFactorType domain.TwoFactorType) error {
	const op = "service.twoFactor.Enable"

	if !twoFactorType.Valid() {
		return ErrInvalidPurpose
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.TwoFactorActivated {
		return ErrTwoFactorAlreadyEnabled
	}

	switch twoFactorType {
	case domain.TwoFactorEmail:
		if !user.EmailVerified {
			return ErrEmailNotVerified
		}
	case domain.TwoFactorPhone:
		if !user.PhoneVerified {
			return ErrPhoneNotVerified
		}
	case domain.TwoFactorAuthenticatorApp:
		if !user.TOTPSecret.Valid || user.TOTPSecret.String == "" {
			return ErrAuthenticatorNotSetup
		}
	}

	err = s.users.UpdateTwoFactor(ctx, userID, true,
		sql.NullString{String: string(twoFactorType), Valid: true})
	if err != nil {
		return fmt.Errorf("%s: enable two-factor failed: %w", op, err)
	}

	return nil
}

func (s *twoFactorService) Disable(ctx context.Context, userID uuid.UUID) error {
	const op = "service.twoFactor.Disable"

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.TwoFactorActivated {
		return ErrTwoFactorNotEnabled
	}

	if err := s.users.UpdateTwoFactor(ctx, userID, false, sql.NullString{}); err != nil {
		return fmt.Errorf("%s: disable two-factor failed: %w", op, err)
	}

	if err := s.users.SetTOTPSecret(ctx, userID, sql.NullString{}); err != nil {
		return fmt.Errorf("%s: clear secret failed: %w", op, err)
	}

	return nil
}

func (s *twoFactorService) getUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	const op = "service.twoFactor.getUser"

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: get user failed: %w", op, err)
	}

	if err := guardUsable(user); err != nil {
		return nil, err
	}

	return user, nil
}
