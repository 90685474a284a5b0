package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/domain"
	"github.com/joblo-ai/backend/internal/repository"
	"github.com/joblo-ai/backend/pkg/logger"
	"github.com/joblo-ai/backend/pkg/otp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type codeVerificationService struct {
	users      repository.Users
	records    repository.CodeVerifications
	generator  otp.Generator
	dispatcher CodeDispatcher
	sessions   *authService

	policy *resendPolicy
	cfg    config.CodeVerificationConfig

	// sideEffects maps a purpose to what happens when its code passes.
	// Purposes without an entry pass without touching the user record.
	sideEffects map[domain.CodeVerificationPurpose]func(ctx context.Context, record *domain.CodeVerification) error
}

func newCodeVerificationService(deps Deps, sessions *authService) *codeVerificationService {
	s := &codeVerificationService{
		users:      deps.Repos.Users,
		records:    deps.Repos.CodeVerifications,
		generator:  deps.OTPGenerator,
		dispatcher: deps.Dispatcher,
		sessions:   sessions,
		policy:     newResendPolicy(deps.Config.CodeVerification),
		cfg:        deps.Config.CodeVerification,
	}

	s.sideEffects = map[domain.CodeVerificationPurpose]func(context.Context, *domain.CodeVerification) error{
		domain.PurposePreSignup:               s.applyPreSignup,
		domain.PurposeUserEmailUpdate:         s.applyEmailUpdate,
		domain.PurposeUserPhoneUpdate:         s.applyPhoneUpdate,
		domain.PurposeUpdate2FASettingToEmail: s.applyTwoFactorToEmail,
		domain.PurposeUpdate2FASettingToPhone: s.applyTwoFactorToPhone,
		domain.PurposeForgot2FA:               s.applyForgot2FA,
	}

	return s
}

// Request validates the purpose, enforces the resend gate and issues a new
// code for the fingerprint. Any older active codes in the same lane are
// superseded.
func (s *codeVerificationService) Request(ctx context.Context, input CodeVerificationInput) (*domain.CodeVerificationView, error) {
	const op = "service.codeVerification.Request"

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if !input.Purpose.Valid() {
		return nil, ErrInvalidPurpose
	}

	if err := validateContact(input.Email, input.Phone, input.CountryCode); err != nil {
		return nil, err
	}

	if input.UseLink && input.Email == "" {
		return nil, ErrLinkRequiresEmail
	}

	target, err := s.resolveTarget(ctx, &input)
	if err != nil {
		return nil, err
	}

	fp := domain.CodeVerificationFingerprint{
		Email:       input.Email,
		Phone:       input.Phone,
		CountryCode: input.CountryCode,
		Purpose:     input.Purpose,
	}
	var userID *uuid.UUID
	var lastSigninAt *time.Time
	if target != nil {
		userID = &target.ID
		lastSigninAt = target.LastSigninAt
	}

	now := time.Now()

	attempts, err := s.records.ListRecentAttempts(ctx, fp,
		s.policy.SessionStart(now, input.Purpose, lastSigninAt))
	if err != nil {
		return nil, fmt.Errorf("%s: list attempts failed: %w", op, err)
	}

	if err := s.policy.Check(attempts, now); err != nil {
		return nil, err
	}

	record := &domain.CodeVerification{
		ID:              uuid.New(),
		UserID:          userID,
		Purpose:         input.Purpose,
		Status:          domain.CodeVerificationPending,
		MaxRetryAttempt: s.cfg.MaxRetryAttempts,
		ResendDuration:  s.policy.NextResendDuration(len(attempts)),
		IsActive:        true,
		CreatedAt:       now,
	}

	if input.Email != "" {
		record.Email = sql.NullString{String: input.Email, Valid: true}
	} else {
		record.Phone = sql.NullString{String: input.Phone, Valid: true}
		record.CountryCode = sql.NullString{String: input.CountryCode, Valid: true}
	}

	code, err := s.fillSecret(record, input.UseLink)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: create record failed: %w", op, err)
	}

	if err := s.records.DeactivateOlderActive(ctx, fp, record.ID); err != nil {
		return nil, fmt.Errorf("%s: supersede older records failed: %w", op, err)
	}

	s.dispatch(ctx, record, code)

	view := record.View()
	return &view, nil
}

// Get returns the caller-facing view of an active record, expiring it lazily:
// an overdue Pending/Failed code and an overdue Passed record are both
// deactivated on read.
func (s *codeVerificationService) Get(ctx context.Context, id uuid.UUID) (*domain.CodeVerificationView, error) {
	const op = "service.codeVerification.Get"

	record, err := s.records.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrCodeVerificationNotFound
		}
		return nil, fmt.Errorf("%s: get record failed: %w", op, err)
	}

	now := time.Now()

	switch record.Status {
	case domain.CodeVerificationPending, domain.CodeVerificationFailed:
		if s.codeExpired(record, now) {
			if err := s.records.Deactivate(ctx, record.ID); err != nil {
				return nil, fmt.Errorf("%s: deactivate failed: %w", op, err)
			}
			return nil, ErrCodeExpired
		}
	case domain.CodeVerificationPassed:
		if record.VerificationPerformedAt == nil ||
			now.After(record.VerificationPerformedAt.Add(s.cfg.PassedCodeExpiration)) {
			if err := s.records.Deactivate(ctx, record.ID); err != nil {
				return nil, fmt.Errorf("%s: deactivate failed: %w", op, err)
			}
			return nil, ErrSessionExpired
		}
	}

	view := record.View()
	return &view, nil
}

// Resend regenerates the OTP on an existing record once its own resend
// window has elapsed. The attempt budget and session cap are unchanged; only
// the secret and its expiry move.
func (s *codeVerificationService) Resend(ctx context.Context, id uuid.UUID) (*domain.CodeVerificationView, error) {
	const op = "service.codeVerification.Resend"

	record, err := s.records.GetActiveForVerification(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrCodeVerificationNotFound
		}
		return nil, fmt.Errorf("%s: get record failed: %w", op, err)
	}

	now := time.Now()

	allowedAfter := record.CreatedAt.Add(time.Duration(record.ResendDuration) * time.Second)
	if now.Before(allowedAfter) {
		return nil, &ResendNotAvailableError{
			RetryAfterSeconds: int(allowedAfter.Sub(now).Seconds() + 0.5),
		}
	}

	code, err := s.generator.RandomCode(s.cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("%s: generate code failed: %w", op, err)
	}

	expiresAt := now.Add(s.cfg.Expiration)
	if err := s.records.UpdateOTP(ctx, record.ID, code, expiresAt); err != nil {
		return nil, fmt.Errorf("%s: update otp failed: %w", op, err)
	}
	record.OTPCode = sql.NullString{String: code, Valid: true}
	record.OTPExpiresAt = &expiresAt

	s.dispatch(ctx, record, code)

	view := record.View()
	return &view, nil
}

// Submit checks a code against the record. Result persistence always comes
// before purpose side effects, so a crash in between leaves a Passed record
// the caller can retry against rather than a half-applied transition.
func (s *codeVerificationService) Submit(ctx context.Context, id uuid.UUID, code string) (*SubmitOutcome, error) {
	const op = "service.codeVerification.Submit"

	record, err := s.records.GetActiveForVerification(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrCodeVerificationNotFound
		}
		return nil, fmt.Errorf("%s: get record failed: %w", op, err)
	}

	// A record without a resolvable contact should not exist; surface it
	// loudly instead of verifying a code nobody could have received.
	if _, err := record.ContactKey(); err != nil {
		logger.Error("code verification record has no contact",
			zap.String("code_verification_id", record.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	if s.codeExpired(record, now) {
		if err := s.records.Deactivate(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("%s: deactivate failed: %w", op, err)
		}
		return nil, ErrCodeExpired
	}

	// Fail closed once the attempt budget is spent; no state transition.
	if record.RetriesExhausted() {
		return nil, ErrInvalidCode
	}

	if !record.OTPCode.Valid ||
		subtle.ConstantTimeCompare([]byte(record.OTPCode.String), []byte(code)) != 1 {
		record.Status = domain.CodeVerificationFailed
		record.UsedRetryAttempt++
		record.VerificationPerformedAt = &now

		if err := s.records.UpdateResult(ctx, record); err != nil {
			return nil, fmt.Errorf("%s: persist failure failed: %w", op, err)
		}

		return nil, ErrInvalidCode
	}

	record.Status = domain.CodeVerificationPassed
	record.VerificationPerformedAt = &now
	if record.Purpose == domain.PurposeSignin2FA {
		// A sign-in completion is single use; other purposes stay active for
		// the follow-up call that consumes them.
		record.IsActive = false
	}

	if err := s.records.UpdateResult(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: persist result failed: %w", op, err)
	}

	outcome := &SubmitOutcome{View: record.View()}

	if record.Purpose == domain.PurposeSignin2FA {
		tokens, err := s.completeSignin(ctx, record)
		if err != nil {
			return nil, err
		}
		outcome.Tokens = tokens
		return outcome, nil
	}

	if apply, ok := s.sideEffects[record.Purpose]; ok {
		if err := apply(ctx, record); err != nil {
			return nil, fmt.Errorf("%s: apply side effect failed: %w", op, err)
		}
	}

	return outcome, nil
}

// resolveTarget performs the purpose-specific validation and returns the user
// the record is bound to, nil when the purpose is unbound.
func (s *codeVerificationService) resolveTarget(ctx context.Context, input *CodeVerificationInput) (*domain.User, error) {
	const op = "service.codeVerification.resolveTarget"

	switch input.Purpose {
	case domain.PurposePreSignup:
		user, err := s.findByContact(ctx, input.Email, input.Phone, input.CountryCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("%s: lookup failed: %w", op, err)
		}
		if input.Email != "" && user.EmailVerified {
			return nil, ErrEmailAlreadyInUse
		}
		if input.Phone != "" && user.PhoneVerified {
			return nil, ErrPhoneAlreadyInUse
		}
		return user, guardUsable(user)

	case domain.PurposeForgotPassword, domain.PurposeSignin2FA, domain.PurposeForgot2FA:
		user, err := s.findByContact(ctx, input.Email, input.Phone, input.CountryCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("%s: lookup failed: %w", op, err)
		}
		if input.Purpose == domain.PurposeForgot2FA && !user.TwoFactorActivated {
			return nil, ErrTwoFactorNotEnabled
		}
		return user, guardUsable(user)

	case domain.PurposeUserEmailUpdate:
		if input.AuthUser == nil {
			return nil, ErrUnauthorized
		}
		if input.Email == "" {
			return nil, ErrContactRequired
		}
		count, err := s.users.CountByEmailExcept(ctx, input.Email, input.AuthUser.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: count by email failed: %w", op, err)
		}
		if count > 0 {
			return nil, ErrEmailAlreadyInUse
		}
		return input.AuthUser, nil

	case domain.PurposeUserPhoneUpdate:
		if input.AuthUser == nil {
			return nil, ErrUnauthorized
		}
		if input.Phone == "" {
			return nil, ErrContactRequired
		}
		count, err := s.users.CountByPhoneExcept(ctx, input.Phone, input.CountryCode, input.AuthUser.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: count by phone failed: %w", op, err)
		}
		if count > 0 {
			return nil, ErrPhoneAlreadyInUse
		}
		return input.AuthUser, nil

	case domain.PurposeUpdate2FASettingToEmail:
		if input.AuthUser == nil {
			return nil, ErrUnauthorized
		}
		if !input.AuthUser.EmailVerified {
			return nil, ErrEmailNotVerified
		}
		return input.AuthUser, nil

	case domain.PurposeUpdate2FASettingToPhone:
		if input.AuthUser == nil {
			return nil, ErrUnauthorized
		}
		if !input.AuthUser.PhoneVerified {
			return nil, ErrPhoneNotVerified
		}
		return input.AuthUser, nil
	}

	return nil, ErrInvalidPurpose
}

// fillSecret populates exactly one kind of secret material on the record and
// returns the value to deliver.
func (s *codeVerificationService) fillSecret(record *domain.CodeVerification, useLink bool) (string, error) {
	if useLink {
		token, err := s.generator.RandomLinkToken(s.cfg.LinkTokenLength)
		if err != nil {
			return "", fmt.Errorf("generate link token failed: %w", err)
		}
		record.VerificationLinkToken = sql.NullString{String: token, Valid: true}
		return token, nil
	}

	code, err := s.generator.RandomCode(s.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate code failed: %w", err)
	}

	expiresAt := record.CreatedAt.Add(s.cfg.Expiration)
	record.OTPCode = sql.NullString{String: code, Valid: true}
	record.OTPExpiresAt = &expiresAt

	return code, nil
}

// dispatch hands the code to the delivery queue. Delivery failure does not
// fail the request: the record exists and the caller can ask for a resend.
func (s *codeVerificationService) dispatch(ctx context.Context, record *domain.CodeVerification, code string) {
	if err := s.dispatcher.DispatchCode(ctx, record, code); err != nil {
		logger.Error("code delivery dispatch failed",
			zap.String("code_verification_id", record.ID.String()),
			zap.String("purpose", string(record.Purpose)),
			zap.Error(err))
	}
}

func (s *codeVerificationService) completeSignin(ctx context.Context, record *domain.CodeVerification) (*Tokens, error) {
	const op = "service.codeVerification.completeSignin"

	if record.UserID == nil {
		return nil, ErrCodeVerificationNotFound
	}

	user, err := s.users.GetByID(ctx, *record.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: get user failed: %w", op, err)
	}

	if err := guardUsable(user); err != nil {
		return nil, err
	}

	tokens, err := s.sessions.CreateSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: create session failed: %w", op, err)
	}

	return tokens, nil
}

func (s *codeVerificationService) applyPreSignup(ctx context.Context, record *domain.CodeVerification) error {
	// Explicit binding wins; otherwise fall back to contact match so a user
	// created between request and submission still gets the verified flag.
	if record.UserID != nil {
		if record.Email.Valid {
			return s.users.SetEmailVerifiedByID(ctx, *record.UserID)
		}
		return s.users.SetPhoneVerifiedByID(ctx, *record.UserID)
	}

	if record.Email.Valid {
		return s.users.SetEmailVerifiedByEmail(ctx, record.Email.String)
	}
	return s.users.SetPhoneVerifiedByPhone(ctx, record.Phone.String, record.CountryCode.String)
}

func (s *codeVerificationService) applyEmailUpdate(ctx context.Context, record *domain.CodeVerification) error {
	if record.UserID == nil {
		return ErrCodeVerificationNotFound
	}
	return s.users.UpdateEmail(ctx, *record.UserID, strings.ToLower(record.Email.String), true)
}

func (s *codeVerificationService) applyPhoneUpdate(ctx context.Context, record *domain.CodeVerification) error {
	if record.UserID == nil {
		return ErrCodeVerificationNotFound
	}
	return s.users.UpdatePhone(ctx, *record.UserID, record.Phone.String, record.CountryCode.String, true)
}

func (s *codeVerificationService) applyTwoFactorToEmail(ctx context.Context, record *domain.CodeVerification) error {
	return s.switchTwoFactor(ctx, record, domain.TwoFactorEmail)
}

func (s *codeVerificationService) applyTwoFactorToPhone(ctx context.Context, record *domain.CodeVerification) error {
	return s.switchTwoFactor(ctx, record, domain.TwoFactorPhone)
}

func (s *codeVerificationService) switchTwoFactor(ctx context.Context, record *domain.CodeVerification, to domain.TwoFactorType) error {
	if record.UserID == nil {
		return ErrCodeVerificationNotFound
	}
	return s.users.UpdateTwoFactor(ctx, *record.UserID, true,
		sql.NullString{String: string(to), Valid: true})
}

// applyForgot2FA drops two-factor entirely, stored authenticator secret
// included, so the recovery flow leaves no stale factor behind.
func (s *codeVerificationService) applyForgot2FA(ctx context.Context, record *domain.CodeVerification) error {
	if record.UserID == nil {
		return ErrCodeVerificationNotFound
	}

	if err := s.users.UpdateTwoFactor(ctx, *record.UserID, false, sql.NullString{}); err != nil {
		return err
	}

	return s.users.SetTOTPSecret(ctx, *record.UserID, sql.NullString{})
}

func (s *codeVerificationService) codeExpired(record *domain.CodeVerification, now time.Time) bool {
	if record.OTPExpiresAt != nil {
		return now.After(*record.OTPExpiresAt)
	}
	return now.After(record.CreatedAt.Add(s.cfg.Expiration))
}

func (s *codeVerificationService) findByContact(ctx context.Context, email string, phone string, countryCode string) (*domain.User, error) {
	if email != "" {
		return s.users.GetByEmail(ctx, email)
	}
	return s.users.GetByPhone(ctx, phone, countryCode)
}

func validateContact(email string, phone string, countryCode string) error {
	hasEmail := email != ""
	hasPhone := phone != "" && countryCode != ""

	if hasEmail == hasPhone {
		return ErrContactRequired
	}

	return nil
}
