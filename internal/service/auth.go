package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joblo-ai/backend/internal/domain"
	"github.com/joblo-ai/backend/internal/repository"
	"github.com/joblo-ai/backend/pkg/auth"
	"github.com/joblo-ai/backend/pkg/hash"

	"github.com/google/uuid"
)

type authService struct {
	users             repository.Users
	codeVerifications repository.CodeVerifications
	tokenManager      auth.TokenManager
	hasher            hash.PasswordHasher

	passedCodeExpiration time.Duration
}

func newAuthService(deps Deps) *authService {
	return &authService{
		users:                deps.Repos.Users,
		codeVerifications:    deps.Repos.CodeVerifications,
		tokenManager:         deps.TokenManager,
		hasher:               deps.Hasher,
		passedCodeExpiration: deps.Config.CodeVerification.PassedCodeExpiration,
	}
}

// SignUp creates an account from a passed pre-signup verification record. The
// verified contact comes from the record, not from the request, so a caller
// cannot register a contact they never proved ownership of.
func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*domain.User, *Tokens, error) {
	const op = "service.auth.SignUp"

	record, err := s.consumePassedRecord(ctx, input.CodeVerificationID, domain.PurposePreSignup)
	if err != nil {
		return nil, nil, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: hash password failed: %w", op, err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    sql.NullString{String: input.FirstName, Valid: input.FirstName != ""},
		LastName:     sql.NullString{String: input.LastName, Valid: input.LastName != ""},
		Role:         domain.RoleUser,
		PasswordHash: passwordHash,
	}

	if record.Email.Valid && record.Email.String != "" {
		user.Email = sql.NullString{String: strings.ToLower(record.Email.String), Valid: true}
		user.EmailVerified = true
	} else {
		user.Phone = record.Phone
		user.CountryCode = record.CountryCode
		user.PhoneVerified = true
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return nil, nil, ErrUserAlreadyExists
		}
		return nil, nil, fmt.Errorf("%s: create user failed: %w", op, err)
	}

	if err := s.codeVerifications.Deactivate(ctx, record.ID); err != nil {
		return nil, nil, fmt.Errorf("%s: deactivate verification failed: %w", op, err)
	}

	tokens, err := s.CreateSession(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: create session failed: %w", op, err)
	}

	return user, tokens, nil
}

func (s *authService) SignIn(ctx context.Context, input SignInInput) (*SignInOutcome, error) {
	const op = "service.auth.SignIn"

	user, err := s.lookupByContact(ctx, input.Email, input.Phone, input.CountryCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: lookup user failed: %w", op, err)
	}

	if err := guardUsable(user); err != nil {
		return nil, err
	}

	if input.Email == "" {
		return s.signInWithPhone(ctx, user, input)
	}

	if !s.hasher.Compare(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if user.TwoFactorActivated {
		if input.CodeVerificationID != nil {
			return s.redeemSigninRecord(ctx, user, *input.CodeVerificationID)
		}

		// Password stage passed: restart the 2FA challenge window and stop
		// short of minting tokens.
		now := time.Now()
		if err := s.users.UpdateLastSigninAt(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("%s: update last signin failed: %w", op, err)
		}
		user.LastSigninAt = &now

		return &SignInOutcome{
			User:              user,
			TwoFactorRequired: true,
			TwoFactorType:     domain.TwoFactorType(user.TwoFactorType.String),
		}, nil
	}

	tokens, err := s.CreateSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: create session failed: %w", op, err)
	}

	return &SignInOutcome{User: user, Tokens: tokens}, nil
}

// signInWithPhone opens a session on possession of a passed sign-in code.
// The password is never consulted on this path.
func (s *authService) signInWithPhone(ctx context.Context, user *domain.User, input SignInInput) (*SignInOutcome, error) {
	if !user.PhoneVerified {
		return nil, ErrPhoneNotVerified
	}

	if input.CodeVerificationID == nil {
		return nil, ErrCodeVerificationNotFound
	}

	return s.redeemSigninRecord(ctx, user, *input.CodeVerificationID)
}

// redeemSigninRecord consumes a passed SIGNIN_2FA record created for this
// user during the current challenge window.
func (s *authService) redeemSigninRecord(ctx context.Context, user *domain.User, recordID uuid.UUID) (*SignInOutcome, error) {
	const op = "service.auth.redeemSigninRecord"

	record, err := s.consumePassedRecord(ctx, recordID, domain.PurposeSignin2FA)
	if err != nil {
		return nil, err
	}

	if record.UserID == nil || *record.UserID != user.ID {
		return nil, ErrCodeVerificationNotFound
	}

	if err := s.codeVerifications.Deactivate(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("%s: deactivate verification failed: %w", op, err)
	}

	tokens, err := s.CreateSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: create session failed: %w", op, err)
	}

	return &SignInOutcome{User: user, Tokens: tokens}, nil
}

// Refresh rotates the refresh token. The presented token must be the exact
// one stored on the user record, so a replayed pre-rotation token fails even
// though its signature is still valid.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	const op = "service.auth.Refresh"

	claims, err := s.tokenManager.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("%s: get user failed: %w", op, err)
	}

	if err := guardUsable(user); err != nil {
		return nil, err
	}

	if !user.RefreshToken.Valid || user.RefreshToken.String != refreshToken {
		return nil, ErrInvalidRefreshToken
	}

	if user.RefreshTokenExpiresAt == nil || time.Now().After(*user.RefreshTokenExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	if claims.TokenVersion != user.TokenVersion {
		return nil, ErrSignInAgain
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: issue tokens failed: %w", op, err)
	}

	return tokens, nil
}

// SignOut clears the stored refresh token. Outstanding access tokens stay
// valid until they expire.
func (s *authService) SignOut(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.SignOut"

	err := s.users.UpdateRefreshToken(ctx, userID, sql.NullString{}, nil)
	if err != nil {
		return fmt.Errorf("%s: clear refresh token failed: %w", op, err)
	}

	return nil
}

// SignOutAll bumps the token version, invalidating every outstanding access
// and refresh token at once.
func (s *authService) SignOutAll(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.SignOutAll"

	if err := s.users.BumpTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNoRowsAffected) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: bump token version failed: %w", op, err)
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, codeVerificationID uuid.UUID, password string) error {
	const op = "service.auth.ResetPassword"

	record, err := s.consumePassedRecord(ctx, codeVerificationID, domain.PurposeForgotPassword)
	if err != nil {
		return err
	}

	if record.UserID == nil {
		return ErrCodeVerificationNotFound
	}

	user, err := s.users.GetByID(ctx, *record.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: get user failed: %w", op, err)
	}

	if err := guardUsable(user); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%s: hash password failed: %w", op, err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("%s: update password failed: %w", op, err)
	}

	if err := s.codeVerifications.Deactivate(ctx, record.ID); err != nil {
		return fmt.Errorf("%s: deactivate verification failed: %w", op, err)
	}

	// All existing sessions die with the old password.
	if err := s.users.BumpTokenVersion(ctx, user.ID); err != nil {
		return fmt.Errorf("%s: bump token version failed: %w", op, err)
	}

	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string, signOutOthers bool) error {
	const op = "service.auth.ChangePassword"

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: get user failed: %w", op, err)
	}

	if !s.hasher.Compare(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}

	if currentPassword == newPassword {
		return ErrSamePassword
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: hash password failed: %w", op, err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("%s: update password failed: %w", op, err)
	}

	if signOutOthers {
		if err := s.users.BumpTokenVersion(ctx, userID); err != nil {
			return fmt.Errorf("%s: bump token version failed: %w", op, err)
		}
	}

	return nil
}

// UserByAccessToken resolves and authorizes the bearer of an access token.
// A token minted before the last version bump is rejected even though its
// signature and expiry are fine.
func (s *authService) UserByAccessToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "service.auth.UserByAccessToken"

	claims, err := s.tokenManager.ParseAccessToken(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%s: get user failed: %w", op, err)
	}

	if err := guardUsable(user); err != nil {
		return nil, err
	}

	if claims.TokenVersion != user.TokenVersion {
		return nil, ErrSignInAgain
	}

	return user, nil
}

func (s *authService) CheckAvailability(ctx context.Context, email string, phone string, countryCode string) (*Availability, error) {
	const op = "service.auth.CheckAvailability"

	var result Availability

	if email != "" {
		_, err := s.users.GetByEmail(ctx, strings.ToLower(email))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: check email failed: %w", op, err)
		}
		result.EmailInUse = err == nil
	}

	if phone != "" {
		_, err := s.users.GetByPhone(ctx, phone, countryCode)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: check phone failed: %w", op, err)
		}
		result.PhoneInUse = err == nil
	}

	return &result, nil
}

// CreateSession mints a token pair, persists the refresh token and stamps the
// sign-in time.
func (s *authService) CreateSession(ctx context.Context, user *domain.User) (*Tokens, error) {
	const op = "service.auth.CreateSession"

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: issue tokens failed: %w", op, err)
	}

	if err := s.users.UpdateLastSigninAt(ctx, user.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("%s: update last signin failed: %w", op, err)
	}

	return tokens, nil
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*Tokens, error) {
	accessToken, accessTTL, err := s.tokenManager.NewAccessToken(
		user.ID, user.TokenVersion, user.Email.String, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("new access token failed: %w", err)
	}

	refreshToken, refreshTTL, err := s.tokenManager.NewRefreshToken(user.ID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("new refresh token failed: %w", err)
	}

	expiresAt := time.Now().Add(refreshTTL)
	err = s.users.UpdateRefreshToken(ctx, user.ID,
		sql.NullString{String: refreshToken, Valid: true}, &expiresAt)
	if err != nil {
		return nil, fmt.Errorf("store refresh token failed: %w", err)
	}

	return &Tokens{
		AccessToken:     accessToken,
		AccessTokenTTL:  accessTTL,
		RefreshToken:    refreshToken,
		RefreshTokenTTL: refreshTTL,
	}, nil
}

// consumePassedRecord loads a passed, still-active record for the purpose and
// enforces the post-verification window. An expired record is deactivated on
// read.
func (s *authService) consumePassedRecord(ctx context.Context, id uuid.UUID, purpose domain.CodeVerificationPurpose) (*domain.CodeVerification, error) {
	const op = "service.auth.consumePassedRecord"

	record, err := s.codeVerifications.GetPassedActive(ctx, id, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrCodeVerificationNotFound
		}
		return nil, fmt.Errorf("%s: get verification failed: %w", op, err)
	}

	if record.VerificationPerformedAt == nil ||
		time.Now().After(record.VerificationPerformedAt.Add(s.passedCodeExpiration)) {
		if err := s.codeVerifications.Deactivate(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("%s: deactivate verification failed: %w", op, err)
		}
		return nil, ErrSessionExpired
	}

	return record, nil
}

func (s *authService) lookupByContact(ctx context.Context, email string, phone string, countryCode string) (*domain.User, error) {
	if email != "" {
		return s.users.GetByEmail(ctx, strings.ToLower(email))
	}
	return s.users.GetByPhone(ctx, phone, countryCode)
}

// guardUsable rejects terminated and admin-blocked accounts up front, before
// any credential or token check leaks more detail.
func guardUsable(user *domain.User) error {
	if user.IsDeleted {
		return ErrAccountTerminated
	}

	if user.IsBlockedByAdmin {
		return &AccountBlockedError{Message: user.CustomBlockMessage.String}
	}

	return nil
}
