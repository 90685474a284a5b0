package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/joblo-ai/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRequestIssuesCode(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.users.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)
	env.records.On("ListRecentAttempts", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CodeVerification{}, nil)

	var created *domain.CodeVerification
	env.records.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.CodeVerification) bool {
		created = r
		return true
	})).Return(nil)
	env.records.On("DeactivateOlderActive", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	env.dispatcher.On("DispatchCode", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	view, err := env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose: domain.PurposeForgotPassword,
		Email:   "User@Example.com",
	})
	require.NoError(t, err)

	require.Equal(t, domain.CodeVerificationPending, created.Status)
	require.Len(t, created.OTPCode.String, 4)
	require.Equal(t, 5, created.MaxRetryAttempt)
	require.Equal(t, 30, created.ResendDuration)
	require.Equal(t, user.ID, *created.UserID)
	require.Equal(t, "user@example.com", created.Email.String)

	// Secret material never leaks into the view.
	require.Equal(t, created.ID, view.ID)
	require.Equal(t, domain.CodeVerificationPending, view.Status)
	require.Equal(t, 30, view.ResendDuration)
}

func TestRequestBlockedByBackoff(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.users.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)
	env.records.On("ListRecentAttempts", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CodeVerification{{
			CreatedAt:      time.Now().Add(-5 * time.Second),
			ResendDuration: 30,
		}}, nil)

	_, err := env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose: domain.PurposeForgotPassword,
		Email:   "user@example.com",
	})

	var resendErr *ResendNotAvailableError
	require.ErrorAs(t, err, &resendErr)
	env.records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestBlockedBySessionCap(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	attempts := make([]domain.CodeVerification, 5)
	for i := range attempts {
		attempts[i] = domain.CodeVerification{
			CreatedAt:      time.Now().Add(-time.Duration(i+1) * 5 * time.Minute),
			ResendDuration: 30,
		}
	}

	env.users.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)
	env.records.On("ListRecentAttempts", mock.Anything, mock.Anything, mock.Anything).
		Return(attempts, nil)

	_, err := env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose: domain.PurposeForgotPassword,
		Email:   "user@example.com",
	})
	require.ErrorIs(t, err, ErrResendLimitExceeded)
}

func TestRequestThrottleScopedToContact(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")
	fp := domain.CodeVerificationFingerprint{
		Email:   "user@example.com",
		Purpose: domain.PurposeForgotPassword,
	}

	env.users.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)
	// The throttle lane carries only the contact and purpose, so attempts
	// made before the user row existed keep counting and keep being
	// superseded after it does.
	env.records.On("ListRecentAttempts", mock.Anything, fp, mock.Anything).
		Return([]domain.CodeVerification{}, nil)
	env.records.On("Create", mock.Anything, mock.Anything).Return(nil)
	env.records.On("DeactivateOlderActive", mock.Anything, fp, mock.Anything).Return(nil)
	env.dispatcher.On("DispatchCode", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose: domain.PurposeForgotPassword,
		Email:   "user@example.com",
	})
	require.NoError(t, err)
	env.records.AssertCalled(t, "ListRecentAttempts", mock.Anything, fp, mock.Anything)
	env.records.AssertCalled(t, "DeactivateOlderActive", mock.Anything, fp, mock.Anything)
}

func TestRequestRequiresExactlyOneContact(t *testing.T) {
	env := newTestEnv()

	_, err := env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose: domain.PurposeForgotPassword,
	})
	require.ErrorIs(t, err, ErrContactRequired)

	_, err = env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose:     domain.PurposeForgotPassword,
		Email:       "user@example.com",
		Phone:       "5551234",
		CountryCode: "1",
	})
	require.ErrorIs(t, err, ErrContactRequired)
}

func TestRequestPreSignupConflict(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")

	env.users.On("GetByEmail", mock.Anything, "user@example.com").Return(user, nil)

	_, err := env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose: domain.PurposePreSignup,
		Email:   "user@example.com",
	})
	require.ErrorIs(t, err, ErrEmailAlreadyInUse)
}

func TestRequestLinkRequiresEmail(t *testing.T) {
	env := newTestEnv()

	_, err := env.services.CodeVerifications.Request(context.Background(), CodeVerificationInput{
		Purpose:     domain.PurposeForgotPassword,
		Phone:       "5551234",
		CountryCode: "1",
		UseLink:     true,
	})
	require.ErrorIs(t, err, ErrLinkRequiresEmail)
}

func pendingRecord(purpose domain.CodeVerificationPurpose, code string) *domain.CodeVerification {
	expiresAt := time.Now().Add(5 * time.Minute)
	return &domain.CodeVerification{
		ID:              uuid.New(),
		Purpose:         purpose,
		Status:          domain.CodeVerificationPending,
		Email:           sql.NullString{String: "user@example.com", Valid: true},
		OTPCode:         sql.NullString{String: code, Valid: true},
		MaxRetryAttempt: 5,
		OTPExpiresAt:    &expiresAt,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
}

func TestSubmitWrongCode(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposeForgotPassword, "1234")

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)
	env.records.On("UpdateResult", mock.Anything, mock.MatchedBy(func(r *domain.CodeVerification) bool {
		return r.Status == domain.CodeVerificationFailed && r.UsedRetryAttempt == 1
	})).Return(nil)

	_, err := env.services.CodeVerifications.Submit(context.Background(), record.ID, "9999")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestSubmitCorrectCodeAppliesSideEffect(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposePreSignup, "1234")

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)
	env.records.On("UpdateResult", mock.Anything, mock.MatchedBy(func(r *domain.CodeVerification) bool {
		return r.Status == domain.CodeVerificationPassed && r.VerificationPerformedAt != nil && r.IsActive
	})).Return(nil)
	env.users.On("SetEmailVerifiedByEmail", mock.Anything, "user@example.com").Return(nil)

	outcome, err := env.services.CodeVerifications.Submit(context.Background(), record.ID, "1234")
	require.NoError(t, err)
	require.Equal(t, domain.CodeVerificationPassed, outcome.View.Status)
	require.Nil(t, outcome.Tokens)

	env.users.AssertCalled(t, "SetEmailVerifiedByEmail", mock.Anything, "user@example.com")
}

func TestSubmitSignin2FAMintsTokens(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")
	record := pendingRecord(domain.PurposeSignin2FA, "1234")
	record.UserID = &user.ID

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)
	env.records.On("UpdateResult", mock.Anything, mock.MatchedBy(func(r *domain.CodeVerification) bool {
		// Sign-in completion burns the record.
		return r.Status == domain.CodeVerificationPassed && !r.IsActive
	})).Return(nil)
	env.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	env.expectSession(user.ID, user.TokenVersion)

	outcome, err := env.services.CodeVerifications.Submit(context.Background(), record.ID, "1234")
	require.NoError(t, err)
	require.NotNil(t, outcome.Tokens)
	require.Equal(t, "access-token", outcome.Tokens.AccessToken)
}

func TestSubmitForgot2FAResetsTwoFactor(t *testing.T) {
	env := newTestEnv()
	user := env.testUser("password123")
	user.TwoFactorActivated = true
	user.TwoFactorType = sql.NullString{String: string(domain.TwoFactorEmail), Valid: true}
	record := pendingRecord(domain.PurposeForgot2FA, "1234")
	record.UserID = &user.ID

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)
	env.records.On("UpdateResult", mock.Anything, mock.MatchedBy(func(r *domain.CodeVerification) bool {
		return r.Status == domain.CodeVerificationPassed
	})).Return(nil)
	env.users.On("UpdateTwoFactor", mock.Anything, user.ID, false, sql.NullString{}).Return(nil)
	// The stored secret is cleared even when two-factor ran over email, so no
	// stale authenticator survives the recovery.
	env.users.On("SetTOTPSecret", mock.Anything, user.ID, sql.NullString{}).Return(nil)

	outcome, err := env.services.CodeVerifications.Submit(context.Background(), record.ID, "1234")
	require.NoError(t, err)
	require.Equal(t, domain.CodeVerificationPassed, outcome.View.Status)
	env.users.AssertCalled(t, "SetTOTPSecret", mock.Anything, user.ID, sql.NullString{})
}

func TestSubmitRecordWithoutContact(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposeForgotPassword, "1234")
	record.Email = sql.NullString{}

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)

	// A record with no resolvable contact is an internal inconsistency; no
	// code comparison or state transition may happen against it.
	_, err := env.services.CodeVerifications.Submit(context.Background(), record.ID, "1234")
	require.Error(t, err)
	env.records.AssertNotCalled(t, "UpdateResult", mock.Anything, mock.Anything)
}

func TestSubmitFailsClosedWhenRetriesExhausted(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposeForgotPassword, "1234")
	record.Status = domain.CodeVerificationFailed
	record.UsedRetryAttempt = 5

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)

	// Even the correct code is rejected once the budget is spent.
	_, err := env.services.CodeVerifications.Submit(context.Background(), record.ID, "1234")
	require.ErrorIs(t, err, ErrInvalidCode)
	env.records.AssertNotCalled(t, "UpdateResult", mock.Anything, mock.Anything)
}

func TestSubmitExpiredCode(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposeForgotPassword, "1234")
	expired := time.Now().Add(-time.Minute)
	record.OTPExpiresAt = &expired

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)
	env.records.On("Deactivate", mock.Anything, record.ID).Return(nil)

	_, err := env.services.CodeVerifications.Submit(context.Background(), record.ID, "1234")
	require.ErrorIs(t, err, ErrCodeExpired)
	env.records.AssertCalled(t, "Deactivate", mock.Anything, record.ID)
}

func TestGetExpiresPassedRecordLazily(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposeForgotPassword, "1234")
	record.Status = domain.CodeVerificationPassed
	performedAt := time.Now().Add(-time.Hour)
	record.VerificationPerformedAt = &performedAt

	env.records.On("GetActiveByID", mock.Anything, record.ID).Return(record, nil)
	env.records.On("Deactivate", mock.Anything, record.ID).Return(nil)

	_, err := env.services.CodeVerifications.Get(context.Background(), record.ID)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestResendRegeneratesCode(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposeForgotPassword, "1234")
	record.CreatedAt = time.Now().Add(-time.Minute)
	record.ResendDuration = 30

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)
	env.records.On("UpdateOTP", mock.Anything, record.ID, mock.Anything, mock.Anything).
		Return(nil)
	env.dispatcher.On("DispatchCode", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	_, err := env.services.CodeVerifications.Resend(context.Background(), record.ID)
	require.NoError(t, err)
	env.dispatcher.AssertCalled(t, "DispatchCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestResendBlockedWithinWindow(t *testing.T) {
	env := newTestEnv()
	record := pendingRecord(domain.PurposeForgotPassword, "1234")
	record.CreatedAt = time.Now().Add(-5 * time.Second)
	record.ResendDuration = 30

	env.records.On("GetActiveForVerification", mock.Anything, record.ID).Return(record, nil)

	_, err := env.services.CodeVerifications.Resend(context.Background(), record.ID)

	var resendErr *ResendNotAvailableError
	require.ErrorAs(t, err, &resendErr)
	env.records.AssertNotCalled(t, "UpdateOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
