package service

import (
	"testing"
	"time"

	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/domain"

	"github.com/stretchr/testify/require"
)

func testPolicy() *resendPolicy {
	return newResendPolicy(config.CodeVerificationConfig{
		ResendLimitInSession:  5,
		ResendSessionDuration: 30 * time.Minute,
		ResendBackoff:         []int{30, 60, 120, 300},
	})
}

func attemptAt(createdAt time.Time, resendDuration int) domain.CodeVerification {
	return domain.CodeVerification{
		CreatedAt:      createdAt,
		ResendDuration: resendDuration,
	}
}

func TestCheckAllowsFirstAttempt(t *testing.T) {
	policy := testPolicy()

	require.NoError(t, policy.Check(nil, time.Now()))
}

func TestCheckBlocksWithinBackoff(t *testing.T) {
	policy := testPolicy()
	now := time.Now()

	attempts := []domain.CodeVerification{attemptAt(now.Add(-10*time.Second), 30)}

	err := policy.Check(attempts, now)

	var resendErr *ResendNotAvailableError
	require.ErrorAs(t, err, &resendErr)
	require.InDelta(t, 20, resendErr.RetryAfterSeconds, 1)
}

func TestCheckAllowsAfterBackoff(t *testing.T) {
	policy := testPolicy()
	now := time.Now()

	attempts := []domain.CodeVerification{attemptAt(now.Add(-31*time.Second), 30)}

	require.NoError(t, policy.Check(attempts, now))
}

func TestCheckEnforcesSessionCap(t *testing.T) {
	policy := testPolicy()
	now := time.Now()

	attempts := make([]domain.CodeVerification, 5)
	for i := range attempts {
		// All backoffs long elapsed; only the cap can block.
		attempts[i] = attemptAt(now.Add(-time.Duration(i+1)*10*time.Minute), 30)
	}

	require.ErrorIs(t, policy.Check(attempts, now), ErrResendLimitExceeded)
}

func TestNextResendDurationFollowsSchedule(t *testing.T) {
	policy := testPolicy()

	require.Equal(t, 30, policy.NextResendDuration(0))
	require.Equal(t, 60, policy.NextResendDuration(1))
	require.Equal(t, 120, policy.NextResendDuration(2))
	require.Equal(t, 300, policy.NextResendDuration(3))

	// Past the end of the schedule the last entry sticks.
	require.Equal(t, 300, policy.NextResendDuration(4))
	require.Equal(t, 300, policy.NextResendDuration(50))
}

func TestSessionStartRollingWindow(t *testing.T) {
	policy := testPolicy()
	now := time.Now()

	start := policy.SessionStart(now, domain.PurposeForgotPassword, nil)
	require.WithinDuration(t, now.Add(-30*time.Minute), start, time.Second)
}

func TestSessionStartSignin2FABoundedByLastSignin(t *testing.T) {
	policy := testPolicy()
	now := time.Now()

	lastSignin := now.Add(-5 * time.Minute)
	start := policy.SessionStart(now, domain.PurposeSignin2FA, &lastSignin)
	require.Equal(t, lastSignin, start)

	// An old sign-in does not widen the window beyond the session duration.
	oldSignin := now.Add(-2 * time.Hour)
	start = policy.SessionStart(now, domain.PurposeSignin2FA, &oldSignin)
	require.WithinDuration(t, now.Add(-30*time.Minute), start, time.Second)

	// Other purposes ignore sign-in time entirely.
	start = policy.SessionStart(now, domain.PurposeForgotPassword, &lastSignin)
	require.WithinDuration(t, now.Add(-30*time.Minute), start, time.Second)
}
