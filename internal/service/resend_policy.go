package service

import (
	"time"

	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/domain"
)

// resendPolicy decides whether a new code may be issued for a fingerprint.
// It is a pure precondition gate: it never mutates state, callers check and
// then create.
type resendPolicy struct {
	limitInSession  int
	sessionDuration time.Duration
	backoffSeconds  []int
}

func newResendPolicy(cfg config.CodeVerificationConfig) *resendPolicy {
	return &resendPolicy{
		limitInSession:  cfg.ResendLimitInSession,
		sessionDuration: cfg.ResendSessionDuration,
		backoffSeconds:  cfg.ResendBackoff,
	}
}

// SessionStart computes the beginning of the rolling window. For SIGNIN_2FA
// only attempts since the most recent sign-in count: each sign-in attempt
// restarts the 2FA challenge budget.
func (p *resendPolicy) SessionStart(now time.Time, purpose domain.CodeVerificationPurpose, lastSigninAt *time.Time) time.Time {
	start := now.Add(-p.sessionDuration)

	if purpose == domain.PurposeSignin2FA && lastSigninAt != nil && lastSigninAt.After(start) {
		start = *lastSigninAt
	}

	return start
}

// Check evaluates the gate against the attempts already made in the session
// window, newest first. The session cap is a hard limit; within the cap the
// last record's resendDuration must have elapsed.
func (p *resendPolicy) Check(attempts []domain.CodeVerification, now time.Time) error {
	if len(attempts) >= p.limitInSession {
		return ErrResendLimitExceeded
	}

	if len(attempts) == 0 {
		return nil
	}

	last := attempts[0]
	allowedAfter := last.CreatedAt.Add(time.Duration(last.ResendDuration) * time.Second)
	if now.Before(allowedAfter) {
		return &ResendNotAvailableError{
			RetryAfterSeconds: int(allowedAfter.Sub(now).Seconds() + 0.5),
		}
	}

	return nil
}

// NextResendDuration picks the backoff for the record about to be created,
// indexed by how many attempts the session has seen, capped at the schedule's
// last entry.
func (p *resendPolicy) NextResendDuration(attemptCount int) int {
	if len(p.backoffSeconds) == 0 {
		return 0
	}

	if attemptCount >= len(p.backoffSeconds) {
		return p.backoffSeconds[len(p.backoffSeconds)-1]
	}

	return p.backoffSeconds[attemptCount]
}
