package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrEmailAlreadyInUse = errors.New("email already in use")
	ErrPhoneAlreadyInUse = errors.New("phone already in use")

	ErrAccountTerminated  = errors.New("account has been terminated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrPhoneNotVerified   = errors.New("phone is not verified")

	ErrCodeVerificationNotFound = errors.New("no code verification record to verify")
	ErrContactRequired          = errors.New("exactly one of email or phone with country code is required")
	ErrInvalidPurpose           = errors.New("invalid code verification purpose")
	ErrLinkRequiresEmail        = errors.New("link verification is only available for email")
	ErrInvalidCode              = errors.New("invalid code")
	ErrCodeExpired              = errors.New("code has expired, request a new code")
	ErrSessionExpired           = errors.New("session expired, restart the flow")
	ErrResendLimitExceeded      = errors.New("resend limit exceeded, try again later")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired, sign in again")
	ErrSignInAgain         = errors.New("sign in again")
	ErrUnauthorized        = errors.New("unauthorized")

	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrAuthenticatorNotSetup   = errors.New("authenticator is not set up")
	ErrSamePassword            = errors.New("new password must differ from the current one")
)

// AccountBlockedError carries the admin's custom block message when one is
// set; the HTTP layer surfaces Message verbatim.
type AccountBlockedError struct {
	Message string
}

func (e *AccountBlockedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "account is blocked by administrator"
}

// ResendNotAvailableError reports how long the caller has to wait before the
// next code for the same fingerprint may be issued.
type ResendNotAvailableError struct {
	RetryAfterSeconds int
}

func (e *ResendNotAvailableError) Error() string {
	return fmt.Sprintf("resend not available yet, retry after %d seconds", e.RetryAfterSeconds)
}
