package v1

import (
	"errors"
	"net/http"

	"github.com/joblo-ai/backend/internal/service"
	"github.com/joblo-ai/backend/pkg/logger"

	"go.uber.org/zap"
)

// mapServiceError decides the HTTP status for a service error. Anything not
// mapped here is an internal failure and must stay opaque to the caller.
func mapServiceError(err error) (int, string) {
	var blockedErr *service.AccountBlockedError
	if errors.As(err, &blockedErr) {
		return http.StatusForbidden, blockedErr.Error()
	}

	var resendErr *service.ResendNotAvailableError
	if errors.As(err, &resendErr) {
		return http.StatusTooManyRequests, resendErr.Error()
	}

	switch {
	case errors.Is(err, service.ErrResendLimitExceeded):
		return http.StatusTooManyRequests, err.Error()

	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrSignInAgain):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, service.ErrAccountTerminated):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCodeVerificationNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrEmailAlreadyInUse),
		errors.Is(err, service.ErrPhoneAlreadyInUse),
		errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
		return http.StatusConflict, err.Error()

	case errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrContactRequired),
		errors.Is(err, service.ErrInvalidPurpose),
		errors.Is(err, service.ErrLinkRequiresEmail),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrPhoneNotVerified),
		errors.Is(err, service.ErrTwoFactorNotEnabled),
		errors.Is(err, service.ErrAuthenticatorNotSetup),
		errors.Is(err, service.ErrSamePassword):
		return http.StatusBadRequest, err.Error()
	}

	logger.Error("unexpected service error", zap.Error(err))

	return http.StatusInternalServerError, "internal server error"
}
