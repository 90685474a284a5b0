package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/joblo-ai/backend/internal/domain"
	emailProvider "github.com/joblo-ai/backend/pkg/email"
	"github.com/joblo-ai/backend/pkg/logger"
	smsProvider "github.com/joblo-ai/backend/pkg/sms"

	"go.uber.org/zap"
)

// codeSender delivers verification codes through an ordered provider chain.
// Providers are tried in order; the first success wins and later providers
// are never touched. The task fails, and asynq retries it, only when the
// whole chain is exhausted.
type codeSender struct {
	emailProviders []emailProvider.Sender
	smsProviders   []smsProvider.Sender
	brandName      string
}

func newCodeSender(
	emailProviders []emailProvider.Sender,
	smsProviders []smsProvider.Sender,
	brandName string,
) *codeSender {
	return &codeSender{
		emailProviders: emailProviders,
		smsProviders:   smsProviders,
		brandName:      brandName,
	}
}

func (s *codeSender) SendEmailCode(ctx context.Context, email string, purpose string, code string, isLink bool) error {
	input := emailProvider.SendEmailInput{
		To:      email,
		Subject: s.emailSubject(purpose),
		Body:    s.emailBody(purpose, code, isLink),
	}

	if err := input.Validate(); err != nil {
		return fmt.Errorf("invalid email input: %w", err)
	}

	var errs []error
	for _, provider := range s.emailProviders {
		err := provider.Send(ctx, input)
		if err == nil {
			return nil
		}

		logger.Warn("email provider failed, trying next",
			zap.String("provider", provider.Name()),
			zap.String("purpose", purpose),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
	}

	return fmt.Errorf("all email providers failed: %w", errors.Join(errs...))
}

func (s *codeSender) SendSMSCode(ctx context.Context, phoneNumber string, purpose string, code string) error {
	text := fmt.Sprintf("%s is your %s verification code.", code, s.brandName)

	var errs []error
	for _, provider := range s.smsProviders {
		err := provider.Send(ctx, phoneNumber, text)
		if err == nil {
			return nil
		}

		logger.Warn("sms provider failed, trying next",
			zap.String("provider", provider.Name()),
			zap.String("purpose", purpose),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
	}

	return fmt.Errorf("all sms providers failed: %w", errors.Join(errs...))
}

func (s *codeSender) emailSubject(purpose string) string {
	switch domain.CodeVerificationPurpose(purpose) {
	case domain.PurposeForgotPassword:
		return fmt.Sprintf("Reset your %s password", s.brandName)
	case domain.PurposeSignin2FA:
		return fmt.Sprintf("Your %s sign-in code", s.brandName)
	case domain.PurposeForgot2FA:
		return fmt.Sprintf("Recover two-factor authentication for %s", s.brandName)
	default:
		return fmt.Sprintf("Your %s verification code", s.brandName)
	}
}

func (s *codeSender) emailBody(purpose string, code string, isLink bool) string {
	if isLink {
		return fmt.Sprintf("Use the token below to continue in %s:\n\n%s\n\nIf you did not request this, ignore this message.",
			s.brandName, code)
	}

	switch domain.CodeVerificationPurpose(purpose) {
	case domain.PurposeForgotPassword:
		return fmt.Sprintf("Your password reset code is %s.\n\nIf you did not request a reset, ignore this message.", code)
	case domain.PurposeSignin2FA:
		return fmt.Sprintf("Your sign-in code is %s.\n\nIf this was not you, change your password immediately.", code)
	default:
		return fmt.Sprintf("Your verification code is %s.\n\nIf you did not request this, ignore this message.", code)
	}
}
