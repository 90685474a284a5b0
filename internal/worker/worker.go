package worker

import (
	"context"

	"github.com/joblo-ai/backend/internal/config"
	emailProvider "github.com/joblo-ai/backend/pkg/email"
	smsProvider "github.com/joblo-ai/backend/pkg/sms"
)

type Workers struct {
	CodeSender CodeSender
}

type Deps struct {
	EmailProviders []emailProvider.Sender
	SMSProviders   []smsProvider.Sender
	Config         *config.Config
}

type CodeSender interface {
	SendEmailCode(ctx context.Context, email string, purpose string, code string, isLink bool) error
	SendSMSCode(ctx context.Context, phoneNumber string, purpose string, code string) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		CodeSender: newCodeSender(deps.EmailProviders, deps.SMSProviders, deps.Config.Auth.BrandName),
	}
}
