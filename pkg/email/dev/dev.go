package dev

import (
	"context"

	"github.com/joblo-ai/backend/pkg/email"
	"github.com/joblo-ai/backend/pkg/logger"

	"go.uber.org/zap"
)

// Sender is the log-only sink used when no real provider is configured.
// It never fails, so local environments always see the code in the logs.
type Sender struct{}

func NewDevSender() *Sender {
	return &Sender{}
}

func (s *Sender) Name() string {
	return "dev"
}

func (s *Sender) Send(_ context.Context, input email.SendEmailInput) error {
	logger.Info("dev email sink",
		zap.String("to", input.To),
		zap.String("subject", input.Subject),
		zap.String("body", input.Body),
	)

	return nil
}
