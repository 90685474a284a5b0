package dev

import (
	"context"

	"github.com/joblo-ai/backend/pkg/logger"

	"go.uber.org/zap"
)

// Sender is the log-only sink used when no real provider is configured.
type Sender struct{}

func NewDevSender() *Sender {
	return &Sender{}
}

func (s *Sender) Name() string {
	return "dev"
}

func (s *Sender) Send(_ context.Context, to string, text string) error {
	logger.Info("dev sms sink",
		zap.String("to", to),
		zap.String("text", text),
	)

	return nil
}
