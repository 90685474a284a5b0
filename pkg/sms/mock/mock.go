package mock_sms

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type SMSSender struct {
	mock.Mock
}

func (m *SMSSender) Name() string {
	return "mock"
}

func (m *SMSSender) Send(ctx context.Context, to string, text string) error {
	args := m.Called(ctx, to, text)

	return args.Error(0)
}
