package worker

import (
	"context"
	"errors"
	"testing"

	emailProvider "github.com/joblo-ai/backend/pkg/email"
	mockEmail "github.com/joblo-ai/backend/pkg/email/mock"
	smsProvider "github.com/joblo-ai/backend/pkg/sms"
	mockSMS "github.com/joblo-ai/backend/pkg/sms/mock"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSendEmailCodeFirstProviderWins(t *testing.T) {
	primary := new(mockEmail.EmailSender)
	fallback := new(mockEmail.EmailSender)
	primary.On("Send", mock.Anything, mock.Anything).Return(nil)

	sender := newCodeSender([]emailProvider.Sender{primary, fallback}, nil, "Joblo AI")

	err := sender.SendEmailCode(context.Background(), "user@example.com", "FORGOT_PASSWORD", "1234", false)
	require.NoError(t, err)

	fallback.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendEmailCodeFallsBack(t *testing.T) {
	primary := new(mockEmail.EmailSender)
	fallback := new(mockEmail.EmailSender)
	primary.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	fallback.On("Send", mock.Anything, mock.MatchedBy(func(input emailProvider.SendEmailInput) bool {
		return input.To == "user@example.com"
	})).Return(nil)

	sender := newCodeSender([]emailProvider.Sender{primary, fallback}, nil, "Joblo AI")

	err := sender.SendEmailCode(context.Background(), "user@example.com", "PRE_SIGNUP", "1234", false)
	require.NoError(t, err)
	fallback.AssertCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendEmailCodeAllProvidersFail(t *testing.T) {
	primary := new(mockEmail.EmailSender)
	fallback := new(mockEmail.EmailSender)
	primary.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	fallback.On("Send", mock.Anything, mock.Anything).Return(errors.New("ses down"))

	sender := newCodeSender([]emailProvider.Sender{primary, fallback}, nil, "Joblo AI")

	err := sender.SendEmailCode(context.Background(), "user@example.com", "PRE_SIGNUP", "1234", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "all email providers failed")
}

func TestSendEmailCodeInvalidRecipient(t *testing.T) {
	primary := new(mockEmail.EmailSender)

	sender := newCodeSender([]emailProvider.Sender{primary}, nil, "Joblo AI")

	err := sender.SendEmailCode(context.Background(), "not-an-email", "PRE_SIGNUP", "1234", false)
	require.Error(t, err)
	primary.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendSMSCodeFallsBack(t *testing.T) {
	primary := new(mockSMS.SMSSender)
	fallback := new(mockSMS.SMSSender)
	primary.On("Send", mock.Anything, "+15551234", mock.Anything).Return(errors.New("sns down"))
	fallback.On("Send", mock.Anything, "+15551234", mock.MatchedBy(func(text string) bool {
		return text == "1234 is your Joblo AI verification code."
	})).Return(nil)

	sender := newCodeSender(nil, []smsProvider.Sender{primary, fallback}, "Joblo AI")

	err := sender.SendSMSCode(context.Background(), "+15551234", "SIGNIN_2FA", "1234")
	require.NoError(t, err)
}
