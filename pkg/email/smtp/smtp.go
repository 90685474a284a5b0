package smtp

import (
	"context"
	"errors"
	"fmt"

	"github.com/joblo-ai/backend/pkg/email"

	"gopkg.in/gomail.v2"
)

type Sender struct {
	from string
	pass string
	host string
	port int
}

func NewSMTPSender(from, pass, host string, port int) (*Sender, error) {
	if !email.IsEmailValid(from) {
		return nil, errors.New("invalid from email")
	}

	return &Sender{from: from, pass: pass, host: host, port: port}, nil
}

func (s *Sender) Name() string {
	return "smtp"
}

func (s *Sender) Send(_ context.Context, input email.SendEmailInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", input.To)
	msg.SetHeader("Subject", input.Subject)
	msg.SetBody("text/plain", input.Body)

	dialer := gomail.NewDialer(s.host, s.port, s.from, s.pass)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}
