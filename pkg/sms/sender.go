package sms

import "context"

// Sender delivers a single SMS to an E.164 formatted number.
// Implementations are interchangeable providers selected by configuration.
type Sender interface {
	Name() string
	Send(ctx context.Context, to string, text string) error
}
