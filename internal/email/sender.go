package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para notificaciones de cuenta.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail string) error
	SendAccountDeletion(ctx context.Context, toEmail string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendWelcome(_ context.Context, _ string) error {
	return s.err()
}

func (s *disabledSender) SendAccountDeletion(_ context.Context, _ string) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
