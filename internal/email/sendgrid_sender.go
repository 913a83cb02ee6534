package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender envia correos con la API HTTP de SendGrid.
type SendGridSender struct {
	client   sendGridClient
	from     string
	fromName string
}

func NewSendGridSender(apiKey, from, fromName string) (*SendGridSender, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("sendgrid from is required")
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}, nil
}

func (s *SendGridSender) SendWelcome(ctx context.Context, toEmail string) error {
	return s.send(ctx, toEmail, welcomeMessage(toEmail))
}

func (s *SendGridSender) SendAccountDeletion(ctx context.Context, toEmail string) error {
	return s.send(ctx, toEmail, accountDeletionMessage(toEmail))
}

func (s *SendGridSender) send(ctx context.Context, toEmail string, m message) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("to email is required")
	}
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail("", toEmail)
	payload := mail.NewSingleEmail(from, m.subject, to, m.text, m.html)

	response, err := s.client.SendWithContext(ctx, payload)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d - %s", response.StatusCode, response.Body)
	}
	return nil
}
