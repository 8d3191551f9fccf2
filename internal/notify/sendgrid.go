package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends email through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

var _ Mailer = (*SendGridMailer)(nil)

// NewSendGridMailer creates a mailer with the given API key and sender identity.
func NewSendGridMailer(key, fromName, fromAddr string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(key),
		from:   sgmail.NewEmail(fromName, fromAddr),
	}
}

// Send delivers one message.
func (m *SendGridMailer) Send(ctx context.Context, e Email) error {
	msg := sgmail.NewSingleEmail(m.from, e.Subject, sgmail.NewEmail(e.ToName, e.ToAddr), e.Body, "")
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
