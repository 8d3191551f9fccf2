package notify

import (
	"context"
	"log"
)

// ConsoleMailer logs messages instead of sending them; for dev and tests.
type ConsoleMailer struct{}

var _ Mailer = ConsoleMailer{}

// Send logs the message.
func (ConsoleMailer) Send(_ context.Context, e Email) error {
	log.Printf("mail to %s <%s>: %s", e.ToName, e.ToAddr, e.Subject)
	return nil
}
