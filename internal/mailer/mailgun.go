package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	client *mg.MailgunImpl
	sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), sender: sender}
}

// Send sends an email via Mailgun. The HTML body is used when set.
func (m *Mailgun) Send(ctx context.Context, email Email) (Receipt, error) {
	msg := m.client.NewMessage(m.sender, email.Subject, email.Text, email.To)
	if email.HTML != "" {
		msg.SetHtml(email.HTML)
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, id, err := m.client.Send(c, msg)
	record("mailgun", err)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Transport: "mailgun", ID: id, Accepted: []string{email.To}}, nil
}
