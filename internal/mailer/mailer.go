// Package mailer delivers outgoing email through Mailgun, a RabbitMQ queue
// drained by the mail worker, or the log in development.
package mailer

import (
	"context"
	"log/slog"

	"social/internal/config"
	"social/internal/middleware"
	"social/internal/observability"
)

// Email is one outgoing message. HTML is optional.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Receipt describes what a transport did with an email.
type Receipt struct {
	Transport string   `json:"transport"`
	ID        string   `json:"id,omitempty"`
	Accepted  []string `json:"accepted"`
}

// Sender hands an email to a transport.
type Sender interface {
	Send(ctx context.Context, email Email) (Receipt, error)
}

// New picks the transport configured in cfg: the queue when RabbitMQ is set,
// Mailgun when its credentials are, and the log otherwise.
func New(cfg *config.Config) (Sender, func(), error) {
	switch {
	case cfg.RabbitMQURL != "":
		q, err := NewQueue(cfg.RabbitMQURL, cfg.EmailQueue)
		if err != nil {
			return nil, nil, err
		}
		return q, q.Close, nil
	case cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "":
		return NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailSender), func() {}, nil
	default:
		middleware.Logger.Warn("no mail transport configured, emails are logged only")
		return LogSender{}, func() {}, nil
	}
}

func record(transport string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.EmailsSent.WithLabelValues(transport, result).Inc()
}

// LogSender writes emails to the application log instead of sending them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, email Email) (Receipt, error) {
	middleware.Logger.InfoContext(ctx, "email",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("html", email.HTML),
	)
	record("log", nil)
	return Receipt{Transport: "log", Accepted: []string{email.To}}, nil
}
