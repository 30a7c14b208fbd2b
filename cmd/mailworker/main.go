// Command mailworker drains the email queue and delivers each message.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"social/internal/config"
	"social/internal/mailer"
	"social/internal/middleware"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required")
	}

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" {
		sender = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailSender)
	} else {
		middleware.Logger.Warn("Mailgun is not configured, queued emails are logged only")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mailer.NewWorker(sender).Run(ctx, conn, cfg.EmailQueue); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
	middleware.Logger.Info("Mail worker stopped")
}
