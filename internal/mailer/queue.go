package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"social/internal/middleware"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue publishes emails to a durable RabbitMQ queue for the mail worker.
type Queue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewQueue(url, queue string) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := declare(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Queue{conn: conn, ch: ch, queue: queue}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}

func (q *Queue) Close() {
	if q == nil {
		return
	}
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}

// Send publishes email as a persistent JSON message.
func (q *Queue) Send(ctx context.Context, email Email) (Receipt, error) {
	body, err := json.Marshal(email)
	if err != nil {
		return Receipt{}, err
	}
	id := uuid.NewString()
	err = q.ch.PublishWithContext(ctx,
		"",      // default exchange
		q.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	record("queue", err)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Transport: "queue", ID: id, Accepted: []string{email.To}}, nil
}

// Worker consumes queued emails and delivers them through a Sender.
type Worker struct {
	sender Sender
}

func NewWorker(sender Sender) *Worker {
	return &Worker{sender: sender}
}

// Run consumes queue on conn until ctx is cancelled or the channel closes.
func (w *Worker) Run(ctx context.Context, conn *amqp.Connection, queue string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	if err := declare(ch, queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	middleware.Logger.Info("email worker listening", slog.String("queue", queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			w.deliver(ctx, msg)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, msg amqp.Delivery) {
	retry, err := w.Handle(ctx, msg.Body)
	if err != nil {
		middleware.Logger.Error("email delivery failed",
			slog.String("message_id", msg.MessageId),
			slog.Bool("requeue", retry),
			slog.String("error", err.Error()),
		)
		_ = msg.Nack(false, retry)
		return
	}
	_ = msg.Ack(false)
}

// Handle decodes one queued email and sends it. retry reports whether a
// failure is worth redelivering.
func (w *Worker) Handle(ctx context.Context, body []byte) (retry bool, err error) {
	var email Email
	if err := json.Unmarshal(body, &email); err != nil {
		return false, fmt.Errorf("bad message: %w", err)
	}
	if email.To == "" {
		return false, fmt.Errorf("bad message: missing recipient")
	}
	if _, err := w.sender.Send(ctx, email); err != nil {
		return true, err
	}
	return false, nil
}
