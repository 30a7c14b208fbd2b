package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"social/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	SendFunc func(ctx context.Context, email Email) (Receipt, error)
}

func (s *stubSender) Send(ctx context.Context, email Email) (Receipt, error) {
	return s.SendFunc(ctx, email)
}

func TestActivationEmail(t *testing.T) {
	t.Parallel()

	email, err := ActivationEmail("jane@example.com", "http://localhost:3000/social/api/v1/auth/activate/abc", 168*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", email.To)
	assert.Equal(t, "Activate Social Account", email.Subject)
	assert.Contains(t, email.HTML, `href="http://localhost:3000/social/api/v1/auth/activate/abc"`)
	assert.Contains(t, email.HTML, "expire in 7 days")
}

func TestHumanize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1 day", humanize(24*time.Hour))
	assert.Equal(t, "2 hours", humanize(2*time.Hour))
	assert.Equal(t, "30m0s", humanize(30*time.Minute))
}

func TestWorker_Handle(t *testing.T) {
	t.Parallel()

	var sent []Email
	ok := NewWorker(&stubSender{SendFunc: func(_ context.Context, e Email) (Receipt, error) {
		sent = append(sent, e)
		return Receipt{Transport: "stub"}, nil
	}})

	body, err := json.Marshal(Email{To: "a@example.com", Subject: "hi"})
	require.NoError(t, err)

	retry, err := ok.Handle(context.Background(), body)
	require.NoError(t, err)
	assert.False(t, retry)
	require.Len(t, sent, 1)
	assert.Equal(t, "hi", sent[0].Subject)

	retry, err = ok.Handle(context.Background(), []byte("{not json"))
	assert.Error(t, err)
	assert.False(t, retry)

	retry, err = ok.Handle(context.Background(), []byte(`{"subject":"no recipient"}`))
	assert.Error(t, err)
	assert.False(t, retry)

	failing := NewWorker(&stubSender{SendFunc: func(context.Context, Email) (Receipt, error) {
		return Receipt{}, errors.New("mailgun down")
	}})
	retry, err = failing.Handle(context.Background(), body)
	assert.Error(t, err)
	assert.True(t, retry)
}

func TestNew_SelectsTransport(t *testing.T) {
	t.Parallel()

	sender, closeFn, err := New(&config.Config{})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, LogSender{}, sender)

	sender, closeFn, err = New(&config.Config{MailgunDomain: "mg.example.com", MailgunAPIKey: "key", MailSender: "a@example.com"})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &Mailgun{}, sender)
}

func TestLogSender(t *testing.T) {
	t.Parallel()
	receipt, err := LogSender{}.Send(context.Background(), Email{To: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "log", receipt.Transport)
	assert.Equal(t, []string{"a@example.com"}, receipt.Accepted)
}
