package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.ErrorContains(t, err, "host is required")

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.example.com"})
	require.ErrorContains(t, err, "port is required")

	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, mailer)
}

func TestSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: "invitee@example.com", Subject: "Hi"})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendValidatesAddresses(t *testing.T) {
	mailer := &smtpMailer{
		cfg: SMTPSettings{Enabled: true, Host: "mail.example.com", Port: 587, From: "ourhome@example.com"},
		send: func(context.Context, SMTPSettings, string, string, string) error {
			return nil
		},
	}

	err := mailer.Send(context.Background(), Message{To: "", Subject: "Hi"})
	require.ErrorContains(t, err, "recipient")

	err = mailer.Send(context.Background(), Message{To: "not an address", Subject: "Hi"})
	require.ErrorContains(t, err, "invalid recipient")

	noSender := &smtpMailer{
		cfg:  SMTPSettings{Enabled: true, Host: "mail.example.com", Port: 587},
		send: func(context.Context, SMTPSettings, string, string, string) error { return nil },
	}
	err = noSender.Send(context.Background(), Message{To: "invitee@example.com"})
	require.ErrorContains(t, err, "sender")
}

func TestSendComposesPayload(t *testing.T) {
	var captured string
	mailer := &smtpMailer{
		cfg: SMTPSettings{
			Enabled: true,
			Host:    "mail.example.com",
			Port:    587,
			From:    "ourhome@example.com",
			Timeout: time.Second,
		},
		send: func(_ context.Context, _ SMTPSettings, _, _, payload string) error {
			captured = payload
			return nil
		},
	}

	err := mailer.Send(context.Background(), Message{
		To:      "invitee@example.com",
		Subject: "You're invited\r\nX-Injected: no",
		Body:    "Hello!\n",
	})
	require.NoError(t, err)

	require.Contains(t, captured, "From: ourhome@example.com\r\n")
	require.Contains(t, captured, "To: invitee@example.com\r\n")
	// Header injection attempts are flattened.
	require.Contains(t, captured, "Subject: You're invited X-Injected: no\r\n")
	require.True(t, strings.HasSuffix(captured, "\r\nHello!\n"))
}

func TestSanitizeHeader(t *testing.T) {
	require.Equal(t, "a b", sanitizeHeader("a\r\nb"))
	require.Equal(t, "a b", sanitizeHeader("a\rb"))
	require.Equal(t, "a b", sanitizeHeader("a\nb"))
	require.Equal(t, "a b c", sanitizeHeader("a\r\nb\nc"))
	require.Equal(t, "plain", sanitizeHeader("plain"))
}

func TestSendPropagatesDeliveryError(t *testing.T) {
	boom := errors.New("connection refused")
	mailer := &smtpMailer{
		cfg: SMTPSettings{Enabled: true, Host: "mail.example.com", Port: 587, From: "ourhome@example.com"},
		send: func(context.Context, SMTPSettings, string, string, string) error {
			return boom
		},
	}

	err := mailer.Send(context.Background(), Message{To: "invitee@example.com", Subject: "Hi"})
	require.ErrorIs(t, err, boom)
}
