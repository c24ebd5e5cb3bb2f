// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

// Package mail delivers outbound messages over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/hudumia/hudumia/internal/auth"
	"github.com/hudumia/hudumia/internal/observability"
)

const (
	sendRetryBase = time.Second
	sendRetryMax  = 2
)

// sendFunc matches smtp.SendMail so delivery can be stubbed in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer implements auth.Mailer over a single SMTP relay.
type SMTPMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	send     sendFunc
	failures func(kind string)
}

// Compile-time interface check.
var _ auth.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for the relay at host:port. Username and
// password are optional; when empty the connection is unauthenticated, which
// is common for local development relays.
func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	if host == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("smtp host is required")
	}
	if from == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("smtp from address is required")
	}

	var a smtp.Auth
	if username != "" {
		a = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		from:     from,
		auth:     a,
		send:     smtp.SendMail,
		failures: observability.RecordMailDeliveryFailure,
	}, nil
}

// Send delivers the message, retrying transient failures with fibonacci
// backoff. The final failure is recorded in the mail delivery metric and
// returned with code MAIL_DELIVERY_FAILED.
func (m *SMTPMailer) Send(ctx context.Context, msg auth.Message) error {
	if msg.To == "" {
		return oops.Code("MAIL_DELIVERY_FAILED").Errorf("recipient address is empty")
	}

	payload := m.encode(msg)

	backoff := retry.WithMaxRetries(sendRetryMax, retry.NewFibonacci(sendRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := m.dispatch(ctx, msg.To, payload); sendErr != nil {
			slog.Debug("mail delivery attempt failed", "to", msg.To, "error", sendErr)
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		m.failures("smtp")
		return oops.Code("MAIL_DELIVERY_FAILED").
			With("operation", "send mail").
			With("relay", m.addr).
			Wrap(err)
	}

	return nil
}

// dispatch runs the blocking SMTP exchange in a goroutine so the caller's
// context deadline is honored. net/smtp has no context support of its own.
func (m *SMTPMailer) dispatch(ctx context.Context, to string, payload []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, m.from, []string{to}, payload)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// encode builds the RFC 5322 payload. Header values come from our own
// templates, not user input, so no header injection escaping is needed
// beyond stripping line breaks from the subject.
func (m *SMTPMailer) encode(msg auth.Message) []byte {
	subject := strings.NewReplacer("\r", " ", "\n", " ").Replace(msg.Subject)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
