package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mail "github.com/go-mail/mail/v2"
)

// Config describes the SMTP relay used for outgoing mail.
type Config struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
	Timeout       time.Duration
}

// Dialer is the subset of the go-mail dialer used to deliver messages.
type Dialer interface {
	DialAndSend(messages ...*mail.Message) error
}

// SMTPMailer sends HTML mail through an SMTP relay.
type SMTPMailer struct {
	dialer Dialer
	from   string
}

// New configures a mailer with mandatory STARTTLS.
func New(cfg Config) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp host and sender must be provided")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	dialer := mail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)
	dialer.StartTLSPolicy = mail.MandatoryStartTLS
	dialer.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec
	}
	if cfg.Timeout > 0 {
		dialer.Timeout = cfg.Timeout
	}

	return NewWithDialer(dialer, cfg.From), nil
}

// NewWithDialer builds a mailer around an existing dialer.
func NewWithDialer(dialer Dialer, from string) *SMTPMailer {
	return &SMTPMailer{dialer: dialer, from: from}
}

// Send delivers an HTML message to the recipients. An empty recipient list is a no-op.
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, html string) error {
	recipients := make([]string, 0, len(to))
	for _, address := range to {
		if trimmed := strings.TrimSpace(address); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	if len(recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := mail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", recipients...)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
