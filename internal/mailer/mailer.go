package mailer

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is a rendered outbound email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers rendered messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the mailer selected by cfg.Mode
func New(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Mode == "smtp" {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}

// SMTPMailer sends through an SMTP relay
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(cfg *config.MailConfig) *SMTPMailer {
	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.From)
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// Send delivers msg as an HTML email
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := gomail.NewMessage()
	email.SetHeader("From", m.from)
	email.SetHeader("To", msg.To)
	email.SetHeader("Subject", msg.Subject)
	email.SetBody("text/html", msg.Body)

	if err := m.dialer.DialAndSend(email); err != nil {
		return fmt.Errorf("smtp delivery to %s failed: %w", msg.To, err)
	}
	return nil
}

// LogMailer only logs messages. Used in development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg and reports success
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("offer email (log mode)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_length", len(msg.Body)),
	)
	return nil
}
