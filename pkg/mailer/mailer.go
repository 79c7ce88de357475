package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailcanvas/mailcanvas/pkg/logger"
	"github.com/wneessen/go-mail"
)

//go:generate mockgen -destination=../mocks/mock_mailer.go -package=mocks github.com/mailcanvas/mailcanvas/pkg/mailer Mailer

// Mailer delivers rendered templates to a single recipient for review
type Mailer interface {
	SendTest(ctx context.Context, msg Message) error
}

// Message is a rendered template ready to send. Text is the plain-text
// alternative and may be empty.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Config holds the configuration for the mailer
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool
	FromEmail    string
	FromName     string
	Timeout      time.Duration
}

// SMTPMailer implements Mailer using SMTP
type SMTPMailer struct {
	config *Config
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{config: config}
}

// SendTest builds a multipart message (HTML with a plain-text alternative)
// and delivers it
func (m *SMTPMailer) SendTest(ctx context.Context, message Message) error {
	msg, err := m.buildMessage(message)
	if err != nil {
		return err
	}

	client, err := m.createSMTPClient()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send test email: %w", err)
	}

	return nil
}

func (m *SMTPMailer) buildMessage(message Message) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return nil, fmt.Errorf("failed to set email from address: %w", err)
	}

	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("failed to set email recipient: %w", err)
	}

	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)
	if message.Text != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, message.Text)
	}

	return msg, nil
}

// createSMTPClient creates and configures a new SMTP client
func (m *SMTPMailer) createSMTPClient() (*mail.Client, error) {
	timeout := m.config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	policy := mail.TLSOpportunistic
	if !m.config.SMTPUseTLS {
		policy = mail.NoTLS
	}

	clientOptions := []mail.Option{
		mail.WithPort(m.config.SMTPPort),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(timeout),
	}

	// Local relays and the dev inbox may accept mail without auth
	if m.config.SMTPUsername != "" && m.config.SMTPPassword != "" {
		clientOptions = append(clientOptions,
			mail.WithUsername(m.config.SMTPUsername),
			mail.WithPassword(m.config.SMTPPassword),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}

	client, err := mail.NewClient(m.config.SMTPHost, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client, nil
}

// ConsoleMailer logs test sends instead of delivering them
type ConsoleMailer struct {
	logger logger.Logger
}

// NewConsoleMailer creates a new console mailer for development
func NewConsoleMailer(log logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: log}
}

func (m *ConsoleMailer) SendTest(_ context.Context, msg Message) error {
	m.logger.WithFields(map[string]interface{}{
		"to":         msg.To,
		"subject":    msg.Subject,
		"html_bytes": len(msg.HTML),
		"text_bytes": len(msg.Text),
	}).Info("Test email not delivered (console mailer)")
	return nil
}
