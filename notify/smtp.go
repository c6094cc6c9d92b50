package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPTransport delivers email over SMTP with implicit TLS.
type SMTPTransport struct {
	config SMTPConfig
}

// NewSMTPTransport creates a transport for the given relay.
func NewSMTPTransport(config SMTPConfig) *SMTPTransport {
	if config.Port == 0 {
		config.Port = 465
	}
	return &SMTPTransport{config: config}
}

// Name implements Transport.
func (t *SMTPTransport) Name() string {
	return "smtp"
}

// Send implements Transport. The SMTP sender is the authenticated account,
// not the message From, because relays reject mismatched envelopes.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(t.config.Username); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	if msg.Text != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		if msg.HTML != "" {
			m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
		}
	} else {
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	}

	client, err := mail.NewClient(t.config.Host,
		mail.WithPort(t.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(t.config.Username),
		mail.WithPassword(t.config.Password),
		mail.WithSSL(),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}
