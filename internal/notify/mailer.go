package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// RequireTLS enforces STARTTLS; otherwise it is used when offered.
	RequireTLS bool
	Timeout    time.Duration
}

// Mailer sends messages over SMTP.
type Mailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewMailer validates cfg and returns a Mailer.
func NewMailer(cfg SMTPConfig, logger *slog.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("notify: smtp host required")
	}
	if cfg.From == "" {
		return nil, errors.New("notify: sender address required")
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{cfg: cfg, logger: logger}, nil
}

// Compose converts msg into a MIME message.
func (m *Mailer) Compose(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: from: %w", err)
	}
	var err error
	if msg.ToName != "" {
		err = out.AddToFormat(msg.ToName, msg.To)
	} else {
		err = out.To(msg.To)
	}
	if err != nil {
		return nil, fmt.Errorf("notify: recipient: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	for _, a := range msg.Attachments {
		contentType := mail.TypeAppOctetStream
		if a.ContentType != "" {
			contentType = mail.ContentType(a.ContentType)
		}
		out.AttachReadSeeker(a.Name, bytes.NewReader(a.Data), mail.WithFileContentType(contentType))
	}
	return out, nil
}

// Send delivers msg, bounded by the configured timeout.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	out, err := m.Compose(msg)
	if err != nil {
		return err
	}
	policy := mail.TLSOpportunistic
	if m.cfg.RequireTLS {
		policy = mail.TLSMandatory
	}
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPolicy(policy),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("notify: send to %s: %w", msg.To, err)
	}
	m.logger.Info("mail sent", slog.String("to", msg.To), slog.String("subject", msg.Subject), slog.Int("attachments", len(msg.Attachments)))
	return nil
}

var _ Sender = (*Mailer)(nil)
