package providers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"careops/backend/internal/config"
)

// SMTPSender delivers email through the configured SMTP relay.
type SMTPSender struct {
	client *mail.Client
	from   string
	log    zerolog.Logger
}

// NewEmailSender returns an SMTP sender, or a LoggingSender when no SMTP host is configured.
func NewEmailSender(cfg *config.Config, log zerolog.Logger) (EmailSender, error) {
	if cfg.SmtpHost == "" {
		log.Warn().Msg("SMTP host not configured, using logging email sender")
		return NewLoggingSender(log), nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SmtpPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(cfg.NotifyTimeout()),
	}
	if cfg.SmtpUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SmtpUsername),
			mail.WithPassword(cfg.SmtpPassword),
		)
	}
	client, err := mail.NewClient(cfg.SmtpHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.SmtpFromAddress, log: log}, nil
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address %q: %w", s.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}
	s.log.Info().Str("to", to).Str("subject", subject).Msg("email sent via SMTP")
	return nil
}
