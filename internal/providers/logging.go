package providers

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggingSender records deliveries in the log instead of performing them.
// It stands in for every provider the deployment has no real backend for.
type LoggingSender struct {
	log zerolog.Logger
}

func NewLoggingSender(log zerolog.Logger) *LoggingSender {
	return &LoggingSender{log: log}
}

func (s *LoggingSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email (logged)")
	return nil
}

func (s *LoggingSender) SendSMS(ctx context.Context, to, body string) error {
	s.log.Info().Str("to", to).Str("body", body).Msg("sms (logged)")
	return nil
}

func (s *LoggingSender) CreateEvent(ctx context.Context, ev CalendarEvent) error {
	s.log.Info().
		Str("title", ev.Title).
		Time("start", ev.Start).
		Time("end", ev.End).
		Str("attendee", ev.Attendee).
		Msg("calendar event (logged)")
	return nil
}

func (s *LoggingSender) Publish(ctx context.Context, eventType string, payload map[string]any) error {
	s.log.Info().Str("event", eventType).Interface("payload", payload).Msg("webhook (logged)")
	return nil
}
