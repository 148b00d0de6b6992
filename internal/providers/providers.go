// Package providers holds the delivery backends behind the notification channel.
package providers

import (
	"context"
	"time"
)

// EmailSender delivers a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// CalendarEvent is an appointment pushed to a calendar provider.
type CalendarEvent struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Attendee string    `json:"attendee"`
}

// CalendarProvider creates calendar events.
type CalendarProvider interface {
	CreateEvent(ctx context.Context, ev CalendarEvent) error
}

// WebhookPublisher fans a domain event out to external subscribers.
type WebhookPublisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]any) error
}
