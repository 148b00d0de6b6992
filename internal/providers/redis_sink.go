package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"careops/backend/internal/cache"
)

const mockTTL = 5 * time.Minute

// RedisSink stores each notification in Redis so end-to-end tests can read it
// back through the service API. Enabled by MOCK_SERVICES.
type RedisSink struct {
	client *redis.Client
	from   string
	log    zerolog.Logger
}

func NewRedisSink(client *redis.Client, from string, log zerolog.Logger) *RedisSink {
	return &RedisSink{client: client, from: from, log: log}
}

func (s *RedisSink) store(ctx context.Context, channel, recipient string, data map[string]any) error {
	data["channel"] = channel
	data["sent_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s notification: %w", channel, err)
	}
	key := cache.MockNotificationKey(channel, recipient)
	if err := s.client.Set(ctx, key, jsonData, mockTTL).Err(); err != nil {
		return fmt.Errorf("failed to store notification in Redis key '%s': %w", key, err)
	}
	s.log.Debug().Str("key", key).Msg("mock notification stored")
	return nil
}

func (s *RedisSink) SendEmail(ctx context.Context, to, subject, body string) error {
	return s.store(ctx, "email", to, map[string]any{
		"to":      to,
		"from":    s.from,
		"subject": subject,
		"body":    body,
	})
}

func (s *RedisSink) SendSMS(ctx context.Context, to, body string) error {
	return s.store(ctx, "sms", to, map[string]any{"to": to, "body": body})
}

func (s *RedisSink) CreateEvent(ctx context.Context, ev CalendarEvent) error {
	return s.store(ctx, "calendar", ev.Attendee, map[string]any{
		"title":    ev.Title,
		"start":    ev.Start.UTC().Format(time.RFC3339),
		"end":      ev.End.UTC().Format(time.RFC3339),
		"attendee": ev.Attendee,
	})
}
