// Package notify is the single boundary through which the backend talks to
// email, SMS, calendar and webhook providers. Calls report success as a bool;
// failures are recorded as failed messages and integration alerts, never returned.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"careops/backend/internal/models"
	"careops/backend/internal/providers"
	"careops/backend/internal/store"
)

// DefaultTimeout bounds a provider call when none is configured.
const DefaultTimeout = 10 * time.Second

type EmailRequest struct {
	To        string
	Subject   string
	Body      string
	ContactID string
	StaffID   *string
}

type SMSRequest struct {
	To        string
	Body      string
	ContactID string
	StaffID   *string
}

// Channel delivers notifications and records their outcome.
type Channel interface {
	SendEmail(ctx context.Context, req EmailRequest) bool
	SendSMS(ctx context.Context, req SMSRequest) bool
	CreateCalendarEvent(ctx context.Context, ev providers.CalendarEvent) bool
	TriggerWebhook(ctx context.Context, eventType string, payload map[string]any) bool
	// Deliver sends an email or sms and returns the persisted message record.
	// The record is nil only when the pending row could not be written.
	Deliver(ctx context.Context, out Outbound) (*models.Message, bool)
}

// Outbound is a message addressed to a contact on a single channel.
type Outbound struct {
	Channel   models.MessageChannel
	To        string
	Subject   string
	Body      string
	ContactID string
	StaffID   *string
}

// Providers groups the delivery backends. A nil provider fails every call routed to it.
type Providers struct {
	Email    providers.EmailSender
	SMS      providers.SMSSender
	Calendar providers.CalendarProvider
	Webhook  providers.WebhookPublisher
}

type channel struct {
	messages  store.MessageStore
	alerts    store.AlertStore
	providers Providers
	timeout   time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewChannel creates a Channel persisting through messages and alerts.
func NewChannel(messages store.MessageStore, alerts store.AlertStore, p Providers, timeout time.Duration, log zerolog.Logger) Channel {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &channel{
		messages:  messages,
		alerts:    alerts,
		providers: p,
		timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.With().Str("component", "notify").Logger(),
	}
}

func (c *channel) SendEmail(ctx context.Context, req EmailRequest) bool {
	_, ok := c.Deliver(ctx, Outbound{
		Channel:   models.ChannelEmail,
		To:        req.To,
		Subject:   req.Subject,
		Body:      req.Body,
		ContactID: req.ContactID,
		StaffID:   req.StaffID,
	})
	return ok
}

func (c *channel) SendSMS(ctx context.Context, req SMSRequest) bool {
	_, ok := c.Deliver(ctx, Outbound{
		Channel:   models.ChannelSMS,
		To:        req.To,
		Body:      req.Body,
		ContactID: req.ContactID,
		StaffID:   req.StaffID,
	})
	return ok
}

func (c *channel) Deliver(ctx context.Context, out Outbound) (msg *models.Message, ok bool) {
	defer c.guard("deliver", &ok)
	// an attempt runs to completion once started; only the per-attempt timeout bounds it
	ctx = context.WithoutCancel(ctx)

	var send func(context.Context) error
	var label string
	switch out.Channel {
	case models.ChannelEmail:
		label = "email"
		send = func(ctx context.Context) error {
			if c.providers.Email == nil {
				return fmt.Errorf("no email provider configured")
			}
			return c.providers.Email.SendEmail(ctx, out.To, out.Subject, out.Body)
		}
	case models.ChannelSMS:
		label = "SMS"
		send = func(ctx context.Context) error {
			if c.providers.SMS == nil {
				return fmt.Errorf("no sms provider configured")
			}
			return c.providers.SMS.SendSMS(ctx, out.To, out.Body)
		}
	default:
		c.log.Error().Str("channel", string(out.Channel)).Msg("unsupported delivery channel")
		return nil, false
	}
	failure := fmt.Sprintf("Failed to send %s to %s", label, out.To)

	record := &models.Message{
		ContactID: out.ContactID,
		StaffID:   out.StaffID,
		Channel:   out.Channel,
		Direction: models.DirectionOutgoing,
		Status:    models.MessagePending,
		Content:   out.Body,
		CreatedAt: c.now(),
	}
	if out.Subject != "" {
		subject := out.Subject
		record.Subject = &subject
	}

	// the pending row is committed before the provider is called
	if err := c.messages.Insert(ctx, record); err != nil {
		c.log.Error().Err(err).Str("channel", label).Str("to", out.To).Msg("failed to record pending message")
		c.raise(ctx, failure, fmt.Errorf("could not record message: %w", err))
		return nil, false
	}

	sendErr := c.call(ctx, send)
	if sendErr != nil {
		errMsg := sendErr.Error()
		record.Status = models.MessageFailed
		record.ErrorMessage = &errMsg
	} else {
		sentAt := c.now()
		record.Status = models.MessageSent
		record.SentAt = &sentAt
	}
	if err := c.messages.Replace(ctx, record); err != nil {
		c.log.Error().Err(err).Str("message_id", record.ID).Msg("failed to record message outcome")
	}

	if sendErr != nil {
		c.log.Warn().Err(sendErr).Str("channel", label).Str("to", out.To).Msg("delivery failed")
		c.raise(ctx, failure, sendErr)
		return record, false
	}
	c.log.Info().Str("channel", label).Str("to", out.To).Str("message_id", record.ID).Msg("delivered")
	return record, true
}

func (c *channel) CreateCalendarEvent(ctx context.Context, ev providers.CalendarEvent) (ok bool) {
	defer c.guard("calendar", &ok)
	ctx = context.WithoutCancel(ctx)

	err := c.call(ctx, func(ctx context.Context) error {
		if c.providers.Calendar == nil {
			return fmt.Errorf("no calendar provider configured")
		}
		return c.providers.Calendar.CreateEvent(ctx, ev)
	})
	if err != nil {
		c.log.Warn().Err(err).Str("title", ev.Title).Msg("calendar event failed")
		c.raise(ctx, "Failed to create calendar event: "+ev.Title, err)
		return false
	}
	return true
}

func (c *channel) TriggerWebhook(ctx context.Context, eventType string, payload map[string]any) (ok bool) {
	defer c.guard("webhook", &ok)
	ctx = context.WithoutCancel(ctx)

	err := c.call(ctx, func(ctx context.Context) error {
		if c.providers.Webhook == nil {
			return fmt.Errorf("no webhook publisher configured")
		}
		return c.providers.Webhook.Publish(ctx, eventType, payload)
	})
	if err != nil {
		c.log.Warn().Err(err).Str("event", eventType).Msg("webhook failed")
		c.raise(ctx, "Failed to trigger webhook: "+eventType, err)
		return false
	}
	return true
}

// call runs fn under the per-attempt timeout. A panic inside fn becomes an error.
func (c *channel) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("provider panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("provider timed out after %s: %w", c.timeout, ctx.Err())
	}
}

// raise records an integration alert. Integration alerts carry no reference and are never de-duplicated.
func (c *channel) raise(ctx context.Context, message string, cause error) {
	details := "Error: " + cause.Error()
	alert := &models.Alert{
		Type:      models.AlertIntegration,
		Severity:  models.SeverityWarning,
		Message:   message,
		Details:   &details,
		CreatedAt: c.now(),
	}
	if err := c.alerts.Insert(ctx, alert); err != nil {
		c.log.Error().Err(err).Str("alert", message).Msg("failed to record integration alert")
	}
}

// guard keeps a panic in persistence from escaping the channel.
func (c *channel) guard(op string, ok *bool) {
	if r := recover(); r != nil {
		c.log.Error().Interface("panic", r).Str("op", op).Msg("notification channel recovered")
		*ok = false
	}
}
