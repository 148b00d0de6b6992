// Package automation decides which notifications follow a domain event and
// hands them to the notification channel. Nothing here returns a delivery error.
package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"careops/backend/internal/models"
	"careops/backend/internal/notify"
	"careops/backend/internal/providers"
	"careops/backend/internal/store"
)

const (
	welcomeSubject      = "Welcome to CareOps!"
	confirmationSubject = "Booking Confirmation"
	reminderSubject     = "Booking Reminder"
	formSubject         = "Form Reminder"
)

// IEngine reacts to explicitly fired domain events.
type IEngine interface {
	OnContactCreated(ctx context.Context, contact models.Contact)
	OnBookingCreated(ctx context.Context, booking models.Booking)
	OnBookingReminderDue(ctx context.Context, booking models.Booking)
	OnFormReminderDue(ctx context.Context, booking models.Booking)
	// ShouldContinue is false once staff has replied to the contact. It is
	// advisory: none of the handlers above consult it.
	ShouldContinue(ctx context.Context, contactID string) (bool, error)
}

type engine struct {
	contacts store.ContactStore
	messages store.MessageStore
	channel  notify.Channel
	log      zerolog.Logger
}

func NewEngine(contacts store.ContactStore, messages store.MessageStore, channel notify.Channel, log zerolog.Logger) IEngine {
	return &engine{
		contacts: contacts,
		messages: messages,
		channel:  channel,
		log:      log.With().Str("component", "automation").Logger(),
	}
}

func (e *engine) OnContactCreated(ctx context.Context, contact models.Contact) {
	e.log.Info().Str("contact_id", contact.ID).Msg("new contact event")

	if email := contact.EmailAddress(); email != "" {
		ok := e.channel.SendEmail(ctx, notify.EmailRequest{
			To:        email,
			Subject:   welcomeSubject,
			Body:      fmt.Sprintf("Hi %s,\n\nThank you for contacting us. We'll be in touch soon!", contact.Name),
			ContactID: contact.ID,
		})
		e.log.Info().Bool("success", ok).Str("contact_id", contact.ID).Msg("welcome email")
	}
	if phone := contact.PhoneNumber(); phone != "" {
		ok := e.channel.SendSMS(ctx, notify.SMSRequest{
			To:        phone,
			Body:      fmt.Sprintf("Hi %s, thank you for contacting us!", contact.Name),
			ContactID: contact.ID,
		})
		e.log.Info().Bool("success", ok).Str("contact_id", contact.ID).Msg("welcome sms")
	}
}

func (e *engine) OnBookingCreated(ctx context.Context, booking models.Booking) {
	e.log.Info().Str("booking_id", booking.ID).Msg("booking created event")

	contact, ok := e.resolve(ctx, booking)
	if !ok {
		return
	}
	body := fmt.Sprintf("Hi %s, your booking is confirmed for %s.", contact.Name, booking.StartTime.Format("2006-01-02 15:04"))
	e.notify(ctx, contact, confirmationSubject, body)

	if email := contact.EmailAddress(); email != "" {
		ok := e.channel.CreateCalendarEvent(ctx, providers.CalendarEvent{
			Title:    "Booking with " + contact.Name,
			Start:    booking.StartTime,
			End:      booking.EndTime,
			Attendee: email,
		})
		e.log.Info().Bool("success", ok).Str("booking_id", booking.ID).Msg("calendar event")
	}
}

func (e *engine) OnBookingReminderDue(ctx context.Context, booking models.Booking) {
	e.log.Info().Str("booking_id", booking.ID).Msg("booking reminder event")

	contact, ok := e.resolve(ctx, booking)
	if !ok {
		return
	}
	body := fmt.Sprintf("Hi %s, reminder: your booking is tomorrow at %s.", contact.Name, booking.StartTime.Format("15:04"))
	e.notify(ctx, contact, reminderSubject, body)
}

func (e *engine) OnFormReminderDue(ctx context.Context, booking models.Booking) {
	e.log.Info().Str("booking_id", booking.ID).Msg("form reminder event")

	contact, ok := e.resolve(ctx, booking)
	if !ok {
		return
	}
	body := fmt.Sprintf("Hi %s, please complete your intake form before your appointment.", contact.Name)
	e.notify(ctx, contact, formSubject, body)
}

func (e *engine) ShouldContinue(ctx context.Context, contactID string) (bool, error) {
	replied, err := e.messages.HasStaffReply(ctx, contactID)
	if err != nil {
		return false, fmt.Errorf("failed to check staff replies for contact %s: %w", contactID, err)
	}
	return !replied, nil
}

// resolve loads the booking's contact. A missing contact drops the event.
func (e *engine) resolve(ctx context.Context, booking models.Booking) (models.Contact, bool) {
	contact, err := e.contacts.Get(ctx, booking.ContactID)
	if errors.Is(err, store.ErrNotFound) {
		e.log.Debug().Str("booking_id", booking.ID).Str("contact_id", booking.ContactID).Msg("contact not found, event dropped")
		return models.Contact{}, false
	}
	if err != nil {
		e.log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to load contact, event dropped")
		return models.Contact{}, false
	}
	return *contact, true
}

// notify sends body to every contact detail on file, email first.
func (e *engine) notify(ctx context.Context, contact models.Contact, subject, body string) {
	if email := contact.EmailAddress(); email != "" {
		ok := e.channel.SendEmail(ctx, notify.EmailRequest{To: email, Subject: subject, Body: body, ContactID: contact.ID})
		e.log.Info().Bool("success", ok).Str("contact_id", contact.ID).Str("subject", subject).Msg("email")
	}
	if phone := contact.PhoneNumber(); phone != "" {
		ok := e.channel.SendSMS(ctx, notify.SMSRequest{To: phone, Body: body, ContactID: contact.ID})
		e.log.Info().Bool("success", ok).Str("contact_id", contact.ID).Msg("sms")
	}
}
