package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"careops/backend/internal/models"
	"careops/backend/internal/notify"
	"careops/backend/internal/store"
)

// MessageInput records a message as-is, without delivering it.
type MessageInput struct {
	ContactID string
	StaffID   *string
	Channel   models.MessageChannel
	Direction models.MessageDirection
	Content   string
	Subject   *string
}

// ReplyInput is a staff reply on a conversation.
type ReplyInput struct {
	StaffID string
	Channel models.MessageChannel
	Content string
	Subject string
}

type IMessageService interface {
	Create(ctx context.Context, in MessageInput) (*models.Message, error)
	List(ctx context.Context, f store.MessageFilter) ([]models.Message, error)
	// ListByContact returns the contact's messages, newest first.
	ListByContact(ctx context.Context, contactID string, page store.Page) ([]models.Message, error)
	// ListConversations returns contacts with messages, most recently active first.
	ListConversations(ctx context.Context, page store.Page) ([]models.Conversation, error)
	GetConversation(ctx context.Context, contactID string) (*models.Conversation, error)
	// Reply delivers a staff message. A delivery failure is not an error: the
	// returned message carries status failed.
	Reply(ctx context.Context, contactID string, in ReplyInput) (*models.Message, error)
}

type messageService struct {
	st      *store.Store
	channel notify.Channel
	now     func() time.Time
	log     zerolog.Logger
}

func NewMessageService(st *store.Store, channel notify.Channel, log zerolog.Logger) IMessageService {
	return &messageService{
		st:      st,
		channel: channel,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.With().Str("component", "messages").Logger(),
	}
}

func (s *messageService) Create(ctx context.Context, in MessageInput) (*models.Message, error) {
	if !in.Channel.Valid() {
		return nil, invalidf("unknown channel %q", in.Channel)
	}
	if !in.Direction.Valid() {
		return nil, invalidf("unknown direction %q", in.Direction)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalidf("content is required")
	}
	if err := s.requireContact(ctx, in.ContactID); err != nil {
		return nil, err
	}

	m := &models.Message{
		Base:      models.NewBase(),
		ContactID: in.ContactID,
		StaffID:   normalize(in.StaffID),
		Channel:   in.Channel,
		Direction: in.Direction,
		Status:    models.MessagePending,
		Content:   in.Content,
		Subject:   normalize(in.Subject),
		CreatedAt: s.now(),
	}
	if err := s.st.Messages.Insert(ctx, m); err != nil {
		return nil, storeErr(err, "message", m.ID)
	}
	return m, nil
}

func (s *messageService) List(ctx context.Context, f store.MessageFilter) ([]models.Message, error) {
	out, err := s.st.Messages.List(ctx, f)
	return out, storeErr(err, "messages", "")
}

func (s *messageService) ListByContact(ctx context.Context, contactID string, page store.Page) ([]models.Message, error) {
	out, err := s.st.Messages.List(ctx, store.MessageFilter{Page: page, ContactID: &contactID})
	return out, storeErr(err, "messages", contactID)
}

func (s *messageService) ListConversations(ctx context.Context, page store.Page) ([]models.Conversation, error) {
	summaries, err := s.st.Messages.Conversations(ctx, page)
	if err != nil {
		return nil, storeErr(err, "conversations", "")
	}
	out := make([]models.Conversation, 0, len(summaries))
	for _, sum := range summaries {
		conv, err := s.GetConversation(ctx, sum.ContactID)
		if errors.Is(err, ErrNotFound) {
			s.log.Warn().Str("contact_id", sum.ContactID).Msg("messages reference a missing contact")
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *conv)
	}
	return out, nil
}

func (s *messageService) GetConversation(ctx context.Context, contactID string) (*models.Conversation, error) {
	contact, err := s.st.Contacts.Get(ctx, contactID)
	if err != nil {
		return nil, storeErr(err, "conversation", contactID)
	}
	msgs, err := s.st.Messages.List(ctx, store.MessageFilter{ContactID: &contactID})
	if err != nil {
		return nil, storeErr(err, "messages", contactID)
	}
	// oldest first within a conversation
	slices.Reverse(msgs)

	conv := &models.Conversation{
		Contact:      *contact,
		Messages:     msgs,
		MessageCount: len(msgs),
		UpdatedAt:    contact.CreatedAt,
	}
	if n := len(msgs); n > 0 {
		last := msgs[n-1]
		conv.LastMessage = &last
		conv.UpdatedAt = last.CreatedAt
	}
	return conv, nil
}

func (s *messageService) Reply(ctx context.Context, contactID string, in ReplyInput) (*models.Message, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalidf("content is required")
	}
	if in.Channel == "" {
		in.Channel = models.ChannelEmail
	}
	if !in.Channel.Valid() {
		return nil, invalidf("unknown channel %q", in.Channel)
	}
	contact, err := s.st.Contacts.Get(ctx, contactID)
	if err != nil {
		return nil, storeErr(err, "contact", contactID)
	}
	staff := in.StaffID

	var to string
	switch in.Channel {
	case models.ChannelSystem:
		sentAt := s.now()
		m := &models.Message{
			Base:      models.NewBase(),
			ContactID: contactID,
			StaffID:   &staff,
			Channel:   models.ChannelSystem,
			Direction: models.DirectionOutgoing,
			Status:    models.MessageSent,
			Content:   in.Content,
			Subject:   normalize(&in.Subject),
			CreatedAt: sentAt,
			SentAt:    &sentAt,
		}
		if err := s.st.Messages.Insert(ctx, m); err != nil {
			return nil, storeErr(err, "message", m.ID)
		}
		return m, nil
	case models.ChannelEmail:
		to = contact.EmailAddress()
		if to == "" {
			return nil, invalidf("contact %s has no email address", contactID)
		}
	case models.ChannelSMS:
		to = contact.PhoneNumber()
		if to == "" {
			return nil, invalidf("contact %s has no phone number", contactID)
		}
	}

	subject := in.Subject
	if in.Channel == models.ChannelEmail && subject == "" {
		subject = "Message from CareOps"
	}
	msg, ok := s.channel.Deliver(ctx, notify.Outbound{
		Channel:   in.Channel,
		To:        to,
		Subject:   subject,
		Body:      in.Content,
		ContactID: contactID,
		StaffID:   &staff,
	})
	if msg == nil {
		return nil, errors.New("message could not be recorded")
	}
	s.log.Info().Str("contact_id", contactID).Str("staff_id", staff).Bool("delivered", ok).Msg("staff reply")
	return msg, nil
}

func (s *messageService) requireContact(ctx context.Context, id string) error {
	if id == "" {
		return invalidf("contact_id is required")
	}
	_, err := s.st.Contacts.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return invalidf("contact %s does not exist", id)
	}
	return storeErr(err, "contact", id)
}
