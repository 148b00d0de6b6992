package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

func TestMessageService_Create(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	c, err := env.contacts.Create(ctx, ContactInput{Name: "Walk-in"})
	require.NoError(t, err)

	m, err := env.messages.Create(ctx, MessageInput{
		ContactID: c.ID, Channel: models.ChannelSMS, Direction: models.DirectionIncoming, Content: "Are you open Sunday?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessagePending, m.Status)
	assert.Nil(t, m.StaffID)

	_, err = env.messages.Create(ctx, MessageInput{ContactID: c.ID, Channel: "fax", Direction: models.DirectionIncoming, Content: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.messages.Create(ctx, MessageInput{ContactID: c.ID, Channel: models.ChannelSMS, Direction: "sideways", Content: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.messages.Create(ctx, MessageInput{ContactID: "nobody", Channel: models.ChannelSMS, Direction: models.DirectionIncoming, Content: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMessageService_ListByContactNewestFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	c, err := env.contacts.Create(ctx, ContactInput{Name: "Walk-in"})
	require.NoError(t, err)
	for _, body := range []string{"first", "second", "third"} {
		_, err := env.messages.Create(ctx, MessageInput{ContactID: c.ID, Channel: models.ChannelSystem, Direction: models.DirectionIncoming, Content: body})
		require.NoError(t, err)
	}

	msgs, err := env.messages.ListByContact(ctx, c.ID, store.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "third", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestMessageService_Conversations(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	quiet, err := env.contacts.Create(ctx, ContactInput{Name: "Quiet"})
	require.NoError(t, err)
	jo, err := env.contacts.Create(ctx, ContactInput{Name: "Jo", Email: ptr("jo@example.com")})
	require.NoError(t, err)
	sam, err := env.contacts.Create(ctx, ContactInput{Name: "Sam", Phone: ptr("+15550199")})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = env.messages.Create(ctx, MessageInput{ContactID: jo.ID, Channel: models.ChannelEmail, Direction: models.DirectionIncoming, Content: "latest"})
	require.NoError(t, err)

	convs, err := env.messages.ListConversations(ctx, store.Page{})
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, jo.ID, convs[0].Contact.ID)
	assert.Equal(t, sam.ID, convs[1].Contact.ID)
	assert.Equal(t, 2, convs[0].MessageCount)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "latest", convs[0].LastMessage.Content)
	// oldest first inside a conversation
	assert.Equal(t, "latest", convs[0].Messages[1].Content)

	conv, err := env.messages.GetConversation(ctx, quiet.ID)
	require.NoError(t, err)
	assert.Empty(t, conv.Messages)
	assert.Nil(t, conv.LastMessage)

	_, err = env.messages.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessageService_Reply(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	c, err := env.contacts.Create(ctx, ContactInput{Name: "Sam", Phone: ptr("+15550199")})
	require.NoError(t, err)

	m, err := env.messages.Reply(ctx, c.ID, ReplyInput{StaffID: "staff-1", Channel: models.ChannelSMS, Content: "See you soon"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageSent, m.Status)
	assert.Equal(t, models.DirectionOutgoing, m.Direction)
	require.NotNil(t, m.StaffID)
	assert.Equal(t, "staff-1", *m.StaffID)
	env.providers.AssertCalled(t, "sms", "+15550199")

	// no email on file
	_, err = env.messages.Reply(ctx, c.ID, ReplyInput{StaffID: "staff-1", Content: "hello"})
	assert.ErrorIs(t, err, ErrInvalid)

	sys, err := env.messages.Reply(ctx, c.ID, ReplyInput{StaffID: "staff-1", Channel: models.ChannelSystem, Content: "note"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageSent, sys.Status)
	assert.NotNil(t, sys.SentAt)

	_, err = env.messages.Reply(ctx, "missing", ReplyInput{StaffID: "staff-1", Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.messages.Reply(ctx, c.ID, ReplyInput{StaffID: "staff-1", Content: " "})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMessageService_ReplyDeliveryFailureIsNotAnError(t *testing.T) {
	env := newTestEnv(t, errors.New("relay refused"))
	ctx := context.Background()
	c, err := env.contacts.Create(ctx, ContactInput{Name: "Jo", Email: ptr("jo@example.com")})
	require.NoError(t, err)

	m, err := env.messages.Reply(ctx, c.ID, ReplyInput{StaffID: "staff-1", Channel: models.ChannelEmail, Content: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageFailed, m.Status)
	require.NotNil(t, m.ErrorMessage)
	assert.Contains(t, *m.ErrorMessage, "relay refused")
}
