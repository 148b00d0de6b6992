package providers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

func TestCompositeEmailSender_CallsEverySender(t *testing.T) {
	a, b := new(MockEmailSender), new(MockEmailSender)
	a.On("SendEmail", mock.Anything, "jo@example.com", "Hi", "body").Return(nil)
	b.On("SendEmail", mock.Anything, "jo@example.com", "Hi", "body").Return(nil)

	cs := NewCompositeEmailSender(a)
	cs.AddSender(b)
	cs.AddSender(nil)

	assert.NoError(t, cs.SendEmail(context.Background(), "jo@example.com", "Hi", "body"))
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestCompositeEmailSender_JoinsErrors(t *testing.T) {
	errA := errors.New("relay down")
	a, b := new(MockEmailSender), new(MockEmailSender)
	a.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errA)
	b.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := NewCompositeEmailSender(a, b).SendEmail(context.Background(), "x@example.com", "s", "b")

	assert.ErrorIs(t, err, errA)
	b.AssertExpectations(t)
}

func TestCompositeEmailSender_Empty(t *testing.T) {
	assert.Error(t, NewCompositeEmailSender().SendEmail(context.Background(), "x", "s", "b"))
}

func TestCompositeSMSSender(t *testing.T) {
	a := new(MockSMSSender)
	a.On("SendSMS", mock.Anything, "+15550100", "hello").Return(nil)

	cs := NewCompositeSMSSender()
	assert.Error(t, cs.SendSMS(context.Background(), "+15550100", "hello"))

	cs.AddSender(a)
	assert.NoError(t, cs.SendSMS(context.Background(), "+15550100", "hello"))
	a.AssertExpectations(t)
}

func TestFileSink_AppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notify.log")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.SendEmail(context.Background(), "jo@example.com", "Welcome to CareOps!", "Hi Jo"))
	require.NoError(t, sink.SendSMS(context.Background(), "+15550100", "Hi Jo, thank you for contacting us!"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Email (To: jo@example.com, Subject: Welcome to CareOps!)")
	assert.Contains(t, content, "SMS (To: +15550100)")
	assert.Contains(t, content, "thank you for contacting us!")
}

func TestNewFileSink_EmptyPath(t *testing.T) {
	_, err := NewFileSink("  ")
	assert.Error(t, err)
}

func TestLoggingSender_LogsEveryKind(t *testing.T) {
	var buf bytes.Buffer
	s := NewLoggingSender(zerolog.New(&buf))
	ctx := context.Background()

	require.NoError(t, s.SendEmail(ctx, "jo@example.com", "Subject", "Body"))
	require.NoError(t, s.SendSMS(ctx, "+15550100", "Body"))
	require.NoError(t, s.CreateEvent(ctx, CalendarEvent{Title: "Booking with Jo", Start: time.Now(), End: time.Now().Add(time.Hour), Attendee: "jo@example.com"}))
	require.NoError(t, s.Publish(ctx, "inventory.low_stock", map[string]any{"item_id": "i1"}))

	out := buf.String()
	assert.Contains(t, out, "email (logged)")
	assert.Contains(t, out, "sms (logged)")
	assert.Contains(t, out, "Booking with Jo")
	assert.Contains(t, out, "inventory.low_stock")
}
