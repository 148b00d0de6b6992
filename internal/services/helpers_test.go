package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"careops/backend/internal/automation"
	"careops/backend/internal/models"
	"careops/backend/internal/notify"
	"careops/backend/internal/providers"
	"careops/backend/internal/store"
	"careops/backend/internal/store/memstore"
)

type mockProviders struct {
	mock.Mock
}

func (m *mockProviders) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.MethodCalled("email", to).Error(0)
}

func (m *mockProviders) SendSMS(ctx context.Context, to, body string) error {
	return m.MethodCalled("sms", to).Error(0)
}

func (m *mockProviders) CreateEvent(ctx context.Context, ev providers.CalendarEvent) error {
	return m.MethodCalled("calendar", ev.Title).Error(0)
}

func (m *mockProviders) Publish(ctx context.Context, eventType string, payload map[string]any) error {
	return m.MethodCalled("webhook", eventType).Error(0)
}

type testEnv struct {
	st        *store.Store
	providers *mockProviders
	channel   notify.Channel
	engine    automation.IEngine
	contacts  IContactService
	bookings  IBookingService
	inventory IInventoryService
	alerts    IAlertService
	messages  IMessageService
	users     IUserService
	dashboard IDashboardService
}

// newTestEnv wires every service over a memstore. Every provider call returns providerErr.
func newTestEnv(t *testing.T, providerErr error) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	st := memstore.New()
	p := new(mockProviders)
	p.On("email", mock.Anything).Return(providerErr).Maybe()
	p.On("sms", mock.Anything).Return(providerErr).Maybe()
	p.On("calendar", mock.Anything).Return(providerErr).Maybe()
	p.On("webhook", mock.Anything).Return(providerErr).Maybe()

	ch := notify.NewChannel(st.Messages, st.Alerts, notify.Providers{Email: p, SMS: p, Calendar: p, Webhook: p}, time.Second, log)
	eng := automation.NewEngine(st.Contacts, st.Messages, ch, log)
	alerts := NewAlertService(st.Alerts, log)
	return &testEnv{
		st:        st,
		providers: p,
		channel:   ch,
		engine:    eng,
		contacts:  NewContactService(st, eng, log),
		bookings:  NewBookingService(st, eng, ch, log),
		inventory: NewInventoryService(st.Inventory, alerts, ch, log),
		alerts:    alerts,
		messages:  NewMessageService(st, ch, log),
		users:     NewUserService(st.Users, log),
		dashboard: NewDashboardService(st),
	}
}

func (e *testEnv) allMessages(t *testing.T, contactID string) []models.Message {
	t.Helper()
	msgs, err := e.st.Messages.List(context.Background(), store.MessageFilter{ContactID: &contactID})
	require.NoError(t, err)
	return msgs
}

func (e *testEnv) allAlerts(t *testing.T) []models.Alert {
	t.Helper()
	alerts, err := e.st.Alerts.List(context.Background(), store.AlertFilter{IncludeDismissed: true})
	require.NoError(t, err)
	return alerts
}

func ptr[T any](v T) *T { return &v }
