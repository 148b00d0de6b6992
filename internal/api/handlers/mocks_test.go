package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"careops/backend/internal/models"
	"careops/backend/internal/services"
	"careops/backend/internal/store"
)

// --- Mocks ---

// ret unpacks a (*T, error) mock result.
func ret[T any](args mock.Arguments) (*T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func retSlice[T any](args mock.Arguments) ([]T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	return ret[models.User](m.Called(ctx, in))
}
func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return ret[models.User](m.Called(ctx, email, password))
}
func (m *MockUserService) Get(ctx context.Context, id string) (*models.User, error) {
	return ret[models.User](m.Called(ctx, id))
}

// MockContactService
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Create(ctx context.Context, in services.ContactInput) (*models.Contact, error) {
	return ret[models.Contact](m.Called(ctx, in))
}
func (m *MockContactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	return ret[models.Contact](m.Called(ctx, id))
}
func (m *MockContactService) List(ctx context.Context, page store.Page) ([]models.Contact, error) {
	return retSlice[models.Contact](m.Called(ctx, page))
}
func (m *MockContactService) Update(ctx context.Context, id string, in services.ContactUpdate) (*models.Contact, error) {
	return ret[models.Contact](m.Called(ctx, id, in))
}
func (m *MockContactService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockContactService) ShouldContinueAutomation(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockBookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, in services.BookingInput) (*models.Booking, error) {
	return ret[models.Booking](m.Called(ctx, in))
}
func (m *MockBookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return ret[models.Booking](m.Called(ctx, id))
}
func (m *MockBookingService) List(ctx context.Context, f store.BookingFilter) ([]models.Booking, error) {
	return retSlice[models.Booking](m.Called(ctx, f))
}
func (m *MockBookingService) Update(ctx context.Context, id string, in services.BookingUpdate) (*models.Booking, error) {
	return ret[models.Booking](m.Called(ctx, id, in))
}
func (m *MockBookingService) SendReminder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockBookingService) SendFormReminder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockInventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Create(ctx context.Context, in services.InventoryInput) (*models.InventoryItem, error) {
	return ret[models.InventoryItem](m.Called(ctx, in))
}
func (m *MockInventoryService) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	return ret[models.InventoryItem](m.Called(ctx, id))
}
func (m *MockInventoryService) List(ctx context.Context, page store.Page) ([]models.InventoryItem, error) {
	return retSlice[models.InventoryItem](m.Called(ctx, page))
}
func (m *MockInventoryService) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return retSlice[models.InventoryItem](m.Called(ctx))
}
func (m *MockInventoryService) Update(ctx context.Context, id string, in services.InventoryUpdate) (*models.InventoryItem, error) {
	return ret[models.InventoryItem](m.Called(ctx, id, in))
}

// MockAlertService
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) Create(ctx context.Context, in services.AlertInput) (*models.Alert, error) {
	return ret[models.Alert](m.Called(ctx, in))
}
func (m *MockAlertService) RaiseOnce(ctx context.Context, in services.AlertInput) (*models.Alert, bool, error) {
	args := m.Called(ctx, in)
	a, _ := args.Get(0).(*models.Alert)
	return a, args.Bool(1), args.Error(2)
}
func (m *MockAlertService) Get(ctx context.Context, id string) (*models.Alert, error) {
	return ret[models.Alert](m.Called(ctx, id))
}
func (m *MockAlertService) List(ctx context.Context, f store.AlertFilter) ([]models.Alert, error) {
	return retSlice[models.Alert](m.Called(ctx, f))
}
func (m *MockAlertService) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAlertService) Dismiss(ctx context.Context, id string) (*models.Alert, error) {
	return ret[models.Alert](m.Called(ctx, id))
}

// MockMessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Create(ctx context.Context, in services.MessageInput) (*models.Message, error) {
	return ret[models.Message](m.Called(ctx, in))
}
func (m *MockMessageService) List(ctx context.Context, f store.MessageFilter) ([]models.Message, error) {
	return retSlice[models.Message](m.Called(ctx, f))
}
func (m *MockMessageService) ListByContact(ctx context.Context, contactID string, page store.Page) ([]models.Message, error) {
	return retSlice[models.Message](m.Called(ctx, contactID, page))
}
func (m *MockMessageService) ListConversations(ctx context.Context, page store.Page) ([]models.Conversation, error) {
	return retSlice[models.Conversation](m.Called(ctx, page))
}
func (m *MockMessageService) GetConversation(ctx context.Context, contactID string) (*models.Conversation, error) {
	return ret[models.Conversation](m.Called(ctx, contactID))
}
func (m *MockMessageService) Reply(ctx context.Context, contactID string, in services.ReplyInput) (*models.Message, error) {
	return ret[models.Message](m.Called(ctx, contactID, in))
}

// MockDashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Stats(ctx context.Context) (*services.DashboardStats, error) {
	return ret[services.DashboardStats](m.Called(ctx))
}

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return ret[asynq.TaskInfo](m.Called(ctx, task))
}
