package store

import (
	"context"
	"errors"
	"time"

	"careops/backend/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write collides with a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

// Page bounds a listing. A zero Limit means no limit.
type Page struct {
	Skip  int
	Limit int
}

type BookingFilter struct {
	Page
	Status      *models.BookingStatus
	Statuses    []models.BookingStatus
	StartFrom   *time.Time // inclusive
	StartBefore *time.Time // exclusive
}

type AlertFilter struct {
	Page
	IncludeDismissed bool
	Type             *models.AlertType
	Severity         *models.AlertSeverity
}

type MessageFilter struct {
	Page
	ContactID *string
	Direction *models.MessageDirection
}

type ContactStore interface {
	Insert(ctx context.Context, c *models.Contact) error
	Get(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context, page Page) ([]models.Contact, error)
	Replace(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, createdSince *time.Time) (int64, error)
}

type BookingStore interface {
	Insert(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	Replace(ctx context.Context, b *models.Booking) error
	DeleteByContact(ctx context.Context, contactID string) (int64, error)
	Count(ctx context.Context, f BookingFilter) (int64, error)
}

type InventoryStore interface {
	// Insert returns ErrDuplicate when item_name is taken.
	Insert(ctx context.Context, item *models.InventoryItem) error
	Get(ctx context.Context, id string) (*models.InventoryItem, error)
	List(ctx context.Context, page Page) ([]models.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]models.InventoryItem, error)
	// Replace returns ErrDuplicate when a rename collides with another item.
	Replace(ctx context.Context, item *models.InventoryItem) error
	Count(ctx context.Context, lowStockOnly bool) (int64, error)
}

type AlertStore interface {
	// Insert returns ErrDuplicate when an undismissed alert with the same
	// (type, reference_type, reference_id) already exists.
	Insert(ctx context.Context, a *models.Alert) error
	Get(ctx context.Context, id string) (*models.Alert, error)
	FindActive(ctx context.Context, key models.AlertKey) (*models.Alert, error)
	List(ctx context.Context, f AlertFilter) ([]models.Alert, error)
	Count(ctx context.Context, f AlertFilter) (int64, error)
	// Dismiss flips an active alert to dismissed. An already dismissed alert
	// is returned unchanged.
	Dismiss(ctx context.Context, id string, at time.Time) (*models.Alert, error)
}

type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	Replace(ctx context.Context, m *models.Message) error
	Get(ctx context.Context, id string) (*models.Message, error)
	List(ctx context.Context, f MessageFilter) ([]models.Message, error)
	Count(ctx context.Context, f MessageFilter) (int64, error)
	DeleteByContact(ctx context.Context, contactID string) (int64, error)
	// HasStaffReply reports whether an outgoing message with a staff id exists for the contact.
	HasStaffReply(ctx context.Context, contactID string) (bool, error)
	// CountUnanswered counts incoming messages from contacts that never got a staff reply.
	CountUnanswered(ctx context.Context) (int64, error)
	// Conversations returns one summary per contact, most recently active first.
	Conversations(ctx context.Context, page Page) ([]models.ConversationSummary, error)
}

type UserStore interface {
	// Insert returns ErrDuplicate when the email is taken.
	Insert(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store bundles every collection the backend persists.
type Store struct {
	Contacts  ContactStore
	Bookings  BookingStore
	Inventory InventoryStore
	Alerts    AlertStore
	Messages  MessageStore
	Users     UserStore
}
