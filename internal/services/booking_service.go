package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"careops/backend/internal/automation"
	"careops/backend/internal/models"
	"careops/backend/internal/notify"
	"careops/backend/internal/store"
)

// EventBookingStatusChanged is published when an update moves a booking to a new status.
const EventBookingStatusChanged = "booking.status_changed"

// BookingInput carries the fields of a new booking. Status and FormStatus
// default to pending.
type BookingInput struct {
	ContactID   string
	StaffID     *string
	Status      *models.BookingStatus
	FormStatus  *models.FormStatus
	StartTime   time.Time
	EndTime     time.Time
	ServiceType *string
	Notes       *string
}

// BookingUpdate is a partial update; nil fields are left alone.
type BookingUpdate struct {
	StaffID     *string
	Status      *models.BookingStatus
	FormStatus  *models.FormStatus
	StartTime   *time.Time
	EndTime     *time.Time
	ServiceType *string
	Notes       *string
}

type IBookingService interface {
	Create(ctx context.Context, in BookingInput) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, f store.BookingFilter) ([]models.Booking, error)
	// Update fires no automation. Any status may move to any other.
	Update(ctx context.Context, id string, in BookingUpdate) (*models.Booking, error)
	SendReminder(ctx context.Context, id string) error
	SendFormReminder(ctx context.Context, id string) error
}

type bookingService struct {
	st      *store.Store
	engine  automation.IEngine
	channel notify.Channel
	now     func() time.Time
	log     zerolog.Logger
}

func NewBookingService(st *store.Store, engine automation.IEngine, channel notify.Channel, log zerolog.Logger) IBookingService {
	return &bookingService{
		st:      st,
		engine:  engine,
		channel: channel,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.With().Str("component", "bookings").Logger(),
	}
}

func (s *bookingService) Create(ctx context.Context, in BookingInput) (*models.Booking, error) {
	if in.ContactID == "" {
		return nil, invalidf("contact_id is required")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, invalidf("start_time and end_time are required")
	}
	if _, err := s.st.Contacts.Get(ctx, in.ContactID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalidf("contact %s does not exist", in.ContactID)
		}
		return nil, storeErr(err, "contact", in.ContactID)
	}

	b := &models.Booking{
		Base:        models.NewBase(),
		ContactID:   in.ContactID,
		StaffID:     in.StaffID,
		Status:      models.BookingPending,
		FormStatus:  models.FormPending,
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		ServiceType: in.ServiceType,
		Notes:       in.Notes,
		CreatedAt:   s.now(),
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.FormStatus != nil {
		b.FormStatus = *in.FormStatus
	}
	if err := validateBookingStates(b); err != nil {
		return nil, err
	}

	if err := s.st.Bookings.Insert(ctx, b); err != nil {
		return nil, storeErr(err, "booking", b.ID)
	}
	s.log.Info().Str("booking_id", b.ID).Str("contact_id", b.ContactID).Msg("booking created")

	s.engine.OnBookingCreated(ctx, *b)
	return b, nil
}

func (s *bookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.st.Bookings.Get(ctx, id)
	return b, storeErr(err, "booking", id)
}

func (s *bookingService) List(ctx context.Context, f store.BookingFilter) ([]models.Booking, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, invalidf("unknown booking status %q", *f.Status)
	}
	out, err := s.st.Bookings.List(ctx, f)
	return out, storeErr(err, "bookings", "")
}

func (s *bookingService) Update(ctx context.Context, id string, in BookingUpdate) (*models.Booking, error) {
	b, err := s.st.Bookings.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "booking", id)
	}
	previous := b.Status

	if in.StaffID != nil {
		b.StaffID = normalize(in.StaffID)
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.FormStatus != nil {
		b.FormStatus = *in.FormStatus
	}
	if in.StartTime != nil {
		b.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		b.EndTime = in.EndTime.UTC()
	}
	if in.ServiceType != nil {
		b.ServiceType = in.ServiceType
	}
	if in.Notes != nil {
		b.Notes = in.Notes
	}
	if err := validateBookingStates(b); err != nil {
		return nil, err
	}

	if err := s.st.Bookings.Replace(ctx, b); err != nil {
		return nil, storeErr(err, "booking", id)
	}
	s.log.Info().Str("booking_id", id).Msg("booking updated")

	if b.Status != previous {
		s.channel.TriggerWebhook(ctx, EventBookingStatusChanged, map[string]any{
			"booking_id": b.ID,
			"contact_id": b.ContactID,
			"from":       string(previous),
			"to":         string(b.Status),
		})
	}
	return b, nil
}

func (s *bookingService) SendReminder(ctx context.Context, id string) error {
	b, err := s.st.Bookings.Get(ctx, id)
	if err != nil {
		return storeErr(err, "booking", id)
	}
	s.log.Info().Str("booking_id", id).Msg("sending booking reminder")
	s.engine.OnBookingReminderDue(ctx, *b)
	return nil
}

func (s *bookingService) SendFormReminder(ctx context.Context, id string) error {
	b, err := s.st.Bookings.Get(ctx, id)
	if err != nil {
		return storeErr(err, "booking", id)
	}
	s.log.Info().Str("booking_id", id).Msg("sending form reminder")
	s.engine.OnFormReminderDue(ctx, *b)
	return nil
}

func validateBookingStates(b *models.Booking) error {
	if !b.Status.Valid() {
		return invalidf("unknown booking status %q", b.Status)
	}
	if !b.FormStatus.Valid() {
		return invalidf("unknown form status %q", b.FormStatus)
	}
	return nil
}
