package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"careops/backend/internal/automation"
	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

// ContactInput carries the fields of a new contact.
type ContactInput struct {
	Name  string
	Email *string
	Phone *string
}

// ContactUpdate is a partial update. Nil fields are left alone; an empty
// Email or Phone clears the value.
type ContactUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

type IContactService interface {
	Create(ctx context.Context, in ContactInput) (*models.Contact, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context, page store.Page) ([]models.Contact, error)
	Update(ctx context.Context, id string, in ContactUpdate) (*models.Contact, error)
	// Delete removes the contact together with its bookings and messages.
	Delete(ctx context.Context, id string) error
	ShouldContinueAutomation(ctx context.Context, id string) (bool, error)
}

type contactService struct {
	st     *store.Store
	engine automation.IEngine
	now    func() time.Time
	log    zerolog.Logger
}

func NewContactService(st *store.Store, engine automation.IEngine, log zerolog.Logger) IContactService {
	return &contactService{
		st:     st,
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.With().Str("component", "contacts").Logger(),
	}
}

func (s *contactService) Create(ctx context.Context, in ContactInput) (*models.Contact, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("contact name is required")
	}
	c := &models.Contact{
		Base:      models.NewBase(),
		Name:      name,
		Email:     normalize(in.Email),
		Phone:     normalize(in.Phone),
		CreatedAt: s.now(),
	}
	if err := s.st.Contacts.Insert(ctx, c); err != nil {
		return nil, storeErr(err, "contact", c.ID)
	}
	s.log.Info().Str("contact_id", c.ID).Msg("contact created")

	s.engine.OnContactCreated(ctx, *c)
	return c, nil
}

func (s *contactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	c, err := s.st.Contacts.Get(ctx, id)
	return c, storeErr(err, "contact", id)
}

func (s *contactService) List(ctx context.Context, page store.Page) ([]models.Contact, error) {
	out, err := s.st.Contacts.List(ctx, page)
	return out, storeErr(err, "contacts", "")
}

func (s *contactService) Update(ctx context.Context, id string, in ContactUpdate) (*models.Contact, error) {
	c, err := s.st.Contacts.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "contact", id)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalidf("contact name cannot be empty")
		}
		c.Name = name
	}
	if in.Email != nil {
		c.Email = normalize(in.Email)
	}
	if in.Phone != nil {
		c.Phone = normalize(in.Phone)
	}
	if err := s.st.Contacts.Replace(ctx, c); err != nil {
		return nil, storeErr(err, "contact", id)
	}
	return c, nil
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	if _, err := s.st.Contacts.Get(ctx, id); err != nil {
		return storeErr(err, "contact", id)
	}
	bookings, err := s.st.Bookings.DeleteByContact(ctx, id)
	if err != nil {
		return storeErr(err, "bookings", id)
	}
	messages, err := s.st.Messages.DeleteByContact(ctx, id)
	if err != nil {
		return storeErr(err, "messages", id)
	}
	if err := s.st.Contacts.Delete(ctx, id); err != nil {
		return storeErr(err, "contact", id)
	}
	s.log.Info().Str("contact_id", id).Int64("bookings", bookings).Int64("messages", messages).Msg("contact deleted")
	return nil
}

func (s *contactService) ShouldContinueAutomation(ctx context.Context, id string) (bool, error) {
	if _, err := s.st.Contacts.Get(ctx, id); err != nil {
		return false, storeErr(err, "contact", id)
	}
	return s.engine.ShouldContinue(ctx, id)
}

// normalize trims an optional string and maps blank to nil.
func normalize(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
