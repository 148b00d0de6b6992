package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

// AlertInput carries the fields of a new alert.
type AlertInput struct {
	Type          models.AlertType
	Severity      models.AlertSeverity
	Message       string
	Details       *string
	ReferenceType *string
	ReferenceID   *string
}

type IAlertService interface {
	Create(ctx context.Context, in AlertInput) (*models.Alert, error)
	// RaiseOnce creates the alert unless an undismissed alert with the same
	// (type, reference_type, reference_id) exists. created is false when an
	// existing alert was returned instead.
	RaiseOnce(ctx context.Context, in AlertInput) (alert *models.Alert, created bool, err error)
	Get(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, f store.AlertFilter) ([]models.Alert, error)
	CountActive(ctx context.Context) (int64, error)
	// Dismiss is idempotent: dismissing a dismissed alert returns it unchanged.
	Dismiss(ctx context.Context, id string) (*models.Alert, error)
}

type alertService struct {
	alerts store.AlertStore
	now    func() time.Time
	log    zerolog.Logger
}

func NewAlertService(alerts store.AlertStore, log zerolog.Logger) IAlertService {
	return &alertService{
		alerts: alerts,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.With().Str("component", "alerts").Logger(),
	}
}

func (s *alertService) build(in AlertInput) (*models.Alert, error) {
	if !in.Type.Valid() {
		return nil, invalidf("unknown alert type %q", in.Type)
	}
	if !in.Severity.Valid() {
		return nil, invalidf("unknown alert severity %q", in.Severity)
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, invalidf("alert message is required")
	}
	return &models.Alert{
		Base:          models.NewBase(),
		Type:          in.Type,
		Severity:      in.Severity,
		Message:       in.Message,
		Details:       in.Details,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		CreatedAt:     s.now(),
	}, nil
}

func (s *alertService) Create(ctx context.Context, in AlertInput) (*models.Alert, error) {
	a, err := s.build(in)
	if err != nil {
		return nil, err
	}
	if err := s.alerts.Insert(ctx, a); err != nil {
		return nil, storeErr(err, "alert", a.ID)
	}
	s.log.Info().Str("alert_id", a.ID).Str("type", string(a.Type)).Msg("alert created")
	return a, nil
}

func (s *alertService) RaiseOnce(ctx context.Context, in AlertInput) (*models.Alert, bool, error) {
	a, err := s.build(in)
	if err != nil {
		return nil, false, err
	}
	key, ok := a.Key()
	if !ok {
		return nil, false, invalidf("de-duplicated alerts need a reference")
	}

	existing, err := s.alerts.FindActive(ctx, key)
	switch {
	case err == nil:
		s.log.Debug().Str("alert_id", existing.ID).Str("reference_id", key.ReferenceID).Msg("active alert exists, skipping")
		return existing, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, storeErr(err, "alert", "")
	}

	err = s.alerts.Insert(ctx, a)
	if errors.Is(err, store.ErrDuplicate) {
		// lost a race with a concurrent writer; join its alert
		existing, ferr := s.alerts.FindActive(ctx, key)
		if ferr != nil {
			return nil, false, storeErr(ferr, "alert", "")
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, storeErr(err, "alert", a.ID)
	}
	s.log.Info().Str("alert_id", a.ID).Str("reference_id", key.ReferenceID).Msg("alert raised")
	return a, true, nil
}

func (s *alertService) Get(ctx context.Context, id string) (*models.Alert, error) {
	a, err := s.alerts.Get(ctx, id)
	return a, storeErr(err, "alert", id)
}

func (s *alertService) List(ctx context.Context, f store.AlertFilter) ([]models.Alert, error) {
	out, err := s.alerts.List(ctx, f)
	return out, storeErr(err, "alerts", "")
}

func (s *alertService) CountActive(ctx context.Context) (int64, error) {
	n, err := s.alerts.Count(ctx, store.AlertFilter{})
	return n, storeErr(err, "alerts", "")
}

func (s *alertService) Dismiss(ctx context.Context, id string) (*models.Alert, error) {
	a, err := s.alerts.Dismiss(ctx, id, s.now())
	if err != nil {
		return nil, storeErr(err, "alert", id)
	}
	return a, nil
}
