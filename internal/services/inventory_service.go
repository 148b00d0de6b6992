package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"careops/backend/internal/models"
	"careops/backend/internal/notify"
	"careops/backend/internal/store"
)

// EventLowStock is published when a new low-stock alert is raised.
const EventLowStock = "inventory.low_stock"

// InventoryInput carries the fields of a new item. A nil Quantity means 0 and
// a nil Threshold means models.DefaultThreshold.
type InventoryInput struct {
	ItemName  string
	Quantity  *int
	Threshold *int
	Unit      *string
	Notes     *string
}

// InventoryUpdate is a partial update; nil fields are left alone.
type InventoryUpdate struct {
	ItemName  *string
	Quantity  *int
	Threshold *int
	Unit      *string
	Notes     *string
}

type IInventoryService interface {
	Create(ctx context.Context, in InventoryInput) (*models.InventoryItem, error)
	Get(ctx context.Context, id string) (*models.InventoryItem, error)
	List(ctx context.Context, page store.Page) ([]models.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]models.InventoryItem, error)
	Update(ctx context.Context, id string, in InventoryUpdate) (*models.InventoryItem, error)
}

type inventoryService struct {
	items   store.InventoryStore
	alerts  IAlertService
	channel notify.Channel
	now     func() time.Time
	log     zerolog.Logger
}

func NewInventoryService(items store.InventoryStore, alerts IAlertService, channel notify.Channel, log zerolog.Logger) IInventoryService {
	return &inventoryService{
		items:   items,
		alerts:  alerts,
		channel: channel,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.With().Str("component", "inventory").Logger(),
	}
}

func (s *inventoryService) Create(ctx context.Context, in InventoryInput) (*models.InventoryItem, error) {
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return nil, invalidf("item_name is required")
	}
	now := s.now()
	item := &models.InventoryItem{
		Base:      models.NewBase(),
		ItemName:  name,
		Threshold: models.DefaultThreshold,
		Unit:      in.Unit,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.Threshold != nil {
		item.Threshold = *in.Threshold
	}
	if err := checkCounts(item); err != nil {
		return nil, err
	}
	if err := s.items.Insert(ctx, item); err != nil {
		return nil, storeErr(err, "inventory item "+name, item.ID)
	}
	s.log.Info().Str("item_id", item.ID).Str("item", item.ItemName).Msg("inventory item created")

	s.checkLowStock(ctx, *item)
	return item, nil
}

func (s *inventoryService) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	item, err := s.items.Get(ctx, id)
	return item, storeErr(err, "inventory item", id)
}

func (s *inventoryService) List(ctx context.Context, page store.Page) ([]models.InventoryItem, error) {
	out, err := s.items.List(ctx, page)
	return out, storeErr(err, "inventory", "")
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	out, err := s.items.ListLowStock(ctx)
	return out, storeErr(err, "inventory", "")
}

func (s *inventoryService) Update(ctx context.Context, id string, in InventoryUpdate) (*models.InventoryItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "inventory item", id)
	}
	oldQuantity := item.Quantity

	if in.ItemName != nil {
		name := strings.TrimSpace(*in.ItemName)
		if name == "" {
			return nil, invalidf("item_name cannot be empty")
		}
		item.ItemName = name
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.Threshold != nil {
		item.Threshold = *in.Threshold
	}
	if in.Unit != nil {
		item.Unit = in.Unit
	}
	if in.Notes != nil {
		item.Notes = in.Notes
	}
	if err := checkCounts(item); err != nil {
		return nil, err
	}
	item.UpdatedAt = s.now()

	if err := s.items.Replace(ctx, item); err != nil {
		return nil, storeErr(err, "inventory item "+item.ItemName, id)
	}

	// only a quantity change re-evaluates stock; threshold edits do not
	if in.Quantity != nil && item.Quantity != oldQuantity {
		s.checkLowStock(ctx, *item)
	}
	return item, nil
}

// checkLowStock raises at most one active alert per item. Failures are logged,
// never returned: the stock write has already succeeded.
func (s *inventoryService) checkLowStock(ctx context.Context, item models.InventoryItem) {
	if !item.IsLowStock() {
		return
	}
	s.log.Warn().Str("item", item.ItemName).Int("quantity", item.Quantity).Int("threshold", item.Threshold).Msg("low stock detected")

	severity := models.SeverityWarning
	if item.Quantity <= 0 {
		severity = models.SeverityCritical
	}
	details := fmt.Sprintf("Current quantity: %d, Threshold: %d", item.Quantity, item.Threshold)
	refType := models.ReferenceInventory
	refID := item.ID

	alert, created, err := s.alerts.RaiseOnce(ctx, AlertInput{
		Type:          models.AlertInventory,
		Severity:      severity,
		Message:       "Low stock: " + item.ItemName,
		Details:       &details,
		ReferenceType: &refType,
		ReferenceID:   &refID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("item_id", item.ID).Msg("failed to raise low stock alert")
		return
	}
	if !created {
		return
	}

	s.channel.TriggerWebhook(ctx, EventLowStock, map[string]any{
		"alert_id":  alert.ID,
		"item_id":   item.ID,
		"item_name": item.ItemName,
		"quantity":  item.Quantity,
		"threshold": item.Threshold,
		"severity":  string(alert.Severity),
	})
}

func checkCounts(item *models.InventoryItem) error {
	if item.Quantity < 0 {
		return invalidf("quantity must not be negative")
	}
	if item.Threshold < 0 {
		return invalidf("threshold must not be negative")
	}
	return nil
}
