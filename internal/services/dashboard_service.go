package services

import (
	"context"
	"time"

	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

type BookingStats struct {
	Total    int64 `json:"total"`
	Today    int64 `json:"today"`
	Upcoming int64 `json:"upcoming"`
}

type ContactStats struct {
	Total       int64 `json:"total"`
	NewThisWeek int64 `json:"new_this_week"`
}

type InventoryStats struct {
	TotalItems    int64 `json:"total_items"`
	LowStockItems int64 `json:"low_stock_items"`
}

type AlertStats struct {
	Active   int64 `json:"active"`
	Critical int64 `json:"critical"`
}

type MessageStats struct {
	Total      int64 `json:"total"`
	Unanswered int64 `json:"unanswered"`
}

// DashboardStats is the operations overview.
type DashboardStats struct {
	Bookings  BookingStats   `json:"bookings"`
	Contacts  ContactStats   `json:"contacts"`
	Inventory InventoryStats `json:"inventory"`
	Alerts    AlertStats     `json:"alerts"`
	Messages  MessageStats   `json:"messages"`
}

type IDashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	st  *store.Store
	now func() time.Time
}

func NewDashboardService(st *store.Store) IDashboardService {
	return &dashboardService{st: st, now: func() time.Time { return time.Now().UTC() }}
}

func (s *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := midnight.Add(24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	// strictly after now
	upcomingFrom := now.Add(time.Nanosecond)
	critical := models.SeverityCritical

	var out DashboardStats
	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&out.Bookings.Total, func() (int64, error) { return s.st.Bookings.Count(ctx, store.BookingFilter{}) }},
		{&out.Bookings.Today, func() (int64, error) {
			return s.st.Bookings.Count(ctx, store.BookingFilter{StartFrom: &midnight, StartBefore: &tomorrow})
		}},
		{&out.Bookings.Upcoming, func() (int64, error) {
			return s.st.Bookings.Count(ctx, store.BookingFilter{
				StartFrom: &upcomingFrom,
				Statuses:  []models.BookingStatus{models.BookingPending, models.BookingConfirmed},
			})
		}},
		{&out.Contacts.Total, func() (int64, error) { return s.st.Contacts.Count(ctx, nil) }},
		{&out.Contacts.NewThisWeek, func() (int64, error) { return s.st.Contacts.Count(ctx, &weekAgo) }},
		{&out.Inventory.TotalItems, func() (int64, error) { return s.st.Inventory.Count(ctx, false) }},
		{&out.Inventory.LowStockItems, func() (int64, error) { return s.st.Inventory.Count(ctx, true) }},
		{&out.Alerts.Active, func() (int64, error) { return s.st.Alerts.Count(ctx, store.AlertFilter{}) }},
		{&out.Alerts.Critical, func() (int64, error) {
			return s.st.Alerts.Count(ctx, store.AlertFilter{Severity: &critical})
		}},
		{&out.Messages.Total, func() (int64, error) { return s.st.Messages.Count(ctx, store.MessageFilter{}) }},
		{&out.Messages.Unanswered, func() (int64, error) { return s.st.Messages.CountUnanswered(ctx) }},
	}
	for _, c := range counts {
		n, err := c.fn()
		if err != nil {
			return nil, storeErr(err, "dashboard", "")
		}
		*c.dst = n
	}
	return &out, nil
}
