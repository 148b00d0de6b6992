// Package storetest holds the behavior every store.Store implementation must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

// Run exercises st against the store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) *store.Store) {
	t.Run("Contacts", func(t *testing.T) { testContacts(t, newStore(t)) })
	t.Run("Bookings", func(t *testing.T) { testBookings(t, newStore(t)) })
	t.Run("InventoryUniqueName", func(t *testing.T) { testInventory(t, newStore(t)) })
	t.Run("AlertActiveKey", func(t *testing.T) { testAlerts(t, newStore(t)) })
	t.Run("Messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

// base is millisecond aligned so it round-trips through BSON dates.
var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func str(s string) *string { return &s }

func testContacts(t *testing.T, st *store.Store) {
	ctx := context.Background()
	for i, name := range []string{"Ann", "Ben", "Cat"} {
		c := &models.Contact{Name: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, st.Contacts.Insert(ctx, c))
		require.NotEmpty(t, c.ID)
	}

	page, err := st.Contacts.List(ctx, store.Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Ben", page[0].Name)

	since := base.Add(90 * time.Minute)
	n, err := st.Contacts.Count(ctx, &since)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	c := page[0]
	c.Email = str("ben@example.com")
	require.NoError(t, st.Contacts.Replace(ctx, &c))
	got, err := st.Contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "ben@example.com", got.EmailAddress())

	require.NoError(t, st.Contacts.Delete(ctx, c.ID))
	_, err = st.Contacts.Get(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.Contacts.Delete(ctx, c.ID), store.ErrNotFound)
	assert.ErrorIs(t, st.Contacts.Replace(ctx, &c), store.ErrNotFound)
}

func testBookings(t *testing.T, st *store.Store) {
	ctx := context.Background()
	statuses := []models.BookingStatus{models.BookingPending, models.BookingConfirmed, models.BookingCancelled}
	for i, status := range statuses {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		require.NoError(t, st.Bookings.Insert(ctx, &models.Booking{
			ContactID: "c-1", Status: status, FormStatus: models.FormPending,
			StartTime: start, EndTime: start.Add(time.Hour), CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	active, err := st.Bookings.Count(ctx, store.BookingFilter{Statuses: []models.BookingStatus{models.BookingPending, models.BookingConfirmed}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, active)

	from, before := base.Add(time.Hour), base.Add(48*time.Hour)
	window, err := st.Bookings.List(ctx, store.BookingFilter{StartFrom: &from, StartBefore: &before})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, models.BookingConfirmed, window[0].Status)

	deleted, err := st.Bookings.DeleteByContact(ctx, "c-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
}

func testInventory(t *testing.T, st *store.Store) {
	ctx := context.Background()
	gloves := &models.InventoryItem{ItemName: "Gloves", Quantity: 2, Threshold: 10, CreatedAt: base}
	soap := &models.InventoryItem{ItemName: "Soap", Quantity: 50, Threshold: 10, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, st.Inventory.Insert(ctx, gloves))
	require.NoError(t, st.Inventory.Insert(ctx, soap))

	err := st.Inventory.Insert(ctx, &models.InventoryItem{ItemName: "Gloves", CreatedAt: base})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	soap.ItemName = "Gloves"
	assert.ErrorIs(t, st.Inventory.Replace(ctx, soap), store.ErrDuplicate)

	low, err := st.Inventory.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, gloves.ID, low[0].ID)

	n, err := st.Inventory.Count(ctx, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testAlerts(t *testing.T, st *store.Store) {
	ctx := context.Background()
	key := models.AlertKey{Type: models.AlertInventory, ReferenceType: models.ReferenceInventory, ReferenceID: "item-1"}
	newAlert := func() *models.Alert {
		return &models.Alert{
			Type: key.Type, Severity: models.SeverityWarning, Message: "Low stock: Gloves",
			ReferenceType: str(key.ReferenceType), ReferenceID: str(key.ReferenceID), CreatedAt: base,
		}
	}

	first := newAlert()
	require.NoError(t, st.Alerts.Insert(ctx, first))
	assert.ErrorIs(t, st.Alerts.Insert(ctx, newAlert()), store.ErrDuplicate)

	// alerts without a reference never collide
	require.NoError(t, st.Alerts.Insert(ctx, &models.Alert{Type: models.AlertSystem, Severity: models.SeverityInfo, Message: "a", CreatedAt: base}))
	require.NoError(t, st.Alerts.Insert(ctx, &models.Alert{Type: models.AlertSystem, Severity: models.SeverityInfo, Message: "b", CreatedAt: base}))

	active, err := st.Alerts.FindActive(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	dismissed, err := st.Alerts.Dismiss(ctx, first.ID, base.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, dismissed.IsDismissed)
	require.NotNil(t, dismissed.DismissedAt)

	again, err := st.Alerts.Dismiss(ctx, first.ID, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, dismissed.DismissedAt.Equal(*again.DismissedAt))

	_, err = st.Alerts.FindActive(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, st.Alerts.Insert(ctx, newAlert()))

	n, err := st.Alerts.Count(ctx, store.AlertFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	all, err := st.Alerts.List(ctx, store.AlertFilter{IncludeDismissed: true})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = st.Alerts.Dismiss(ctx, "missing", base)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testMessages(t *testing.T, st *store.Store) {
	ctx := context.Background()
	add := func(contactID string, dir models.MessageDirection, staff *string, at time.Duration) {
		require.NoError(t, st.Messages.Insert(ctx, &models.Message{
			ContactID: contactID, StaffID: staff, Channel: models.ChannelEmail, Direction: dir,
			Status: models.MessageSent, Content: "x", CreatedAt: base.Add(at),
		}))
	}
	add("a", models.DirectionIncoming, nil, 1*time.Minute)
	add("a", models.DirectionOutgoing, str("staff-1"), 2*time.Minute)
	add("b", models.DirectionIncoming, nil, 3*time.Minute)
	add("b", models.DirectionOutgoing, nil, 4*time.Minute) // automated, not a reply
	add("b", models.DirectionIncoming, nil, 5*time.Minute)

	replied, err := st.Messages.HasStaffReply(ctx, "a")
	require.NoError(t, err)
	assert.True(t, replied)
	replied, err = st.Messages.HasStaffReply(ctx, "b")
	require.NoError(t, err)
	assert.False(t, replied)

	unanswered, err := st.Messages.CountUnanswered(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unanswered)

	contact := "b"
	msgs, err := st.Messages.List(ctx, store.MessageFilter{ContactID: &contact})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].CreatedAt.After(msgs[2].CreatedAt), "newest first")

	convs, err := st.Messages.Conversations(ctx, store.Page{})
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "b", convs[0].ContactID)
	assert.Equal(t, 3, convs[0].MessageCount)
	assert.True(t, convs[0].LastMessage.CreatedAt.Equal(base.Add(5*time.Minute)))

	deleted, err := st.Messages.DeleteByContact(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func testUsers(t *testing.T, st *store.Store) {
	ctx := context.Background()
	u := &models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h", Role: models.RoleAdmin, CreatedAt: base}
	require.NoError(t, st.Users.Insert(ctx, u))
	err := st.Users.Insert(ctx, &models.User{Name: "Eve", Email: "ada@example.com", Role: models.RoleStaff, CreatedAt: base})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := st.Users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = st.Users.GetByEmail(ctx, "eve@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
