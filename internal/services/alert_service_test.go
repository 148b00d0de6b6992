package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

func TestAlertService_DismissIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	a, err := env.alerts.Create(ctx, AlertInput{Type: models.AlertSystem, Severity: models.SeverityInfo, Message: "Backup finished"})
	require.NoError(t, err)

	first, err := env.alerts.Dismiss(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, first.IsDismissed)
	require.NotNil(t, first.DismissedAt)

	second, err := env.alerts.Dismiss(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, second.IsDismissed)
	assert.Equal(t, *first.DismissedAt, *second.DismissedAt)

	stored, err := env.alerts.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDismissed)

	_, err = env.alerts.Dismiss(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAlertService_CreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.alerts.Create(ctx, AlertInput{Type: "weather", Severity: models.SeverityInfo, Message: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.alerts.Create(ctx, AlertInput{Type: models.AlertSystem, Severity: "urgent", Message: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.alerts.Create(ctx, AlertInput{Type: models.AlertSystem, Severity: models.SeverityInfo})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAlertService_RaiseOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	in := AlertInput{
		Type: models.AlertBooking, Severity: models.SeverityWarning, Message: "Unconfirmed booking",
		ReferenceType: ptr("booking"), ReferenceID: ptr("b1"),
	}

	a, created, err := env.alerts.RaiseOnce(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := env.alerts.RaiseOnce(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)

	// different reference, different alert
	in.ReferenceID = ptr("b2")
	_, created, err = env.alerts.RaiseOnce(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	_, _, err = env.alerts.RaiseOnce(ctx, AlertInput{Type: models.AlertSystem, Severity: models.SeverityInfo, Message: "no ref"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAlertService_RaiseOnceConcurrent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	in := AlertInput{
		Type: models.AlertInventory, Severity: models.SeverityWarning, Message: "Low stock: Gloves",
		ReferenceType: ptr(models.ReferenceInventory), ReferenceID: ptr("i1"),
	}

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, _, err := env.alerts.RaiseOnce(ctx, in)
			if err == nil {
				ids[i] = a.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	n, err := env.st.Alerts.Count(ctx, store.AlertFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAlertService_ListAndCount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	var ids []string
	for _, sev := range []models.AlertSeverity{models.SeverityInfo, models.SeverityCritical, models.SeverityCritical} {
		a, err := env.alerts.Create(ctx, AlertInput{Type: models.AlertSystem, Severity: sev, Message: "m"})
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	_, err := env.alerts.Dismiss(ctx, ids[1])
	require.NoError(t, err)

	n, err := env.alerts.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	active, err := env.alerts.List(ctx, store.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, ids[2], active[0].ID, "newest first")

	all, err := env.alerts.List(ctx, store.AlertFilter{IncludeDismissed: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	critical, err := env.alerts.List(ctx, store.AlertFilter{Severity: ptr(models.SeverityCritical)})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, ids[2], critical[0].ID)
}
