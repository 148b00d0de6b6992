package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"careops/backend/internal/api/handlers"
	"careops/backend/internal/models"
	"careops/backend/internal/services"
	"careops/backend/internal/store"
)

func alertRouter(svc *MockAlertService) *gin.Engine {
	h := handlers.NewRestAlertHandler(svc)
	r := gin.New()
	r.GET("/alerts", h.List)
	r.GET("/alerts/count", h.Count)
	r.GET("/alerts/:id", h.Get)
	r.PATCH("/alerts/:id/dismiss", h.Dismiss)
	return r
}

func TestRestAlertHandler_ListFilters(t *testing.T) {
	svc := new(MockAlertService)
	r := alertRouter(svc)

	typ, sev := models.AlertInventory, models.SeverityCritical
	svc.On("List", mock.Anything, store.AlertFilter{Page: store.Page{Limit: 100}}).Return([]models.Alert{}, nil)
	svc.On("List", mock.Anything, store.AlertFilter{
		Page: store.Page{Limit: 100}, IncludeDismissed: true, Type: &typ, Severity: &sev,
	}).Return([]models.Alert{{Message: "Low stock: Gloves"}}, nil)

	w := do(t, r, http.MethodGet, "/alerts", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/alerts?include_dismissed=true&type=inventory&severity=critical", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Alert](t, w), 1)

	for _, q := range []string{"?include_dismissed=maybe", "?type=weather", "?severity=loud"} {
		w = do(t, r, http.MethodGet, "/alerts"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	svc.AssertExpectations(t)
}

func TestRestAlertHandler_CountAndDismiss(t *testing.T) {
	svc := new(MockAlertService)
	r := alertRouter(svc)

	alert := &models.Alert{Base: models.NewBase(), IsDismissed: true}
	svc.On("CountActive", mock.Anything).Return(int64(3), nil)
	svc.On("Dismiss", mock.Anything, alert.ID).Return(alert, nil)
	svc.On("Dismiss", mock.Anything, "missing").Return(nil, services.ErrNotFound)

	w := do(t, r, http.MethodGet, "/alerts/count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode[map[string]int](t, w)["active_count"])

	w = do(t, r, http.MethodPatch, "/alerts/"+alert.ID+"/dismiss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.Alert](t, w).IsDismissed)

	w = do(t, r, http.MethodPatch, "/alerts/missing/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}
