package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careops/backend/internal/automation"
	"careops/backend/internal/config"
	"careops/backend/internal/models"
	"careops/backend/internal/notify"
	"careops/backend/internal/providers"
	"careops/backend/internal/services"
	"careops/backend/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	log := zerolog.Nop()
	st := memstore.New()
	sink := providers.NewLoggingSender(log)
	ch := notify.NewChannel(st.Messages, st.Alerts, notify.Providers{Email: sink, SMS: sink, Calendar: sink, Webhook: sink}, time.Second, log)
	eng := automation.NewEngine(st.Contacts, st.Messages, ch, log)
	alerts := services.NewAlertService(st.Alerts, log)

	cfg := &config.Config{
		JwtSecret:           "router-secret",
		JwtTTLMinutes:       60,
		AllowedOrigins:      []string{"*"},
		RateLimitBucketSize: 100,
		RateLimitRefillRate: 10,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return SetupRouter(ctx, cfg, Services{
		Users:     services.NewUserService(st.Users, log),
		Contacts:  services.NewContactService(st, eng, log),
		Bookings:  services.NewBookingService(st, eng, ch, log),
		Inventory: services.NewInventoryService(st.Inventory, alerts, ch, log),
		Alerts:    alerts,
		Messages:  services.NewMessageService(st, ch, log),
		Dashboard: services.NewDashboardService(st),
	}, nil, log)
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r http.Handler, email string, role models.Role) string {
	t.Helper()
	w := call(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Staff", "email": email, "password": "password1", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func TestSetupRouter_HealthAndAuth(t *testing.T) {
	r := newTestRouter(t)

	w := call(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodGet, "/api/v1/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := register(t, r, "staff@example.com", models.RoleStaff)
	w = call(t, r, http.MethodGet, "/api/v1/contacts", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "staff@example.com", "password": "password1"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = call(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouter_ContactDeleteNeedsAdmin(t *testing.T) {
	r := newTestRouter(t)
	staff := register(t, r, "staff@example.com", models.RoleStaff)
	admin := register(t, r, "admin@example.com", models.RoleAdmin)

	w := call(t, r, http.MethodPost, "/api/v1/contacts", staff, gin.H{"name": "Jo", "email": "jo@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var contact models.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &contact))

	w = call(t, r, http.MethodDelete, "/api/v1/contacts/"+contact.ID, staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = call(t, r, http.MethodDelete, "/api/v1/contacts/"+contact.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = call(t, r, http.MethodGet, "/api/v1/contacts/"+contact.ID, staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRouter_LowStockFlow(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "staff@example.com", models.RoleStaff)

	w := call(t, r, http.MethodPost, "/api/v1/inventory", token, gin.H{"item_name": "Gloves", "quantity": 20, "threshold": 10})
	require.Equal(t, http.StatusCreated, w.Code)
	var item models.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))

	w = call(t, r, http.MethodPatch, "/api/v1/inventory/"+item.ID, token, gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodGet, "/api/v1/alerts/count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active_count": 1}`, w.Body.String())

	w = call(t, r, http.MethodGet, "/api/v1/inventory/low-stock", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var low []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &low))
	require.Len(t, low, 1)
	assert.Equal(t, "Gloves", low[0]["item_name"])
}

func TestSetupServiceRouter(t *testing.T) {
	shutdown := make(chan struct{}, 1)
	r := SetupServiceRouter(nil, shutdown, zerolog.Nop())

	w := call(t, r, http.MethodPost, "/api", "", gin.H{"method": "shutdown"})
	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case <-shutdown:
	default:
		t.Fatal("shutdown was not signaled")
	}
	// second signal must not block
	w = call(t, r, http.MethodPost, "/api", "", gin.H{"method": "shutdown"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodPost, "/api", "", gin.H{"method": "getTestNotification", "arguments": []string{"email"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = call(t, r, http.MethodPost, "/api", "", gin.H{"method": "getTestNotification", "arguments": []string{"email", "jo@example.com"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = call(t, r, http.MethodPost, "/api", "", gin.H{"method": "reboot"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
