package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careops/backend/internal/models"
	"careops/backend/internal/services"
	"careops/backend/internal/store"
)

// RestAlertHandler handles REST requests related to alerts. Alerts are never deleted.
type RestAlertHandler struct {
	alertService services.IAlertService
}

func NewRestAlertHandler(alertService services.IAlertService) *RestAlertHandler {
	return &RestAlertHandler{alertService: alertService}
}

// List handles GET /alerts?include_dismissed=&type=&severity=&skip=&limit=
func (h *RestAlertHandler) List(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	f := store.AlertFilter{Page: page}
	if v := c.Query("include_dismissed"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "Invalid include_dismissed parameter")
			return
		}
		f.IncludeDismissed = include
	}
	if v := c.Query("type"); v != "" {
		t, err := models.ParseAlertType(v)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Type = &t
	}
	if v := c.Query("severity"); v != "" {
		s, err := models.ParseAlertSeverity(v)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Severity = &s
	}

	alerts, err := h.alertService.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// Count handles GET /alerts/count
func (h *RestAlertHandler) Count(c *gin.Context) {
	n, err := h.alertService.CountActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_count": n})
}

// Get handles GET /alerts/:id
func (h *RestAlertHandler) Get(c *gin.Context) {
	alert, err := h.alertService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Dismiss handles PATCH /alerts/:id/dismiss
func (h *RestAlertHandler) Dismiss(c *gin.Context) {
	alert, err := h.alertService.Dismiss(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}
