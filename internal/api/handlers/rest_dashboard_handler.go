package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careops/backend/internal/services"
)

type RestDashboardHandler struct {
	dashboardService services.IDashboardService
}

func NewRestDashboardHandler(dashboardService services.IDashboardService) *RestDashboardHandler {
	return &RestDashboardHandler{dashboardService: dashboardService}
}

// Get handles GET /dashboard
func (h *RestDashboardHandler) Get(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
