package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careops/backend/internal/services"
)

// RestInventoryHandler handles REST requests related to stock items.
type RestInventoryHandler struct {
	inventoryService services.IInventoryService
}

func NewRestInventoryHandler(inventoryService services.IInventoryService) *RestInventoryHandler {
	return &RestInventoryHandler{inventoryService: inventoryService}
}

type CreateInventoryRequest struct {
	ItemName  string  `json:"item_name" binding:"required"`
	Quantity  *int    `json:"quantity" binding:"omitempty,min=0"`
	Threshold *int    `json:"threshold" binding:"omitempty,min=0"`
	Unit      *string `json:"unit"`
	Notes     *string `json:"notes"`
}

type UpdateInventoryRequest struct {
	ItemName  *string `json:"item_name"`
	Quantity  *int    `json:"quantity" binding:"omitempty,min=0"`
	Threshold *int    `json:"threshold" binding:"omitempty,min=0"`
	Unit      *string `json:"unit"`
	Notes     *string `json:"notes"`
}

// Create handles POST /inventory
func (h *RestInventoryHandler) Create(c *gin.Context) {
	var req CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid inventory item: "+err.Error())
		return
	}
	item, err := h.inventoryService.Create(c.Request.Context(), services.InventoryInput{
		ItemName: req.ItemName, Quantity: req.Quantity, Threshold: req.Threshold, Unit: req.Unit, Notes: req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// List handles GET /inventory
func (h *RestInventoryHandler) List(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	items, err := h.inventoryService.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// LowStock handles GET /inventory/low-stock
func (h *RestInventoryHandler) LowStock(c *gin.Context) {
	items, err := h.inventoryService.ListLowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get handles GET /inventory/:id
func (h *RestInventoryHandler) Get(c *gin.Context) {
	item, err := h.inventoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Update handles PATCH /inventory/:id
func (h *RestInventoryHandler) Update(c *gin.Context) {
	var req UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid inventory update: "+err.Error())
		return
	}
	item, err := h.inventoryService.Update(c.Request.Context(), c.Param("id"), services.InventoryUpdate{
		ItemName: req.ItemName, Quantity: req.Quantity, Threshold: req.Threshold, Unit: req.Unit, Notes: req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
