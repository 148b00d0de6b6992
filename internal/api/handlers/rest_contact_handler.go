package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careops/backend/internal/services"
)

// RestContactHandler handles REST requests related to contacts.
type RestContactHandler struct {
	contactService services.IContactService
}

func NewRestContactHandler(contactService services.IContactService) *RestContactHandler {
	return &RestContactHandler{contactService: contactService}
}

type CreateContactRequest struct {
	Name  string  `json:"name" binding:"required"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone"`
}

// UpdateContactRequest clears email or phone when given an empty string.
type UpdateContactRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email|len=0"`
	Phone *string `json:"phone"`
}

// Create handles POST /contacts
func (h *RestContactHandler) Create(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid contact: "+err.Error())
		return
	}
	contact, err := h.contactService.Create(c.Request.Context(), services.ContactInput{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// List handles GET /contacts
func (h *RestContactHandler) List(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	contacts, err := h.contactService.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// Get handles GET /contacts/:id
func (h *RestContactHandler) Get(c *gin.Context) {
	contact, err := h.contactService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Update handles PATCH /contacts/:id
func (h *RestContactHandler) Update(c *gin.Context) {
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid contact update: "+err.Error())
		return
	}
	contact, err := h.contactService.Update(c.Request.Context(), c.Param("id"), services.ContactUpdate{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Delete handles DELETE /contacts/:id
func (h *RestContactHandler) Delete(c *gin.Context) {
	if err := h.contactService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AutomationStatus handles GET /contacts/:id/automation
func (h *RestContactHandler) AutomationStatus(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.contactService.ShouldContinueAutomation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact_id": id, "should_continue": ok})
}
