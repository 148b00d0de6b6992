package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careops/backend/internal/api/middleware"
	"careops/backend/internal/models"
	"careops/backend/internal/services"
	"careops/backend/internal/store"
)

// RestMessageHandler serves message history and staff conversations.
type RestMessageHandler struct {
	messageService services.IMessageService
}

func NewRestMessageHandler(messageService services.IMessageService) *RestMessageHandler {
	return &RestMessageHandler{messageService: messageService}
}

type CreateMessageRequest struct {
	ContactID string  `json:"contact_id" binding:"required"`
	StaffID   *string `json:"staff_id"`
	Channel   string  `json:"channel" binding:"required"`
	Direction string  `json:"direction" binding:"required"`
	Content   string  `json:"content" binding:"required"`
	Subject   *string `json:"subject"`
}

type ReplyRequest struct {
	Content string `json:"content" binding:"required"`
	Channel string `json:"channel"`
	Subject string `json:"subject"`
}

// Create handles POST /messages
func (h *RestMessageHandler) Create(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid message: "+err.Error())
		return
	}
	channel, err := models.ParseMessageChannel(req.Channel)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	direction, err := models.ParseMessageDirection(req.Direction)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := h.messageService.Create(c.Request.Context(), services.MessageInput{
		ContactID: req.ContactID,
		StaffID:   req.StaffID,
		Channel:   channel,
		Direction: direction,
		Content:   req.Content,
		Subject:   req.Subject,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// List handles GET /messages?direction=&skip=&limit=
func (h *RestMessageHandler) List(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	f := store.MessageFilter{Page: page}
	if v := c.Query("direction"); v != "" {
		d, err := models.ParseMessageDirection(v)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Direction = &d
	}
	msgs, err := h.messageService.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// ListByContact handles GET /messages/contact/:contact_id
func (h *RestMessageHandler) ListByContact(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	msgs, err := h.messageService.ListByContact(c.Request.Context(), c.Param("contact_id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// ListConversations handles GET /conversations
func (h *RestMessageHandler) ListConversations(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	convs, err := h.messageService.ListConversations(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// GetConversation handles GET /conversations/:id where id is the contact id.
func (h *RestMessageHandler) GetConversation(c *gin.Context) {
	conv, err := h.messageService.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Reply handles POST /conversations/:id/messages
func (h *RestMessageHandler) Reply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid reply: "+err.Error())
		return
	}
	var channel models.MessageChannel
	if req.Channel != "" {
		ch, err := models.ParseMessageChannel(req.Channel)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		channel = ch
	}
	msg, err := h.messageService.Reply(c.Request.Context(), c.Param("id"), services.ReplyInput{
		StaffID: middleware.UserID(c),
		Channel: channel,
		Content: req.Content,
		Subject: req.Subject,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
