package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"careops/backend/internal/models"
	"careops/backend/internal/services"
	"careops/backend/internal/store"
	"careops/backend/internal/tasks"
)

// RestBookingHandler handles REST requests related to bookings.
type RestBookingHandler struct {
	bookingService services.IBookingService
	taskClient     IAsynqClient
}

// NewRestBookingHandler creates the handler. A nil taskClient disables ?async=true.
func NewRestBookingHandler(bookingService services.IBookingService, taskClient IAsynqClient) *RestBookingHandler {
	return &RestBookingHandler{bookingService: bookingService, taskClient: taskClient}
}

type CreateBookingRequest struct {
	ContactID   string    `json:"contact_id" binding:"required"`
	StaffID     *string   `json:"staff_id"`
	Status      string    `json:"status"`
	FormStatus  string    `json:"form_status"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	ServiceType *string   `json:"service_type"`
	Notes       *string   `json:"notes"`
}

type UpdateBookingRequest struct {
	StaffID     *string    `json:"staff_id"`
	Status      *string    `json:"status"`
	FormStatus  *string    `json:"form_status"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	ServiceType *string    `json:"service_type"`
	Notes       *string    `json:"notes"`
}

func parseStatuses(status, form string) (*models.BookingStatus, *models.FormStatus, error) {
	var bs *models.BookingStatus
	var fs *models.FormStatus
	if status != "" {
		v, err := models.ParseBookingStatus(status)
		if err != nil {
			return nil, nil, err
		}
		bs = &v
	}
	if form != "" {
		v, err := models.ParseFormStatus(form)
		if err != nil {
			return nil, nil, err
		}
		fs = &v
	}
	return bs, fs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create handles POST /bookings
func (h *RestBookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid booking: "+err.Error())
		return
	}
	status, form, err := parseStatuses(req.Status, req.FormStatus)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	booking, err := h.bookingService.Create(c.Request.Context(), services.BookingInput{
		ContactID:   req.ContactID,
		StaffID:     req.StaffID,
		Status:      status,
		FormStatus:  form,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ServiceType: req.ServiceType,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// List handles GET /bookings?status=&skip=&limit=
func (h *RestBookingHandler) List(c *gin.Context) {
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	f := store.BookingFilter{Page: page}
	if s := c.Query("status"); s != "" {
		status, err := models.ParseBookingStatus(s)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Status = &status
	}
	bookings, err := h.bookingService.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// Get handles GET /bookings/:id
func (h *RestBookingHandler) Get(c *gin.Context) {
	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Update handles PATCH /bookings/:id
func (h *RestBookingHandler) Update(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid booking update: "+err.Error())
		return
	}
	status, form, err := parseStatuses(deref(req.Status), deref(req.FormStatus))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	booking, err := h.bookingService.Update(c.Request.Context(), c.Param("id"), services.BookingUpdate{
		StaffID:     req.StaffID,
		Status:      status,
		FormStatus:  form,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ServiceType: req.ServiceType,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// SendReminder handles POST /bookings/:id/send-reminder
func (h *RestBookingHandler) SendReminder(c *gin.Context) {
	h.remind(c, h.bookingService.SendReminder, tasks.NewBookingReminderTask, "Reminder sent successfully")
}

// SendFormReminder handles POST /bookings/:id/send-form-reminder
func (h *RestBookingHandler) SendFormReminder(c *gin.Context) {
	h.remind(c, h.bookingService.SendFormReminder, tasks.NewFormReminderTask, "Form reminder sent successfully")
}

func (h *RestBookingHandler) remind(
	c *gin.Context,
	send func(ctx context.Context, id string) error,
	newTask func(bookingID string) (*asynq.Task, error),
	done string,
) {
	ctx := c.Request.Context()
	id := c.Param("id")

	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if !async {
		if err := send(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": done})
		return
	}

	if h.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Background tasks are not available"})
		return
	}
	// unknown bookings are rejected before enqueueing
	if _, err := h.bookingService.Get(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	task, err := newTask(id)
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := h.taskClient.EnqueueContext(ctx, task)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Reminder queued", "task_id": info.ID})
}
