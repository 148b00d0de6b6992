package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"careops/backend/internal/api/handlers"
	"careops/backend/internal/api/middleware"
	"careops/backend/internal/cache"
	"careops/backend/internal/config"
	"careops/backend/internal/services"
)

// Services bundles the domain services the HTTP surface depends on.
type Services struct {
	Users     services.IUserService
	Contacts  services.IContactService
	Bookings  services.IBookingService
	Inventory services.IInventoryService
	Alerts    services.IAlertService
	Messages  services.IMessageService
	Dashboard services.IDashboardService
}

// SetupRouter configures and returns the main Gin engine. ctx bounds the
// rate limiter's background sweep. taskClient may be nil, which disables
// asynchronous reminders.
func SetupRouter(ctx context.Context, cfg *config.Config, svc Services, taskClient handlers.IAsynqClient, log zerolog.Logger) *gin.Engine {
	r := gin.New()

	// Apply global middleware first (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg.RateLimitRefillRate, cfg.RateLimitBucketSize, log)

	authHandler := handlers.NewRestAuthHandler(svc.Users, cfg.JwtSecret, cfg.JwtTTL())
	contactHandler := handlers.NewRestContactHandler(svc.Contacts)
	bookingHandler := handlers.NewRestBookingHandler(svc.Bookings, taskClient)
	inventoryHandler := handlers.NewRestInventoryHandler(svc.Inventory)
	alertHandler := handlers.NewRestAlertHandler(svc.Alerts)
	messageHandler := handlers.NewRestMessageHandler(svc.Messages)
	dashboardHandler := handlers.NewRestDashboardHandler(svc.Dashboard)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := r.Group("/api/v1")
	{
		// Public Routes
		authGroup := v1.Group("/auth")
		authGroup.Use(rateLimiter.Limit())
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Authenticated Routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/auth/me", authHandler.Me)

			authRequired.POST("/contacts", contactHandler.Create)
			authRequired.GET("/contacts", contactHandler.List)
			authRequired.GET("/contacts/:id", contactHandler.Get)
			authRequired.PATCH("/contacts/:id", contactHandler.Update)
			authRequired.DELETE("/contacts/:id", middleware.AdminMiddleware(), contactHandler.Delete)
			authRequired.GET("/contacts/:id/automation", contactHandler.AutomationStatus)

			authRequired.POST("/bookings", bookingHandler.Create)
			authRequired.GET("/bookings", bookingHandler.List)
			authRequired.GET("/bookings/:id", bookingHandler.Get)
			authRequired.PATCH("/bookings/:id", bookingHandler.Update)
			authRequired.POST("/bookings/:id/send-reminder", bookingHandler.SendReminder)
			authRequired.POST("/bookings/:id/send-form-reminder", bookingHandler.SendFormReminder)

			authRequired.POST("/inventory", inventoryHandler.Create)
			authRequired.GET("/inventory", inventoryHandler.List)
			authRequired.GET("/inventory/low-stock", inventoryHandler.LowStock)
			authRequired.GET("/inventory/:id", inventoryHandler.Get)
			authRequired.PATCH("/inventory/:id", inventoryHandler.Update)

			authRequired.GET("/alerts", alertHandler.List)
			authRequired.GET("/alerts/count", alertHandler.Count)
			authRequired.GET("/alerts/:id", alertHandler.Get)
			authRequired.PATCH("/alerts/:id/dismiss", alertHandler.Dismiss)

			authRequired.POST("/messages", messageHandler.Create)
			authRequired.GET("/messages", messageHandler.List)
			authRequired.GET("/messages/contact/:contact_id", messageHandler.ListByContact)

			authRequired.GET("/conversations", messageHandler.ListConversations)
			authRequired.GET("/conversations/:id", messageHandler.GetConversation)
			authRequired.POST("/conversations/:id/messages", messageHandler.Reply)

			authRequired.GET("/dashboard", dashboardHandler.Get)
		}
	}

	return r
}

const (
	testNotificationPolls    = 10
	testNotificationInterval = 200 * time.Millisecond
)

// SetupServiceRouter configures and returns the service Gin engine. It is
// bound to a separate port and exposes operational commands for test harnesses.
func SetupServiceRouter(rdb *redis.Client, shutdownChan chan<- struct{}, log zerolog.Logger) *gin.Engine {
	log = log.With().Str("component", "service_api").Logger()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info().Msg("shutdown requested")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Warn().Msg("shutdown already signaled")
			}
		case "getTestNotification":
			getTestNotification(c, rdb, req.Arguments, log)
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestNotification pops the last notification the Redis sink stored for
// [channel, recipient], polling briefly since delivery may still be in flight.
func getTestNotification(c *gin.Context, rdb *redis.Client, rawArgs json.RawMessage, log zerolog.Logger) {
	var args []string
	if err := json.Unmarshal(rawArgs, &args); err != nil || len(args) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [channel, recipient]"})
		return
	}
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Redis is not configured"})
		return
	}
	key := cache.MockNotificationKey(args[0], args[1])

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var raw string
	found := false
	for i := 0; i < testNotificationPolls; i++ {
		val, err := rdb.GetDel(ctx, key).Result()
		if err == nil {
			raw, found = val, true
			break
		}
		if !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("key", key).Msg("failed to read test notification")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(testNotificationInterval)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test notification not found for key %s", key)})
		return
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to parse test notification")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
