package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"careops/backend/internal/api"
	"careops/backend/internal/api/handlers"
	"careops/backend/internal/automation"
	"careops/backend/internal/cache"
	"careops/backend/internal/config"
	"careops/backend/internal/db"
	"careops/backend/internal/logger"
	"careops/backend/internal/notify"
	"careops/backend/internal/providers"
	"careops/backend/internal/services"
	"careops/backend/internal/store"
	"careops/backend/internal/store/memstore"
	"careops/backend/internal/store/mongostore"
	"careops/backend/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		bootLog := logger.New("info", "console", nil)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, nil).With().Str("mode", cfg.RunMode).Logger()
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Storage
	st, mongoClient, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}()

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Error().Err(err).Msg("error disconnecting from Redis")
		}
	}()

	// Initialize notification providers
	provs, closeProviders := buildProviders(cfg, redisClient, log)
	defer closeProviders()

	channel := notify.NewChannel(st.Messages, st.Alerts, provs, cfg.NotifyTimeout(), logger.For(log, "notify"))
	engine := automation.NewEngine(st.Contacts, st.Messages, channel, logger.For(log, "automation"))

	alertService := services.NewAlertService(st.Alerts, logger.For(log, "alerts"))
	svc := api.Services{
		Users:     services.NewUserService(st.Users, logger.For(log, "users")),
		Contacts:  services.NewContactService(st, engine, logger.For(log, "contacts")),
		Bookings:  services.NewBookingService(st, engine, channel, logger.For(log, "bookings")),
		Inventory: services.NewInventoryService(st.Inventory, alertService, channel, logger.For(log, "inventory")),
		Alerts:    alertService,
		Messages:  services.NewMessageService(st, channel, logger.For(log, "messages")),
		Dashboard: services.NewDashboardService(st),
	}

	// Initialize Task Client
	taskClient := tasks.NewClient(redisClient)
	defer func() {
		if err := taskClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing task client")
		}
	}()

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	// Start Service API (always runs)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(redisClient, shutdownChan, log),
	}
	serve(&wg, serviceSrv, "service API", log)

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           api.SetupRouter(ctx, cfg, svc, handlers.IAsynqClient(taskClient), log),
			ReadHeaderTimeout: 10 * time.Second,
		}
		serve(&wg, mainApiSrv, "main API", log)
	}

	bgMode := func() {
		processor := tasks.NewTaskProcessor(svc.Bookings, log)
		srv, mux := tasks.SetupServer(redisClient, processor, cfg.WorkerConcurrency)
		if err := srv.Start(mux); err != nil {
			log.Fatal().Err(err).Msg("background task server failed to start")
		}
		log.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("background task server started")
		backgroundTaskSrv = srv
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatal().Str("mode", cfg.RunMode).Msg("invalid run mode")
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-shutdownChan:
		log.Info().Msg("shutdown requested via service API")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("service API shutdown error")
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("main API shutdown error")
		}
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}
	cancel()

	wg.Wait()
	log.Info().Msg("server gracefully stopped")
}

// serve runs srv in the background until it is shut down.
func serve(wg *sync.WaitGroup, srv *http.Server, name string, log zerolog.Logger) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", srv.Addr).Msgf("%s listening", name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msgf("%s ListenAndServe error", name)
		}
		log.Info().Msgf("%s stopped", name)
	}()
}

// openStore returns the configured backend. The mongo client is nil for the memory backend.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store.Store, *mongo.Client, error) {
	if strings.EqualFold(cfg.StoreBackend, "memory") {
		log.Warn().Msg("using in-memory store, data will not survive a restart")
		return memstore.New(), nil, nil
	}

	client, database, err := db.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDbName, mongostore.EnsureIndexes, log)
	if err != nil {
		return nil, nil, err
	}
	return mongostore.New(database), client, nil
}

// buildProviders picks the delivery backends. MOCK_SERVICES routes email, SMS
// and calendar events into Redis for end-to-end tests; LOG_NOTIFICATIONS
// additionally appends every email and SMS to a file.
func buildProviders(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (notify.Providers, func()) {
	plog := logger.For(log, "providers")
	logging := providers.NewLoggingSender(plog)

	var (
		email    providers.EmailSender
		sms      providers.SMSSender
		calendar providers.CalendarProvider
	)
	if cfg.MockServices {
		plog.Info().Msg("MOCK_SERVICES enabled, notifications go to Redis")
		sink := providers.NewRedisSink(rdb, cfg.SmtpFromAddress, plog)
		email, sms, calendar = sink, sink, sink
	} else {
		sender, err := providers.NewEmailSender(cfg, plog)
		if err != nil {
			plog.Error().Err(err).Msg("failed to initialize SMTP sender, falling back to logging")
			sender = logging
		}
		email, sms, calendar = sender, logging, logging
	}

	compositeEmail := providers.NewCompositeEmailSender(email)
	compositeSMS := providers.NewCompositeSMSSender(sms)
	if cfg.LogNotifications != "" {
		fileSink, err := providers.NewFileSink(cfg.LogNotifications)
		if err != nil {
			plog.Warn().Err(err).Str("path", cfg.LogNotifications).Msg("failed to open notification log, proceeding without it")
		} else {
			compositeEmail.AddSender(fileSink)
			compositeSMS.AddSender(fileSink)
		}
	}

	p := notify.Providers{Email: compositeEmail, SMS: compositeSMS, Calendar: calendar, Webhook: logging}
	closeFn := func() {}
	if cfg.RabbitURL != "" {
		publisher, err := providers.NewRabbitWebhookPublisher(cfg.RabbitURL, cfg.WebhookExchange)
		if err != nil {
			plog.Error().Err(err).Msg("failed to connect webhook publisher, webhooks will only be logged")
		} else {
			p.Webhook = publisher
			closeFn = func() {
				if err := publisher.Close(); err != nil {
					plog.Error().Err(err).Msg("error closing webhook publisher")
				}
			}
		}
	}
	return p, closeFn
}
