package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"careops/backend/internal/services"
)

// Task types handled by the background worker.
const (
	TypeBookingReminder = "automation:booking_reminder"
	TypeFormReminder    = "automation:form_reminder"
)

const (
	reminderQueue    = "default"
	reminderMaxRetry = 3
	reminderTimeout  = time.Minute
)

// --- Task Client (Enqueuing tasks) ---

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// ReminderPayload identifies the booking a reminder is about.
type ReminderPayload struct {
	BookingID string `json:"booking_id"`
}

func newReminderTask(taskType, bookingID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReminderPayload{BookingID: bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reminder payload: %w", err)
	}
	return asynq.NewTask(taskType, payload,
		asynq.Queue(reminderQueue),
		asynq.MaxRetry(reminderMaxRetry),
		asynq.Timeout(reminderTimeout),
	), nil
}

// NewBookingReminderTask builds a task that sends the booking reminder.
func NewBookingReminderTask(bookingID string) (*asynq.Task, error) {
	return newReminderTask(TypeBookingReminder, bookingID)
}

// NewFormReminderTask builds a task that sends the intake form reminder.
func NewFormReminderTask(bookingID string) (*asynq.Task, error) {
	return newReminderTask(TypeFormReminder, bookingID)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	bookings services.IBookingService
	log      zerolog.Logger
}

func NewTaskProcessor(bookings services.IBookingService, log zerolog.Logger) *TaskProcessor {
	return &TaskProcessor{
		bookings: bookings,
		log:      log.With().Str("component", "tasks").Logger(),
	}
}

// SetupServer configures an Asynq server and the mux it should run.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, concurrency int) (*asynq.Server, *asynq.ServeMux) {
	log := processor.log
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("task", task.Type()).Bytes("payload", task.Payload()).Msg("task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingReminder, processor.HandleBookingReminderTask)
	mux.HandleFunc(TypeFormReminder, processor.HandleFormReminderTask)
	return srv, mux
}

// --- Task Handlers ---

func (p *TaskProcessor) HandleBookingReminderTask(ctx context.Context, t *asynq.Task) error {
	return p.remind(ctx, t, p.bookings.SendReminder)
}

func (p *TaskProcessor) HandleFormReminderTask(ctx context.Context, t *asynq.Task) error {
	return p.remind(ctx, t, p.bookings.SendFormReminder)
}

func (p *TaskProcessor) remind(ctx context.Context, t *asynq.Task, send func(context.Context, string) error) error {
	var payload ReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reminder payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.BookingID == "" {
		return fmt.Errorf("reminder payload has no booking id: %w", asynq.SkipRetry)
	}

	err := send(ctx, payload.BookingID)
	if errors.Is(err, services.ErrNotFound) {
		p.log.Warn().Str("task", t.Type()).Str("booking_id", payload.BookingID).Msg("booking gone, reminder dropped")
		return fmt.Errorf("booking %s not found: %w", payload.BookingID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	p.log.Info().Str("task", t.Type()).Str("booking_id", payload.BookingID).Msg("reminder processed")
	return nil
}
