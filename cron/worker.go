package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"servimatch/config"
	requestRepo "servimatch/database/repository/request"
	"servimatch/models"
	"servimatch/services/notification"
	"servimatch/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt returns the asynq connection for the reminder queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitReminderWorker runs the reminder worker in the background and returns
// the server so the caller can shut it down.
func InitReminderWorker(ctx context.Context, notifSvc notification.NotificationService, requests requestRepo.RequestStore, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.ReminderQueue: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(notifSvc, requests, logger))

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("Starting reminder worker")
		const maxAttempts = 5

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Warn("Reminder worker failed to start",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempt == maxAttempts {
				logger.Error("Reminder worker gave up; reminders will queue until restart")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt*2) * time.Second):
			}
		}
	}()
	return srv
}

// HandleReminderTask delivers one queued reminder if its request is still
// booked. Undecodable payloads and unknown targets are dropped without retry.
func HandleReminderTask(notifSvc notification.NotificationService, requests requestRepo.RequestStore, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("decode reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		req, err := requests.GetByID(ctx, p.RequestID)
		switch {
		case errors.Is(err, requestRepo.ErrRequestNotFound):
			logger.Warn("Reminder for unknown request dropped", zap.Int64("requestId", p.RequestID))
			return nil
		case err != nil:
			return fmt.Errorf("load request %d: %w", p.RequestID, err)
		case req.Status != models.StatusAccepted:
			logger.Info("Reminder dropped, request no longer booked",
				zap.Int64("requestId", p.RequestID),
				zap.String("status", string(req.Status)))
			return nil
		}

		logger.Info("Triggering reminder",
			zap.Int64("requestId", p.RequestID),
			zap.String("target", p.Target),
			zap.Int64("targetId", p.TargetID))

		err = notification.Dispatch(ctx, notifSvc, p)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, notification.ErrUnknownTarget):
			logger.Warn("Unknown reminder target", zap.String("target", p.Target))
			return nil
		default:
			logger.Error("Failed to send reminder", zap.Int64("requestId", p.RequestID), zap.Error(err))
			return err
		}
	}
}

// monitorRedisConnection pings the queue Redis periodically to surface outages.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	opt := QueueRedisOpt()
	client := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Reminder queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
