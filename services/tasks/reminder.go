package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"servimatch/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeSendReminder = "reminder:send"
	ReminderQueue    = "default"
)

var reminderTargets = []string{models.RoleCustomer, models.RoleProvider}

// ReminderTaskID is the queue ID of the reminder for one party of a
// request. At most one such task exists at a time.
func ReminderTaskID(requestID int64, target string) string {
	return fmt.Sprintf("reminder:%d:%s", requestID, target)
}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ReminderTaskID(payload.RequestID, payload.Target)),
		asynq.Queue(ReminderQueue),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// Enqueuer is the part of *asynq.Client used for scheduling.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter is the part of *asynq.Inspector used to withdraw reminders.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

// ReminderScheduler queues appointment reminders for both parties of an
// accepted request, Lead before the preferred start.
type ReminderScheduler struct {
	Client  Enqueuer
	Deleter TaskDeleter
	Lead    time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

// BuildReminders returns the reminder payloads and fire time for req. It
// returns nothing when the request has no date, no provider, or the fire
// time has already passed.
func (s *ReminderScheduler) BuildReminders(req models.ServiceRequest) ([]models.ReminderPayload, time.Time) {
	if req.PreferredDate == nil || req.ProviderID == nil {
		return nil, time.Time{}
	}
	fireAt := req.PreferredDate.Add(-s.Lead)
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if !fireAt.After(now) {
		return nil, time.Time{}
	}

	when := req.PreferredDate.Format("Mon 2 Jan 15:04")
	fire := fireAt.Format(time.RFC3339)
	return []models.ReminderPayload{
		{
			RequestID: req.ID,
			TargetID:  req.CustomerID,
			Target:    models.RoleCustomer,
			Title:     "Upcoming service appointment",
			Body:      fmt.Sprintf("Your service request #%d is booked for %s.", req.ID, when),
			FireDate:  fire,
		},
		{
			RequestID: req.ID,
			TargetID:  *req.ProviderID,
			Target:    models.RoleProvider,
			Title:     "Upcoming job",
			Body:      fmt.Sprintf("You have service request #%d booked for %s.", req.ID, when),
			FireDate:  fire,
		},
	}, fireAt
}

// ScheduleReminders enqueues every reminder for req.
func (s *ReminderScheduler) ScheduleReminders(ctx context.Context, req models.ServiceRequest) error {
	if s.Client == nil {
		return fmt.Errorf("reminder queue client is nil")
	}
	payloads, fireAt := s.BuildReminders(req)
	for _, p := range payloads {
		task, opts, err := NewReminderTask(p, fireAt)
		if err != nil {
			return fmt.Errorf("failed to build reminder task: %w", err)
		}
		_, err = s.Client.EnqueueContext(ctx, task, opts...)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to enqueue %s reminder for request %d: %w", p.Target, req.ID, err)
		}
		if s.Logger != nil {
			s.Logger.Debug("Reminder enqueued",
				zap.Int64("requestId", req.ID),
				zap.String("target", p.Target),
				zap.Time("fireAt", fireAt))
		}
	}
	return nil
}

// CancelReminders withdraws any queued reminders for the request. Tasks that
// already ran or were never queued are not an error.
func (s *ReminderScheduler) CancelReminders(_ context.Context, requestID int64) error {
	if s.Deleter == nil {
		return nil
	}
	var errs []error
	for _, target := range reminderTargets {
		err := s.Deleter.DeleteTask(ReminderQueue, ReminderTaskID(requestID, target))
		if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		errs = append(errs, fmt.Errorf("failed to delete %s reminder for request %d: %w", target, requestID, err))
	}
	return errors.Join(errs...)
}
