package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"servimatch/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEnqueuer rejects a task ID it has already seen, like the queue.
type recordingEnqueuer struct {
	tasks []*asynq.Task
	ids   []string
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	for _, o := range opts {
		if o.Type() != asynq.TaskIDOpt {
			continue
		}
		id := o.Value().(string)
		for _, seen := range r.ids {
			if seen == id {
				return nil, asynq.ErrTaskIDConflict
			}
		}
		r.ids = append(r.ids, id)
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type recordingDeleter struct {
	deleted []string
	err     error
}

func (d *recordingDeleter) DeleteTask(queue, id string) error {
	d.deleted = append(d.deleted, queue+"/"+id)
	return d.err
}

func acceptedRequest(at time.Time) models.ServiceRequest {
	providerID := int64(9)
	return models.ServiceRequest{ID: 4, CustomerID: 3, ProviderID: &providerID, PreferredDate: &at, Status: models.StatusAccepted}
}

func TestScheduleReminders(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	q := &recordingEnqueuer{}
	s := &ReminderScheduler{Client: q, Lead: time.Hour, Now: func() time.Time { return now }}

	require.NoError(t, s.ScheduleReminders(context.Background(), acceptedRequest(now.Add(48*time.Hour))))
	require.Len(t, q.tasks, 2)

	var targets []string
	for _, task := range q.tasks {
		assert.Equal(t, TypeSendReminder, task.Type())
		var p models.ReminderPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &p))
		assert.Equal(t, int64(4), p.RequestID)
		assert.Equal(t, now.Add(47*time.Hour).Format(time.RFC3339), p.FireDate)
		targets = append(targets, p.Target)
	}
	assert.Equal(t, []string{models.RoleCustomer, models.RoleProvider}, targets)
}

func TestScheduleReminders_SkipsPastAndUndated(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	q := &recordingEnqueuer{}
	s := &ReminderScheduler{Client: q, Lead: time.Hour, Now: func() time.Time { return now }}

	require.NoError(t, s.ScheduleReminders(context.Background(), acceptedRequest(now.Add(30*time.Minute))))

	undated := acceptedRequest(now)
	undated.PreferredDate = nil
	require.NoError(t, s.ScheduleReminders(context.Background(), undated))

	assert.Empty(t, q.tasks)
}

func TestScheduleReminders_OneTaskPerParty(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	q := &recordingEnqueuer{}
	s := &ReminderScheduler{Client: q, Lead: time.Hour, Now: func() time.Time { return now }}
	req := acceptedRequest(now.Add(48 * time.Hour))

	require.NoError(t, s.ScheduleReminders(context.Background(), req))
	require.NoError(t, s.ScheduleReminders(context.Background(), req), "re-scheduling is a no-op")

	assert.Len(t, q.tasks, 2)
	assert.Equal(t, []string{"reminder:4:customer", "reminder:4:provider"}, q.ids)
}

func TestCancelReminders(t *testing.T) {
	d := &recordingDeleter{}
	s := &ReminderScheduler{Deleter: d}

	require.NoError(t, s.CancelReminders(context.Background(), 4))
	assert.Equal(t, []string{"default/reminder:4:customer", "default/reminder:4:provider"}, d.deleted)

	d.err = fmt.Errorf("asynq: %w", asynq.ErrTaskNotFound)
	assert.NoError(t, s.CancelReminders(context.Background(), 4), "already delivered")

	d.err = errors.New("redis: connection refused")
	assert.ErrorContains(t, s.CancelReminders(context.Background(), 4), "connection refused")

	assert.NoError(t, (&ReminderScheduler{}).CancelReminders(context.Background(), 4))
}
