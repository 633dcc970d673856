package worker

import (
	"context"
	"time"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/internal/service/notification"
	"github.com/mcastellanos/procadena/pkg/logger"
)

// DefaultRetentionDays is how long read notifications are kept.
const DefaultRetentionDays = 90

// Reminders runs the scheduled jobs: task due reminders, workshop
// reminders and notification retention.
type Reminders struct {
	tasks         repository.TaskRepository
	workshops     repository.WorkshopRepository
	notifications *notification.Service
	logger        *logger.Logger
}

func NewReminders(
	tasks repository.TaskRepository,
	workshops repository.WorkshopRepository,
	notifications *notification.Service,
	logger *logger.Logger,
) *Reminders {
	return &Reminders{
		tasks:         tasks,
		workshops:     workshops,
		notifications: notifications,
		logger:        logger,
	}
}

// RunTaskReminders notifies assignees of tasks due tomorrow.
func (r *Reminders) RunTaskReminders(ctx context.Context) error {
	tomorrow := time.Now().AddDate(0, 0, 1)

	tasks, err := r.tasks.ListDueOn(ctx, tomorrow)
	if err != nil {
		return err
	}

	sent := 0
	for _, task := range tasks {
		if task.AssigneeID == nil {
			continue
		}
		r.notifications.Notify(ctx, *task.AssigneeID, model.EventTaskDue, map[string]string{
			"task_title": task.Title,
			"due_date":   tomorrow.Format("2006-01-02"),
		}, model.PriorityQueueHigh)
		sent++
	}

	r.logger.WithFields(map[string]interface{}{
		"tasks_due": len(tasks),
		"reminders": sent,
	}).Info("task reminders dispatched")
	return nil
}

// RunWorkshopReminders notifies confirmed enrollees of sessions
// scheduled for tomorrow.
func (r *Reminders) RunWorkshopReminders(ctx context.Context) error {
	tomorrow := time.Now().AddDate(0, 0, 1)

	sessions, err := r.workshops.ListSessionsOn(ctx, tomorrow)
	if err != nil {
		return err
	}

	sent := 0
	for _, session := range sessions {
		workshop, err := r.workshops.Get(ctx, session.WorkshopID)
		if err != nil {
			r.logger.Error(err, "failed to load workshop for reminder")
			continue
		}

		enrollments, err := r.workshops.ListEnrollments(ctx, session.WorkshopID, model.EnrollmentConfirmed)
		if err != nil {
			r.logger.Error(err, "failed to list enrollments for reminder")
			continue
		}

		for _, enrollment := range enrollments {
			r.notifications.Notify(ctx, enrollment.UserID, model.EventWorkshopReminder, map[string]string{
				"workshop_name": workshop.Name,
				"session_date":  session.Date.Format("2006-01-02"),
				"start_time":    session.StartTime,
			}, model.PriorityQueueHigh)
			sent++
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"sessions":  len(sessions),
		"reminders": sent,
	}).Info("workshop reminders dispatched")
	return nil
}

// RunPurge deletes read notifications past the retention window.
func (r *Reminders) RunPurge(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	_, err := r.notifications.PurgeOld(ctx, retentionDays)
	return err
}
