package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
)

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *notificationRepository) CreateWithQueueEntry(ctx context.Context, n *model.Notification, entry *model.QueueEntry) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	entry.ID = uuid.New()
	entry.NotificationID = n.ID
	entry.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		notifQuery := `
			INSERT INTO notifications (
				id, user_id, template_id, channel, subject, body, html_body,
				link, status, scheduled_at, sent_at, read_at, attempts,
				last_error, created_at
			) VALUES (
				:id, :user_id, :template_id, :channel, :subject, :body, :html_body,
				:link, :status, :scheduled_at, :sent_at, :read_at, :attempts,
				:last_error, :created_at
			)
		`
		if _, err := tx.NamedExecContext(ctx, notifQuery, n); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		entryQuery := `
			INSERT INTO notification_queue (
				id, notification_id, priority, processed, processed_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, entryQuery,
			entry.ID,
			entry.NotificationID,
			entry.Priority,
			entry.Processed,
			entry.ProcessedAt,
			entry.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to enqueue notification: %w", err)
		}
		return nil
	})
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	if err := r.GetDB().GetContext(ctx, &n, `SELECT * FROM notifications WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	query := `
		UPDATE notifications
		SET status = :status, scheduled_at = :scheduled_at, sent_at = :sent_at,
			read_at = :read_at, attempts = :attempts, last_error = :last_error
		WHERE id = :id
	`
	result, err := r.GetDB().NamedExecContext(ctx, query, n)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	query := `SELECT * FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	var notifications []*model.Notification
	if err := r.GetDB().SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) DeleteReadCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE status = $1 AND created_at < $2`

	result, err := r.GetDB().ExecContext(ctx, query, model.NotificationRead, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *notificationRepository) Enqueue(ctx context.Context, entry *model.QueueEntry) error {
	query := `
		INSERT INTO notification_queue (
			id, notification_id, priority, processed, processed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query,
		entry.ID,
		entry.NotificationID,
		entry.Priority,
		entry.Processed,
		entry.ProcessedAt,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListUnprocessed(ctx context.Context, limit int) ([]*model.QueueEntry, error) {
	query := `
		SELECT * FROM notification_queue
		WHERE processed = false
		ORDER BY priority DESC, created_at ASC
		LIMIT $1
	`
	var entries []*model.QueueEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	return entries, nil
}

func (r *notificationRepository) MarkProcessed(ctx context.Context, entryID uuid.UUID) error {
	query := `UPDATE notification_queue SET processed = true, processed_at = $1 WHERE id = $2`

	result, err := r.GetDB().ExecContext(ctx, query, time.Now(), entryID)
	if err != nil {
		return fmt.Errorf("failed to mark queue entry processed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("queue entry not found")
	}
	return nil
}

func (r *notificationRepository) CountUnprocessed(ctx context.Context) (int, error) {
	var count int
	if err := r.GetDB().GetContext(ctx, &count, `SELECT COUNT(*) FROM notification_queue WHERE processed = false`); err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) CreateHistory(ctx context.Context, h *model.DeliveryHistory) error {
	query := `
		INSERT INTO delivery_history (
			id, notification_id, channel, recipient, success, response,
			external_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	h.ID = uuid.New()
	h.CreatedAt = time.Now()

	_, err := r.GetDB().ExecContext(ctx, query,
		h.ID,
		h.NotificationID,
		h.Channel,
		h.Recipient,
		h.Success,
		h.Response,
		h.ExternalID,
		h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery history: %w", err)
	}
	return nil
}

func (r *notificationRepository) ListHistory(ctx context.Context, notificationID uuid.UUID) ([]*model.DeliveryHistory, error) {
	query := `SELECT * FROM delivery_history WHERE notification_id = $1 ORDER BY created_at`

	var history []*model.DeliveryHistory
	if err := r.GetDB().SelectContext(ctx, &history, query, notificationID); err != nil {
		return nil, fmt.Errorf("failed to list delivery history: %w", err)
	}
	return history, nil
}
