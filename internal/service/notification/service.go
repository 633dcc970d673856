package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/pkg/errors"
	"github.com/mcastellanos/procadena/pkg/logger"
	"github.com/mcastellanos/procadena/pkg/messaging"
	"github.com/mcastellanos/procadena/pkg/metrics"
	"github.com/mcastellanos/procadena/pkg/template"
)

// InboxChannel is the broker channel in-app deliveries are published on.
const InboxChannel = "notifications:inbox"

const templateCacheTTL = 5 * time.Minute

// EmailSender delivers rendered email notifications.
type EmailSender interface {
	Send(to, subject, body, htmlBody string) error
}

// WhatsAppSender delivers rendered WhatsApp notifications and returns
// the provider message ID plus the raw response.
type WhatsAppSender interface {
	Send(ctx context.Context, to, body string) (string, string, error)
}

// DrainStats summarizes one queue drain pass.
type DrainStats struct {
	Processed int
	Succeeded int
	Failed    int
}

type Service struct {
	notifications repository.NotificationRepository
	templates     repository.TemplateRepository
	preferences   repository.PreferenceRepository
	users         repository.UserRepository

	email    EmailSender
	whatsapp WhatsAppSender
	broker   messaging.Broker

	templateCache *cache.Cache
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewService(
	notifications repository.NotificationRepository,
	templates repository.TemplateRepository,
	preferences repository.PreferenceRepository,
	users repository.UserRepository,
	email EmailSender,
	whatsapp WhatsAppSender,
	broker messaging.Broker,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		notifications: notifications,
		templates:     templates,
		preferences:   preferences,
		users:         users,
		email:         email,
		whatsapp:      whatsapp,
		broker:        broker,
		templateCache: cache.New(templateCacheTTL, 10*time.Minute),
		metrics:       m,
		logger:        logger,
	}
}

// activeTemplate resolves the template for an (event, channel) pair
// through a short-lived cache. A cached nil means "no template".
func (s *Service) activeTemplate(ctx context.Context, event model.EventKind, channel model.Channel) (*model.Template, error) {
	key := fmt.Sprintf("%s:%s", event, channel)
	if cached, found := s.templateCache.Get(key); found {
		if cached == nil {
			return nil, nil
		}
		return cached.(*model.Template), nil
	}

	tpl, err := s.templates.GetActive(ctx, event, channel)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		s.templateCache.Set(key, nil, cache.DefaultExpiration)
		return nil, nil
	}
	s.templateCache.Set(key, tpl, cache.DefaultExpiration)
	return tpl, nil
}

// CreateForEvent fans an event out to the user's enabled channels. One
// notification plus one queue entry is created per channel that has an
// active template; channels without one are skipped with a warning.
// When channels is nil the user's preference decides; an explicit list
// skips the preference lookup entirely, which is how forced system
// notices reach users who opted out.
func (s *Service) CreateForEvent(ctx context.Context, userID uuid.UUID, event model.EventKind, vars map[string]string, channels []model.Channel, priority model.Priority) ([]*model.Notification, error) {
	requested := channels
	if requested == nil {
		pref, err := s.preferences.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !pref.AllowsEvent(event) {
			return nil, nil
		}
		requested = pref.EnabledChannels()
	}

	if vars == nil {
		vars = map[string]string{}
	}

	var created []*model.Notification
	for _, channel := range requested {
		tpl, err := s.activeTemplate(ctx, event, channel)
		if err != nil {
			return created, err
		}
		if tpl == nil {
			s.logger.WithFields(map[string]interface{}{
				"event":   event,
				"channel": channel,
			}).Warn("no active template, skipping channel")
			continue
		}

		n := &model.Notification{
			UserID:     userID,
			TemplateID: &tpl.ID,
			Channel:    channel,
			Subject:    template.Render(tpl.Subject, vars),
			Body:       template.Render(tpl.Body, vars),
			HTMLBody:   template.Render(tpl.HTMLBody, vars),
			Link:       vars["link"],
			Status:     model.NotificationPending,
		}
		entry := &model.QueueEntry{Priority: priority}

		if err := s.notifications.CreateWithQueueEntry(ctx, n, entry); err != nil {
			return created, err
		}
		created = append(created, n)
	}
	return created, nil
}

// DrainQueue processes up to limit unprocessed queue entries in
// priority order. Every entry is marked processed exactly once whatever
// the delivery outcome; a retriable failure re-enqueues the
// notification on a fresh entry until the attempt cap is hit.
func (s *Service) DrainQueue(ctx context.Context, limit int) (DrainStats, error) {
	timer := prometheus.NewTimer(s.metrics.DrainLatency)
	defer timer.ObserveDuration()

	var stats DrainStats

	entries, err := s.notifications.ListUnprocessed(ctx, limit)
	if err != nil {
		return stats, err
	}

	for _, entry := range entries {
		stats.Processed++
		s.metrics.QueueEntriesProcessed.Inc()

		if err := s.deliverEntry(ctx, entry); err != nil {
			stats.Failed++
			s.metrics.DeliveriesFailed.Inc()
		} else {
			stats.Succeeded++
			s.metrics.DeliveriesSucceeded.Inc()
		}

		if err := s.notifications.MarkProcessed(ctx, entry.ID); err != nil {
			s.logger.Error(err, "failed to mark queue entry processed")
		}
	}

	if count, err := s.notifications.CountUnprocessed(ctx); err == nil {
		s.metrics.QueueSize.Set(float64(count))
	}
	return stats, nil
}

func (s *Service) deliverEntry(ctx context.Context, entry *model.QueueEntry) error {
	n, err := s.notifications.Get(ctx, entry.NotificationID)
	if err != nil {
		return err
	}

	// Read notifications or ones already terminally failed need no work.
	if n.Status == model.NotificationRead || n.Status == model.NotificationSent || n.Status == model.NotificationFailed {
		return nil
	}

	n.Attempts++
	deliverErr := s.deliver(ctx, n)

	outcome := "success"
	if deliverErr != nil {
		outcome = "failure"
	}
	s.metrics.DeliveryAttempts.WithLabelValues(string(n.Channel), outcome).Inc()

	if deliverErr == nil {
		now := time.Now()
		n.Status = model.NotificationSent
		n.SentAt = &now
		n.LastError = ""
		if err := s.notifications.Update(ctx, n); err != nil {
			return err
		}
		return nil
	}

	n.LastError = deliverErr.Error()
	if n.Attempts >= model.MaxDeliveryAttempts {
		n.Status = model.NotificationFailed
		s.logger.WithFields(map[string]interface{}{
			"notification_id": n.ID,
			"attempts":        n.Attempts,
		}).Warn("notification terminally failed")
	}
	if err := s.notifications.Update(ctx, n); err != nil {
		return err
	}

	// Below the cap the notification goes back on the queue as a fresh
	// entry; the exhausted one is never retried again.
	if n.Status != model.NotificationFailed {
		retry := &model.QueueEntry{NotificationID: n.ID, Priority: entry.Priority}
		if err := s.notifications.Enqueue(ctx, retry); err != nil {
			s.logger.Error(err, "failed to re-enqueue notification")
		}
	}
	return deliverErr
}

// deliver dispatches one notification on its channel and records the
// attempt in the delivery history.
func (s *Service) deliver(ctx context.Context, n *model.Notification) error {
	user, err := s.users.Get(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}

	var (
		recipient  string
		externalID string
		response   string
		deliverErr error
	)

	switch n.Channel {
	case model.ChannelEmail:
		recipient = user.Email
		deliverErr = s.email.Send(user.Email, n.Subject, n.Body, n.HTMLBody)

	case model.ChannelWhatsApp:
		recipient = user.Phone
		if user.Phone == "" {
			deliverErr = fmt.Errorf("user has no phone number")
		} else {
			externalID, response, deliverErr = s.whatsapp.Send(ctx, user.Phone, n.Body)
		}

	case model.ChannelSystem:
		// In-app delivery always succeeds: the row itself is the inbox
		// item. The broker publish is best effort for live clients.
		recipient = user.Email
		event := model.InboxEvent{
			ID:             uuid.New(),
			NotificationID: n.ID,
			UserID:         n.UserID,
			Subject:        n.Subject,
			Body:           n.Body,
			CreatedAt:      time.Now(),
		}
		if err := s.broker.Publish(ctx, InboxChannel, event); err != nil {
			s.logger.Error(err, "failed to publish inbox event")
		}

	default:
		deliverErr = fmt.Errorf("unknown channel %q", n.Channel)
	}

	history := &model.DeliveryHistory{
		NotificationID: n.ID,
		Channel:        n.Channel,
		Recipient:      recipient,
		Success:        deliverErr == nil,
		ExternalID:     externalID,
		Response:       response,
	}
	if deliverErr != nil {
		history.Response = deliverErr.Error()
	}
	if err := s.notifications.CreateHistory(ctx, history); err != nil {
		s.logger.Error(err, "failed to record delivery history")
	}
	return deliverErr
}

// ListForUser returns a user's notifications, optionally unread only.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly)
}

// MarkRead marks a notification read on behalf of its owner. Reading an
// already-read notification is a no-op; another user's notification is
// reported as not found.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*model.Notification, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, errors.NewNotFound("notification", nil)
	}
	if n.ReadAt != nil {
		return n, nil
	}

	now := time.Now()
	n.Status = model.NotificationRead
	n.ReadAt = &now
	if err := s.notifications.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListHistory returns the delivery audit for one notification.
func (s *Service) ListHistory(ctx context.Context, notificationID uuid.UUID) ([]*model.DeliveryHistory, error) {
	return s.notifications.ListHistory(ctx, notificationID)
}

// PurgeOld deletes read notifications older than the retention window.
// Unread and failed ones are kept indefinitely.
func (s *Service) PurgeOld(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := s.notifications.DeleteReadCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.WithFields(map[string]interface{}{
			"deleted": deleted,
		}).Info("purged read notifications")
	}
	return deleted, nil
}

// Notify satisfies the stage engine's notifier contract: fire and
// forget, with failures logged rather than propagated.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, event model.EventKind, vars map[string]string, priority model.Priority) {
	if _, err := s.CreateForEvent(ctx, userID, event, vars, nil, priority); err != nil {
		s.logger.Error(err, "failed to create notifications for event", "event", string(event))
	}
}
