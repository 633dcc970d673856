package notification_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/notification"
	"github.com/mcastellanos/procadena/pkg/logger"
	"github.com/mcastellanos/procadena/pkg/metrics"
)

// promauto registers against the default registry, so the test metrics
// are created once for the whole binary.
var testMetrics = metrics.New("test_notification")

type fakeNotifications struct {
	notifications map[uuid.UUID]*model.Notification
	queue         []*model.QueueEntry
	history       []*model.DeliveryHistory
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{notifications: map[uuid.UUID]*model.Notification{}}
}

func (f *fakeNotifications) CreateWithQueueEntry(_ context.Context, n *model.Notification, entry *model.QueueEntry) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	f.notifications[n.ID] = n

	entry.ID = uuid.New()
	entry.NotificationID = n.ID
	entry.CreatedAt = time.Now()
	f.queue = append(f.queue, entry)
	return nil
}

func (f *fakeNotifications) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification not found")
	}
	return n, nil
}

func (f *fakeNotifications) Update(_ context.Context, n *model.Notification) error {
	f.notifications[n.ID] = n
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotifications) DeleteReadCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, n := range f.notifications {
		if n.Status == model.NotificationRead && n.CreatedAt.Before(cutoff) {
			delete(f.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeNotifications) Enqueue(_ context.Context, entry *model.QueueEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	f.queue = append(f.queue, entry)
	return nil
}

func (f *fakeNotifications) ListUnprocessed(_ context.Context, limit int) ([]*model.QueueEntry, error) {
	var out []*model.QueueEntry
	for _, e := range f.queue {
		if !e.Processed {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) MarkProcessed(_ context.Context, entryID uuid.UUID) error {
	for _, e := range f.queue {
		if e.ID == entryID {
			now := time.Now()
			e.Processed = true
			e.ProcessedAt = &now
			return nil
		}
	}
	return fmt.Errorf("queue entry not found")
}

func (f *fakeNotifications) CountUnprocessed(_ context.Context) (int, error) {
	count := 0
	for _, e := range f.queue {
		if !e.Processed {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) CreateHistory(_ context.Context, h *model.DeliveryHistory) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	f.history = append(f.history, h)
	return nil
}

func (f *fakeNotifications) ListHistory(_ context.Context, notificationID uuid.UUID) ([]*model.DeliveryHistory, error) {
	var out []*model.DeliveryHistory
	for _, h := range f.history {
		if h.NotificationID == notificationID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeTemplates struct {
	items []*model.Template
}

func (f *fakeTemplates) Create(_ context.Context, t *model.Template) error {
	f.items = append(f.items, t)
	return nil
}

func (f *fakeTemplates) Update(_ context.Context, _ *model.Template) error { return nil }

func (f *fakeTemplates) GetActive(_ context.Context, event model.EventKind, channel model.Channel) (*model.Template, error) {
	for _, t := range f.items {
		if t.Event == event && t.Channel == channel && t.IsActive {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTemplates) List(_ context.Context) ([]*model.Template, error) {
	return f.items, nil
}

type fakePreferences struct {
	items map[uuid.UUID]*model.Preference
}

func (f *fakePreferences) GetOrCreate(_ context.Context, userID uuid.UUID) (*model.Preference, error) {
	if p, ok := f.items[userID]; ok {
		return p, nil
	}
	p := model.DefaultPreference(userID)
	p.ID = uuid.New()
	f.items[userID] = p
	return p, nil
}

func (f *fakePreferences) Update(_ context.Context, p *model.Preference) error {
	f.items[p.UserID] = p
	return nil
}

type fakeUsers struct {
	items map[uuid.UUID]*model.User
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.items[u.ID] = u
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, fmt.Errorf("user not found")
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.items[u.ID] = u
	return nil
}

func (f *fakeUsers) List(_ context.Context, _ model.UserRole) ([]*model.User, error) {
	return nil, nil
}

type fakeEmail struct {
	sent     []string
	htmlSent []string
	err      error
}

func (f *fakeEmail) Send(to, _, _, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	f.htmlSent = append(f.htmlSent, htmlBody)
	return nil
}

type fakeWhatsApp struct {
	sent []string
	err  error
}

func (f *fakeWhatsApp) Send(_ context.Context, to, _ string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.sent = append(f.sent, to)
	return "wamid.test", `{"ok":true}`, nil
}

type fakeBroker struct {
	published []string
	err       error
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, channel)
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeBroker) Close() error { return nil }

type fixture struct {
	svc      *notification.Service
	repo     *fakeNotifications
	tpls     *fakeTemplates
	prefs    *fakePreferences
	users    *fakeUsers
	email    *fakeEmail
	whatsapp *fakeWhatsApp
	broker   *fakeBroker

	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     newFakeNotifications(),
		tpls:     &fakeTemplates{},
		prefs:    &fakePreferences{items: map[uuid.UUID]*model.Preference{}},
		users:    &fakeUsers{items: map[uuid.UUID]*model.User{}},
		email:    &fakeEmail{},
		whatsapp: &fakeWhatsApp{},
		broker:   &fakeBroker{},
		userID:   uuid.New(),
	}

	f.users.items[f.userID] = &model.User{
		ID:    f.userID,
		Email: "maria@example.com",
		Phone: "+56911112222",
	}

	quiet := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	f.svc = notification.NewService(f.repo, f.tpls, f.prefs, f.users, f.email, f.whatsapp, f.broker, testMetrics, quiet)
	return f
}

func (f *fixture) addTemplate(event model.EventKind, channel model.Channel) {
	f.tpls.items = append(f.tpls.items, &model.Template{
		ID:       uuid.New(),
		Event:    event,
		Channel:  channel,
		Subject:  "Task ${task_title}",
		Body:     "Hello ${supplier_name}, ${task_title} is waiting",
		HTMLBody: "<p>Hello <b>${supplier_name}</b></p>",
		IsActive: true,
	})
}

func TestCreateForEventFansOutPerChannel(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelEmail)
	f.addTemplate(model.EventTaskAssigned, model.ChannelSystem)

	created, err := f.svc.CreateForEvent(context.Background(), f.userID, model.EventTaskAssigned,
		map[string]string{"task_title": "Label racks", "supplier_name": "Aceros"}, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, n := range created {
		assert.Equal(t, model.NotificationPending, n.Status)
		assert.Equal(t, "Task Label racks", n.Subject)
		assert.Contains(t, n.Body, "Hello Aceros")
	}
	assert.Len(t, f.repo.queue, 2, "one queue entry per notification")
}

func TestCreateForEventSkipsChannelWithoutTemplate(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelSystem)

	created, err := f.svc.CreateForEvent(context.Background(), f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, model.ChannelSystem, created[0].Channel)
}

func TestCreateForEventRespectsCategoryPreference(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelEmail)

	pref, err := f.prefs.GetOrCreate(context.Background(), f.userID)
	require.NoError(t, err)
	pref.NotifyTasks = false

	created, err := f.svc.CreateForEvent(context.Background(), f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, f.repo.queue)
}

func TestCreateForEventAllChannelsDisabled(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelEmail)
	f.addTemplate(model.EventTaskAssigned, model.ChannelWhatsApp)
	f.addTemplate(model.EventTaskAssigned, model.ChannelSystem)
	ctx := context.Background()

	pref, err := f.prefs.GetOrCreate(ctx, f.userID)
	require.NoError(t, err)
	pref.EmailEnabled = false
	pref.WhatsAppEnabled = false
	pref.SystemEnabled = false

	created, err := f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err, "a fully muted user is not an error")
	assert.Empty(t, created)
	assert.Empty(t, f.repo.notifications)
	assert.Empty(t, f.repo.queue)
}

func TestCreateForEventExplicitChannelsBypassPreference(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelWhatsApp)

	pref, err := f.prefs.GetOrCreate(context.Background(), f.userID)
	require.NoError(t, err)
	pref.NotifyTasks = false

	// WhatsApp is disabled by default and task events are muted, yet a
	// forced channel list still delivers.
	created, err := f.svc.CreateForEvent(context.Background(), f.userID, model.EventTaskAssigned,
		nil, []model.Channel{model.ChannelWhatsApp}, model.PriorityQueueNormal)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, model.ChannelWhatsApp, created[0].Channel)
}

func TestDrainQueueDeliversEmail(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelEmail)
	ctx := context.Background()

	_, err := f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned,
		map[string]string{"supplier_name": "Aceros"}, nil, model.PriorityQueueNormal)
	require.NoError(t, err)

	stats, err := f.svc.DrainQueue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, []string{"maria@example.com"}, f.email.sent)
	require.Len(t, f.email.htmlSent, 1)
	assert.Equal(t, "<p>Hello <b>Aceros</b></p>", f.email.htmlSent[0],
		"rendered html alternative travels with the email")

	for _, n := range f.repo.notifications {
		assert.Equal(t, model.NotificationSent, n.Status)
		assert.NotNil(t, n.SentAt)
	}
	require.Len(t, f.repo.history, 1)
	assert.True(t, f.repo.history[0].Success)

	// A drained queue stays drained.
	stats, err = f.svc.DrainQueue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
}

func TestDrainQueueRetriesThenFailsTerminally(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelEmail)
	f.email.err = fmt.Errorf("smtp connection refused")
	ctx := context.Background()

	created, err := f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	require.Len(t, created, 1)
	n := created[0]

	for attempt := 1; attempt <= model.MaxDeliveryAttempts; attempt++ {
		stats, err := f.svc.DrainQueue(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Processed, "attempt %d", attempt)
		assert.Equal(t, 1, stats.Failed, "attempt %d", attempt)
		assert.Equal(t, attempt, n.Attempts)
	}

	assert.Equal(t, model.NotificationFailed, n.Status)
	assert.Contains(t, n.LastError, "smtp connection refused")

	// The terminal failure leaves nothing behind to retry.
	stats, err := f.svc.DrainQueue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)

	assert.Len(t, f.repo.history, model.MaxDeliveryAttempts)
}

func TestDrainQueueRecoversAfterTransientFailure(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelEmail)
	f.email.err = fmt.Errorf("smtp timeout")
	ctx := context.Background()

	created, err := f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	n := created[0]

	_, err = f.svc.DrainQueue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationPending, n.Status)

	f.email.err = nil
	stats, err := f.svc.DrainQueue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, model.NotificationSent, n.Status)
}

func TestDrainQueueSystemChannelAlwaysSucceeds(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventStageChanged, model.ChannelSystem)
	f.broker.err = fmt.Errorf("redis down")
	ctx := context.Background()

	pref, err := f.prefs.GetOrCreate(ctx, f.userID)
	require.NoError(t, err)
	pref.EmailEnabled = false

	_, err = f.svc.CreateForEvent(ctx, f.userID, model.EventStageChanged, nil, nil, model.PriorityQueueHigh)
	require.NoError(t, err)

	stats, err := f.svc.DrainQueue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed, "a broker outage must not fail in-app delivery")
}

func TestDrainQueuePriorityOrder(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelEmail)
	f.addTemplate(model.EventKPIAlert, model.ChannelEmail)
	ctx := context.Background()

	pref, err := f.prefs.GetOrCreate(ctx, f.userID)
	require.NoError(t, err)
	pref.SystemEnabled = false

	_, err = f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueLow)
	require.NoError(t, err)
	urgent, err := f.svc.CreateForEvent(ctx, f.userID, model.EventKPIAlert, nil, nil, model.PriorityQueueUrgent)
	require.NoError(t, err)
	require.Len(t, urgent, 1)

	stats, err := f.svc.DrainQueue(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, model.NotificationSent, urgent[0].Status, "urgent entry drains first")
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelSystem)
	ctx := context.Background()

	created, err := f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	require.NotEmpty(t, created)
	target := created[0]

	n, err := f.svc.MarkRead(ctx, target.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationRead, n.Status)
	require.NotNil(t, n.ReadAt)
	firstRead := *n.ReadAt

	// Idempotent: the original read timestamp survives.
	n, err = f.svc.MarkRead(ctx, target.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, firstRead, *n.ReadAt)
}

func TestMarkReadRejectsOtherUsers(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelSystem)
	ctx := context.Background()

	created, err := f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	require.NotEmpty(t, created)

	_, err = f.svc.MarkRead(ctx, created[0].ID, uuid.New())
	assert.Error(t, err)
}

func TestPurgeOldKeepsUnread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -120)
	read := &model.Notification{
		ID:     uuid.New(),
		UserID: f.userID,
		Status: model.NotificationRead,
		ReadAt: &old,
	}
	read.CreatedAt = old
	unread := &model.Notification{
		ID:     uuid.New(),
		UserID: f.userID,
		Status: model.NotificationSent,
	}
	unread.CreatedAt = old
	f.repo.notifications[read.ID] = read
	f.repo.notifications[unread.ID] = unread

	deleted, err := f.svc.PurgeOld(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.NotContains(t, f.repo.notifications, read.ID)
	assert.Contains(t, f.repo.notifications, unread.ID, "unread notifications are kept whatever their age")
}

func TestPurgeOldCutsByCreationDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Read only yesterday, but created well past the retention
	// window. Age decides, not the read timestamp.
	readAt := time.Now().AddDate(0, 0, -1)
	stale := &model.Notification{
		ID:     uuid.New(),
		UserID: f.userID,
		Status: model.NotificationRead,
		ReadAt: &readAt,
	}
	stale.CreatedAt = time.Now().AddDate(0, 0, -120)

	recentRead := &model.Notification{
		ID:     uuid.New(),
		UserID: f.userID,
		Status: model.NotificationRead,
		ReadAt: &readAt,
	}
	recentRead.CreatedAt = time.Now().AddDate(0, 0, -10)

	f.repo.notifications[stale.ID] = stale
	f.repo.notifications[recentRead.ID] = recentRead

	deleted, err := f.svc.PurgeOld(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.NotContains(t, f.repo.notifications, stale.ID)
	assert.Contains(t, f.repo.notifications, recentRead.ID)
}

func TestWhatsAppRequiresPhone(t *testing.T) {
	f := newFixture(t)
	f.addTemplate(model.EventTaskAssigned, model.ChannelWhatsApp)
	ctx := context.Background()

	f.users.items[f.userID].Phone = ""
	pref, err := f.prefs.GetOrCreate(ctx, f.userID)
	require.NoError(t, err)
	pref.EmailEnabled = false
	pref.SystemEnabled = false
	pref.WhatsAppEnabled = true

	created, err := f.svc.CreateForEvent(ctx, f.userID, model.EventTaskAssigned, nil, nil, model.PriorityQueueNormal)
	require.NoError(t, err)
	require.Len(t, created, 1)

	stats, err := f.svc.DrainQueue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Contains(t, created[0].LastError, "no phone number")
}
