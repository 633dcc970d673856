package workshop_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/workshop"
)

type fakeWorkshops struct {
	workshops   map[uuid.UUID]*model.Workshop
	sessions    []*model.WorkshopSession
	enrollments []*model.WorkshopEnrollment
}

func newFakeWorkshops() *fakeWorkshops {
	return &fakeWorkshops{workshops: map[uuid.UUID]*model.Workshop{}}
}

func (f *fakeWorkshops) Create(_ context.Context, w *model.Workshop) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	f.workshops[w.ID] = w
	return nil
}

func (f *fakeWorkshops) Get(_ context.Context, id uuid.UUID) (*model.Workshop, error) {
	w, ok := f.workshops[id]
	if !ok {
		return nil, fmt.Errorf("workshop not found")
	}
	return w, nil
}

func (f *fakeWorkshops) List(_ context.Context) ([]*model.Workshop, error) {
	var out []*model.Workshop
	for _, w := range f.workshops {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWorkshops) CreateSession(_ context.Context, s *model.WorkshopSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeWorkshops) ListSessionsOn(_ context.Context, date time.Time) ([]*model.WorkshopSession, error) {
	var out []*model.WorkshopSession
	for _, s := range f.sessions {
		if s.Date.Format("2006-01-02") == date.Format("2006-01-02") && s.Status == model.WorkshopSessionScheduled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeWorkshops) CreateEnrollment(_ context.Context, e *model.WorkshopEnrollment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.enrollments = append(f.enrollments, e)
	return nil
}

func (f *fakeWorkshops) UpdateEnrollment(_ context.Context, e *model.WorkshopEnrollment) error {
	for i, existing := range f.enrollments {
		if existing.ID == e.ID {
			f.enrollments[i] = e
			return nil
		}
	}
	return fmt.Errorf("enrollment not found")
}

func (f *fakeWorkshops) ListEnrollments(_ context.Context, workshopID uuid.UUID, status model.EnrollmentStatus) ([]*model.WorkshopEnrollment, error) {
	var out []*model.WorkshopEnrollment
	for _, e := range f.enrollments {
		if e.WorkshopID != workshopID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type countingNotifier struct {
	enrolled int
}

func (c *countingNotifier) Notify(_ context.Context, _ uuid.UUID, event model.EventKind, _ map[string]string, _ model.Priority) {
	if event == model.EventWorkshopEnrolled {
		c.enrolled++
	}
}

func setup(t *testing.T, capacity int) (*workshop.Service, *fakeWorkshops, *countingNotifier, uuid.UUID) {
	t.Helper()
	repo := newFakeWorkshops()
	notifier := &countingNotifier{}
	svc := workshop.NewService(repo, notifier)

	w := &model.Workshop{Name: "Lean warehousing basics", Capacity: capacity, Modality: model.WorkshopOnSite}
	require.NoError(t, svc.Create(context.Background(), w))
	return svc, repo, notifier, w.ID
}

func TestEnrollConfirmsAndNotifies(t *testing.T) {
	svc, _, notifier, workshopID := setup(t, 10)

	enrollment, err := svc.Enroll(context.Background(), workshopID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentConfirmed, enrollment.Status)
	assert.Equal(t, 1, notifier.enrolled)
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	svc, _, _, workshopID := setup(t, 10)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Enroll(ctx, workshopID, userID)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, workshopID, userID)
	assert.Error(t, err)
}

func TestEnrollAfterCancellation(t *testing.T) {
	svc, _, _, workshopID := setup(t, 10)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Enroll(ctx, workshopID, userID)
	require.NoError(t, err)
	_, err = svc.CancelEnrollment(ctx, workshopID, userID)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, workshopID, userID)
	assert.NoError(t, err, "a cancelled enrollment does not block re-enrollment")
}

func TestEnrollCapacity(t *testing.T) {
	svc, _, _, workshopID := setup(t, 2)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, workshopID, uuid.New())
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, workshopID, uuid.New())
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, workshopID, uuid.New())
	assert.Error(t, err, "third seat exceeds capacity")
}

func TestEnrollUnlimitedCapacity(t *testing.T) {
	svc, _, _, workshopID := setup(t, 0)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Enroll(ctx, workshopID, uuid.New())
		require.NoError(t, err)
	}
}

func TestCancelledSeatFreesCapacity(t *testing.T) {
	svc, _, _, workshopID := setup(t, 1)
	ctx := context.Background()

	firstUser := uuid.New()
	_, err := svc.Enroll(ctx, workshopID, firstUser)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, workshopID, uuid.New())
	require.Error(t, err)

	_, err = svc.CancelEnrollment(ctx, workshopID, firstUser)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, workshopID, uuid.New())
	assert.NoError(t, err)
}

func TestAttendanceTransitions(t *testing.T) {
	svc, _, _, workshopID := setup(t, 5)
	ctx := context.Background()

	userID := uuid.New()
	_, err := svc.Enroll(ctx, workshopID, userID)
	require.NoError(t, err)

	enrollment, err := svc.MarkAttended(ctx, workshopID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentAttended, enrollment.Status)

	_, err = svc.CancelEnrollment(ctx, workshopID, userID)
	assert.Error(t, err, "attendance is final")
	_, err = svc.MarkAttended(ctx, workshopID, userID)
	assert.Error(t, err, "attendance is recorded once")
}

func TestScheduleSessionDefaultsToScheduled(t *testing.T) {
	svc, repo, _, workshopID := setup(t, 5)

	session := &model.WorkshopSession{WorkshopID: workshopID, Date: time.Now().AddDate(0, 0, 7)}
	require.NoError(t, svc.ScheduleSession(context.Background(), session))
	assert.Equal(t, model.WorkshopSessionScheduled, session.Status)
	assert.Len(t, repo.sessions, 1)

	unknown := &model.WorkshopSession{WorkshopID: uuid.New()}
	assert.Error(t, svc.ScheduleSession(context.Background(), unknown))
}
