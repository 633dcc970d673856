package stage_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/stage"
	"github.com/mcastellanos/procadena/pkg/logger"
)

type fakeParticipations struct {
	items map[uuid.UUID]*model.Participation
}

func (f *fakeParticipations) Create(_ context.Context, p *model.Participation) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakeParticipations) Get(_ context.Context, id uuid.UUID) (*model.Participation, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return p, nil
}

func (f *fakeParticipations) GetBySupplierAndProject(_ context.Context, supplierID, projectID uuid.UUID) (*model.Participation, error) {
	for _, p := range f.items {
		if p.SupplierID == supplierID && p.ProjectID == projectID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeParticipations) Update(_ context.Context, p *model.Participation) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakeParticipations) ListByProject(_ context.Context, _ uuid.UUID) ([]*model.Participation, error) {
	return nil, nil
}

func (f *fakeParticipations) ListBySupplier(_ context.Context, _ uuid.UUID) ([]*model.Participation, error) {
	return nil, nil
}

type fakeStages struct {
	diagnosis      map[uuid.UUID]*model.DiagnosisStage
	plans          map[uuid.UUID]*model.PlanStage
	implementation map[uuid.UUID]*model.ImplementationStage
	monitoring     map[uuid.UUID]*model.MonitoringStage
}

func newFakeStages() *fakeStages {
	return &fakeStages{
		diagnosis:      map[uuid.UUID]*model.DiagnosisStage{},
		plans:          map[uuid.UUID]*model.PlanStage{},
		implementation: map[uuid.UUID]*model.ImplementationStage{},
		monitoring:     map[uuid.UUID]*model.MonitoringStage{},
	}
}

func (f *fakeStages) GetDiagnosis(_ context.Context, pid uuid.UUID) (*model.DiagnosisStage, error) {
	return f.diagnosis[pid], nil
}

func (f *fakeStages) GetOrCreateDiagnosis(_ context.Context, pid uuid.UUID) (*model.DiagnosisStage, error) {
	if st, ok := f.diagnosis[pid]; ok {
		return st, nil
	}
	st := &model.DiagnosisStage{ID: uuid.New(), ParticipationID: pid, Status: model.StagePending}
	f.diagnosis[pid] = st
	return st, nil
}

func (f *fakeStages) UpdateDiagnosis(_ context.Context, st *model.DiagnosisStage) error {
	f.diagnosis[st.ParticipationID] = st
	return nil
}

func (f *fakeStages) GetPlan(_ context.Context, pid uuid.UUID) (*model.PlanStage, error) {
	return f.plans[pid], nil
}

func (f *fakeStages) GetOrCreatePlan(_ context.Context, pid uuid.UUID) (*model.PlanStage, error) {
	if st, ok := f.plans[pid]; ok {
		return st, nil
	}
	st := &model.PlanStage{ID: uuid.New(), ParticipationID: pid, Status: model.PlanPending}
	f.plans[pid] = st
	return st, nil
}

func (f *fakeStages) UpdatePlan(_ context.Context, st *model.PlanStage) error {
	f.plans[st.ParticipationID] = st
	return nil
}

func (f *fakeStages) GetImplementation(_ context.Context, pid uuid.UUID) (*model.ImplementationStage, error) {
	return f.implementation[pid], nil
}

func (f *fakeStages) GetOrCreateImplementation(_ context.Context, pid uuid.UUID) (*model.ImplementationStage, error) {
	if st, ok := f.implementation[pid]; ok {
		return st, nil
	}
	st := &model.ImplementationStage{ID: uuid.New(), ParticipationID: pid, Status: model.StagePending}
	f.implementation[pid] = st
	return st, nil
}

func (f *fakeStages) UpdateImplementation(_ context.Context, st *model.ImplementationStage) error {
	f.implementation[st.ParticipationID] = st
	return nil
}

func (f *fakeStages) GetMonitoring(_ context.Context, pid uuid.UUID) (*model.MonitoringStage, error) {
	return f.monitoring[pid], nil
}

func (f *fakeStages) GetOrCreateMonitoring(_ context.Context, pid uuid.UUID) (*model.MonitoringStage, error) {
	if st, ok := f.monitoring[pid]; ok {
		return st, nil
	}
	st := &model.MonitoringStage{ID: uuid.New(), ParticipationID: pid, Status: model.StagePending}
	f.monitoring[pid] = st
	return st, nil
}

func (f *fakeStages) UpdateMonitoring(_ context.Context, st *model.MonitoringStage) error {
	f.monitoring[st.ParticipationID] = st
	return nil
}

type fakeTasks struct {
	items map[uuid.UUID]*model.Task
}

func (f *fakeTasks) Create(_ context.Context, t *model.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.items[t.ID] = t
	return nil
}

func (f *fakeTasks) Get(_ context.Context, id uuid.UUID) (*model.Task, error) {
	return f.items[id], nil
}

func (f *fakeTasks) Update(_ context.Context, t *model.Task) error {
	f.items[t.ID] = t
	return nil
}

func (f *fakeTasks) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeTasks) ListByStage(_ context.Context, stageID uuid.UUID) ([]*model.Task, error) {
	var out []*model.Task
	for _, t := range f.items {
		if t.StageID == stageID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) ListDueOn(_ context.Context, _ time.Time) ([]*model.Task, error) {
	return nil, nil
}

type fakeSessions struct {
	items []*model.AccompanimentSession
}

func (f *fakeSessions) Create(_ context.Context, s *model.AccompanimentSession) error {
	f.items = append(f.items, s)
	return nil
}

func (f *fakeSessions) ListByStage(_ context.Context, stageID uuid.UUID) ([]*model.AccompanimentSession, error) {
	var out []*model.AccompanimentSession
	for _, s := range f.items {
		if s.StageID == stageID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) SumHoursByStage(_ context.Context, stageID uuid.UUID) (float64, error) {
	var total float64
	for _, s := range f.items {
		if s.StageID == stageID {
			total += s.DurationHours
		}
	}
	return total, nil
}

type fakeSuppliers struct {
	items map[uuid.UUID]*model.Supplier
}

func (f *fakeSuppliers) Create(_ context.Context, s *model.Supplier) error {
	f.items[s.ID] = s
	return nil
}

func (f *fakeSuppliers) Get(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return s, nil
}

func (f *fakeSuppliers) GetByTaxID(_ context.Context, _ string) (*model.Supplier, error) {
	return nil, nil
}

func (f *fakeSuppliers) Update(_ context.Context, s *model.Supplier) error {
	f.items[s.ID] = s
	return nil
}

func (f *fakeSuppliers) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeSuppliers) List(_ context.Context, _ map[string]interface{}) ([]*model.Supplier, error) {
	return nil, nil
}

func (f *fakeSuppliers) CreateAnchorLink(_ context.Context, _ *model.SupplierAnchorLink) error {
	return nil
}

func (f *fakeSuppliers) ListByAnchor(_ context.Context, _ uuid.UUID) ([]*model.Supplier, error) {
	return nil, nil
}

type notifiedEvent struct {
	userID   uuid.UUID
	event    model.EventKind
	priority model.Priority
}

type recordingNotifier struct {
	events []notifiedEvent
}

func (r *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, event model.EventKind, _ map[string]string, priority model.Priority) {
	r.events = append(r.events, notifiedEvent{userID: userID, event: event, priority: priority})
}

type fixture struct {
	svc            *stage.Service
	participations *fakeParticipations
	stages         *fakeStages
	tasks          *fakeTasks
	sessions       *fakeSessions
	suppliers      *fakeSuppliers
	notifier       *recordingNotifier

	participation *model.Participation
	supplierUser  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		participations: &fakeParticipations{items: map[uuid.UUID]*model.Participation{}},
		stages:         newFakeStages(),
		tasks:          &fakeTasks{items: map[uuid.UUID]*model.Task{}},
		sessions:       &fakeSessions{},
		suppliers:      &fakeSuppliers{items: map[uuid.UUID]*model.Supplier{}},
		notifier:       &recordingNotifier{},
		supplierUser:   uuid.New(),
	}

	supplier := &model.Supplier{
		ID:        uuid.New(),
		LegalName: "Aceros del Norte SA",
		UserID:    &f.supplierUser,
	}
	f.suppliers.items[supplier.ID] = supplier

	f.participation = &model.Participation{
		ID:           uuid.New(),
		SupplierID:   supplier.ID,
		ProjectID:    uuid.New(),
		CurrentStage: 1,
		Status:       model.ParticipationPending,
	}
	f.participations.items[f.participation.ID] = f.participation

	quiet := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	f.svc = stage.NewService(f.participations, f.stages, f.tasks, f.sessions, f.suppliers, f.notifier, quiet)
	return f
}

func (f *fixture) completeDiagnosis(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.StartDiagnosis(ctx, f.participation.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteDiagnosis(ctx, f.participation.ID, uuid.New(), "baseline set")
	require.NoError(t, err)
}

func TestCanAdvanceUntouchedStage(t *testing.T) {
	f := newFixture(t)

	ok, err := f.svc.CanAdvance(context.Background(), f.participation.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAdvanceFrozenParticipation(t *testing.T) {
	f := newFixture(t)
	f.completeDiagnosis(t)
	f.participation.Status = model.ParticipationSuspended

	ok, err := f.svc.CanAdvance(context.Background(), f.participation.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAdvanceFinalStage(t *testing.T) {
	f := newFixture(t)
	f.participation.CurrentStage = model.MaxStage
	f.stages.monitoring[f.participation.ID] = &model.MonitoringStage{
		ID:              uuid.New(),
		ParticipationID: f.participation.ID,
		Status:          model.StageCompleted,
	}

	ok, err := f.svc.CanAdvance(context.Background(), f.participation.ID)
	require.NoError(t, err)
	assert.False(t, ok, "a completed final stage must not advance past it")
}

func TestCompleteDiagnosisDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartDiagnosis(ctx, f.participation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParticipationInProgress, f.participation.Status)

	actor := uuid.New()
	st, err := f.svc.CompleteDiagnosis(ctx, f.participation.ID, actor, "needs better inventory control")
	require.NoError(t, err)
	assert.Equal(t, model.StageCompleted, st.Status)
	assert.Equal(t, &actor, st.CompletedBy)

	// Completing the diagnosis stays on stage 1; advancing is a
	// separate, explicit call.
	assert.Equal(t, 1, f.participation.CurrentStage)
	assert.NotNil(t, f.stages.plans[f.participation.ID], "planning record opens on diagnosis completion")
	assert.InDelta(t, 25, f.participation.ProgressPercent, 0.01)

	ok, err := f.svc.Advance(ctx, f.participation.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.participation.CurrentStage)
}

func TestCompleteDiagnosisWrongStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Never started.
	_, err := f.svc.StartDiagnosis(ctx, f.participation.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteDiagnosis(ctx, f.participation.ID, uuid.New(), "")
	require.NoError(t, err)

	_, err = f.svc.CompleteDiagnosis(ctx, f.participation.ID, uuid.New(), "")
	var transitionErr *stage.StageTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "completed", transitionErr.FromStatus)
}

func TestStartDiagnosisTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartDiagnosis(ctx, f.participation.ID)
	require.NoError(t, err)

	_, err = f.svc.StartDiagnosis(ctx, f.participation.ID)
	var transitionErr *stage.StageTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestApprovePlanMovesToImplementation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completeDiagnosis(t)

	_, err := f.svc.SubmitPlan(ctx, f.participation.ID)
	require.NoError(t, err)

	approver := uuid.New()
	st, err := f.svc.ApprovePlan(ctx, f.participation.ID, approver, "solid plan")
	require.NoError(t, err)
	assert.Equal(t, model.PlanApproved, st.Status)
	assert.Equal(t, &approver, st.ApprovedBy)

	assert.Equal(t, 3, f.participation.CurrentStage)
	assert.NotNil(t, f.stages.implementation[f.participation.ID])
	assert.InDelta(t, 50, f.participation.ProgressPercent, 0.01)
}

func TestApprovePlanTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completeDiagnosis(t)

	_, err := f.svc.ApprovePlan(ctx, f.participation.ID, uuid.New(), "")
	require.NoError(t, err)

	_, err = f.svc.ApprovePlan(ctx, f.participation.ID, uuid.New(), "")
	var transitionErr *stage.StageTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestRejectPlanRequiresReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completeDiagnosis(t)

	_, err := f.svc.RejectPlan(ctx, f.participation.ID, uuid.New(), "too vague")
	var transitionErr *stage.StageTransitionError
	require.ErrorAs(t, err, &transitionErr)

	_, err = f.svc.SubmitPlan(ctx, f.participation.ID)
	require.NoError(t, err)
	st, err := f.svc.RejectPlan(ctx, f.participation.ID, uuid.New(), "too vague")
	require.NoError(t, err)
	assert.Equal(t, model.PlanRejected, st.Status)

	// A rejected plan can be resubmitted.
	st, err = f.svc.SubmitPlan(ctx, f.participation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanInReview, st.Status)
}

func approvePlanAndSeedTasks(t *testing.T, f *fixture, statuses ...model.TaskStatus) {
	t.Helper()
	ctx := context.Background()
	f.completeDiagnosis(t)
	_, err := f.svc.ApprovePlan(ctx, f.participation.ID, uuid.New(), "")
	require.NoError(t, err)

	impl := f.stages.implementation[f.participation.ID]
	require.NotNil(t, impl)
	for i, status := range statuses {
		task := &model.Task{
			ID:        uuid.New(),
			StageID:   impl.ID,
			Title:     "task",
			Status:    status,
			SortOrder: i,
		}
		f.tasks.items[task.ID] = task
	}
}

func TestCompleteImplementationRejectsPartialBoard(t *testing.T) {
	f := newFixture(t)
	approvePlanAndSeedTasks(t, f, model.TaskCompleted, model.TaskInProgress)

	_, err := f.svc.CompleteImplementation(context.Background(), f.participation.ID)
	assert.Error(t, err)
	assert.Equal(t, 3, f.participation.CurrentStage)
}

func TestCompleteImplementationRejectsEmptyBoard(t *testing.T) {
	f := newFixture(t)
	approvePlanAndSeedTasks(t, f)

	// Zero tasks means zero percent complete, not vacuously done.
	_, err := f.svc.CompleteImplementation(context.Background(), f.participation.ID)
	assert.Error(t, err)
}

func TestCompleteImplementationAllTasksDone(t *testing.T) {
	f := newFixture(t)
	approvePlanAndSeedTasks(t, f, model.TaskCompleted, model.TaskCompleted)

	st, err := f.svc.CompleteImplementation(context.Background(), f.participation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageCompleted, st.Status)
	assert.InDelta(t, 100, st.ProgressPercent, 0.01)

	assert.Equal(t, 4, f.participation.CurrentStage)
	assert.NotNil(t, f.stages.monitoring[f.participation.ID])
	assert.InDelta(t, 75, f.participation.ProgressPercent, 0.01)
}

func TestCompleteMonitoringRequiresClosureReport(t *testing.T) {
	f := newFixture(t)
	approvePlanAndSeedTasks(t, f, model.TaskCompleted)
	ctx := context.Background()

	_, err := f.svc.CompleteImplementation(ctx, f.participation.ID)
	require.NoError(t, err)

	_, err = f.svc.CompleteMonitoring(ctx, f.participation.ID)
	assert.Error(t, err)
	assert.Equal(t, model.ParticipationInProgress, f.participation.Status)

	f.stages.monitoring[f.participation.ID].FinalReportGenerated = true
	st, err := f.svc.CompleteMonitoring(ctx, f.participation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageCompleted, st.Status)

	assert.Equal(t, model.ParticipationCompleted, f.participation.Status)
	assert.InDelta(t, 100, f.participation.ProgressPercent, 0.01)
	assert.NotNil(t, f.participation.ActualEndDate)
}

func TestRecalculateProgressWeighting(t *testing.T) {
	f := newFixture(t)
	approvePlanAndSeedTasks(t, f, model.TaskCompleted, model.TaskCompleted, model.TaskPending, model.TaskPending)
	ctx := context.Background()

	// Diagnosis 25 + plan 25 + half the tasks done (0.25 * 50).
	_, err := f.svc.RecalculateImplementationProgress(ctx, f.participation.ID)
	require.NoError(t, err)
	assert.InDelta(t, 62.5, f.participation.ProgressPercent, 0.01)

	impl := f.stages.implementation[f.participation.ID]
	assert.Equal(t, model.StageInProgress, impl.Status)
	assert.InDelta(t, 50, impl.ProgressPercent, 0.01)
}

func TestCreateTaskNotifiesAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completeDiagnosis(t)

	assignee := uuid.New()
	task := &model.Task{Title: "Map receiving process", AssigneeID: &assignee}
	require.NoError(t, f.svc.CreateTask(ctx, f.participation.ID, task))

	assert.Equal(t, model.TaskPending, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)

	var found bool
	for _, e := range f.notifier.events {
		if e.event == model.EventTaskAssigned && e.userID == assignee {
			found = true
		}
	}
	assert.True(t, found)
}

func TestUpdateTaskCompletionStampsActualEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completeDiagnosis(t)

	task := &model.Task{Title: "Install rack labels"}
	require.NoError(t, f.svc.CreateTask(ctx, f.participation.ID, task))

	task.Status = model.TaskCompleted
	require.NoError(t, f.svc.UpdateTask(ctx, f.participation.ID, task))
	assert.NotNil(t, task.ActualEnd)
	assert.InDelta(t, 100, task.ProgressPercent, 0.01)

	impl := f.stages.implementation[f.participation.ID]
	assert.InDelta(t, 100, impl.ProgressPercent, 0.01)
}

func TestRecordSessionAccumulatesHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completeDiagnosis(t)

	first := &model.AccompanimentSession{Date: time.Now(), DurationHours: 2.5, Modality: model.ModalityOnSite}
	require.NoError(t, f.svc.RecordSession(ctx, f.participation.ID, first))

	second := &model.AccompanimentSession{Date: time.Now(), DurationHours: 1.5, Modality: model.ModalityVirtual}
	require.NoError(t, f.svc.RecordSession(ctx, f.participation.ID, second))

	impl := f.stages.implementation[f.participation.ID]
	assert.InDelta(t, 4, impl.AccompanimentHours, 0.01)
	assert.InDelta(t, 4, f.participation.HoursConsumed, 0.01)
}

func TestStageChangeNotifiesSupplierUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completeDiagnosis(t)

	ok, err := f.svc.Advance(ctx, f.participation.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NotEmpty(t, f.notifier.events)
	last := f.notifier.events[len(f.notifier.events)-1]
	assert.Equal(t, model.EventStageChanged, last.event)
	assert.Equal(t, f.supplierUser, last.userID)
	assert.Equal(t, model.PriorityQueueHigh, last.priority)
}
