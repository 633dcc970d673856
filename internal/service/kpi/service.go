package kpi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/internal/service/stage"
	"github.com/mcastellanos/procadena/pkg/errors"
	"github.com/mcastellanos/procadena/pkg/logger"
)

// trendWindow is how many recent measurements the trend looks at.
const trendWindow = 3

// alertThreshold triggers a KPI alert when compliance drops below it.
const alertThreshold = 50.0

type Service struct {
	kpis      repository.KPIRepository
	stages    repository.StageRepository
	suppliers repository.SupplierRepository
	notifier  stage.Notifier
	logger    *logger.Logger
}

func NewService(
	kpis repository.KPIRepository,
	stages repository.StageRepository,
	suppliers repository.SupplierRepository,
	notifier stage.Notifier,
	logger *logger.Logger,
) *Service {
	return &Service{
		kpis:      kpis,
		stages:    stages,
		suppliers: suppliers,
		notifier:  notifier,
		logger:    logger,
	}
}

// Create registers a KPI on a participation's monitoring stage.
func (s *Service) Create(ctx context.Context, participationID uuid.UUID, kpi *model.KPI) error {
	if kpi.Name == "" {
		return errors.NewBadRequest("kpi name is required", nil)
	}

	st, err := s.stages.GetOrCreateMonitoring(ctx, participationID)
	if err != nil {
		return err
	}
	kpi.StageID = st.ID
	kpi.CurrentValue = kpi.InitialValue
	kpi.Trend = model.TrendStable

	return s.kpis.Create(ctx, kpi)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.KPI, error) {
	return s.kpis.Get(ctx, id)
}

func (s *Service) ListByStage(ctx context.Context, stageID uuid.UUID) ([]*model.KPI, error) {
	return s.kpis.ListByStage(ctx, stageID)
}

// RecordMeasurement appends a reading, moves the KPI's current value
// and recomputes its trend over the recent window. A compliance drop
// below the alert threshold notifies the recorder.
func (s *Service) RecordMeasurement(ctx context.Context, m *model.KPIMeasurement) (*model.KPI, error) {
	kpi, err := s.kpis.Get(ctx, m.KPIID)
	if err != nil {
		return nil, errors.NewNotFound("kpi", err)
	}
	if m.MeasuredOn.IsZero() {
		m.MeasuredOn = time.Now()
	}

	if err := s.kpis.CreateMeasurement(ctx, m); err != nil {
		return nil, err
	}

	kpi.CurrentValue = m.Value

	recent, err := s.kpis.ListMeasurements(ctx, kpi.ID, trendWindow)
	if err != nil {
		return nil, err
	}
	kpi.Trend = computeTrend(kpi, recent)

	if err := s.kpis.Update(ctx, kpi); err != nil {
		return nil, err
	}

	if kpi.CompliancePercent() < alertThreshold && kpi.TargetValue != 0 && m.RecordedBy != nil && s.notifier != nil {
		s.notifier.Notify(ctx, *m.RecordedBy, model.EventKPIAlert, map[string]string{
			"kpi_name":   kpi.Name,
			"compliance": fmt.Sprintf("%.1f", kpi.CompliancePercent()),
		}, model.PriorityQueueUrgent)
	}
	return kpi, nil
}

// computeTrend compares the recent window, newest first. Movement
// toward the target is improving, away from it worsening. Fewer than
// two readings keep the trend stable.
func computeTrend(kpi *model.KPI, recent []*model.KPIMeasurement) model.KPITrend {
	if len(recent) < 2 {
		return model.TrendStable
	}

	newest := recent[0].Value
	oldest := recent[len(recent)-1].Value
	if newest == oldest {
		return model.TrendStable
	}

	// A target below the starting point means lower is better.
	lowerIsBetter := kpi.TargetValue < kpi.InitialValue
	improving := newest > oldest
	if lowerIsBetter {
		improving = newest < oldest
	}
	if improving {
		return model.TrendImproving
	}
	return model.TrendWorsening
}

// CreateWeeklyReport files a monitoring week summary.
func (s *Service) CreateWeeklyReport(ctx context.Context, participationID uuid.UUID, report *model.WeeklyReport) error {
	st, err := s.stages.GetMonitoring(ctx, participationID)
	if err != nil {
		return err
	}
	if st == nil {
		return errors.NewNotFound("monitoring stage", nil)
	}
	report.StageID = st.ID
	if report.WeekEnd.Before(report.WeekStart) {
		return errors.NewBadRequest("week end must follow week start", nil)
	}
	return s.kpis.CreateWeeklyReport(ctx, report)
}

// GenerateClosureReport builds the final report, snapshotting every
// KPI's outcome, and unlocks monitoring completion. Only one closure
// report may exist per stage.
func (s *Service) GenerateClosureReport(ctx context.Context, participationID uuid.UUID, report *model.ClosureReport) (*model.ClosureReport, error) {
	st, err := s.stages.GetMonitoring(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.NewNotFound("monitoring stage", nil)
	}

	existing, err := s.kpis.GetClosureReport(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewConflict("closure report already exists", nil)
	}

	kpis, err := s.kpis.ListByStage(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	results := model.JSONMap{}
	for _, k := range kpis {
		results[k.Name] = map[string]interface{}{
			"initial_value":      k.InitialValue,
			"current_value":      k.CurrentValue,
			"target_value":       k.TargetValue,
			"unit":               k.Unit,
			"compliance_percent": k.CompliancePercent(),
			"trend":              string(k.Trend),
		}
	}
	report.StageID = st.ID
	report.KPIResults = results

	if err := s.kpis.CreateClosureReport(ctx, report); err != nil {
		return nil, err
	}

	st.FinalReportGenerated = true
	if err := s.stages.UpdateMonitoring(ctx, st); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"participation_id": participationID,
	}).Info("closure report generated")
	return report, nil
}
