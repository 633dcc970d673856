package participation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/handler"
	"github.com/mcastellanos/procadena/internal/middleware"
	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/kpi"
	"github.com/mcastellanos/procadena/internal/service/project"
	"github.com/mcastellanos/procadena/internal/service/stage"
)

type Handler struct {
	stages   *stage.Service
	projects *project.Service
	kpis     *kpi.Service
}

func NewHandler(stages *stage.Service, projects *project.Service, kpis *kpi.Service) *Handler {
	return &Handler{stages: stages, projects: projects, kpis: kpis}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	p := r.Group("/participations")
	{
		p.GET("/:id/can-advance", h.CanAdvance)
		p.POST("/:id/advance", h.Advance)
		p.POST("/:id/suspend", h.Suspend)
		p.POST("/:id/resume", h.Resume)
		p.POST("/:id/withdraw", h.Withdraw)

		p.POST("/:id/diagnosis/start", h.StartDiagnosis)
		p.POST("/:id/diagnosis/complete", h.CompleteDiagnosis)
		p.POST("/:id/plan/submit", h.SubmitPlan)
		p.POST("/:id/plan/approve", h.ApprovePlan)
		p.POST("/:id/plan/reject", h.RejectPlan)
		p.POST("/:id/implementation/complete", h.CompleteImplementation)
		p.POST("/:id/monitoring/complete", h.CompleteMonitoring)

		p.POST("/:id/tasks", h.CreateTask)
		p.PUT("/:id/tasks/:task_id", h.UpdateTask)
		p.DELETE("/:id/tasks/:task_id", h.DeleteTask)

		p.POST("/:id/sessions", h.RecordSession)

		p.POST("/:id/kpis", h.CreateKPI)
		p.POST("/:id/reports/weekly", h.CreateWeeklyReport)
		p.POST("/:id/reports/closure", h.GenerateClosureReport)
	}

	r.POST("/kpis/:id/measurements", h.RecordMeasurement)
}

func (h *Handler) participationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid participation ID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) actorID(c *gin.Context) uuid.UUID {
	id, _ := uuid.Parse(c.GetString(middleware.ContextUserID))
	return id
}

// respondStageError keeps gate violations distinguishable from other
// failures: they surface as 409s with the offending status.
func respondStageError(c *gin.Context, err error) {
	if tErr, ok := err.(*stage.StageTransitionError); ok {
		c.JSON(http.StatusConflict, handler.NewErrorResponse(tErr.Error()))
		return
	}
	handler.RespondError(c, err)
}

func (h *Handler) CanAdvance(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	can, err := h.stages.CanAdvance(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"can_advance": can}))
}

func (h *Handler) Advance(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	advanced, err := h.stages.Advance(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if !advanced {
		c.JSON(http.StatusConflict, handler.NewErrorResponse("stage gate not satisfied"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"advanced": true}))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Suspend(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.projects.SuspendParticipation(c.Request.Context(), id, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) Resume(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	p, err := h.projects.ResumeParticipation(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) Withdraw(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.projects.WithdrawParticipation(c.Request.Context(), id, req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) StartDiagnosis(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	st, err := h.stages.StartDiagnosis(c.Request.Context(), id)
	if err != nil {
		respondStageError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

type completeDiagnosisRequest struct {
	Observations string `json:"observations"`
}

func (h *Handler) CompleteDiagnosis(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}
	var req completeDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	st, err := h.stages.CompleteDiagnosis(c.Request.Context(), id, h.actorID(c), req.Observations)
	if err != nil {
		respondStageError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) SubmitPlan(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	st, err := h.stages.SubmitPlan(c.Request.Context(), id)
	if err != nil {
		respondStageError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

type planReviewRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) ApprovePlan(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}
	var req planReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	st, err := h.stages.ApprovePlan(c.Request.Context(), id, h.actorID(c), req.Notes)
	if err != nil {
		respondStageError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) RejectPlan(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}
	var req planReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	st, err := h.stages.RejectPlan(c.Request.Context(), id, h.actorID(c), req.Notes)
	if err != nil {
		respondStageError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) CompleteImplementation(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	st, err := h.stages.CompleteImplementation(c.Request.Context(), id)
	if err != nil {
		respondStageError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) CompleteMonitoring(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	st, err := h.stages.CompleteMonitoring(c.Request.Context(), id)
	if err != nil {
		respondStageError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) CreateTask(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	var task model.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.stages.CreateTask(c.Request.Context(), id, &task); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(task))
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task ID"))
		return
	}

	var task model.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	task.ID = taskID

	if err := h.stages.UpdateTask(c.Request.Context(), id, &task); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(task))
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task ID"))
		return
	}

	if err := h.stages.DeleteTask(c.Request.Context(), id, taskID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) RecordSession(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	var session model.AccompanimentSession
	if err := c.ShouldBindJSON(&session); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.stages.RecordSession(c.Request.Context(), id, &session); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(session))
}

func (h *Handler) CreateKPI(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	var k model.KPI
	if err := c.ShouldBindJSON(&k); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.kpis.Create(c.Request.Context(), id, &k); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(k))
}

func (h *Handler) RecordMeasurement(c *gin.Context) {
	kpiID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid KPI ID"))
		return
	}

	var m model.KPIMeasurement
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	m.KPIID = kpiID
	actor := h.actorID(c)
	if actor != uuid.Nil {
		m.RecordedBy = &actor
	}

	k, err := h.kpis.RecordMeasurement(c.Request.Context(), &m)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(k))
}

func (h *Handler) CreateWeeklyReport(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	var report model.WeeklyReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.kpis.CreateWeeklyReport(c.Request.Context(), id, &report); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(report))
}

func (h *Handler) GenerateClosureReport(c *gin.Context) {
	id, ok := h.participationID(c)
	if !ok {
		return
	}

	var report model.ClosureReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	generated, err := h.kpis.GenerateClosureReport(c.Request.Context(), id, &report)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(generated))
}
