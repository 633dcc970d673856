package workshop

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/handler"
	"github.com/mcastellanos/procadena/internal/middleware"
	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/workshop"
)

type Handler struct {
	service *workshop.Service
}

func NewHandler(service *workshop.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	workshops := r.Group("/workshops")
	{
		workshops.POST("", h.Create)
		workshops.GET("", h.List)
		workshops.GET("/:id", h.Get)
		workshops.POST("/:id/sessions", h.ScheduleSession)
		workshops.POST("/:id/enroll", h.Enroll)
		workshops.DELETE("/:id/enroll", h.CancelEnrollment)
		workshops.POST("/:id/attendance", h.MarkAttended)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var w model.Workshop
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), &w); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(w))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid workshop ID"))
		return
	}

	w, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("workshop not found"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(w))
}

func (h *Handler) List(c *gin.Context) {
	workshops, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(workshops))
}

func (h *Handler) ScheduleSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid workshop ID"))
		return
	}

	var session model.WorkshopSession
	if err := c.ShouldBindJSON(&session); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	session.WorkshopID = id

	if err := h.service.ScheduleSession(c.Request.Context(), &session); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(session))
}

func (h *Handler) Enroll(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid workshop ID"))
		return
	}
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user"))
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), id, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(enrollment))
}

func (h *Handler) CancelEnrollment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid workshop ID"))
		return
	}
	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user"))
		return
	}

	enrollment, err := h.service.CancelEnrollment(c.Request.Context(), id, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(enrollment))
}

// MarkAttended records attendance for the user named in the request
// body, so facilitators can check participants in.
func (h *Handler) MarkAttended(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid workshop ID"))
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	enrollment, err := h.service.MarkAttended(c.Request.Context(), id, req.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(enrollment))
}
