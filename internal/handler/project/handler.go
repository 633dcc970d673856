package project

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/handler"
	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/project"
)

type Handler struct {
	service *project.Service
}

func NewHandler(service *project.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.POST("", h.Create)
		projects.GET("", h.List)
		projects.GET("/:id", h.Get)
		projects.PUT("/:id", h.Update)
		projects.POST("/:id/activate", h.Activate)
		projects.POST("/:id/finish", h.Finish)
		projects.POST("/:id/suppliers", h.AssignSupplier)
		projects.GET("/:id/participations", h.ListParticipations)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var p model.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), &p); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("project not found"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	var p model.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	p.ID = id

	if err := h.service.Update(c.Request.Context(), &p); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) List(c *gin.Context) {
	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if anchorID := c.Query("anchor_company_id"); anchorID != "" {
		filters["anchor_company_id"] = anchorID
	}

	projects, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(projects))
}

func (h *Handler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	p, err := h.service.Activate(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) Finish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	p, err := h.service.Finish(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

type assignRequest struct {
	SupplierID   string  `json:"supplier_id" binding:"required,uuid"`
	ConsultantID *string `json:"consultant_id"`
}

func (h *Handler) AssignSupplier(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	supplierID, _ := uuid.Parse(req.SupplierID)
	var consultantID *uuid.UUID
	if req.ConsultantID != nil {
		id, err := uuid.Parse(*req.ConsultantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid consultant ID"))
			return
		}
		consultantID = &id
	}

	participation, err := h.service.AssignSupplier(c.Request.Context(), projectID, supplierID, consultantID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(participation))
}

func (h *Handler) ListParticipations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid project ID"))
		return
	}

	participations, err := h.service.ListParticipations(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(participations))
}
