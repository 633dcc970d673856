package anchor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/handler"
	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/anchor"
	"github.com/mcastellanos/procadena/internal/service/supplier"
)

type Handler struct {
	service   *anchor.Service
	suppliers *supplier.Service
}

func NewHandler(service *anchor.Service, suppliers *supplier.Service) *Handler {
	return &Handler{service: service, suppliers: suppliers}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	anchors := r.Group("/anchors")
	{
		anchors.POST("", h.Create)
		anchors.GET("", h.List)
		anchors.GET("/:id", h.Get)
		anchors.PUT("/:id", h.Update)
		anchors.DELETE("/:id", h.Deactivate)
		anchors.GET("/:id/suppliers", h.ListSuppliers)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var company model.AnchorCompany
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), &company); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(company))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid company ID"))
		return
	}

	company, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("anchor company not found"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(company))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid company ID"))
		return
	}

	var company model.AnchorCompany
	if err := c.ShouldBindJSON(&company); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	company.ID = id

	if err := h.service.Update(c.Request.Context(), &company); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(company))
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid company ID"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) List(c *gin.Context) {
	companies, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(companies))
}

func (h *Handler) ListSuppliers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid company ID"))
		return
	}

	suppliers, err := h.suppliers.ListByAnchor(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(suppliers))
}
