package supplier

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/handler"
	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/service/supplier"
)

type Handler struct {
	service *supplier.Service
}

func NewHandler(service *supplier.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	suppliers := r.Group("/suppliers")
	{
		suppliers.POST("", h.Create)
		suppliers.GET("", h.List)
		suppliers.GET("/:id", h.Get)
		suppliers.PUT("/:id", h.Update)
		suppliers.DELETE("/:id", h.Delete)
		suppliers.POST("/:id/anchors", h.LinkToAnchor)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var s model.Supplier
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), &s); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(s))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid supplier ID"))
		return
	}

	s, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("supplier not found"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid supplier ID"))
		return
	}

	var s model.Supplier
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	s.ID = id

	if err := h.service.Update(c.Request.Context(), &s); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid supplier ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) List(c *gin.Context) {
	filters := map[string]interface{}{}
	if sector := c.Query("sector"); sector != "" {
		filters["sector"] = sector
	}
	if size := c.Query("size"); size != "" {
		filters["size"] = size
	}
	if city := c.Query("city"); city != "" {
		filters["city"] = city
	}
	if search := c.Query("search"); search != "" {
		filters["search"] = search
	}

	suppliers, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(suppliers))
}

type linkRequest struct {
	AnchorCompanyID string `json:"anchor_company_id" binding:"required,uuid"`
	Category        string `json:"category"`
	VendorCode      string `json:"vendor_code"`
}

func (h *Handler) LinkToAnchor(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid supplier ID"))
		return
	}

	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	anchorID, _ := uuid.Parse(req.AnchorCompanyID)

	link, err := h.service.LinkToAnchor(c.Request.Context(), supplierID, anchorID, req.Category, req.VendorCode)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(link))
}
