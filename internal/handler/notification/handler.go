package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/handler"
	"github.com/mcastellanos/procadena/internal/middleware"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/internal/service/notification"
)

type Handler struct {
	service     *notification.Service
	preferences repository.PreferenceRepository
}

func NewHandler(service *notification.Service, preferences repository.PreferenceRepository) *Handler {
	return &Handler{service: service, preferences: preferences}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	n := r.Group("/notifications")
	{
		n.GET("", h.List)
		n.POST("/:id/read", h.MarkRead)
		n.GET("/:id/history", h.ListHistory)
	}
	r.GET("/preferences", h.GetPreferences)
	r.PUT("/preferences", h.UpdatePreferences)
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.service.ListForUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(notifications))
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification ID"))
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(n))
}

func (h *Handler) ListHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification ID"))
		return
	}

	history, err := h.service.ListHistory(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}

func (h *Handler) GetPreferences(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	pref, err := h.preferences.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(pref))
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	// Load first so the update applies to the caller's own row.
	pref, err := h.preferences.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if err := c.ShouldBindJSON(pref); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	pref.UserID = userID

	if err := h.preferences.Update(c.Request.Context(), pref); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(pref))
}
