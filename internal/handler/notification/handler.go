package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/handler"
	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/service/notification"
)

type Handler struct {
	svc notification.Service
}

func NewHandler(svc notification.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/notifications")
	{
		grp.GET("", h.List)
		grp.POST("/:id/read", h.MarkRead)
		grp.POST("/read-all", h.MarkAllRead)
	}
}

func (h *Handler) List(c *gin.Context) {
	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	notifications, unread, err := h.svc.List(c.Request.Context(), middleware.UserID(c), &p)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"notifications": notifications,
		"unread":        unread,
	}))
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification id"))
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse("notification marked read"))
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	updated, err := h.svc.MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": updated}))
}
