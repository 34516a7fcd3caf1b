package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/handler"
	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/service/chat"
)

type Handler struct {
	svc chat.Service
}

func NewHandler(svc chat.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/conversations")
	{
		grp.POST("", h.StartConversation)
		grp.GET("", h.ListConversations)
		grp.GET("/unread-count", h.UnreadCount)
		grp.GET("/:id/messages", h.ListMessages)
		grp.POST("/:id/read", h.MarkRead)
	}
	r.POST("/messages", h.SendMessage)
}

func (h *Handler) StartConversation(c *gin.Context) {
	var req model.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	conv, err := h.svc.StartConversation(c.Request.Context(), middleware.UserID(c), req.RecipientID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(conv))
}

func (h *Handler) ListConversations(c *gin.Context) {
	convs, err := h.svc.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(convs))
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msg))
}

func (h *Handler) ListMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid conversation id"))
		return
	}

	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	msgs, err := h.svc.ListMessages(c.Request.Context(), middleware.UserID(c), conversationID, &p)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(msgs))
}

func (h *Handler) MarkRead(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid conversation id"))
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), middleware.UserID(c), conversationID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse("messages marked read"))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"unread": count}))
}
