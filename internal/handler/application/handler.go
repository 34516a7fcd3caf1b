package application

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/handler"
	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/service/application"
)

type Handler struct {
	svc            application.Service
	authMiddleware *middleware.AuthMiddleware
}

func NewHandler(svc application.Service, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, authMiddleware: authMiddleware}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/applications")
	{
		candidate := grp.Group("", h.authMiddleware.RequireRole(string(model.RoleCandidate)))
		{
			candidate.POST("", h.Apply)
			candidate.GET("", h.ListMine)
			candidate.GET("/insights/:jobID", h.Insights)
		}

		recruiter := grp.Group("", h.authMiddleware.RequireRole(string(model.RoleRecruiter)))
		{
			recruiter.GET("/job/:jobID", h.ListByJob)
			recruiter.GET("/job/:jobID/ranking", h.RankApplicants)
			recruiter.GET("/recent", h.Recent)
			recruiter.PATCH("/:id/status", h.UpdateStatus)
			recruiter.GET("/:id/outreach-draft", h.OutreachDraft)
			recruiter.GET("/stats/monthly", h.MonthlyStats)
		}
	}
}

func (h *Handler) Apply(c *gin.Context) {
	var req model.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	app, err := h.svc.Apply(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(app))
}

func (h *Handler) ListMine(c *gin.Context) {
	apps, err := h.svc.ListByCandidate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apps))
}

func (h *Handler) ListByJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid job id"))
		return
	}

	applicants, err := h.svc.ListByJob(c.Request.Context(), middleware.UserID(c), jobID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(applicants))
}

func (h *Handler) Recent(c *gin.Context) {
	apps, err := h.svc.Recent(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apps))
}

func (h *Handler) OutreachDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid application id"))
		return
	}

	draft, err := h.svc.OutreachDraft(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(draft))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid application id"))
		return
	}

	var req model.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	app, err := h.svc.UpdateStatus(c.Request.Context(), middleware.UserID(c), id, req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(app))
}

func (h *Handler) RankApplicants(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid job id"))
		return
	}

	ranking, err := h.svc.RankApplicants(c.Request.Context(), middleware.UserID(c), jobID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(ranking))
}

func (h *Handler) Insights(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid job id"))
		return
	}

	insights, err := h.svc.Insights(c.Request.Context(), middleware.UserID(c), jobID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(insights))
}

func (h *Handler) MonthlyStats(c *gin.Context) {
	stats, err := h.svc.MonthlyStats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
