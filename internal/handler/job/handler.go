package job

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/handler"
	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/service/job"
)

type Handler struct {
	svc            job.Service
	authMiddleware *middleware.AuthMiddleware
}

func NewHandler(svc job.Service, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, authMiddleware: authMiddleware}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/jobs")
	{
		grp.GET("", h.List)
		grp.GET("/skills/popular", h.PopularSkills)
		grp.GET("/recommendations", h.authMiddleware.RequireRole(string(model.RoleCandidate)), h.Recommendations)
		grp.GET("/mine", h.authMiddleware.RequireRole(string(model.RoleRecruiter)), h.ListMine)
		grp.GET("/:id", h.Get)

		recruiter := grp.Group("", h.authMiddleware.RequireRole(string(model.RoleRecruiter)))
		{
			recruiter.POST("", h.Create)
			recruiter.PUT("/:id", h.Update)
			recruiter.DELETE("/:id", h.Delete)
		}
	}
}

func (h *Handler) List(c *gin.Context) {
	var filters model.JobFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	jobs, total, err := h.svc.List(c.Request.Context(), &filters)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"jobs":      jobs,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	}))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid job id"))
		return
	}

	j, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(j))
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	j, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(j))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid job id"))
		return
	}

	var req model.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	j, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(j))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid job id"))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse("job deleted"))
}

func (h *Handler) ListMine(c *gin.Context) {
	jobs, err := h.svc.ListByRecruiter(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(jobs))
}

func (h *Handler) Recommendations(c *gin.Context) {
	recs, err := h.svc.Recommendations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(recs))
}

func (h *Handler) PopularSkills(c *gin.Context) {
	skills, err := h.svc.PopularSkills(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(skills))
}
