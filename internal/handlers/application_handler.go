package handlers

import (
	"net/http"

	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/middleware"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	*BaseHandler
	applicationService services.ApplicationService
}

func NewApplicationHandler(base *BaseHandler, applicationService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{BaseHandler: base, applicationService: applicationService}
}

func (h *ApplicationHandler) RegisterRoutes(r *gin.RouterGroup, authmw gin.HandlerFunc) {
	jobApps := r.Group("/jobs/:jobId/applications")
	jobApps.Use(authmw)
	{
		jobApps.POST("", middleware.RequireRoles(models.UserRoleJobSeeker), h.Submit)
		jobApps.GET("", middleware.RequireRoles(models.UserRoleEmployer, models.UserRoleAdmin), h.ListForJob)
	}

	apps := r.Group("/applications")
	apps.Use(authmw)
	{
		apps.GET("/mine", middleware.RequireRoles(models.UserRoleJobSeeker), h.ListMine)
		apps.PATCH("/:applicationId/status",
			middleware.RequireRoles(models.UserRoleEmployer, models.UserRoleAdmin), h.UpdateStatus)
	}
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitApplicationRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.applicationService.Submit(userID, c.Param("jobId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ApplicationHandler) ListForJob(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var query dto.ListQuery
	if !h.BindAndValidateQuery(c, &query) {
		return
	}

	resp, err := h.applicationService.ListForJob(userID, c.Param("jobId"), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var query dto.ListQuery
	if !h.BindAndValidateQuery(c, &query) {
		return
	}

	resp, err := h.applicationService.ListMine(userID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.applicationService.UpdateStatus(userID, c.Param("applicationId"), models.ApplicationStatus(req.Status))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
