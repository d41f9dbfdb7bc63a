package handlers

import (
	"fmt"
	"io"
	"net/http"

	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/middleware"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/services"
	"tradeboard_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ResumeHandler struct {
	*BaseHandler
	resumeService services.ResumeService
}

func NewResumeHandler(base *BaseHandler, resumeService services.ResumeService) *ResumeHandler {
	return &ResumeHandler{BaseHandler: base, resumeService: resumeService}
}

func (h *ResumeHandler) RegisterRoutes(r *gin.RouterGroup, authmw gin.HandlerFunc) {
	own := r.Group("/resume")
	own.Use(authmw, middleware.RequireRoles(models.UserRoleJobSeeker))
	{
		own.POST("", h.Upload)
		own.GET("", h.DownloadOwn)
		own.DELETE("", h.Delete)
	}

	resumes := r.Group("/resumes")
	resumes.Use(authmw, middleware.RequireRoles(models.UserRoleEmployer, models.UserRoleAdmin))
	{
		resumes.GET("/:applicantId", h.Download)
		resumes.POST("/:applicantId/unlock", h.Unlock)
	}
}

func (h *ResumeHandler) Upload(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("resume")
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("multipart field 'resume' is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	defer src.Close()

	resp, err := h.resumeService.Upload(c.Request.Context(), userID, file.Filename, file.Size, src)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ResumeHandler) DownloadOwn(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}
	h.stream(c, userID, middleware.GetRole(c), userID)
}

func (h *ResumeHandler) Download(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}
	h.stream(c, userID, middleware.GetRole(c), c.Param("applicantId"))
}

func (h *ResumeHandler) stream(c *gin.Context, requesterID string, role models.UserRole, applicantID string) {
	rc, filename, err := h.resumeService.Download(c.Request.Context(), requesterID, role, applicantID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.CtxWithError(c.Request.Context(), err).Warn("resumes: stream aborted")
	}
}

func (h *ResumeHandler) Delete(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	if err := h.resumeService.DeleteOwn(c.Request.Context(), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "resume deleted"})
}

func (h *ResumeHandler) Unlock(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	resp, err := h.resumeService.Unlock(c.Request.Context(), userID, c.Param("applicantId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
