package handlers

import (
	"net/http"
	"time"

	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/middleware"
	"tradeboard_backend/internal/services"
	"tradeboard_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// MaintenanceHandler exposes the sweep and reconciliation operations to
// an external scheduler. Every endpoint is idempotent; running one twice
// in a row is safe.
type MaintenanceHandler struct {
	*BaseHandler
	jobService     services.JobService
	paymentService services.PaymentService
	cronToken      string
}

func NewMaintenanceHandler(
	base *BaseHandler,
	jobService services.JobService,
	paymentService services.PaymentService,
	cronToken string,
) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler:    base,
		jobService:     jobService,
		paymentService: paymentService,
		cronToken:      cronToken,
	}
}

func (h *MaintenanceHandler) RegisterRoutes(r *gin.RouterGroup) {
	maintenance := r.Group("/maintenance")
	maintenance.Use(middleware.CronTokenMiddleware(h.cronToken))
	{
		maintenance.POST("/expire-jobs", h.ExpireJobs)
		maintenance.POST("/warn-expiring", h.WarnExpiring)
		maintenance.POST("/expire-features", h.ExpireFeatures)
		maintenance.POST("/reconcile-payments", h.ReconcilePayments)
	}
}

func (h *MaintenanceHandler) ExpireJobs(c *gin.Context) {
	expired, err := h.jobService.ExpireSweep(time.Now())
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	logger.CtxInfo(c.Request.Context(), "maintenance: expire sweep done", "expired", expired)
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

func (h *MaintenanceHandler) WarnExpiring(c *gin.Context) {
	warned, err := h.jobService.WarningSweep(time.Now())
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	logger.CtxInfo(c.Request.Context(), "maintenance: warning sweep done", "warned", warned)
	c.JSON(http.StatusOK, gin.H{"warned": warned})
}

func (h *MaintenanceHandler) ExpireFeatures(c *gin.Context) {
	cleared, err := h.jobService.FeatureSweep(time.Now())
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	logger.CtxInfo(c.Request.Context(), "maintenance: feature sweep done", "cleared", cleared)
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

func (h *MaintenanceHandler) ReconcilePayments(c *gin.Context) {
	report, err := h.paymentService.Reconcile(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	logger.CtxInfo(c.Request.Context(), "maintenance: payment reconcile done",
		"checked", report.CheckedUsers, "repaired", report.RepairedUsers,
		"cancelled_extra", report.CancelledExtra, "completed_pending", report.CompletedPending)
	c.JSON(http.StatusOK, report)
}
