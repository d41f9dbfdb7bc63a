package handlers

import (
	"io"
	"net/http"

	"tradeboard_backend/internal/dto"
	"tradeboard_backend/internal/middleware"
	"tradeboard_backend/internal/models"
	"tradeboard_backend/internal/services"
	"tradeboard_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// BillingHandler exposes plans, credit packs, checkout, confirmation and
// the payment provider webhook.
type BillingHandler struct {
	*BaseHandler
	paymentService services.PaymentService
	creditService  services.CreditService
	entitlements   services.EntitlementService
	currency       string
}

func NewBillingHandler(
	base *BaseHandler,
	paymentService services.PaymentService,
	creditService services.CreditService,
	entitlements services.EntitlementService,
	currency string,
) *BillingHandler {
	return &BillingHandler{
		BaseHandler:    base,
		paymentService: paymentService,
		creditService:  creditService,
		entitlements:   entitlements,
		currency:       currency,
	}
}

func (h *BillingHandler) RegisterRoutes(r *gin.RouterGroup, authmw gin.HandlerFunc) {
	r.GET("/plans", h.Plans)
	r.GET("/credit-packs", h.CreditPacks)

	subs := r.Group("/subscriptions")
	subs.Use(authmw, middleware.RequireRoles(models.UserRoleEmployer, models.UserRoleAdmin))
	{
		subs.GET("/my", h.GetSubscription)
		subs.GET("/entitlements", h.GetEntitlements)
		subs.POST("/checkout", h.CheckoutSubscription)
		subs.DELETE("/my", h.CancelSubscription)
	}

	credits := r.Group("/credits")
	credits.Use(authmw, middleware.RequireRoles(models.UserRoleEmployer, models.UserRoleAdmin))
	{
		credits.GET("/balance", h.Balance)
		credits.POST("/checkout", h.CheckoutCredits)
	}

	features := r.Group("/jobs/:jobId/features")
	features.Use(authmw, middleware.RequireRoles(models.UserRoleEmployer, models.UserRoleAdmin))
	{
		features.POST("/checkout", h.CheckoutJobFeature)
	}

	billing := r.Group("/billing")
	{
		billing.POST("/confirm", authmw, h.ConfirmSession)
		// No auth: the provider signs the payload instead.
		billing.POST("/webhook", h.Webhook)
	}
}

func (h *BillingHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.paymentService.Plans()})
}

func (h *BillingHandler) CreditPacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": h.creditService.Packs(h.currency)})
}

func (h *BillingHandler) GetSubscription(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	resp, err := h.paymentService.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) GetEntitlements(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	ent, balance, err := h.entitlements.ResolveWithBalance(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EntitlementsResponse{
		Plan:            string(ent.Plan),
		ActiveJobsLimit: ent.ActiveJobsLimit,
		MonthlyCredits:  ent.MonthlyCredits,
		CreditBalance:   balance.Total(),
	})
}

func (h *BillingHandler) CheckoutSubscription(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutSubscriptionRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CheckoutSubscription(c.Request.Context(), userID, req.Plan)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) CancelSubscription(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	if err := h.paymentService.CancelSubscription(c.Request.Context(), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "subscription cancelled"})
}

func (h *BillingHandler) Balance(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	resp, err := h.creditService.Balance(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) CheckoutCredits(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutCreditsRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CheckoutCredits(c.Request.Context(), userID, req.Pack)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) CheckoutJobFeature(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var req dto.FeatureJobRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.paymentService.CheckoutJobFeature(c.Request.Context(), userID, c.Param("jobId"), req.AddonType)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) ConfirmSession(c *gin.Context) {
	userID, ok := h.AuthedUserID(c)
	if !ok {
		return
	}

	var req dto.ConfirmSessionRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.paymentService.ConfirmSession(c.Request.Context(), userID, req.SessionID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "payment applied"})
}

func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("unreadable webhook payload"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
