// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"net/http"

	"subpay-service/internal/domain/account"
	"subpay-service/internal/domain/subscription"
	"subpay-service/internal/middleware"
	"subpay-service/internal/pkg/response"
	billingUsecase "subpay-service/internal/service/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	billingService *billingUsecase.BillingService
	logger         *zap.Logger
}

func NewSubscriptionHandler(billingService *billingUsecase.BillingService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// Enroll subscribes the authenticated account to a plan and settles the
// first payment from the attached deposit.
func (h *SubscriptionHandler) Enroll(c *gin.Context) {
	caller := middleware.MustGetAccountID(c)

	var req subscription.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	receipt, err := h.billingService.Enroll(c.Request.Context(), caller, &req)
	if err != nil {
		h.logger.Warn("enrollment failed",
			zap.String("account_id", caller),
			zap.String("plan_id", req.PlanID),
			zap.Error(err),
		)
		response.FromError(c, "enrollment failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription enrolled", receipt)
}

// Pay settles the next due payment of the caller's subscription.
func (h *SubscriptionHandler) Pay(c *gin.Context) {
	caller := middleware.MustGetAccountID(c)

	var req subscription.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	receipt, err := h.billingService.Pay(c.Request.Context(), caller, &req)
	if err != nil {
		h.logger.Warn("payment failed",
			zap.String("account_id", caller),
			zap.Error(err),
		)
		response.FromError(c, "payment failed", err)
		return
	}

	response.Success(c, http.StatusOK, "payment settled", receipt)
}

// Cancel deactivates the caller's subscription.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	caller := middleware.MustGetAccountID(c)

	sub, err := h.billingService.Cancel(c.Request.Context(), caller)
	if err != nil {
		h.logger.Warn("cancellation failed",
			zap.String("account_id", caller),
			zap.Error(err),
		)
		response.FromError(c, "cancellation failed", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription canceled", sub)
}

// GetMySubscription returns the caller's own ledger record.
func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	caller := middleware.MustGetAccountID(c)

	sub, err := h.billingService.GetSubscription(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, "subscription not found", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}

// GetSubscription returns any account's ledger record. This is a
// public view, like the billing info endpoints.
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	accountID := account.Normalize(c.Param("account_id"))
	if !account.ValidateID(accountID) {
		response.Error(c, http.StatusBadRequest, "invalid account id", nil)
		return
	}

	sub, err := h.billingService.GetSubscription(c.Request.Context(), accountID)
	if err != nil {
		response.FromError(c, "subscription not found", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}
