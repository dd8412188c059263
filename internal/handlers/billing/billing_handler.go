// internal/handlers/billing/billing_handler.go
package billing

import (
	"net/http"

	"subpay-service/internal/pkg/response"
	billingUsecase "subpay-service/internal/service/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BillingHandler struct {
	billingService *billingUsecase.BillingService
	logger         *zap.Logger
}

func NewBillingHandler(billingService *billingUsecase.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// GetProvider returns the provider address payments settle to.
func (h *BillingHandler) GetProvider(c *gin.Context) {
	response.Success(c, http.StatusOK, "provider retrieved", gin.H{
		"provider": h.billingService.ProviderAddress(),
	})
}

// GetFeeRate returns the platform fee in basis points.
func (h *BillingHandler) GetFeeRate(c *gin.Context) {
	response.Success(c, http.StatusOK, "fee rate retrieved", gin.H{
		"fee_bps": h.billingService.FeeRate(),
	})
}

// GetStorageFootprint reports the key count and byte usage of the
// billing state store.
func (h *BillingHandler) GetStorageFootprint(c *gin.Context) {
	fp, err := h.billingService.StorageFootprint(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to measure storage footprint", zap.Error(err))
		response.FromError(c, "failed to measure storage footprint", err)
		return
	}

	response.Success(c, http.StatusOK, "storage footprint retrieved", fp)
}
