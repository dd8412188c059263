// internal/handlers/plans/plan_handler.go
package plans

import (
	"net/http"

	"subpay-service/internal/domain/plan"
	"subpay-service/internal/pkg/response"
	planUsecase "subpay-service/internal/service/plans"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PlanHandler struct {
	planService *planUsecase.PlanService
	logger      *zap.Logger
}

func NewPlanHandler(planService *planUsecase.PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      logger,
	}
}

// CreatePlan registers a new billing plan (provider only)
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req plan.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.planService.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("plan creation failed",
			zap.String("plan_id", req.ID),
			zap.Error(err),
		)
		response.FromError(c, "plan creation failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "plan created", p)
}

// UpdatePlan applies a partial plan update (provider only)
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	id := c.Param("id")

	var req plan.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	p, err := h.planService.UpdatePlan(c.Request.Context(), id, &req)
	if err != nil {
		h.logger.Warn("plan update failed", zap.String("plan_id", id), zap.Error(err))
		response.FromError(c, "plan update failed", err)
		return
	}

	response.Success(c, http.StatusOK, "plan updated", p)
}

// DeactivatePlan soft-deletes a plan (provider only)
func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	id := c.Param("id")

	p, err := h.planService.DeactivatePlan(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("plan deactivation failed", zap.String("plan_id", id), zap.Error(err))
		response.FromError(c, "plan deactivation failed", err)
		return
	}

	response.Success(c, http.StatusOK, "plan deactivated", p)
}

// GetPlan returns one plan by id (public)
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id := c.Param("id")

	p, err := h.planService.GetPlan(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "plan not found", err)
		return
	}

	response.Success(c, http.StatusOK, "plan retrieved", p)
}

// ListActivePlans returns active plans in registration order (public)
func (h *PlanHandler) ListActivePlans(c *gin.Context) {
	list, err := h.planService.ListActivePlans(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list plans", zap.Error(err))
		response.FromError(c, "failed to list plans", err)
		return
	}

	response.Success(c, http.StatusOK, "plans retrieved", list)
}
