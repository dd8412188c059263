// internal/service/plans/plan_service.go
package plans

import (
	"context"
	"errors"
	"fmt"

	"subpay-service/internal/billing"
	"subpay-service/internal/domain/plan"
	xerrors "subpay-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type PlanService struct {
	registry *billing.PlanRegistry
	logger   *zap.Logger
}

func NewPlanService(registry *billing.PlanRegistry, logger *zap.Logger) *PlanService {
	return &PlanService{
		registry: registry,
		logger:   logger,
	}
}

// CreatePlan registers a new billing plan
func (s *PlanService) CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (plan.Plan, error) {
	p := req.ToPlan()
	if err := s.registry.AddPlan(ctx, p); err != nil {
		return plan.Plan{}, err
	}

	s.logger.Info("billing plan created",
		zap.String("plan_id", p.ID),
		zap.Int64("amount", p.Amount),
		zap.Int64("duration", p.Duration),
		zap.String("token", p.Token),
	)
	return p, nil
}

// UpdatePlan applies a partial update; unspecified fields keep their values
func (s *PlanService) UpdatePlan(ctx context.Context, id string, req *plan.UpdatePlanRequest) (plan.Plan, error) {
	p, err := s.registry.UpdatePlan(ctx, id, *req)
	if err != nil {
		return plan.Plan{}, err
	}

	s.logger.Info("billing plan updated", zap.String("plan_id", id))
	return p, nil
}

// DeactivatePlan soft-deletes a plan
func (s *PlanService) DeactivatePlan(ctx context.Context, id string) (plan.Plan, error) {
	p, err := s.registry.DeactivatePlan(ctx, id)
	if err != nil {
		return plan.Plan{}, err
	}

	s.logger.Info("billing plan deactivated", zap.String("plan_id", id))
	return p, nil
}

// GetPlan retrieves a plan by id
func (s *PlanService) GetPlan(ctx context.Context, id string) (plan.Plan, error) {
	p, found, err := s.registry.GetPlan(ctx, id)
	if err != nil {
		return plan.Plan{}, err
	}
	if !found {
		return plan.Plan{}, fmt.Errorf("plan %q: %w", id, xerrors.ErrNotFound)
	}
	return p, nil
}

// ListActivePlans returns active plans in registration order
func (s *PlanService) ListActivePlans(ctx context.Context) ([]plan.Plan, error) {
	return s.registry.ListActivePlans(ctx)
}

// SeedPlans loads initial plans at startup, skipping ids that already
// exist so restarts are idempotent.
func (s *PlanService) SeedPlans(ctx context.Context, seed []plan.Plan) error {
	for _, p := range seed {
		err := s.registry.AddPlan(ctx, p)
		if errors.Is(err, xerrors.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed plan %q: %w", p.ID, err)
		}
		s.logger.Info("seeded billing plan", zap.String("plan_id", p.ID))
	}
	return nil
}
