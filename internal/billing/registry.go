// internal/billing/registry.go
package billing

import (
	"context"
	"fmt"

	"subpay-service/internal/domain/plan"
	xerrors "subpay-service/internal/pkg/errors"
	"subpay-service/internal/storage"
)

// PlanRegistry stores billing plans plus an insertion-ordered id index
// used for enumeration. Plans are only ever deactivated, never removed.
type PlanRegistry struct {
	store storage.Store
}

func NewPlanRegistry(store storage.Store) *PlanRegistry {
	return &PlanRegistry{store: store}
}

// AddPlan registers a new plan. The stored record is always active
// regardless of the input flag.
func (r *PlanRegistry) AddPlan(ctx context.Context, p plan.Plan) error {
	p.IsActive = true
	if err := p.Validate(); err != nil {
		return err
	}

	_, exists, err := r.store.Get(ctx, storage.MapPlans, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("plan %q: %w", p.ID, xerrors.ErrAlreadyExists)
	}

	raw, err := encodeRecord(p)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, storage.MapPlans, p.ID, raw); err != nil {
		return err
	}
	return r.store.AppendIndex(ctx, storage.MapPlanIndex, p.ID)
}

// UpdatePlan replaces the stored record with a copy carrying the
// supplied fields; nil fields keep their previous values.
func (r *PlanRegistry) UpdatePlan(ctx context.Context, id string, upd plan.UpdatePlanRequest) (plan.Plan, error) {
	p, found, err := r.GetPlan(ctx, id)
	if err != nil {
		return plan.Plan{}, err
	}
	if !found {
		return plan.Plan{}, fmt.Errorf("plan %q: %w", id, xerrors.ErrNotFound)
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Duration != nil {
		p.Duration = *upd.Duration
	}
	if upd.Amount != nil {
		p.Amount = *upd.Amount
	}
	if upd.Token != nil {
		if err := plan.ValidateToken(*upd.Token); err != nil {
			return plan.Plan{}, err
		}
		p.Token = *upd.Token
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}

	if p.Duration <= 0 || p.Amount <= 0 {
		return plan.Plan{}, xerrors.Wrap(xerrors.ErrInvalidInput, "plan duration and amount must be positive")
	}

	raw, err := encodeRecord(p)
	if err != nil {
		return plan.Plan{}, err
	}
	if err := r.store.Set(ctx, storage.MapPlans, id, raw); err != nil {
		return plan.Plan{}, err
	}
	return p, nil
}

// DeactivatePlan soft-deletes a plan. Existing subscriptions keep their
// snapshot terms but can no longer settle against it.
func (r *PlanRegistry) DeactivatePlan(ctx context.Context, id string) (plan.Plan, error) {
	inactive := false
	return r.UpdatePlan(ctx, id, plan.UpdatePlanRequest{IsActive: &inactive})
}

func (r *PlanRegistry) GetPlan(ctx context.Context, id string) (plan.Plan, bool, error) {
	raw, found, err := r.store.Get(ctx, storage.MapPlans, id)
	if err != nil || !found {
		return plan.Plan{}, false, err
	}

	var p plan.Plan
	if err := decodeRecord(raw, &p); err != nil {
		return plan.Plan{}, false, err
	}
	return p, true, nil
}

// ListActivePlans enumerates active plans in registration order. The
// list is recomputed from the full index on every call.
func (r *PlanRegistry) ListActivePlans(ctx context.Context) ([]plan.Plan, error) {
	ids, err := r.store.ReadIndex(ctx, storage.MapPlanIndex)
	if err != nil {
		return nil, err
	}

	plans := make([]plan.Plan, 0, len(ids))
	for _, id := range ids {
		p, found, err := r.GetPlan(ctx, id)
		if err != nil {
			return nil, err
		}
		if found && p.IsActive {
			plans = append(plans, p)
		}
	}
	return plans, nil
}
