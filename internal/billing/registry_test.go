package billing

import (
	"context"
	"testing"

	"subpay-service/internal/domain/plan"
	xerrors "subpay-service/internal/pkg/errors"
	"subpay-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basicPlan() plan.Plan {
	return plan.Plan{
		ID:       "basic",
		Name:     "Basic",
		Duration: 2_592_000_000_000_000, // 30 days
		Amount:   1_000_000,
		Token:    "native",
	}
}

func TestPlanRegistry_AddAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry(storage.NewMemoryStore())

	require.NoError(t, r.AddPlan(ctx, basicPlan()))

	got, found, err := r.GetPlan(ctx, "basic")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.IsActive)
	assert.Equal(t, "Basic", got.Name)
	assert.Equal(t, int64(2_592_000_000_000_000), got.Duration)
	assert.Equal(t, int64(1_000_000), got.Amount)
	assert.Equal(t, "native", got.Token)
}

func TestPlanRegistry_AddRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry(storage.NewMemoryStore())

	require.NoError(t, r.AddPlan(ctx, basicPlan()))

	dup := basicPlan()
	dup.Name = "Overwriting"
	err := r.AddPlan(ctx, dup)
	assert.ErrorIs(t, err, xerrors.ErrAlreadyExists)

	// existing record is untouched
	got, _, err := r.GetPlan(ctx, "basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic", got.Name)
}

func TestPlanRegistry_AddValidates(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry(storage.NewMemoryStore())

	noID := basicPlan()
	noID.ID = ""
	assert.ErrorIs(t, r.AddPlan(ctx, noID), xerrors.ErrInvalidInput)

	badDuration := basicPlan()
	badDuration.Duration = 0
	assert.ErrorIs(t, r.AddPlan(ctx, badDuration), xerrors.ErrInvalidInput)

	badAmount := basicPlan()
	badAmount.Amount = -1
	assert.ErrorIs(t, r.AddPlan(ctx, badAmount), xerrors.ErrInvalidInput)

	badToken := basicPlan()
	badToken.Token = "NOT A TOKEN"
	assert.ErrorIs(t, r.AddPlan(ctx, badToken), xerrors.ErrInvalidToken)

	ftToken := basicPlan()
	ftToken.ID = "usdc-plan"
	ftToken.Token = "usdc.token-contract.testnet"
	assert.NoError(t, r.AddPlan(ctx, ftToken))
}

func TestPlanRegistry_UpdatePartialFields(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry(storage.NewMemoryStore())
	require.NoError(t, r.AddPlan(ctx, basicPlan()))

	newAmount := int64(2_000_000)
	updated, err := r.UpdatePlan(ctx, "basic", plan.UpdatePlanRequest{Amount: &newAmount})
	require.NoError(t, err)

	assert.Equal(t, int64(2_000_000), updated.Amount)
	// everything else retained
	assert.Equal(t, "Basic", updated.Name)
	assert.Equal(t, int64(2_592_000_000_000_000), updated.Duration)
	assert.True(t, updated.IsActive)
}

func TestPlanRegistry_UpdateMissingPlan(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry(storage.NewMemoryStore())

	_, err := r.UpdatePlan(ctx, "ghost", plan.UpdatePlanRequest{})
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestPlanRegistry_UpdateRevalidatesToken(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry(storage.NewMemoryStore())
	require.NoError(t, r.AddPlan(ctx, basicPlan()))

	bad := "Bad Token!"
	_, err := r.UpdatePlan(ctx, "basic", plan.UpdatePlanRequest{Token: &bad})
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}

func TestPlanRegistry_DeactivateAndList(t *testing.T) {
	ctx := context.Background()
	r := NewPlanRegistry(storage.NewMemoryStore())

	for _, id := range []string{"basic", "standard", "premium"} {
		p := basicPlan()
		p.ID = id
		require.NoError(t, r.AddPlan(ctx, p))
	}

	_, err := r.DeactivatePlan(ctx, "standard")
	require.NoError(t, err)

	active, err := r.ListActivePlans(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	// registration order preserved
	assert.Equal(t, "basic", active[0].ID)
	assert.Equal(t, "premium", active[1].ID)

	// deactivated plan still readable
	p, found, err := r.GetPlan(ctx, "standard")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, p.IsActive)

	_, err = r.DeactivatePlan(ctx, "ghost")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
