package billing

import (
	"context"
	"testing"

	"subpay-service/internal/domain/subscription"
	xerrors "subpay-service/internal/pkg/errors"
	"subpay-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSnapshot = Snapshot{
	PlanID:   "basic",
	Duration: 2_592_000_000_000_000,
	Amount:   1_000_000,
	Token:    "native",
}

func TestLedger_Create(t *testing.T) {
	ctx := context.Background()
	l := NewSubscriptionLedger(storage.NewMemoryStore())

	sub, err := l.Create(ctx, "alice.testnet", testSnapshot, 1000)
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Equal(t, int64(1000), sub.LastPayment)
	assert.Equal(t, int64(2_592_000_000_001_000), sub.NextPayment)
	assert.Equal(t, sub.Duration, sub.NextPayment-sub.LastPayment)

	_, err = l.Create(ctx, "alice.testnet", testSnapshot, 2000)
	assert.ErrorIs(t, err, xerrors.ErrAlreadyExists)
}

func TestLedger_RecordPayment(t *testing.T) {
	ctx := context.Background()
	l := NewSubscriptionLedger(storage.NewMemoryStore())

	sub, err := l.Create(ctx, "alice.testnet", testSnapshot, 1000)
	require.NoError(t, err)

	// before the due date, including one nanosecond short
	_, err = l.RecordPayment(ctx, "alice.testnet", sub.NextPayment-1)
	assert.ErrorIs(t, err, xerrors.ErrPaymentNotDue)

	unchanged, found, err := l.Get(ctx, "alice.testnet")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sub.LastPayment, unchanged.LastPayment)
	assert.Equal(t, sub.NextPayment, unchanged.NextPayment)

	// the boundary is inclusive
	paid, err := l.RecordPayment(ctx, "alice.testnet", sub.NextPayment)
	require.NoError(t, err)
	assert.Equal(t, sub.NextPayment, paid.LastPayment)
	assert.Equal(t, paid.LastPayment+paid.Duration, paid.NextPayment)
	assert.Equal(t, subscription.StatusActive, paid.Status)

	_, err = l.RecordPayment(ctx, "ghost.testnet", 0)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestLedger_Cancel(t *testing.T) {
	ctx := context.Background()
	l := NewSubscriptionLedger(storage.NewMemoryStore())

	sub, err := l.Create(ctx, "alice.testnet", testSnapshot, 1000)
	require.NoError(t, err)

	canceled, err := l.Cancel(ctx, "alice.testnet")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusInactive, canceled.Status)
	// cancel freezes the payment window
	assert.Equal(t, sub.LastPayment, canceled.LastPayment)
	assert.Equal(t, sub.NextPayment, canceled.NextPayment)

	// terminal: neither cancel nor pay works afterwards
	_, err = l.Cancel(ctx, "alice.testnet")
	assert.ErrorIs(t, err, xerrors.ErrNotActive)

	_, err = l.RecordPayment(ctx, "alice.testnet", sub.NextPayment+1)
	assert.ErrorIs(t, err, xerrors.ErrNotActive)

	_, err = l.Cancel(ctx, "ghost.testnet")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

// Lookups hand out copies: mutating a returned record must not leak
// into the stored state.
func TestLedger_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	l := NewSubscriptionLedger(storage.NewMemoryStore())

	_, err := l.Create(ctx, "alice.testnet", testSnapshot, 1000)
	require.NoError(t, err)

	sub, _, err := l.Get(ctx, "alice.testnet")
	require.NoError(t, err)
	sub.Status = subscription.StatusInactive
	sub.NextPayment = 0

	stored, _, err := l.Get(ctx, "alice.testnet")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, stored.Status)
	assert.Equal(t, int64(2_592_000_000_001_000), stored.NextPayment)
}
