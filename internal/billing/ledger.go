// internal/billing/ledger.go
package billing

import (
	"context"
	"fmt"

	"subpay-service/internal/domain/subscription"
	xerrors "subpay-service/internal/pkg/errors"
	"subpay-service/internal/storage"
)

// Snapshot is the slice of a plan frozen into a subscription at
// enrollment time.
type Snapshot struct {
	PlanID   string
	Duration int64
	Amount   int64
	Token    string
}

// SubscriptionLedger keeps one subscription record per account. Lookups
// return value copies; every mutation replaces the stored record whole,
// so a fetched record never aliases ledger state.
type SubscriptionLedger struct {
	store storage.Store
}

func NewSubscriptionLedger(store storage.Store) *SubscriptionLedger {
	return &SubscriptionLedger{store: store}
}

func (l *SubscriptionLedger) Create(ctx context.Context, accountID string, snap Snapshot, now int64) (subscription.Subscription, error) {
	_, exists, err := l.store.Get(ctx, storage.MapSubscriptions, accountID)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if exists {
		return subscription.Subscription{}, fmt.Errorf("subscription for %q: %w", accountID, xerrors.ErrAlreadyExists)
	}

	sub := subscription.Subscription{
		AccountID:   accountID,
		PlanID:      snap.PlanID,
		Duration:    snap.Duration,
		Amount:      snap.Amount,
		Token:       snap.Token,
		LastPayment: now,
		NextPayment: now + snap.Duration,
		Status:      subscription.StatusActive,
	}
	if err := l.put(ctx, sub); err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (l *SubscriptionLedger) Get(ctx context.Context, accountID string) (subscription.Subscription, bool, error) {
	raw, found, err := l.store.Get(ctx, storage.MapSubscriptions, accountID)
	if err != nil || !found {
		return subscription.Subscription{}, false, err
	}

	var sub subscription.Subscription
	if err := decodeRecord(raw, &sub); err != nil {
		return subscription.Subscription{}, false, err
	}
	return sub, true, nil
}

// RecordPayment advances the due window by the snapshot duration. The
// live plan's terms are never consulted here.
func (l *SubscriptionLedger) RecordPayment(ctx context.Context, accountID string, now int64) (subscription.Subscription, error) {
	sub, err := l.requireActive(ctx, accountID)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if now < sub.NextPayment {
		return subscription.Subscription{}, xerrors.ErrPaymentNotDue
	}

	sub.LastPayment = now
	sub.NextPayment = now + sub.Duration
	if err := l.put(ctx, sub); err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}

// Cancel moves the record to Inactive and freezes it there. The payment
// timestamps are left untouched.
func (l *SubscriptionLedger) Cancel(ctx context.Context, accountID string) (subscription.Subscription, error) {
	sub, err := l.requireActive(ctx, accountID)
	if err != nil {
		return subscription.Subscription{}, err
	}

	sub.Status = subscription.StatusInactive
	if err := l.put(ctx, sub); err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (l *SubscriptionLedger) requireActive(ctx context.Context, accountID string) (subscription.Subscription, error) {
	sub, found, err := l.Get(ctx, accountID)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if !found {
		return subscription.Subscription{}, fmt.Errorf("subscription for %q: %w", accountID, xerrors.ErrNotFound)
	}
	if !sub.IsActive() {
		return subscription.Subscription{}, xerrors.ErrNotActive
	}
	return sub, nil
}

func (l *SubscriptionLedger) put(ctx context.Context, sub subscription.Subscription) error {
	raw, err := encodeRecord(sub)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, storage.MapSubscriptions, sub.AccountID, raw)
}
