// internal/service/billing/billing_service.go
package billing

import (
	"context"
	"fmt"
	"time"

	core "subpay-service/internal/billing"
	"subpay-service/internal/domain/settlement"
	"subpay-service/internal/domain/subscription"
	xerrors "subpay-service/internal/pkg/errors"
	"subpay-service/internal/storage"

	"go.uber.org/zap"
)

// Broadcaster publishes settlement events to connected provider
// dashboards. The websocket hub implements it.
type Broadcaster interface {
	Broadcast(v interface{})
}

type BillingService struct {
	settler *core.Settler
	hub     Broadcaster
	logger  *zap.Logger
}

func NewBillingService(settler *core.Settler, hub Broadcaster, logger *zap.Logger) *BillingService {
	return &BillingService{
		settler: settler,
		hub:     hub,
		logger:  logger,
	}
}

// Enroll subscribes the caller to a plan and settles the first payment.
func (s *BillingService) Enroll(ctx context.Context, caller string, req *subscription.EnrollRequest) (subscription.Receipt, error) {
	receipt, err := s.settler.Enroll(ctx, core.Request{
		Caller:          caller,
		AttachedDeposit: req.AttachedDeposit,
	}, req.PlanID)
	if err != nil {
		return subscription.Receipt{}, err
	}

	s.logger.Info("subscription enrolled",
		zap.String("account_id", caller),
		zap.String("plan_id", req.PlanID),
		zap.Int64("gross", receipt.GrossAmount),
		zap.Int64("fee", receipt.FeeAmount),
	)
	s.publish("enrolled", receipt)
	return receipt, nil
}

// Pay settles the next due payment of the caller's subscription.
func (s *BillingService) Pay(ctx context.Context, caller string, req *subscription.PayRequest) (subscription.Receipt, error) {
	receipt, err := s.settler.Pay(ctx, core.Request{
		Caller:          caller,
		AttachedDeposit: req.AttachedDeposit,
	})
	if err != nil {
		return subscription.Receipt{}, err
	}

	s.logger.Info("subscription payment settled",
		zap.String("account_id", caller),
		zap.String("plan_id", receipt.Subscription.PlanID),
		zap.Int64("gross", receipt.GrossAmount),
		zap.Int64("fee", receipt.FeeAmount),
	)
	s.publish("payment", receipt)
	return receipt, nil
}

// Cancel deactivates the caller's subscription. The record stays in the
// ledger so the account cannot re-enroll.
func (s *BillingService) Cancel(ctx context.Context, caller string) (subscription.Subscription, error) {
	sub, err := s.settler.Cancel(ctx, core.Request{Caller: caller})
	if err != nil {
		return subscription.Subscription{}, err
	}

	s.logger.Info("subscription canceled",
		zap.String("account_id", caller),
		zap.String("plan_id", sub.PlanID),
	)
	if s.hub != nil {
		s.hub.Broadcast(settlement.Event{
			Type:      "canceled",
			AccountID: sub.AccountID,
			PlanID:    sub.PlanID,
			At:        time.Now().UTC(),
		})
	}
	return sub, nil
}

// GetSubscription returns the ledger record of one account.
func (s *BillingService) GetSubscription(ctx context.Context, accountID string) (subscription.Subscription, error) {
	sub, found, err := s.settler.GetSubscription(ctx, accountID)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if !found {
		return subscription.Subscription{}, fmt.Errorf("subscription for %q: %w", accountID, xerrors.ErrNotFound)
	}
	return sub, nil
}

func (s *BillingService) ProviderAddress() string { return s.settler.ProviderAddress() }

func (s *BillingService) FeeRate() int64 { return s.settler.FeeRate() }

func (s *BillingService) StorageFootprint(ctx context.Context) (storage.Footprint, error) {
	return s.settler.StorageFootprint(ctx)
}

func (s *BillingService) publish(eventType string, receipt subscription.Receipt) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(settlement.Event{
		Type:           eventType,
		AccountID:      receipt.Subscription.AccountID,
		PlanID:         receipt.Subscription.PlanID,
		Token:          receipt.Subscription.Token,
		GrossAmount:    receipt.GrossAmount,
		ProviderAmount: receipt.ProviderAmount,
		FeeAmount:      receipt.FeeAmount,
		InstructionID:  receipt.InstructionID,
		At:             time.Now().UTC(),
	})
}
