// internal/billing/settler.go
package billing

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"subpay-service/internal/domain/account"
	"subpay-service/internal/domain/plan"
	"subpay-service/internal/domain/settlement"
	"subpay-service/internal/domain/subscription"
	xerrors "subpay-service/internal/pkg/errors"
	"subpay-service/internal/storage"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Dispatcher queues an outbound transfer instruction for delivery after
// the enclosing request's state commit. Queuing is fire-and-forget from
// the settler's point of view: a dispatch failure never unwinds ledger
// state that was already committed.
type Dispatcher interface {
	Dispatch(ctx context.Context, instr settlement.TransferInstruction) error
}

// Config is validated once at construction; per-request code assumes it
// is sound.
type Config struct {
	ProviderAddress   string
	ServiceAccount    string // the account token contracts register storage for
	FeeRateBps        int64
	FTStorageDeposit  int64 // native deposit required to register with a token contract
	FTTransferDeposit int64 // native deposit attached to each token transfer call
	FTTransferGas     int64
}

func (c Config) validate() error {
	if !account.ValidateID(c.ProviderAddress) {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "invalid provider address")
	}
	if !account.ValidateID(c.ServiceAccount) {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "invalid service account")
	}
	if err := ValidateFeeRate(c.FeeRateBps); err != nil {
		return err
	}
	if c.FTStorageDeposit <= 0 || c.FTTransferDeposit <= 0 || c.FTTransferGas <= 0 {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "token-call deposits and gas must be positive")
	}
	return nil
}

// Request carries the per-call host inputs: the authenticated caller and
// the native value escrowed with the call.
type Request struct {
	Caller          string
	AttachedDeposit int64
}

// Settler is the entry point for enroll/cancel/pay. A single mutex
// serializes every mutating call, so each call runs to completion
// against a quiescent registry and ledger.
type Settler struct {
	mu         sync.Mutex
	cfg        Config
	registry   *PlanRegistry
	ledger     *SubscriptionLedger
	store      storage.Store
	clock      Clock
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewSettler(cfg Config, store storage.Store, clock Clock, dispatcher Dispatcher, logger *zap.Logger) (*Settler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Settler{
		cfg:        cfg,
		registry:   NewPlanRegistry(store),
		ledger:     NewSubscriptionLedger(store),
		store:      store,
		clock:      clock,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Registry exposes plan administration; its mutations share the
// settler's store but are provider-only and do not race subscriber
// settlement semantics.
func (s *Settler) Registry() *PlanRegistry { return s.registry }

// Enroll creates the caller's subscription against planID and settles
// the first payment. The ledger record is committed before the outbound
// transfer is queued.
func (s *Settler) Enroll(ctx context.Context, req Request, planID string) (subscription.Receipt, error) {
	if err := validateCaller(req.Caller); err != nil {
		return subscription.Receipt{}, err
	}
	if planID == "" {
		return subscription.Receipt{}, xerrors.Wrap(xerrors.ErrInvalidInput, "plan id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists, err := s.ledger.Get(ctx, req.Caller); err != nil {
		return subscription.Receipt{}, err
	} else if exists {
		return subscription.Receipt{}, fmt.Errorf("subscription for %q: %w", req.Caller, xerrors.ErrAlreadyExists)
	}

	p, err := s.requireActivePlan(ctx, planID)
	if err != nil {
		return subscription.Receipt{}, err
	}

	if err := checkDeposit(p.Token, p.Amount, req.AttachedDeposit, s.cfg.FTStorageDeposit); err != nil {
		return subscription.Receipt{}, err
	}

	providerAmount, feeAmount := SplitFee(p.Amount, s.cfg.FeeRateBps)
	now := s.clock.Now().UnixNano()

	sub, err := s.ledger.Create(ctx, req.Caller, Snapshot{
		PlanID:   p.ID,
		Duration: p.Duration,
		Amount:   p.Amount,
		Token:    p.Token,
	}, now)
	if err != nil {
		return subscription.Receipt{}, err
	}

	instrID := s.queueTransfer(ctx, req.Caller, settlement.TriggerEnroll, p.Token, providerAmount, req.AttachedDeposit, true)

	s.logger.Info("subscription enrolled",
		zap.String("account_id", req.Caller),
		zap.String("plan_id", p.ID),
		zap.Int64("amount", p.Amount),
		zap.Int64("provider_amount", providerAmount),
		zap.Int64("fee_amount", feeAmount),
	)

	return subscription.Receipt{
		Subscription:   sub,
		GrossAmount:    p.Amount,
		ProviderAmount: providerAmount,
		FeeAmount:      feeAmount,
		InstructionID:  instrID,
	}, nil
}

// Cancel deactivates the caller's subscription. No value moves and the
// payment window is left untouched; the record stays, terminally
// inactive.
func (s *Settler) Cancel(ctx context.Context, req Request) (subscription.Subscription, error) {
	if err := validateCaller(req.Caller); err != nil {
		return subscription.Subscription{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.ledger.Cancel(ctx, req.Caller)
	if err != nil {
		return subscription.Subscription{}, err
	}

	s.logger.Info("subscription canceled",
		zap.String("account_id", req.Caller),
		zap.String("plan_id", sub.PlanID),
	)
	return sub, nil
}

// Pay settles one due payment on the caller's subscription. Amount and
// duration come from the enrollment snapshot; the live plan is only
// consulted to confirm it still exists and is active.
func (s *Settler) Pay(ctx context.Context, req Request) (subscription.Receipt, error) {
	if err := validateCaller(req.Caller); err != nil {
		return subscription.Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, found, err := s.ledger.Get(ctx, req.Caller)
	if err != nil {
		return subscription.Receipt{}, err
	}
	if !found {
		return subscription.Receipt{}, fmt.Errorf("subscription for %q: %w", req.Caller, xerrors.ErrNotFound)
	}
	if !sub.IsActive() {
		return subscription.Receipt{}, xerrors.ErrNotActive
	}

	if _, err := s.requireActivePlan(ctx, sub.PlanID); err != nil {
		return subscription.Receipt{}, err
	}

	now := s.clock.Now().UnixNano()
	if now < sub.NextPayment {
		return subscription.Receipt{}, xerrors.ErrPaymentNotDue
	}

	if err := checkDeposit(sub.Token, sub.Amount, req.AttachedDeposit, s.cfg.FTTransferDeposit); err != nil {
		return subscription.Receipt{}, err
	}

	providerAmount, feeAmount := SplitFee(sub.Amount, s.cfg.FeeRateBps)

	sub, err = s.ledger.RecordPayment(ctx, req.Caller, now)
	if err != nil {
		return subscription.Receipt{}, err
	}

	instrID := s.queueTransfer(ctx, req.Caller, settlement.TriggerPay, sub.Token, providerAmount, req.AttachedDeposit, false)

	s.logger.Info("subscription payment settled",
		zap.String("account_id", req.Caller),
		zap.String("plan_id", sub.PlanID),
		zap.Int64("provider_amount", providerAmount),
		zap.Int64("fee_amount", feeAmount),
		zap.Int64("next_payment", sub.NextPayment),
	)

	return subscription.Receipt{
		Subscription:   sub,
		GrossAmount:    sub.Amount,
		ProviderAmount: providerAmount,
		FeeAmount:      feeAmount,
		InstructionID:  instrID,
	}, nil
}

// GetSubscription is a side-effect-free view over any account's record.
func (s *Settler) GetSubscription(ctx context.Context, accountID string) (subscription.Subscription, bool, error) {
	return s.ledger.Get(ctx, accountID)
}

func (s *Settler) ProviderAddress() string { return s.cfg.ProviderAddress }

func (s *Settler) FeeRate() int64 { return s.cfg.FeeRateBps }

func (s *Settler) StorageFootprint(ctx context.Context) (storage.Footprint, error) {
	return s.store.Footprint(ctx)
}

func validateCaller(caller string) error {
	if !account.ValidateID(caller) {
		return xerrors.Wrap(xerrors.ErrUnauthorized, "invalid caller account id")
	}
	return nil
}

func (s *Settler) requireActivePlan(ctx context.Context, planID string) (plan.Plan, error) {
	p, found, err := s.registry.GetPlan(ctx, planID)
	if err != nil {
		return plan.Plan{}, err
	}
	if !found {
		return plan.Plan{}, fmt.Errorf("plan %q: %w", planID, xerrors.ErrNotFound)
	}
	if !p.IsActive {
		return plan.Plan{}, xerrors.ErrPlanInactive
	}
	return p, nil
}

// checkDeposit enforces the attached-value rules: exact match for the
// native token, at least minTokenDeposit for a token-contract payment.
func checkDeposit(token string, amount, attached, minTokenDeposit int64) error {
	if plan.IsNativeToken(token) {
		if attached != amount {
			return xerrors.ErrIncorrectAmount
		}
		return nil
	}
	if attached < minTokenDeposit {
		return xerrors.ErrInsufficientDeposit
	}
	return nil
}

// queueTransfer builds and queues the provider-bound instruction. It
// runs after the ledger commit; on a queue failure the instruction is
// lost to the outbox but the ledger stays as committed, which is the
// documented at-least-once-debit trade-off.
func (s *Settler) queueTransfer(ctx context.Context, accountID string, trigger settlement.Trigger, token string, providerAmount, attached int64, register bool) string {
	instr := settlement.TransferInstruction{
		ID:        ulid.Make().String(),
		AccountID: accountID,
		Trigger:   trigger,
		Status:    settlement.StatusPending,
		CreatedAt: s.clock.Now(),
	}

	if plan.IsNativeToken(token) {
		instr.Kind = settlement.KindNativeTransfer
		instr.To = s.cfg.ProviderAddress
		instr.Amount = providerAmount
	} else {
		instr.Kind = settlement.KindTokenCall
		instr.TokenContract = token
		if register {
			// Storage registration must land before the transfer; the
			// dispatcher only runs step two after step one succeeds.
			instr.Steps = append(instr.Steps, settlement.TokenCallStep{
				Method:          "storage_deposit",
				Args:            map[string]string{"account_id": s.cfg.ServiceAccount},
				AttachedDeposit: attached,
				GasBudget:       s.cfg.FTTransferGas,
			})
		}
		instr.Steps = append(instr.Steps, settlement.TokenCallStep{
			Method: "ft_transfer_call",
			Args: map[string]string{
				"receiver_id": s.cfg.ProviderAddress,
				"amount":      strconv.FormatInt(providerAmount, 10),
				"msg":         "",
			},
			AttachedDeposit: s.cfg.FTTransferDeposit,
			GasBudget:       s.cfg.FTTransferGas,
		})
	}

	if err := s.dispatcher.Dispatch(ctx, instr); err != nil {
		s.logger.Warn("failed to queue settlement transfer",
			zap.String("instruction_id", instr.ID),
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return ""
	}
	return instr.ID
}
